package harness

import (
	"github.com/roach88/fakestream/internal/protocol"
	"github.com/roach88/fakestream/internal/stream"
)

// TraceEvent is one emitted message as a consumer saw it.
//
// Fields other than Duplicate and Corruptions are read back from the
// encoded wire line, so the trace also checks the codec round trip.
type TraceEvent struct {
	Type     protocol.Type   `json:"type"`
	Stream   string          `json:"stream"`
	Sequence int64           `json:"sequence,omitempty"`
	Version  *int64          `json:"version,omitempty"`
	Record   protocol.Record `json:"record,omitempty"`

	// ID is the record's "id", when it has an integral one.
	ID *int64 `json:"id,omitempty"`

	// Duplicate marks a re-emitted record. Not present on the wire.
	Duplicate bool `json:"duplicate,omitempty"`

	// Corruptions lists schema violations found in the record.
	Corruptions []stream.Corruption `json:"-"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace contains every message in emission order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	Errors []string `json:"errors,omitempty"`

	// Config is the run configuration the stream was built from.
	Config stream.Config `json:"config"`

	// Spec is the resolved spec, defaults applied.
	Spec stream.Spec `json:"-"`

	// Valid is false for generator kinds that corrupt records.
	Valid bool `json:"valid"`

	Base              int64 `json:"base"`
	DuplicateSequence int64 `json:"duplicate_sequence"`

	// State is the stream state after exhaustion.
	State stream.State `json:"-"`

	// PostExhaustion counts messages produced by pulls after the stream
	// first reported exhaustion. Always zero for a correct stream.
	PostExhaustion int `json:"post_exhaustion"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddMessage appends a trace event for msg. wire is the decoded form of
// the line that was emitted for msg.
func (r *Result) AddMessage(msg, wire protocol.Message) {
	event := TraceEvent{
		Type:      wire.Type,
		Stream:    wire.Stream,
		Sequence:  wire.Sequence,
		Version:   wire.Version,
		Record:    wire.Record,
		Duplicate: msg.Duplicate,
	}
	if wire.Type == protocol.TypeRecord {
		if id, ok := wire.ID(); ok {
			event.ID = &id
		}
		event.Corruptions = stream.Classify(wire.Record)
	}
	r.Trace = append(r.Trace, event)
}

// Records returns the RECORD events. fresh selects non-duplicates,
// otherwise duplicates are returned.
func (r *Result) Records(fresh bool) []TraceEvent {
	var out []TraceEvent
	for _, e := range r.Trace {
		if e.Type == protocol.TypeRecord && e.Duplicate != fresh {
			out = append(out, e)
		}
	}
	return out
}
