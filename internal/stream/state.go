package stream

import "github.com/roach88/fakestream/internal/protocol"

// Phase is the coarse position of a Stream in its lifecycle.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseSchemaEmitted
	PhaseGenerating
	PhaseExhausted
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseSchemaEmitted:
		return "schema_emitted"
	case PhaseGenerating:
		return "generating"
	case PhaseExhausted:
		return "exhausted"
	}
	return "unknown"
}

// State is the mutable bookkeeping of one run.
type State struct {
	// Records is the append-only log of fresh records, in emission order.
	Records []protocol.Record

	// DuplicatesWritten counts duplicate record messages.
	DuplicatesWritten int

	// DuplicateKeys holds the primary key values of each duplicated
	// record, in injection order. Each entry has one value per key property.
	DuplicateKeys [][]any

	// RecordMessages counts fresh and duplicate record messages.
	RecordMessages int

	SchemaWritten            bool
	ForcedDuplicateAttempted bool
	ActivateVersionWritten   bool
	Exhausted                bool
}

// clone copies the slices so callers cannot reach into live state.
// Records themselves are shared.
func (s State) clone() State {
	out := s
	out.Records = append([]protocol.Record(nil), s.Records...)
	out.DuplicateKeys = make([][]any, len(s.DuplicateKeys))
	for i, k := range s.DuplicateKeys {
		out.DuplicateKeys[i] = append([]any(nil), k...)
	}
	return out
}

func (s State) phase() Phase {
	switch {
	case s.Exhausted:
		return PhaseExhausted
	case !s.SchemaWritten:
		return PhaseNotStarted
	case s.RecordMessages == 0 && !s.ActivateVersionWritten:
		return PhaseSchemaEmitted
	}
	return PhaseGenerating
}
