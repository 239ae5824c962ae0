package stream

import (
	"iter"
	"log/slog"
	"time"

	"github.com/roach88/fakestream/internal/chance"
	"github.com/roach88/fakestream/internal/protocol"
)

// Stream is the pull-based message generator for one run.
type Stream struct {
	spec   Spec
	gen    RecordGenerator
	src    chance.Source
	seq    *Sequencer
	state  State
	logger *slog.Logger
}

type options struct {
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Stream.
type Option func(*options)

// WithClock sets the clock used to derive the base sequence when the spec
// leaves it unset.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger for debug events. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New validates spec and creates a Stream in the NotStarted phase.
// Unset tunables in spec receive their defaults.
func New(spec Spec, gen RecordGenerator, src chance.Source, opts ...Option) (*Stream, error) {
	o := options{now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	spec = spec.WithDefaults()
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if gen == nil {
		return nil, &ConfigError{Field: "generator", Message: "is required"}
	}
	if src == nil {
		return nil, &ConfigError{Field: "source", Message: "is required"}
	}

	base := spec.Sequence
	if base == 0 {
		base = o.now().Unix()
	}

	return &Stream{
		spec:   spec,
		gen:    gen,
		src:    src,
		seq:    NewSequencer(base),
		logger: o.logger.With("stream", spec.Stream),
	}, nil
}

// Next produces the next message. It returns false once the stream is
// exhausted, and keeps returning false without side effects afterwards.
func (s *Stream) Next() (protocol.Message, bool) {
	st := &s.state

	if st.Exhausted {
		return protocol.Message{}, false
	}

	if !st.SchemaWritten {
		st.SchemaWritten = true
		return s.emitSchema(), true
	}

	if s.seq.Peek() <= int64(s.spec.N) {
		if msg, ok := s.maybeDuplicate(false); ok {
			return msg, true
		}
		return s.emitRecord(s.newRecord(), false), true
	}

	// All fresh records are out: one forced attempt drains the quota.
	if !st.ForcedDuplicateAttempted {
		st.ForcedDuplicateAttempted = true
		if msg, ok := s.maybeDuplicate(true); ok {
			return msg, true
		}
	}

	if s.spec.Version != nil && !st.ActivateVersionWritten {
		st.ActivateVersionWritten = true
		return protocol.NewActivateVersion(s.spec.Stream, *s.spec.Version), true
	}

	st.Exhausted = true
	s.logger.Debug("stream exhausted",
		"records", len(st.Records),
		"duplicates", st.DuplicatesWritten,
		"record_messages", st.RecordMessages)
	return protocol.Message{}, false
}

// NextLine is Next followed by protocol.MarshalLine.
func (s *Stream) NextLine() (protocol.Message, []byte, bool, error) {
	msg, ok := s.Next()
	if !ok {
		return msg, nil, false, nil
	}
	line, err := protocol.MarshalLine(msg)
	if err != nil {
		return msg, nil, true, err
	}
	return msg, line, true, nil
}

// Messages drains the stream as a range-over-func sequence.
func (s *Stream) Messages() iter.Seq[protocol.Message] {
	return func(yield func(protocol.Message) bool) {
		for {
			msg, ok := s.Next()
			if !ok || !yield(msg) {
				return
			}
		}
	}
}

// Spec returns the effective spec, defaults applied.
func (s *Stream) Spec() Spec {
	return s.spec
}

// State returns a snapshot of the generator state.
func (s *Stream) State() State {
	return s.state.clone()
}

// Phase reports the lifecycle phase.
func (s *Stream) Phase() Phase {
	return s.state.phase()
}

// BaseSequence is the sequence of every fresh record message.
func (s *Stream) BaseSequence() int64 {
	return s.seq.Base()
}

// DuplicateSequence is the sequence of every duplicate record message.
func (s *Stream) DuplicateSequence() int64 {
	return s.seq.Shifted(s.spec.DuplicateSequenceDelta)
}

func (s *Stream) newRecord() protocol.Record {
	rec := s.gen.Produce(s.src)
	rec["id"] = s.seq.NextID()
	return rec
}
