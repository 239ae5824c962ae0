package store

import (
	"bytes"
	"context"
	"fmt"

	"github.com/roach88/fakestream/internal/protocol"
)

// Replayer re-emits a recorded run line by line. It has the same NextLine
// shape as a live stream, so recorded runs drain into any sink.
type Replayer struct {
	msgs []StoredMessage
	pos  int
}

// NewReplayer loads every message of runID.
func (s *Store) NewReplayer(ctx context.Context, runID string) (*Replayer, error) {
	if _, err := s.ReadRun(ctx, runID); err != nil {
		return nil, err
	}
	msgs, err := s.ReadMessages(ctx, runID)
	if err != nil {
		return nil, err
	}
	return &Replayer{msgs: msgs}, nil
}

// NextLine returns the next recorded message and its original line.
// ok is false once every message has been returned.
func (r *Replayer) NextLine() (protocol.Message, []byte, bool, error) {
	if r.pos >= len(r.msgs) {
		return protocol.Message{}, nil, false, nil
	}
	m := r.msgs[r.pos]
	r.pos++
	return m.Message, m.Line, true, nil
}

// Len returns the number of recorded messages.
func (r *Replayer) Len() int {
	return len(r.msgs)
}

// LineIterator is anything that yields encoded lines in order; both a live
// stream and a Replayer qualify.
type LineIterator interface {
	NextLine() (protocol.Message, []byte, bool, error)
}

// Divergence describes the first position where two runs differ.
type Divergence struct {
	Position int    `json:"position"`
	Recorded string `json:"recorded"`
	Replayed string `json:"replayed"`
}

func (d *Divergence) String() string {
	return fmt.Sprintf("position %d:\n  recorded: %s\n  replayed: %s", d.Position, d.Recorded, d.Replayed)
}

// Compare walks both iterators in lockstep and returns the first
// divergence, or nil when they emit identical lines and duplicate flags.
// A missing line on one side is reported as "<end of stream>".
func Compare(recorded, replayed LineIterator) (*Divergence, error) {
	const eos = "<end of stream>"

	for pos := 1; ; pos++ {
		rm, rl, rok, err := recorded.NextLine()
		if err != nil {
			return nil, fmt.Errorf("recorded message %d: %w", pos, err)
		}
		pm, pl, pok, err := replayed.NextLine()
		if err != nil {
			return nil, fmt.Errorf("replayed message %d: %w", pos, err)
		}

		switch {
		case !rok && !pok:
			return nil, nil
		case !rok:
			return &Divergence{Position: pos, Recorded: eos, Replayed: string(pl)}, nil
		case !pok:
			return &Divergence{Position: pos, Recorded: string(rl), Replayed: eos}, nil
		case !bytes.Equal(rl, pl) || rm.Duplicate != pm.Duplicate:
			return &Divergence{Position: pos, Recorded: describe(rm, rl), Replayed: describe(pm, pl)}, nil
		}
	}
}

func describe(m protocol.Message, line []byte) string {
	if m.Duplicate {
		return string(line) + " (duplicate)"
	}
	return string(line)
}
