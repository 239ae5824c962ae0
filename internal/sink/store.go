package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/fakestream/internal/protocol"
	"github.com/roach88/fakestream/internal/store"
)

// StoreSink records every line of a run into a SQLite run log.
type StoreSink struct {
	st    *store.Store
	runID string
	pos   int
}

// NewStoreSink opens (or creates) the run log at path and registers run.
// Close closes the log.
func NewStoreSink(ctx context.Context, path string, run store.Run) (*StoreSink, error) {
	if run.ID == "" {
		return nil, errors.New("store sink: run id is required")
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("store sink: %w", err)
	}
	if err := st.WriteRun(ctx, run); err != nil {
		st.Close()
		return nil, fmt.Errorf("store sink: %w", err)
	}
	return &StoreSink{st: st, runID: run.ID}, nil
}

func (s *StoreSink) Write(ctx context.Context, msg protocol.Message, line []byte) error {
	s.pos++
	return s.st.WriteMessage(ctx, s.runID, s.pos, msg, line)
}

func (s *StoreSink) Close() error {
	return s.st.Close()
}

// Tee fans every line out to several sinks in order. The first write error
// stops the fan-out.
type Tee []Sink

func (t Tee) Write(ctx context.Context, msg protocol.Message, line []byte) error {
	for _, s := range t {
		if err := s.Write(ctx, msg, line); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and joins their errors.
func (t Tee) Close() error {
	var errs []error
	for _, s := range t {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
