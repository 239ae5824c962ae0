package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/fakestream/internal/protocol"
	"github.com/roach88/fakestream/internal/stream"
)

// Run describes one recorded generation run.
type Run struct {
	ID           string        `json:"id"`
	Stream       string        `json:"stream"`
	Kind         string        `json:"kind"`
	BaseSequence int64         `json:"base_sequence"`
	Config       stream.Config `json:"config"`
	CreatedAt    time.Time     `json:"created_at"`
}

// ErrRunExists is returned by WriteRun when the run id is already recorded.
var ErrRunExists = errors.New("run already exists")

// WriteRun inserts a run record into the store. A run id can be recorded
// once; a second WriteRun with the same id returns ErrRunExists and leaves
// the stored run untouched.
//
// The stored config pins the seed and base sequence so the run can be
// regenerated exactly.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("write run: id is required")
	}

	configJSON, err := json.Marshal(run.Config)
	if err != nil {
		return fmt.Errorf("write run: marshal config: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, stream, kind, base_sequence, config, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Stream,
		run.Kind,
		run.BaseSequence,
		string(configJSON),
		run.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("write run: %w: %s", ErrRunExists, run.ID)
	}
	return nil
}

// WriteMessage appends one encoded line of a run at a 1-based position.
// Uses ON CONFLICT DO NOTHING, so rewriting a position is silently ignored.
//
// Note: The run referenced by runID must exist (foreign key constraint).
func (s *Store) WriteMessage(ctx context.Context, runID string, position int, msg protocol.Message, line []byte) error {
	if position < 1 {
		return fmt.Errorf("write message: position must be >= 1, got %d", position)
	}

	var recordID, sequence sql.NullInt64
	if msg.Type == protocol.TypeRecord {
		if id, ok := msg.ID(); ok {
			recordID = sql.NullInt64{Int64: id, Valid: true}
		}
		sequence = sql.NullInt64{Int64: msg.Sequence, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (run_id, position, type, stream, record_id, sequence, duplicate, line)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		runID,
		position,
		string(msg.Type),
		msg.Stream,
		recordID,
		sequence,
		msg.Duplicate,
		string(line),
	)
	if err != nil {
		return fmt.Errorf("write message %d: %w", position, err)
	}
	return nil
}
