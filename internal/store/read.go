package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/fakestream/internal/protocol"
)

// ErrRunNotFound is returned when a run id is not in the store.
var ErrRunNotFound = errors.New("run not found")

// StoredMessage is one recorded line with its decoded message.
type StoredMessage struct {
	Position int
	Message  protocol.Message
	Line     []byte
}

type runRow struct {
	ID           string `db:"id"`
	Stream       string `db:"stream"`
	Kind         string `db:"kind"`
	BaseSequence int64  `db:"base_sequence"`
	Config       string `db:"config"`
	CreatedAt    int64  `db:"created_at"`
}

func (r runRow) run() (Run, error) {
	run := Run{
		ID:           r.ID,
		Stream:       r.Stream,
		Kind:         r.Kind,
		BaseSequence: r.BaseSequence,
		CreatedAt:    time.Unix(r.CreatedAt, 0).UTC(),
	}
	if err := json.Unmarshal([]byte(r.Config), &run.Config); err != nil {
		return Run{}, fmt.Errorf("decode config of run %s: %w", r.ID, err)
	}
	return run, nil
}

type messageRow struct {
	Position  int    `db:"position"`
	Duplicate bool   `db:"duplicate"`
	Line      string `db:"line"`
}

// ReadRun returns a single run. Missing runs yield ErrRunNotFound.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	var row runRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, stream, kind, base_sequence, config, created_at
		FROM runs
		WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("query run: %w", err)
	}
	return row.run()
}

// ListRuns returns all runs ordered by creation time, then id.
// Returns an empty slice (not nil) if the store holds no runs.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	var rows []runRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, stream, kind, base_sequence, config, created_at
		FROM runs
		ORDER BY created_at ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	runs := make([]Run, 0, len(rows))
	for _, row := range rows {
		run, err := row.run()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// ReadMessages returns the lines of a run ordered by position. Duplicate
// flags are restored from the log since they never appear on the wire.
func (s *Store) ReadMessages(ctx context.Context, runID string) ([]StoredMessage, error) {
	var rows []messageRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT position, duplicate, line
		FROM messages
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}

	msgs := make([]StoredMessage, 0, len(rows))
	for _, row := range rows {
		line := []byte(row.Line)
		msg, err := protocol.ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("message %d of run %s: %w", row.Position, runID, err)
		}
		msg.Duplicate = row.Duplicate
		msgs = append(msgs, StoredMessage{Position: row.Position, Message: msg, Line: line})
	}
	return msgs, nil
}

// DuplicatedIDs returns the record ids that were re-emitted in a run,
// in order of first duplication.
func (s *Store) DuplicatedIDs(ctx context.Context, runID string) ([]int64, error) {
	ids := []int64{}
	err := s.db.SelectContext(ctx, &ids, `
		SELECT record_id
		FROM messages
		WHERE run_id = ? AND duplicate = 1 AND record_id IS NOT NULL
		GROUP BY record_id
		ORDER BY MIN(position) ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query duplicates: %w", err)
	}
	return ids, nil
}
