package sink

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fakestream/internal/protocol"
	"github.com/roach88/fakestream/internal/store"
	"github.com/roach88/fakestream/internal/stream"
)

func TestStoreSink_RecordsRun(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")
	run := store.Run{
		ID:           "run-1",
		Stream:       "cats",
		Kind:         stream.DefaultKind,
		BaseSequence: 1000,
		CreatedAt:    time.Unix(1_700_000_000, 0),
	}

	s, err := NewStoreSink(ctx, path, run)
	require.NoError(t, err)

	stats, err := Drain(ctx, &sliceIterator{msgs: sampleMessages()}, s)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.Equal(t, 5, stats.Messages)

	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	msgs, err := st.ReadMessages(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, msgs, 5)
	assert.True(t, msgs[3].Message.Duplicate)
	assert.False(t, msgs[1].Message.Duplicate)

	ids, err := st.DuplicatedIDs(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
}

func TestStoreSink_RequiresRunID(t *testing.T) {
	_, err := NewStoreSink(context.Background(), filepath.Join(t.TempDir(), "runs.db"), store.Run{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run id is required")
}

func TestStoreSink_RejectsReusedRunID(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")
	run := store.Run{ID: "r1", Stream: "cats", Kind: stream.DefaultKind}

	first, err := NewStoreSink(ctx, path, run)
	require.NoError(t, err)
	schemaMsg := sampleMessages()[0]
	line, err := protocol.MarshalLine(schemaMsg)
	require.NoError(t, err)
	require.NoError(t, first.Write(ctx, schemaMsg, line))
	require.NoError(t, first.Close())

	_, err = NewStoreSink(ctx, path, run)
	require.ErrorIs(t, err, store.ErrRunExists)
	assert.Contains(t, err.Error(), "store sink")

	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()
	got, err := st.ReadMessages(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, string(line), string(got[0].Line))
}

func TestStoreSink_BadPath(t *testing.T) {
	_, err := NewStoreSink(context.Background(), filepath.Join(t.TempDir(), "no", "such", "runs.db"), store.Run{ID: "r"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store sink")
}

func TestTee(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{}

	stats, err := Drain(context.Background(), &sliceIterator{msgs: sampleMessages()}, Tee{a, b})
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Messages)
	assert.Equal(t, a.lines, b.lines)
	assert.Len(t, a.lines, 5)

	require.NoError(t, Tee{a, b}.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestTee_StopsOnFirstError(t *testing.T) {
	a := &recordingSink{failAt: 2}
	b := &recordingSink{}

	_, err := Drain(context.Background(), &sliceIterator{msgs: sampleMessages()}, Tee{a, b})
	require.ErrorIs(t, err, errSinkFull)
	assert.Len(t, a.lines, 1)
	assert.Len(t, b.lines, 1)
}

type failingCloser struct{ recordingSink }

func (f *failingCloser) Close() error { return errors.New("close failed") }

func TestTee_CloseJoinsErrors(t *testing.T) {
	a := &failingCloser{}
	b := &recordingSink{}

	err := Tee{a, b}.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close failed")
	assert.True(t, b.closed)
}
