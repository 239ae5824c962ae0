package sink

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrain_DeliversInOrderAndCounts(t *testing.T) {
	it := &sliceIterator{msgs: sampleMessages()}
	rec := &recordingSink{}

	stats, err := Drain(context.Background(), it, rec)
	require.NoError(t, err)

	assert.Equal(t, Stats{
		Messages:         5,
		Schemas:          1,
		Records:          3,
		Duplicates:       1,
		ActivateVersions: 1,
	}, stats)

	require.Len(t, rec.lines, 5)
	assert.True(t, strings.HasPrefix(rec.lines[0], `{"key_properties":["id"]`))
	assert.Contains(t, rec.lines[4], `"type":"ACTIVATE_VERSION"`)
	assert.False(t, rec.closed, "Drain must not close the sink")
}

func TestDrain_ToLineSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewLineSink(&buf)

	_, err := Drain(context.Background(), &sliceIterator{msgs: sampleMessages()}, s)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 5)
}

func TestDrain_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	it := &sliceIterator{msgs: sampleMessages()}
	rec := &recordingSink{}

	stats, err := Drain(ctx, it, rec)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stats.Messages)
	assert.Zero(t, it.pos, "no message pulled after cancellation")
}

func TestDrain_SinkErrorStops(t *testing.T) {
	it := &sliceIterator{msgs: sampleMessages()}
	rec := &recordingSink{failAt: 3}

	stats, err := Drain(context.Background(), it, rec)
	require.ErrorIs(t, err, errSinkFull)
	assert.Contains(t, err.Error(), "deliver message 3")
	assert.Equal(t, 2, stats.Messages)
	assert.Len(t, rec.lines, 2)
}
