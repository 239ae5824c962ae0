package stream

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/fakestream/internal/chance"
	"github.com/roach88/fakestream/internal/protocol"
	"github.com/roach88/fakestream/internal/schema"
)

func int64Ptr(v int64) *int64 { return &v }

func intPtr(v int) *int { return &v }

// catsSpec returns a cats spec with a fixed base sequence.
func catsSpec(n int) Spec {
	def := schema.Cats()
	return Spec{
		Stream:        def.Name,
		Schema:        def.Schema,
		KeyProperties: def.KeyProperties,
		N:             n,
		Sequence:      1000,
	}
}

func newTestStream(t *testing.T, spec Spec, gen RecordGenerator, src chance.Source) *Stream {
	t.Helper()
	s, err := New(spec, gen, src)
	require.NoError(t, err)
	return s
}

// drain pulls until exhaustion, failing the test if the stream never ends.
func drain(t *testing.T, s *Stream) []protocol.Message {
	t.Helper()
	var out []protocol.Message
	for i := 0; i < 100000; i++ {
		msg, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, msg)
	}
	t.Fatal("stream did not terminate")
	return nil
}

func trues(n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = true
	}
	return out
}

func recordID(t *testing.T, msg protocol.Message) int64 {
	t.Helper()
	id, ok := msg.ID()
	require.True(t, ok, "message %s has no integer id", msg)
	return id
}

func newFakerForTest() chance.Source {
	return chance.NewFaker(1)
}
