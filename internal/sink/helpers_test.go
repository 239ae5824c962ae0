package sink

import (
	"context"
	"errors"

	"github.com/segmentio/kafka-go"

	"github.com/roach88/fakestream/internal/protocol"
)

func int64Ptr(v int64) *int64 { return &v }

// sliceIterator replays fixed messages, encoding each with MarshalLine.
type sliceIterator struct {
	msgs []protocol.Message
	pos  int
}

func (it *sliceIterator) NextLine() (protocol.Message, []byte, bool, error) {
	if it.pos >= len(it.msgs) {
		return protocol.Message{}, nil, false, nil
	}
	msg := it.msgs[it.pos]
	it.pos++
	line, err := protocol.MarshalLine(msg)
	return msg, line, true, err
}

func sampleMessages() []protocol.Message {
	v := int64Ptr(7)
	dup := protocol.NewRecord("cats", protocol.Record{"id": int64(1), "name": "Tom"}, 1200, v)
	dup.Duplicate = true
	return []protocol.Message{
		protocol.NewSchema("cats", map[string]any{"type": "object"}, []string{"id"}),
		protocol.NewRecord("cats", protocol.Record{"id": int64(1), "name": "Tom"}, 1000, v),
		protocol.NewRecord("cats", protocol.Record{"id": int64(2), "name": "Kit"}, 1001, v),
		dup,
		protocol.NewActivateVersion("cats", 7),
	}
}

// recordingSink keeps every line it receives.
type recordingSink struct {
	lines  []string
	failAt int
	closed bool
}

var errSinkFull = errors.New("sink full")

func (s *recordingSink) Write(_ context.Context, _ protocol.Message, line []byte) error {
	if s.failAt > 0 && len(s.lines)+1 == s.failAt {
		return errSinkFull
	}
	s.lines = append(s.lines, string(line))
	return nil
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

// fakeKafkaWriter captures batches instead of talking to a broker.
type fakeKafkaWriter struct {
	batches [][]kafka.Message
	err     error
	closed  bool
}

func (w *fakeKafkaWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	batch := make([]kafka.Message, len(msgs))
	copy(batch, msgs)
	w.batches = append(w.batches, batch)
	return nil
}

func (w *fakeKafkaWriter) Close() error {
	w.closed = true
	return nil
}

func (w *fakeKafkaWriter) all() []kafka.Message {
	var out []kafka.Message
	for _, b := range w.batches {
		out = append(out, b...)
	}
	return out
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
