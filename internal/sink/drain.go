package sink

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/fakestream/internal/protocol"
)

// Iterator is the pull side of a stream.
type Iterator interface {
	NextLine() (protocol.Message, []byte, bool, error)
}

// Stats counts what Drain delivered.
type Stats struct {
	Messages         int `json:"messages"`
	Schemas          int `json:"schemas"`
	Records          int `json:"records"`
	Duplicates       int `json:"duplicates"`
	ActivateVersions int `json:"activate_versions"`
}

func (s *Stats) add(msg protocol.Message) {
	s.Messages++
	switch msg.Type {
	case protocol.TypeSchema:
		s.Schemas++
	case protocol.TypeRecord:
		s.Records++
		if msg.Duplicate {
			s.Duplicates++
		}
	case protocol.TypeActivateVersion:
		s.ActivateVersions++
	}
}

// Drain pulls every message from it and writes it to sink, in order.
//
// It stops when the stream is exhausted, on the first encode or write
// error, or when ctx is cancelled (checked before each pull). The sink is
// not closed.
func Drain(ctx context.Context, it Iterator, sink Sink) (Stats, error) {
	var stats Stats
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		msg, line, ok, err := it.NextLine()
		if err != nil {
			return stats, fmt.Errorf("encode message %d: %w", stats.Messages+1, err)
		}
		if !ok {
			break
		}

		if err := sink.Write(ctx, msg, line); err != nil {
			return stats, fmt.Errorf("deliver message %d: %w", stats.Messages+1, err)
		}
		stats.add(msg)

		slog.Debug("message delivered", "type", msg.Type, "stream", msg.Stream, "duplicate", msg.Duplicate)
	}

	slog.Info("stream drained",
		"messages", stats.Messages,
		"records", stats.Records,
		"duplicates", stats.Duplicates)
	return stats, nil
}
