package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/roach88/fakestream/internal/protocol"
)

// DefaultKafkaBatchSize is how many lines KafkaSink buffers per write.
const DefaultKafkaBatchSize = 100

// KafkaConfig configures a KafkaSink.
type KafkaConfig struct {
	Brokers   []string
	Topic     string
	BatchSize int

	// RunID is attached to every message as the "run_id" header.
	RunID string
}

// messageWriter is the subset of *kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes each protocol line as one Kafka message.
//
// Every message of a stream carries the same key, so the Hash balancer
// keeps the whole stream on one partition and consumers see SCHEMA first
// and ACTIVATE_VERSION last.
type KafkaSink struct {
	w         messageWriter
	runID     string
	batchSize int
	pending   []kafka.Message
}

// NewKafkaSink creates a sink writing to cfg.Topic on cfg.Brokers.
func NewKafkaSink(cfg KafkaConfig) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka sink: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka sink: topic is required")
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return newKafkaSinkWithWriter(w, cfg), nil
}

func newKafkaSinkWithWriter(w messageWriter, cfg KafkaConfig) *KafkaSink {
	size := cfg.BatchSize
	if size <= 0 {
		size = DefaultKafkaBatchSize
	}
	return &KafkaSink{w: w, runID: cfg.RunID, batchSize: size}
}

func (s *KafkaSink) Write(ctx context.Context, msg protocol.Message, line []byte) error {
	value := make([]byte, len(line))
	copy(value, line)

	headers := []kafka.Header{
		{Key: "type", Value: []byte(msg.Type)},
		{Key: "stream", Value: []byte(msg.Stream)},
	}
	if s.runID != "" {
		headers = append(headers, kafka.Header{Key: "run_id", Value: []byte(s.runID)})
	}

	s.pending = append(s.pending, kafka.Message{
		Key:     []byte(MessageKey(msg)),
		Value:   value,
		Headers: headers,
	})
	if len(s.pending) >= s.batchSize {
		return s.Flush(ctx)
	}
	return nil
}

// Flush writes any buffered messages.
func (s *KafkaSink) Flush(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	if err := s.w.WriteMessages(ctx, s.pending...); err != nil {
		return fmt.Errorf("kafka write %d messages: %w", len(s.pending), err)
	}
	s.pending = s.pending[:0]
	return nil
}

// Close flushes with a background context and closes the writer.
func (s *KafkaSink) Close() error {
	flushErr := s.Flush(context.Background())
	if err := s.w.Close(); err != nil && flushErr == nil {
		return fmt.Errorf("kafka close: %w", err)
	}
	return flushErr
}

// MessageKey is the partitioning key: the stream name. Record ids are not
// part of the key; they travel in the value.
func MessageKey(msg protocol.Message) string {
	return msg.Stream
}
