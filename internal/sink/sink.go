package sink

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/roach88/fakestream/internal/protocol"
)

// Sink receives encoded protocol lines in stream order.
type Sink interface {
	// Write delivers one line. line has no trailing newline.
	Write(ctx context.Context, msg protocol.Message, line []byte) error

	// Close flushes buffered output and releases resources.
	Close() error
}

// LineSink writes newline-delimited lines to an io.Writer.
type LineSink struct {
	w      *bufio.Writer
	closer io.Closer
}

// NewLineSink wraps w. Close flushes but does not close w.
func NewLineSink(w io.Writer) *LineSink {
	return &LineSink{w: bufio.NewWriter(w)}
}

// NewFileSink creates (or truncates) path, making parent directories.
// Close flushes and closes the file.
func NewFileSink(path string) (*LineSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return &LineSink{w: bufio.NewWriter(f), closer: f}, nil
}

func (s *LineSink) Write(_ context.Context, _ protocol.Message, line []byte) error {
	if _, err := s.w.Write(line); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	return nil
}

func (s *LineSink) Close() error {
	flushErr := s.w.Flush()
	if s.closer != nil {
		if err := s.closer.Close(); err != nil && flushErr == nil {
			return fmt.Errorf("close output: %w", err)
		}
	}
	if flushErr != nil {
		return fmt.Errorf("flush output: %w", flushErr)
	}
	return nil
}
