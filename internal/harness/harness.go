// Package harness runs generation scenarios and checks the stream
// properties a consumer relies on.
//
// Each scenario builds a stream from its run config, drains it, decodes
// every emitted line back from the wire, and evaluates its assertions
// against the resulting trace. Runs are deterministic: the clock is fixed
// and the fake-value source is seeded, so traces can be compared against
// golden files.
package harness

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/fakestream/internal/chance"
	"github.com/roach88/fakestream/internal/protocol"
	"github.com/roach88/fakestream/internal/stream"
	"github.com/roach88/fakestream/internal/testutil"
)

// FixedEpoch is the clock reading used when a scenario leaves the base
// sequence unset: 2023-11-14T22:13:20Z.
const FixedEpoch int64 = 1_700_000_000

// Harness drives one scenario run.
type Harness struct {
	src    chance.Source
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithChance replaces the seeded fake-value source, e.g. with a
// testutil.ScriptedChance.
func WithChance(src chance.Source) Option {
	return func(h *Harness) { h.src = src }
}

// WithClock replaces the fixed clock.
func WithClock(now func() time.Time) Option {
	return func(h *Harness) { h.now = now }
}

// WithLogger sets the stream logger. Logs are discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Build the stream from scenario.Run
//  2. Pull until exhaustion, encoding and decoding every message
//  3. Pull again to check exhaustion is final
//  4. Evaluate assertions
//
// An error is returned only when the run itself cannot proceed. Failed
// assertions are reported in Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		now:    testutil.NewFixedClockAtUnix(FixedEpoch).Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	cfg := scenario.Run
	if cfg.Seed == 0 {
		cfg.Seed = 1
	}
	src := h.src
	if src == nil {
		src = chance.NewFaker(cfg.Seed)
	}

	kind, err := stream.Lookup(cfg.Kind())
	if err != nil {
		return nil, err
	}
	s, err := stream.Build(cfg, src, stream.WithClock(h.now), stream.WithLogger(h.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to build stream: %w", err)
	}

	result := NewResult()
	result.Config = cfg
	result.Spec = s.Spec()
	result.Valid = kind.Valid
	result.Base = s.BaseSequence()
	result.DuplicateSequence = s.DuplicateSequence()

	if err := h.drain(s, result); err != nil {
		return nil, err
	}

	for i := 0; i < scenario.pullsAfterExhaustion(); i++ {
		if _, ok := s.Next(); ok {
			result.PostExhaustion++
		}
	}
	result.State = s.State()

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"messages", len(result.Trace),
		"pass", result.Pass,
	)
	return result, nil
}

func (h *Harness) drain(s *stream.Stream, result *Result) error {
	for {
		msg, line, ok, err := s.NextLine()
		if err != nil {
			return fmt.Errorf("message %d: encode: %w", len(result.Trace)+1, err)
		}
		if !ok {
			return nil
		}

		wire, err := protocol.ParseLine(line)
		if err != nil {
			return fmt.Errorf("message %d: decode %s: %w", len(result.Trace)+1, line, err)
		}
		result.AddMessage(msg, wire)
	}
}
