package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/fakestream/internal/sink"
	"github.com/roach88/fakestream/internal/store"
	"github.com/roach88/fakestream/internal/stream"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions

	ConfigPath string
	Output     string // "-" for stdout

	KafkaBrokers []string
	KafkaTopic   string
	RunID        string
	RecordPath   string // SQLite run log, empty to skip

	// Config receives flag values; only flags that were set override the
	// config file.
	Config stream.Config
}

// GenerateSummary is reported after a successful run.
type GenerateSummary struct {
	Stream     string `json:"stream"`
	Kind       string `json:"kind"`
	Seed       uint64 `json:"seed"`
	Base       int64  `json:"base_sequence"`
	Output     string `json:"output"`
	RunID      string `json:"run_id"`
	RecordedTo string `json:"recorded_to,omitempty"`

	sink.Stats
}

func (s GenerateSummary) String() string {
	return fmt.Sprintf("Generated %d messages for stream %s (%d records, %d duplicates, seed %d) -> %s",
		s.Messages, s.Stream, s.Records-s.Duplicates, s.Duplicates, s.Seed, s.Output)
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a message stream",
		Long: `Generate one SCHEMA message, n RECORD messages with optional
duplicates, and a final ACTIVATE_VERSION when a version is given.

Lines go to stdout unless --output or --kafka-brokers is set. Flags
override values from --config.

Examples:
  fakestream generate -n 100
  fakestream generate -n 5 --duplicates 2 --version 7 --seed 42
  fakestream generate --stream invalid-cats -n 100 --output cats.jsonl
  fakestream generate --config run.yaml --kafka-brokers localhost:9092 --kafka-topic cats
  fakestream generate -n 20 --duplicates 3 --record runs.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.ConfigPath, "config", "", "run config YAML file")
	f.StringVarP(&opts.Output, "output", "o", "-", `output file ("-" for stdout)`)
	f.StringSliceVar(&opts.KafkaBrokers, "kafka-brokers", nil, "publish to Kafka brokers instead of a file")
	f.StringVar(&opts.KafkaTopic, "kafka-topic", "", "Kafka topic (required with --kafka-brokers)")
	f.StringVar(&opts.RunID, "run-id", "", "run identifier for Kafka headers and the run log (default: new UUIDv7)")
	f.StringVar(&opts.RecordPath, "record", "", "also record the run into this SQLite run log for replay")

	f.StringVar(&opts.Config.Stream, "stream", stream.DefaultKind, fmt.Sprintf("generator kind %v", stream.Kinds()))
	f.IntVarP(&opts.Config.N, "records", "n", 0, "number of fresh records")
	f.Int64("version", 0, "table version; adds ACTIVATE_VERSION at the end")
	f.IntVar(&opts.Config.NestedCount, "nested-count", 0, "fixed number of immunizations per record (0 = random)")
	f.IntVar(&opts.Config.Duplicates, "duplicates", 0, "maximum number of duplicate records")
	f.Int64Var(&opts.Config.DuplicateSequenceDelta, "duplicate-sequence-delta", stream.DefaultDuplicateSequenceDelta, "sequence offset of duplicate records")
	f.Int("duplicate-likelihood", stream.DefaultDuplicateLikelihood, "per-record chance of a duplicate, in percent (0 = forced duplicate only)")
	f.Int64Var(&opts.Config.Sequence, "sequence", 0, "base sequence (0 = current Unix time)")
	f.Uint64Var(&opts.Config.Seed, "seed", 0, "random seed (0 = pick one)")

	return cmd
}

// resolveConfig merges the config file with the flags that were set.
func resolveConfig(opts *GenerateOptions, cmd *cobra.Command) (stream.Config, error) {
	cfg := stream.Config{}
	if opts.ConfigPath != "" {
		loaded, err := stream.LoadConfig(opts.ConfigPath)
		if err != nil {
			return stream.Config{}, err
		}
		cfg = loaded
	}

	f := cmd.Flags()
	if opts.ConfigPath == "" || f.Changed("stream") {
		cfg.Stream = opts.Config.Stream
	}
	if f.Changed("records") {
		cfg.N = opts.Config.N
	}
	if f.Changed("version") {
		v, err := f.GetInt64("version")
		if err != nil {
			return stream.Config{}, err
		}
		cfg.Version = &v
	}
	if f.Changed("nested-count") {
		cfg.NestedCount = opts.Config.NestedCount
	}
	if f.Changed("duplicates") {
		cfg.Duplicates = opts.Config.Duplicates
	}
	if f.Changed("duplicate-sequence-delta") {
		cfg.DuplicateSequenceDelta = opts.Config.DuplicateSequenceDelta
	}
	if f.Changed("duplicate-likelihood") {
		v, err := f.GetInt("duplicate-likelihood")
		if err != nil {
			return stream.Config{}, err
		}
		cfg.DuplicateLikelihood = &v
	}
	if f.Changed("sequence") {
		cfg.Sequence = opts.Config.Sequence
	}
	if f.Changed("seed") {
		cfg.Seed = opts.Config.Seed
	}
	return cfg, nil
}

func runGenerate(opts *GenerateOptions, cmd *cobra.Command) error {
	cfg, err := resolveConfig(opts, cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if cfg.Seed == 0 {
		cfg.Seed = gofakeit.Uint64()
	}

	s, err := stream.Build(cfg, nil, stream.WithLogger(slog.Default()))
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid run configuration", err)
	}

	runID := opts.RunID
	if runID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to generate run id", err)
		}
		runID = id.String()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out, dest, summaryW, err := openSink(opts, runID, cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open output", err)
	}
	if opts.RecordPath != "" {
		rec, err := sink.NewStoreSink(ctx, opts.RecordPath, store.Run{
			ID:           runID,
			Stream:       s.Spec().Stream,
			Kind:         cfg.Kind(),
			BaseSequence: s.BaseSequence(),
			Config:       pinnedConfig(cfg, s),
			CreatedAt:    time.Now(),
		})
		if err != nil {
			out.Close()
			return WrapExitError(ExitCommandError, "failed to open run log", err)
		}
		out = sink.Tee{out, rec}
	}

	slog.Info("generating",
		"stream", s.Spec().Stream,
		"kind", cfg.Kind(),
		"n", cfg.N,
		"seed", cfg.Seed,
		"base_sequence", s.BaseSequence(),
		"run_id", runID)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, drainErr := sink.Drain(ctx, s, out)
	closeErr := out.Close()
	if drainErr != nil {
		if errors.Is(drainErr, context.Canceled) {
			return WrapExitError(ExitFailure, fmt.Sprintf("interrupted after %d messages", stats.Messages), drainErr)
		}
		return WrapExitError(ExitFailure, "generation failed", drainErr)
	}
	if closeErr != nil {
		return WrapExitError(ExitFailure, "failed to flush output", closeErr)
	}

	summary := GenerateSummary{
		Stream:     s.Spec().Stream,
		Kind:       cfg.Kind(),
		Seed:       cfg.Seed,
		Base:       s.BaseSequence(),
		Output:     dest,
		RunID:      runID,
		RecordedTo: opts.RecordPath,
		Stats:      stats,
	}
	formatter := &OutputFormatter{Format: opts.Format, Writer: summaryW, Verbose: opts.Verbose}
	return formatter.Success(summary)
}

// pinnedConfig fixes the base sequence that the stream derived from the
// clock, so the recorded config regenerates the same lines.
func pinnedConfig(cfg stream.Config, s *stream.Stream) stream.Config {
	cfg.Sequence = s.BaseSequence()
	return cfg
}

// openSink picks the sink for the run. The summary goes to stderr when
// the generated lines occupy stdout.
func openSink(opts *GenerateOptions, runID string, cmd *cobra.Command) (sink.Sink, string, io.Writer, error) {
	switch {
	case len(opts.KafkaBrokers) > 0:
		k, err := sink.NewKafkaSink(sink.KafkaConfig{
			Brokers: opts.KafkaBrokers,
			Topic:   opts.KafkaTopic,
			RunID:   runID,
		})
		if err != nil {
			return nil, "", nil, err
		}
		return k, "kafka:" + opts.KafkaTopic, cmd.OutOrStdout(), nil

	case opts.Output != "" && opts.Output != "-":
		f, err := sink.NewFileSink(opts.Output)
		if err != nil {
			return nil, "", nil, err
		}
		return f, opts.Output, cmd.OutOrStdout(), nil

	default:
		return sink.NewLineSink(cmd.OutOrStdout()), "stdout", cmd.ErrOrStderr(), nil
	}
}
