package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fakestream/internal/sink"
	"github.com/roach88/fakestream/internal/store"
	"github.com/roach88/fakestream/internal/stream"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
	Output   string
	Verify   bool
	List     bool
}

// ReplayRunResult holds the verification result for a single run.
type ReplayRunResult struct {
	RunID         string            `json:"run_id"`
	Stream        string            `json:"stream"`
	Kind          string            `json:"kind"`
	Seed          uint64            `json:"seed"`
	Messages      int               `json:"messages"`
	Deterministic bool              `json:"deterministic"`
	Divergence    *store.Divergence `json:"divergence,omitempty"`
}

// ReplayResult holds the overall verification result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded runs and verify determinism",
		Long: `Replay runs recorded with "generate --record".

With --run the recorded lines are written out again, byte for byte.
With --verify each run is regenerated from its stored seed and config
and compared line by line against the recording.

Exit codes:
  0 - Replay succeeded / all runs are deterministic
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, unknown run, etc.)

Examples:
  fakestream replay --db runs.db --list
  fakestream replay --db runs.db --run 0192f7c1-... > cats.jsonl
  fakestream replay --db runs.db --verify
  fakestream replay --db runs.db --verify --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "-", `output file for replayed lines ("-" for stdout)`)
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "regenerate runs and compare against the recording")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list recorded runs")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	switch {
	case opts.List:
		return listRuns(ctx, st, opts, cmd)
	case opts.Verify:
		return verifyRuns(ctx, st, opts, cmd)
	case opts.RunID != "":
		return emitRun(ctx, st, opts, cmd)
	default:
		return NewExitError(ExitCommandError, "one of --list, --verify or --run is required")
	}
}

func listRuns(ctx context.Context, st *store.Store, opts *ReplayOptions, cmd *cobra.Command) error {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return formatter.Success(runs)
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %s  %s  n=%d seed=%d base=%d\n",
			r.ID, r.CreatedAt.Format("2006-01-02T15:04:05Z"), r.Kind, r.Config.N, r.Config.Seed, r.BaseSequence)
	}
	return nil
}

func emitRun(ctx context.Context, st *store.Store, opts *ReplayOptions, cmd *cobra.Command) error {
	r, err := st.NewReplayer(ctx, opts.RunID)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			return NewExitError(ExitCommandError, err.Error())
		}
		return WrapExitError(ExitCommandError, "failed to load run", err)
	}

	var out sink.Sink = sink.NewLineSink(cmd.OutOrStdout())
	if opts.Output != "" && opts.Output != "-" {
		f, err := sink.NewFileSink(opts.Output)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open output", err)
		}
		out = f
	}

	stats, err := sink.Drain(ctx, r, out)
	closeErr := out.Close()
	if err != nil {
		return WrapExitError(ExitFailure, "replay failed", err)
	}
	if closeErr != nil {
		return WrapExitError(ExitFailure, "failed to flush output", closeErr)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.ErrOrStderr(), Verbose: opts.Verbose}
	formatter.VerboseLog("Replayed %d messages of run %s", stats.Messages, opts.RunID)
	return nil
}

func verifyRuns(ctx context.Context, st *store.Store, opts *ReplayOptions, cmd *cobra.Command) error {
	var runs []store.Run
	if opts.RunID != "" {
		r, err := st.ReadRun(ctx, opts.RunID)
		if err != nil {
			if errors.Is(err, store.ErrRunNotFound) {
				return NewExitError(ExitCommandError, err.Error())
			}
			return WrapExitError(ExitCommandError, "failed to load run", err)
		}
		runs = []store.Run{r}
	} else {
		var err error
		runs, err = st.ListRuns(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(runs)),
		TotalRuns:        len(runs),
		AllDeterministic: true,
	}

	for _, r := range runs {
		runResult, err := verifyRun(ctx, st, r)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", r.ID), err)
		}
		result.Runs = append(result.Runs, runResult)
		if !runResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// verifyRun regenerates a run from its stored config and compares it with
// the recording.
func verifyRun(ctx context.Context, st *store.Store, r store.Run) (ReplayRunResult, error) {
	recorded, err := st.NewReplayer(ctx, r.ID)
	if err != nil {
		return ReplayRunResult{}, err
	}

	regenerated, err := stream.Build(r.Config, nil)
	if err != nil {
		return ReplayRunResult{}, fmt.Errorf("rebuild stream: %w", err)
	}

	div, err := store.Compare(recorded, regenerated)
	if err != nil {
		return ReplayRunResult{}, err
	}

	return ReplayRunResult{
		RunID:         r.ID,
		Stream:        r.Stream,
		Kind:          r.Kind,
		Seed:          r.Config.Seed,
		Messages:      recorded.Len(),
		Deterministic: div == nil,
		Divergence:    div,
	}, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    CodeDeterminism,
			Message: "determinism verification failed",
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.TotalRuns)
	fmt.Fprintln(w)

	for _, r := range result.Runs {
		status := "✓"
		if !r.Deterministic {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Run: %s\n", status, r.RunID)
		fmt.Fprintf(w, "  Messages: %d (%s, seed %d)\n", r.Messages, r.Kind, r.Seed)
		if r.Divergence != nil {
			fmt.Fprintf(w, "  First divergence at %s\n", r.Divergence)
		} else if verbose {
			fmt.Fprintln(w, "  Regenerated stream matches the recording")
		}
	}

	fmt.Fprintln(w)
	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs are deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
