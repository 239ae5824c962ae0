package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/fakestream/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve streams over HTTP",
		Long: `Serve generated streams as newline-delimited JSON.

Routes:
  GET /healthz
  GET /streams                  generator kinds
  GET /streams/{kind}/schema    the SCHEMA line
  GET /streams/{kind}?n=5&duplicates=2&version=7&seed=42

Query parameters use the run config keys. The seed and base sequence of
each response are returned in X-Fakestream-Seed and
X-Fakestream-Base-Sequence.

Examples:
  fakestream serve --addr :8080
  curl 'localhost:8080/streams/invalid-cats?n=100&seed=1'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "listen address")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.WithLogger(slog.Default()))
	if err := srv.ListenAndServe(ctx, opts.Addr); err != nil {
		return WrapExitError(ExitCommandError, "server failed", err)
	}
	return nil
}
