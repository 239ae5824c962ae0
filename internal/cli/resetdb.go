package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fakestream/internal/dbreset"
)

// ResetDBOptions holds flags for the reset-db command.
type ResetDBOptions struct {
	*RootOptions
	EnvFile string
	Config  dbreset.Config
}

// ResetDBResult is reported after the tables are dropped.
type ResetDBResult struct {
	Driver  string   `json:"driver"`
	Target  string   `json:"target"`
	Dropped []string `json:"dropped"`
}

func (r ResetDBResult) String() string {
	if len(r.Dropped) == 0 {
		return fmt.Sprintf("No tables to drop in %s", r.Target)
	}
	return fmt.Sprintf("Dropped %d table(s) in %s: %s", len(r.Dropped), r.Target, strings.Join(r.Dropped, ", "))
}

// NewResetDBCommand creates the reset-db command.
func NewResetDBCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResetDBOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reset-db",
		Short: "Drop every table in the target database",
		Long: `Drop every table of the database a consumer loads streams into,
in a single transaction. Run it before and after a test run.

Connection parameters come from POSTGRES_HOST, POSTGRES_DATABASE,
POSTGRES_USERNAME, POSTGRES_PASSWORD, POSTGRES_PORT and POSTGRES_SSLMODE,
optionally loaded from --env-file. Flags override them.

Examples:
  fakestream reset-db
  fakestream reset-db --env-file test.env --database cats_test
  fakestream reset-db --driver sqlite3 --path ./target.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResetDB(opts, cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file with POSTGRES_* variables (skipped if missing)")
	f.StringVar(&opts.Config.Driver, "driver", dbreset.DriverPostgres, "database driver (postgres|sqlite3)")
	f.StringVar(&opts.Config.Host, "host", "", "postgres host")
	f.IntVar(&opts.Config.Port, "port", 0, "postgres port")
	f.StringVar(&opts.Config.Database, "database", "", "postgres database name")
	f.StringVar(&opts.Config.User, "user", "", "postgres user")
	f.StringVar(&opts.Config.SSLMode, "sslmode", "", "postgres sslmode")
	f.StringVar(&opts.Config.Path, "path", "", "sqlite3 database file")

	return cmd
}

// resolveDBConfig layers flags over the environment.
func resolveDBConfig(opts *ResetDBOptions, cmd *cobra.Command) (dbreset.Config, error) {
	cfg, err := dbreset.ConfigFromEnv(opts.EnvFile)
	if err != nil {
		return dbreset.Config{}, err
	}

	f := cmd.Flags()
	if f.Changed("driver") {
		cfg.Driver = opts.Config.Driver
	}
	if f.Changed("host") {
		cfg.Host = opts.Config.Host
	}
	if f.Changed("port") {
		cfg.Port = opts.Config.Port
	}
	if f.Changed("database") {
		cfg.Database = opts.Config.Database
	}
	if f.Changed("user") {
		cfg.User = opts.Config.User
	}
	if f.Changed("sslmode") {
		cfg.SSLMode = opts.Config.SSLMode
	}
	if f.Changed("path") {
		cfg.Path = opts.Config.Path
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return dbreset.Config{}, err
	}
	return cfg, nil
}

func runResetDB(opts *ResetDBOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := resolveDBConfig(opts, cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid database configuration", err)
	}
	formatter.VerboseLog("Resetting %s", cfg.Redacted())

	dropped, err := dbreset.Clear(cmd.Context(), cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "database reset failed", err)
	}
	if dropped == nil {
		dropped = []string{}
	}

	return formatter.Success(ResetDBResult{
		Driver:  cfg.Driver,
		Target:  cfg.Redacted(),
		Dropped: dropped,
	})
}
