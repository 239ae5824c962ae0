package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fakestream/internal/protocol"
	"github.com/roach88/fakestream/internal/stream"
)

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	List bool
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema [kind]",
		Short: "Print the SCHEMA message of a generator kind",
		Long: `Print the SCHEMA line a generate run would start with.

Examples:
  fakestream schema
  fakestream schema invalid-cats
  fakestream schema --list`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := stream.DefaultKind
			if len(args) == 1 {
				kind = args[0]
			}
			return runSchema(opts, kind, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.List, "list", false, "list generator kinds")

	return cmd
}

func runSchema(opts *SchemaOptions, kindName string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	if opts.List {
		kinds := stream.Kinds()
		if opts.Format == "json" {
			return formatter.Success(kinds)
		}
		return formatter.Success(strings.Join(kinds, "\n"))
	}

	kind, err := stream.Lookup(kindName)
	if err != nil {
		return WrapExitError(ExitCommandError, "unknown generator kind", err)
	}

	def := kind.Definition()
	line, err := protocol.MarshalLine(protocol.NewSchema(def.Name, def.Schema, def.KeyProperties))
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}

	if opts.Format == "json" {
		return formatter.Success(json.RawMessage(line))
	}
	return formatter.Success(string(line))
}
