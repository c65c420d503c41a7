package cli

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/minorm/internal/compiler"
	"github.com/roach88/minorm/internal/mapper"
	"github.com/roach88/minorm/internal/schema"
	"github.com/roach88/minorm/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	DB      string // store DSN
	Driver  string // "sqlite3" | "duckdb"
	Schema  string // CUE schema directory or file

	// Keys overrides the key generator used by insert --gen-id.
	// If nil, defaults to UUIDv7Generator.
	Keys mapper.KeyGenerator

	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ValidDrivers defines the allowed store drivers.
var ValidDrivers = []string{store.DriverSQLite, store.DriverDuckDB}

// NewRootCommand creates the root command for the minorm CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "minorm",
		Short: "minorm - a minimal record mapper",
		Long: `A minimal object-relational mapper over SQLite and DuckDB.

Record types are declared in CUE under a top-level "record" field and
mapped to one table each. Every command opens the store, runs its
statements, and closes the store again.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if !slices.Contains(ValidDrivers, opts.Driver) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid driver %q: must be one of %v", opts.Driver, ValidDrivers))
			}
			opts.logger = newLogger(cmd, opts.Verbose)
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "minorm.db", "database path (\":memory:\" for SQLite, \"\" for in-memory DuckDB)")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", store.DriverSQLite, "store driver (sqlite3|duckdb)")
	cmd.PersistentFlags().StringVar(&opts.Schema, "schema", "", "CUE schema directory or file")

	// Add subcommands
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewEnsureCommand(opts))
	cmd.AddCommand(NewInsertCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewDropCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}

// newLogger writes text logs to the command's stderr, at Debug when verbose.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// loadSchema compiles the records declared at --schema, which may name a
// directory (one CUE instance) or a single file.
func (o *RootOptions) loadSchema() ([]*schema.Descriptor[schema.Record], error) {
	if o.Schema == "" {
		return nil, fmt.Errorf("--schema is required")
	}
	info, err := os.Stat(o.Schema)
	if err != nil {
		return nil, fmt.Errorf("schema path: %w", err)
	}
	if info.IsDir() {
		return compiler.LoadDir(o.Schema)
	}
	return compiler.LoadFile(o.Schema)
}

// openTable resolves typeName against the schema and binds it to a mapper
// whose store is opened per operation. keys may be nil.
func (o *RootOptions) openTable(f *OutputFormatter, typeName string, keys mapper.KeyGenerator) (*mapper.Table[schema.Record], error) {
	if o.Schema == "" {
		return nil, f.Fail(ErrCodeNoSchema, fmt.Errorf("--schema is required"))
	}
	descs, err := o.loadSchema()
	if err != nil {
		return nil, f.Fail(ErrCodeSchemaLoad, err)
	}
	desc, err := compiler.Find(descs, typeName)
	if err != nil {
		return nil, f.Fail(ErrCodeUnknownType, err)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	opts := []mapper.Option{mapper.WithLogger(logger)}
	if keys != nil {
		opts = append(opts, mapper.WithKeyGenerator(keys))
	}

	st := store.New(store.Config{Driver: o.Driver, DSN: o.DB, Logger: logger})
	f.VerboseLog("Using %s store at %q for %s", o.Driver, o.DB, desc.Name())
	return mapper.NewTable(mapper.New(st, opts...), desc), nil
}

// exactArgs is cobra.ExactArgs reporting a command error exit code.
func exactArgs(n int) cobra.PositionalArgs {
	return wrapArgs(cobra.ExactArgs(n))
}

// minimumArgs is cobra.MinimumNArgs reporting a command error exit code.
func minimumArgs(n int) cobra.PositionalArgs {
	return wrapArgs(cobra.MinimumNArgs(n))
}

func wrapArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "invalid arguments", err)
		}
		return nil
	}
}
