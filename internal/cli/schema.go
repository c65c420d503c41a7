package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/minorm/internal/compiler"
	"github.com/roach88/minorm/internal/querysql"
	"github.com/roach88/minorm/internal/schema"
)

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	Strict bool // lint findings fail the command
}

// RecordInfo describes one compiled record type.
type RecordInfo struct {
	Name    string          `json:"name"`
	Columns []schema.Column `json:"columns"`
	Create  string          `json:"create"`
}

// SchemaResult is the JSON payload of the schema command.
type SchemaResult struct {
	Records  []RecordInfo               `json:"records"`
	Warnings []compiler.ValidationError `json:"warnings,omitempty"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Compile the CUE schema and print its CREATE statements",
		Long: `Compile the record types declared under --schema and print the
CREATE TABLE statement of each, followed by lint findings.

Exit codes:
  0 - Schema compiled (findings are reported but do not fail)
  1 - Schema compiled with findings and --strict was given
  2 - Schema failed to load or compile`,
		Example: `  minorm schema --schema ./schemas
  minorm schema --schema ./schemas/user.cue --format json`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit 1 when lint findings are reported")

	return cmd
}

func runSchema(opts *SchemaOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	if opts.Schema == "" {
		return f.Fail(ErrCodeNoSchema, fmt.Errorf("--schema is required"))
	}

	descs, err := opts.loadSchema()
	if err != nil {
		return f.Fail(ErrCodeSchemaLoad, err)
	}
	f.VerboseLog("Compiled %d record(s) from %s", len(descs), opts.Schema)

	result := SchemaResult{
		Records:  make([]RecordInfo, 0, len(descs)),
		Warnings: compiler.Validate(descs),
	}
	for _, d := range descs {
		result.Records = append(result.Records, RecordInfo{
			Name:    d.Name(),
			Columns: d.Columns(),
			Create:  querysql.CreateTable(d),
		})
	}

	if f.Format == "json" {
		if err := f.Success(result); err != nil {
			return err
		}
	} else {
		for _, r := range result.Records {
			fmt.Fprintf(f.Writer, "%s;\n", r.Create)
		}
		if len(result.Warnings) > 0 {
			fmt.Fprintln(f.Writer)
			fmt.Fprintf(f.Writer, "%d finding(s):\n", len(result.Warnings))
			for _, w := range result.Warnings {
				fmt.Fprintf(f.Writer, "  %s\n", w.Error())
			}
		}
	}

	if opts.Strict && len(result.Warnings) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d lint finding(s)", len(result.Warnings)))
	}
	return nil
}
