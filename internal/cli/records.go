package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/minorm/internal/mapper"
	"github.com/roach88/minorm/internal/schema"
)

// InsertOptions holds flags for the insert command.
type InsertOptions struct {
	*RootOptions
	GenID bool // generate a UUIDv7 Id when none is given
}

// RecordResult is the JSON payload of commands that touch one record.
type RecordResult struct {
	Table  string        `json:"table"`
	Record schema.Record `json:"record,omitempty"`
}

// ListResult is the JSON payload of the list command.
type ListResult struct {
	Table string          `json:"table"`
	Rows  []schema.Record `json:"rows"`
	Count int             `json:"count"`
}

// NewEnsureCommand creates the ensure command.
func NewEnsureCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "ensure <Type>",
		Short:   "Create the table for a record type if it does not exist",
		Example: `  minorm ensure User --schema ./schemas --db ./app.db`,
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			table, err := rootOpts.openTable(f, args[0], nil)
			if err != nil {
				return err
			}
			if err := table.EnsureTable(commandContext(cmd)); err != nil {
				return f.Fail(ErrCodeGeneric, err)
			}
			return done(f, RecordResult{Table: args[0]}, "✓ Table %s ready", args[0])
		},
	}
}

// NewInsertCommand creates the insert command.
func NewInsertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InsertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "insert <Type> [field=value...]",
		Short: "Insert one record",
		Long: `Insert one record. Fields not given are stored as their kind's zero
value. Values are parsed according to the field's declared kind.`,
		Example: `  minorm insert User Id=0001 Age=21 Name=zhangsan Height=179.5
  minorm insert User Name=lisi --gen-id`,
		Args: minimumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInsert(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.GenID, "gen-id", false, "generate a UUIDv7 Id when none is given")

	return cmd
}

func runInsert(opts *InsertOptions, typeName string, assignments []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	var keys mapper.KeyGenerator
	if opts.GenID {
		keys = opts.Keys
		if keys == nil {
			keys = mapper.UUIDv7Generator{}
		}
	}

	table, err := opts.openTable(f, typeName, keys)
	if err != nil {
		return err
	}
	rec, err := parseAssignments(table.Descriptor(), assignments)
	if err != nil {
		return f.Fail(ErrCodeBadArgument, err)
	}
	if err := table.Insert(commandContext(cmd), &rec); err != nil {
		return f.Fail(ErrCodeGeneric, err)
	}
	return done(f, RecordResult{Table: typeName, Record: rec},
		"✓ Inserted %s %s", typeName, describeKey(table.Descriptor(), rec))
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <Type>",
		Short: "Print every record of a type",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, args[0], cmd)
		},
	}
}

func runList(opts *RootOptions, typeName string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	table, err := opts.openTable(f, typeName, nil)
	if err != nil {
		return err
	}

	recs, err := table.GetAll(commandContext(cmd))
	if err != nil {
		return f.Fail(ErrCodeGeneric, err)
	}
	rows := make([]schema.Record, len(recs))
	for i, r := range recs {
		rows[i] = *r
	}

	if f.Format == "json" {
		return f.Success(ListResult{Table: typeName, Rows: rows, Count: len(rows)})
	}

	desc := table.Descriptor()
	for _, row := range rows {
		fmt.Fprintln(f.Writer, formatRow(desc, row))
	}
	fmt.Fprintf(f.Writer, "(%d rows)\n", len(rows))
	return nil
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <Type> Id=<id> [field=value...]",
		Short: "Overwrite the record with the given Id",
		Long: `Overwrite every field of the record with the given Id. Fields not
given are stored as their kind's zero value. Updating an Id that does not
exist is not an error.`,
		Example: `  minorm update User Id=0001 Age=22 Name=zhangsan Height=180`,
		Args:    minimumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyed(rootOpts, args[0], args[1:], cmd, "Updated",
				func(ctx context.Context, t *mapper.Table[schema.Record], rec *schema.Record) error {
					return t.Update(ctx, rec)
				})
		},
	}
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <Type> Id=<id>",
		Short:   "Delete the record with the given Id",
		Example: `  minorm delete User Id=0001`,
		Args:    minimumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyed(rootOpts, args[0], args[1:], cmd, "Deleted",
				func(ctx context.Context, t *mapper.Table[schema.Record], rec *schema.Record) error {
					return t.Delete(ctx, rec)
				})
		},
	}
}

// runKeyed parses assignments, requires an Id when the type has one, and
// applies op. Types without an Id reach op so the mapper reports the
// missing key itself.
func runKeyed(
	opts *RootOptions,
	typeName string,
	assignments []string,
	cmd *cobra.Command,
	verb string,
	op func(context.Context, *mapper.Table[schema.Record], *schema.Record) error,
) error {
	f := opts.formatter(cmd)
	table, err := opts.openTable(f, typeName, nil)
	if err != nil {
		return err
	}
	desc := table.Descriptor()

	rec, err := parseAssignments(desc, assignments)
	if err != nil {
		return f.Fail(ErrCodeBadArgument, err)
	}
	if key, ok := desc.Key(); ok {
		if _, given := rec[key.Name]; !given {
			return f.Fail(ErrCodeBadArgument, fmt.Errorf("%s=<id> is required", key.Name))
		}
	}

	if err := op(commandContext(cmd), table, &rec); err != nil {
		return f.Fail(ErrCodeGeneric, err)
	}
	return done(f, RecordResult{Table: typeName, Record: rec},
		"✓ %s %s %s", verb, typeName, describeKey(desc, rec))
}

// NewDropCommand creates the drop command.
func NewDropCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <Type>",
		Short: "Drop the table for a record type",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			table, err := rootOpts.openTable(f, args[0], nil)
			if err != nil {
				return err
			}
			if err := table.DropTable(commandContext(cmd)); err != nil {
				return f.Fail(ErrCodeGeneric, err)
			}
			return done(f, RecordResult{Table: args[0]}, "✓ Dropped table %s", args[0])
		},
	}
}

// parseAssignments builds a record from field=value arguments. Field names
// resolve like result columns; values are converted to the field's kind.
func parseAssignments(desc *schema.Descriptor[schema.Record], args []string) (schema.Record, error) {
	rec := make(schema.Record, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("argument %q: expected field=value", arg)
		}
		field, ok := desc.Column(name)
		if !ok {
			return nil, fmt.Errorf("argument %q: %s has no field %s", arg, desc.Name(), name)
		}
		v, err := schema.FromStoreValue(field.Kind, raw)
		if err != nil {
			var se *schema.Error
			if errors.As(err, &se) {
				se.Table = desc.Name()
				se.Field = field.Name
			}
			return nil, err
		}
		rec[field.Name] = v
	}
	return rec, nil
}

// formatRow renders a record as name=value pairs in column order.
func formatRow(desc *schema.Descriptor[schema.Record], rec schema.Record) string {
	parts := make([]string, 0, len(desc.Fields()))
	for _, field := range desc.Fields() {
		parts = append(parts, fmt.Sprintf("%s=%v", field.Name, field.Get(&rec)))
	}
	return strings.Join(parts, " ")
}

func describeKey(desc *schema.Descriptor[schema.Record], rec schema.Record) string {
	key, ok := desc.Key()
	if !ok {
		return "(no Id)"
	}
	return fmt.Sprintf("%s=%v", key.Name, key.Get(&rec))
}

// done reports a successful command: data in JSON mode, the message otherwise.
func done(f *OutputFormatter, data any, format string, args ...any) error {
	if f.Format == "json" {
		return f.Success(data)
	}
	fmt.Fprintf(f.Writer, format+"\n", args...)
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
