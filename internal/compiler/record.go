package compiler

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/minorm/internal/schema"
)

// CompileRecord parses a CUE struct into a dynamic record descriptor.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the record struct itself; its label is the table
// name and its fields, in declaration order, are the columns:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`record: User: { Id: string, Age: int }`)
//	d, err := CompileRecord(v.LookupPath(cue.ParsePath("record.User")))
func CompileRecord(v cue.Value) (*schema.Descriptor[schema.Record], error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	// Record name from struct label (the path selector)
	var name string
	if sels := v.Path().Selectors(); len(sels) > 0 {
		name = sels[len(sels)-1].String()
	}
	if v.IncompleteKind() != cue.StructKind {
		return nil, &CompileError{
			Field:   name,
			Message: fmt.Sprintf("record must be a struct, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var columns []schema.Column
	for iter.Next() {
		fv := iter.Value()
		kind, err := extractKind(fv)
		if err != nil {
			return nil, &CompileError{
				Field:   name + "." + iter.Label(),
				Message: err.Error(),
				Pos:     fv.Pos(),
				Err:     err,
			}
		}
		columns = append(columns, schema.Column{Name: iter.Label(), Kind: kind})
	}

	d, err := schema.Dynamic(name, columns)
	if err != nil {
		return nil, &CompileError{
			Field:   name,
			Message: err.Error(),
			Pos:     v.Pos(),
			Err:     err,
		}
	}
	return d, nil
}

// extractKind converts a CUE type to a field kind.
// Constraints and defaults keep their base type: `int & >0` is Integer.
func extractKind(v cue.Value) (schema.FieldKind, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return schema.Text, nil
	case cue.IntKind:
		return schema.Integer, nil
	case cue.FloatKind, cue.NumberKind:
		return schema.FloatingPoint, nil
	case cue.BoolKind:
		return schema.Boolean, nil
	default:
		return schema.KindInvalid, &schema.Error{
			Code:    schema.ErrCodeUnsupportedKind,
			Message: fmt.Sprintf("unsupported field kind: %v", v.IncompleteKind()),
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
	Err     error
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap exposes the schema error behind the failure, if any.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
			Err:     err,
		}
	}
	return err
}

// isCompileError reports whether err carries a source position.
func isCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}
