package schema

import (
	"errors"
	"fmt"
)

// Error is the single error type surfaced by the mapper and its collaborators.
//
// Callers branch on Code (via CodeOf or IsCode) rather than on message text.
// Statement is set whenever a SQL statement had already been built when the
// failure happened.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Table is the affected table (type name), if known.
	Table string

	// Field is the affected field or column, if known.
	Field string

	// Statement is the offending SQL text, if one was built.
	Statement string

	// Err is the underlying cause (driver error, strconv error, ...).
	Err error
}

// ErrorCode categorizes mapper errors.
type ErrorCode string

const (
	// ErrCodeConnection indicates the store could not be opened.
	ErrCodeConnection ErrorCode = "CONNECTION_ERROR"

	// ErrCodeStatement indicates the store rejected or failed a statement.
	ErrCodeStatement ErrorCode = "STATEMENT_ERROR"

	// ErrCodeNotOpen indicates a statement was issued against a closed store.
	ErrCodeNotOpen ErrorCode = "NOT_OPEN"

	// ErrCodeUnsupportedKind indicates a field declared a kind outside
	// {Integer, Text, FloatingPoint, Boolean}.
	ErrCodeUnsupportedKind ErrorCode = "UNSUPPORTED_FIELD_KIND"

	// ErrCodeValueConversion indicates a value could not be coerced to or from
	// its field kind.
	ErrCodeValueConversion ErrorCode = "VALUE_CONVERSION"

	// ErrCodeUnknownColumn indicates a result column has no matching field.
	ErrCodeUnknownColumn ErrorCode = "UNKNOWN_COLUMN"

	// ErrCodeMissingKeyField indicates an Update/Delete on a type without an Id field.
	ErrCodeMissingKeyField ErrorCode = "MISSING_KEY_FIELD"

	// ErrCodeUnsafeLiteral indicates a value that cannot be embedded in a
	// single-quoted literal without escaping.
	ErrCodeUnsafeLiteral ErrorCode = "UNSAFE_LITERAL"

	// ErrCodeInvalidSchema indicates a malformed type declaration.
	ErrCodeInvalidSchema ErrorCode = "INVALID_SCHEMA"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.Table != "" && e.Field != "":
		msg = fmt.Sprintf("%s (table=%s, field=%s)", msg, e.Table, e.Field)
	case e.Table != "":
		msg = fmt.Sprintf("%s (table=%s)", msg, e.Table)
	case e.Field != "":
		msg = fmt.Sprintf("%s (field=%s)", msg, e.Field)
	}
	if e.Statement != "" {
		msg = fmt.Sprintf("%s [sql: %s]", msg, e.Statement)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// NewConnectionError creates an Error for a store that could not be opened.
func NewConnectionError(locator string, cause error) *Error {
	return &Error{
		Code:    ErrCodeConnection,
		Message: fmt.Sprintf("cannot open store %q", locator),
		Err:     cause,
	}
}

// NewStatementError creates an Error carrying the failed statement text.
func NewStatementError(statement string, cause error) *Error {
	return &Error{
		Code:      ErrCodeStatement,
		Message:   "statement failed",
		Statement: statement,
		Err:       cause,
	}
}

// NewNotOpenError creates an Error for a statement issued against a closed store.
func NewNotOpenError(statement string) *Error {
	return &Error{
		Code:      ErrCodeNotOpen,
		Message:   "store is not open",
		Statement: statement,
	}
}

// NewMissingKeyError creates an Error for a type that has no Id field.
func NewMissingKeyError(table string) *Error {
	return &Error{
		Code:    ErrCodeMissingKeyField,
		Message: fmt.Sprintf("type has no %q field; refusing to build a statement that matches every row", KeyFieldName),
		Table:   table,
		Field:   KeyFieldName,
	}
}

// NewUnknownColumnError creates an Error for a result column with no field.
func NewUnknownColumnError(table, column string) *Error {
	return &Error{
		Code:    ErrCodeUnknownColumn,
		Message: "result column has no matching field",
		Table:   table,
		Field:   column,
	}
}

func conversionError(kind FieldKind, v any, cause error) *Error {
	return &Error{
		Code:    ErrCodeValueConversion,
		Message: fmt.Sprintf("cannot convert %T(%v) to %s", v, v, kind),
		Err:     cause,
	}
}

func invalidSchema(table, field, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeInvalidSchema,
		Message: fmt.Sprintf(format, args...),
		Table:   table,
		Field:   field,
	}
}
