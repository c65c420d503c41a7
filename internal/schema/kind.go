package schema

import (
	"fmt"
	"strings"
)

// FieldKind is the closed set of value kinds the mapper understands.
//
// The zero value is KindInvalid so that a field whose kind was never set is
// rejected by validation instead of silently becoming an integer column.
type FieldKind int

const (
	KindInvalid FieldKind = iota
	Integer
	Text
	FloatingPoint
	Boolean
)

// Kinds lists every supported kind in declaration order.
var Kinds = []FieldKind{Integer, Text, FloatingPoint, Boolean}

// String returns the lower-case kind name used in declarations and errors.
func (k FieldKind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Text:
		return "text"
	case FloatingPoint:
		return "float"
	case Boolean:
		return "boolean"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

// Valid reports whether k is one of the supported kinds.
func (k FieldKind) Valid() bool {
	return k >= Integer && k <= Boolean
}

// ParseKind maps a declared type name onto a FieldKind.
// Accepts both Go-ish names (int, string, float64, bool) and SQL-ish ones
// (integer, text, real, boolean), case-insensitively.
func ParseKind(name string) (FieldKind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "int", "int64", "integer":
		return Integer, nil
	case "string", "text":
		return Text, nil
	case "float", "float64", "double", "real", "number":
		return FloatingPoint, nil
	case "bool", "boolean":
		return Boolean, nil
	}
	return KindInvalid, &Error{
		Code:    ErrCodeUnsupportedKind,
		Message: fmt.Sprintf("unsupported field kind %q", name),
	}
}

// ColumnType returns the column type emitted in CREATE TABLE for k.
// Every kind accepted by Describe has a mapping; anything else yields "".
func ColumnType(k FieldKind) string {
	switch k {
	case Integer:
		return "Int"
	case Text:
		return "Text"
	case FloatingPoint:
		return "FLOAT"
	case Boolean:
		return "Bool"
	default:
		return ""
	}
}

// Zero returns the native zero value for k.
func Zero(k FieldKind) any {
	switch k {
	case Integer:
		return int64(0)
	case Text:
		return ""
	case FloatingPoint:
		return float64(0)
	case Boolean:
		return false
	default:
		return nil
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k FieldKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, &Error{Code: ErrCodeUnsupportedKind, Message: "unsupported field kind " + k.String()}
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using ParseKind.
func (k *FieldKind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
