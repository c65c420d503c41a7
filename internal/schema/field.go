package schema

import (
	"errors"
	"fmt"
	"math"
)

// Signed is the set of integer types an Integer field may be backed by.
type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Float is the set of float types a FloatingPoint field may be backed by.
type Float interface {
	~float32 | ~float64
}

// Field describes one mapped field of record type T.
//
// Get always yields the kind's native value (int64, string, float64, bool);
// Set accepts the same and narrows it into the underlying Go field.
type Field[T any] struct {
	Name string
	Kind FieldKind

	get func(*T) any
	set func(*T, any) error
}

// NewField creates a field from raw accessors.
// The typed constructors (IntField, TextField, FloatField, BoolField) are preferred for struct fields.
func NewField[T any](name string, kind FieldKind, get func(*T) any, set func(*T, any) error) Field[T] {
	return Field[T]{Name: name, Kind: kind, get: get, set: set}
}

// Get reads the field's native value from rec.
func (f Field[T]) Get(rec *T) any {
	return f.get(rec)
}

// Set writes a native value into rec.
func (f Field[T]) Set(rec *T, v any) error {
	if err := f.set(rec, v); err != nil {
		var se *Error
		if errors.As(err, &se) && se.Field == "" {
			se.Field = f.Name
		}
		return err
	}
	return nil
}

// IntField maps an integer struct field.
//
//	schema.IntField("Age", func(u *User) *int { return &u.Age })
func IntField[T any, N Signed](name string, ptr func(*T) *N) Field[T] {
	return Field[T]{
		Name: name,
		Kind: Integer,
		get:  func(rec *T) any { return int64(*ptr(rec)) },
		set: func(rec *T, v any) error {
			n, ok := v.(int64)
			if !ok {
				return conversionError(Integer, v, nil)
			}
			narrowed := N(n)
			if int64(narrowed) != n {
				return conversionError(Integer, v, fmt.Errorf("value out of range for %T", narrowed))
			}
			*ptr(rec) = narrowed
			return nil
		},
	}
}

// TextField maps a string struct field.
func TextField[T any, S ~string](name string, ptr func(*T) *S) Field[T] {
	return Field[T]{
		Name: name,
		Kind: Text,
		get:  func(rec *T) any { return string(*ptr(rec)) },
		set: func(rec *T, v any) error {
			s, ok := v.(string)
			if !ok {
				return conversionError(Text, v, nil)
			}
			*ptr(rec) = S(s)
			return nil
		},
	}
}

// FloatField maps a float32 or float64 struct field.
// float32 fields round-trip at float32 precision.
func FloatField[T any, F Float](name string, ptr func(*T) *F) Field[T] {
	return Field[T]{
		Name: name,
		Kind: FloatingPoint,
		get:  func(rec *T) any { return float64(*ptr(rec)) },
		set: func(rec *T, v any) error {
			f, ok := v.(float64)
			if !ok {
				return conversionError(FloatingPoint, v, nil)
			}
			narrowed := F(f)
			if math.IsInf(float64(narrowed), 0) && !math.IsInf(f, 0) {
				return conversionError(FloatingPoint, v, fmt.Errorf("value out of range for %T", narrowed))
			}
			*ptr(rec) = narrowed
			return nil
		},
	}
}

// BoolField maps a boolean struct field.
func BoolField[T any, B ~bool](name string, ptr func(*T) *B) Field[T] {
	return Field[T]{
		Name: name,
		Kind: Boolean,
		get:  func(rec *T) any { return bool(*ptr(rec)) },
		set: func(rec *T, v any) error {
			b, ok := v.(bool)
			if !ok {
				return conversionError(Boolean, v, nil)
			}
			*ptr(rec) = B(b)
			return nil
		},
	}
}
