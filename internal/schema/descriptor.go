package schema

import (
	"regexp"
	"strings"
)

// KeyFieldName is the field that identifies a row for UPDATE and DELETE.
const KeyFieldName = "Id"

var identifierRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Schema is the declaration a record type registers: its table name, its
// fields in column order, and optionally a constructor for fresh instances.
type Schema[T any] struct {
	Name   string
	Fields []Field[T]

	// New constructs an empty instance. Defaults to new(T).
	New func() *T
}

// Descriptor is the validated, immutable metadata for a mappable type.
// Field order is fixed at construction and shared by every statement built
// from the descriptor.
type Descriptor[T any] struct {
	name   string
	fields []Field[T]
	index  map[string]int
	folded map[string]int
	newFn  func() *T
}

// New validates a schema declaration and returns its descriptor.
func New[T any](s Schema[T]) (*Descriptor[T], error) {
	if s.Name == "" {
		return nil, invalidSchema("", "", "type name is required")
	}
	if !identifierRE.MatchString(s.Name) {
		return nil, invalidSchema(s.Name, "", "type name %q is not a plain SQL identifier", s.Name)
	}
	if len(s.Fields) == 0 {
		return nil, invalidSchema(s.Name, "", "at least one field is required")
	}

	d := &Descriptor[T]{
		name:   s.Name,
		fields: make([]Field[T], len(s.Fields)),
		index:  make(map[string]int, len(s.Fields)),
		folded: make(map[string]int, len(s.Fields)),
		newFn:  s.New,
	}
	if d.newFn == nil {
		d.newFn = func() *T { return new(T) }
	}

	for i, f := range s.Fields {
		if !identifierRE.MatchString(f.Name) {
			return nil, invalidSchema(s.Name, f.Name, "field name %q is not a plain SQL identifier", f.Name)
		}
		if !f.Kind.Valid() {
			return nil, &Error{
				Code:    ErrCodeUnsupportedKind,
				Message: "unsupported field kind " + f.Kind.String(),
				Table:   s.Name,
				Field:   f.Name,
			}
		}
		if f.get == nil || f.set == nil {
			return nil, invalidSchema(s.Name, f.Name, "field has no accessor")
		}
		if _, dup := d.index[f.Name]; dup {
			return nil, invalidSchema(s.Name, f.Name, "duplicate field %q", f.Name)
		}
		d.fields[i] = f
		d.index[f.Name] = i
		if _, seen := d.folded[strings.ToLower(f.Name)]; !seen {
			d.folded[strings.ToLower(f.Name)] = i
		}
	}

	return d, nil
}

// Name returns the type name, used verbatim as the table name.
func (d *Descriptor[T]) Name() string {
	return d.name
}

// Fields returns the fields in column order. The slice must not be modified.
func (d *Descriptor[T]) Fields() []Field[T] {
	return d.fields
}

// Field looks a field up by exact name.
func (d *Descriptor[T]) Field(name string) (Field[T], bool) {
	i, ok := d.index[name]
	if !ok {
		return Field[T]{}, false
	}
	return d.fields[i], true
}

// Column resolves a result column to a field: exact name first, then a
// case-insensitive match for engines that fold identifier case.
func (d *Descriptor[T]) Column(name string) (Field[T], bool) {
	if f, ok := d.Field(name); ok {
		return f, true
	}
	i, ok := d.folded[strings.ToLower(name)]
	if !ok {
		return Field[T]{}, false
	}
	return d.fields[i], true
}

// Key returns the Id field, if the type declares one.
func (d *Descriptor[T]) Key() (Field[T], bool) {
	return d.Field(KeyFieldName)
}

// New constructs an empty instance of the record type.
func (d *Descriptor[T]) New() *T {
	return d.newFn()
}
