package schema

// Record is the instance type of descriptors declared at runtime (CUE files,
// scenario YAML, CLI). Keys are field names; values are native kind values.
type Record map[string]any

// Column is a runtime field declaration: a name and a kind.
type Column struct {
	Name string    `json:"name" yaml:"name"`
	Kind FieldKind `json:"kind" yaml:"kind"`
}

// Dynamic builds a descriptor for Record instances from runtime declarations.
//
// Getters normalise loosely typed values (an int from YAML, a numeric string
// from the command line) through FromStoreValue; values that cannot be
// normalised are returned unchanged so that rendering reports the conversion
// error with full context.
func Dynamic(name string, columns []Column) (*Descriptor[Record], error) {
	fields := make([]Field[Record], len(columns))
	for i, c := range columns {
		fields[i] = recordField(c.Name, c.Kind)
	}
	return New(Schema[Record]{
		Name:   name,
		Fields: fields,
		New: func() *Record {
			r := make(Record, len(columns))
			return &r
		},
	})
}

func recordField(name string, kind FieldKind) Field[Record] {
	return NewField(name, kind,
		func(r *Record) any {
			raw, ok := (*r)[name]
			if !ok || raw == nil {
				return Zero(kind)
			}
			v, err := FromStoreValue(kind, raw)
			if err != nil {
				return raw
			}
			return v
		},
		func(r *Record, v any) error {
			if *r == nil {
				*r = make(Record)
			}
			(*r)[name] = v
			return nil
		},
	)
}

// Columns returns the runtime declaration of d, in column order.
func (d *Descriptor[T]) Columns() []Column {
	cols := make([]Column, len(d.fields))
	for i, f := range d.fields {
		cols[i] = Column{Name: f.Name, Kind: f.Kind}
	}
	return cols
}
