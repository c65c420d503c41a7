package mapper

import (
	"context"
	"errors"

	"github.com/roach88/minorm/internal/querysql"
	"github.com/roach88/minorm/internal/schema"
	"github.com/roach88/minorm/internal/store"
)

// Table binds a Mapper to one record type.
type Table[T any] struct {
	m    *Mapper
	desc *schema.Descriptor[T]
}

// Bind returns the table for a registered record type.
//
//	users, err := mapper.Bind[User](m)
func Bind[T any, P schema.Describable[T]](m *Mapper) (*Table[T], error) {
	d, err := schema.Describe[T, P]()
	if err != nil {
		return nil, err
	}
	return NewTable(m, d), nil
}

// NewTable returns the table for an explicit descriptor, typically a dynamic
// one built from runtime column declarations.
func NewTable[T any](m *Mapper, d *schema.Descriptor[T]) *Table[T] {
	return &Table[T]{m: m, desc: d}
}

// Descriptor returns the table's record descriptor.
func (t *Table[T]) Descriptor() *schema.Descriptor[T] {
	return t.desc
}

// EnsureTable creates the table unless one with the same name exists.
// The existing table's columns are not compared.
func (t *Table[T]) EnsureTable(ctx context.Context) error {
	release, err := t.m.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	exists, err := t.m.store.TableExists(ctx, t.desc.Name())
	if err != nil {
		return err
	}
	if exists {
		t.m.logger.Debug("table exists", "table", t.desc.Name())
		return nil
	}
	if err := t.exec(ctx, querysql.KindCreateTable, store.Statement{Text: querysql.CreateTable(t.desc)}); err != nil {
		return err
	}
	t.m.logger.Info("table created", "table", t.desc.Name())
	return nil
}

// Insert appends rec as a new row. When a key generator is configured and
// rec has an empty Text Id, the generated key is written into rec first.
func (t *Table[T]) Insert(ctx context.Context, rec *T) error {
	if err := t.fillKey(rec); err != nil {
		return err
	}
	st, err := querysql.InsertBound(t.desc, rec)
	if err != nil {
		return err
	}
	return t.run(ctx, querysql.KindInsert, st)
}

// GetAll reads every row of the table into fresh instances, in the order the
// store returns them. The result is fully materialised before returning.
func (t *Table[T]) GetAll(ctx context.Context) ([]*T, error) {
	release, err := t.m.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	text := querysql.SelectAll(t.desc)
	var out []*T
	err = t.m.store.Scan(ctx, text, func(columns []string, values []any) error {
		rec, err := t.decode(columns, values)
		if err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	t.m.logger.Debug("rows read", "table", t.desc.Name(), "count", len(out))
	return out, nil
}

// Update rewrites every column of the row whose Id matches rec's.
// No matching row is not an error.
func (t *Table[T]) Update(ctx context.Context, rec *T) error {
	st, err := querysql.UpdateBound(t.desc, rec)
	if err != nil {
		return err
	}
	return t.run(ctx, querysql.KindUpdate, st)
}

// Delete removes the row whose Id matches rec's. No matching row is not an error.
func (t *Table[T]) Delete(ctx context.Context, rec *T) error {
	st, err := querysql.DeleteBound(t.desc, rec)
	if err != nil {
		return err
	}
	return t.run(ctx, querysql.KindDelete, st)
}

// DropTable removes the table. Dropping a missing table fails with
// schema.ErrCodeStatement.
func (t *Table[T]) DropTable(ctx context.Context) error {
	return t.run(ctx, querysql.KindDropTable, store.Statement{Text: querysql.DropTable(t.desc)})
}

// run leases the store and executes one statement.
func (t *Table[T]) run(ctx context.Context, kind string, st store.Statement) error {
	release, err := t.m.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return t.exec(ctx, kind, st)
}

// exec requires a lease.
func (t *Table[T]) exec(ctx context.Context, kind string, st store.Statement) error {
	if err := t.m.store.Run(ctx, st); err != nil {
		return err
	}
	t.m.logger.Debug("statement applied", "table", t.desc.Name(), "kind", kind)
	return nil
}

func (t *Table[T]) decode(columns []string, values []any) (*T, error) {
	rec := t.desc.New()
	for i, col := range columns {
		f, ok := t.desc.Column(col)
		if !ok {
			return nil, schema.NewUnknownColumnError(t.desc.Name(), col)
		}
		v, err := schema.FromStoreValue(f.Kind, values[i])
		if err != nil {
			return nil, t.annotate(err, f.Name)
		}
		if err := f.Set(rec, v); err != nil {
			return nil, t.annotate(err, f.Name)
		}
	}
	return rec, nil
}

func (t *Table[T]) fillKey(rec *T) error {
	if t.m.keys == nil {
		return nil
	}
	key, ok := t.desc.Key()
	if !ok || key.Kind != schema.Text {
		return nil
	}
	if id, _ := key.Get(rec).(string); id != "" {
		return nil
	}
	return t.annotate(key.Set(rec, t.m.keys.Generate()), key.Name)
}

// annotate fills in the table and field of a schema error.
func (t *Table[T]) annotate(err error, field string) error {
	var se *schema.Error
	if errors.As(err, &se) {
		if se.Table == "" {
			se.Table = t.desc.Name()
		}
		if se.Field == "" {
			se.Field = field
		}
	}
	return err
}
