package querysql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/minorm/internal/schema"
	"github.com/roach88/minorm/internal/store"
)

// Statement kinds, in the order a table's life usually sees them.
const (
	KindCreateTable = "create_table"
	KindInsert      = "insert"
	KindSelectAll   = "select_all"
	KindUpdate      = "update"
	KindDelete      = "delete"
	KindDropTable   = "drop_table"
)

// CreateTable compiles the CREATE TABLE statement for d.
// Columns follow descriptor order; no key or NOT NULL constraints are emitted.
func CreateTable[T any](d *schema.Descriptor[T]) string {
	cols := make([]string, 0, len(d.Fields()))
	for _, f := range d.Fields() {
		cols = append(cols, fmt.Sprintf("%s %s", f.Name, schema.ColumnType(f.Kind)))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", d.Name(), strings.Join(cols, ", "))
}

// Insert compiles an INSERT of every field of rec, in descriptor order.
func Insert[T any](d *schema.Descriptor[T], rec *T) (string, error) {
	values := make([]string, 0, len(d.Fields()))
	for _, f := range d.Fields() {
		lit, err := quote(d, f, rec)
		if err != nil {
			return "", err
		}
		values = append(values, lit)
	}
	return fmt.Sprintf("INSERT INTO %s VALUES (%s)", d.Name(), strings.Join(values, ", ")), nil
}

// SelectAll compiles a whole-table scan.
func SelectAll[T any](d *schema.Descriptor[T]) string {
	return "SELECT * FROM " + d.Name()
}

// UpdateByKey compiles an UPDATE of every field of rec, targeting the row
// whose Id equals rec's Id.
func UpdateByKey[T any](d *schema.Descriptor[T], rec *T) (string, error) {
	where, err := keyClause(d, rec)
	if err != nil {
		return "", err
	}

	sets := make([]string, 0, len(d.Fields()))
	for _, f := range d.Fields() {
		lit, err := quote(d, f, rec)
		if err != nil {
			return "", err
		}
		sets = append(sets, f.Name+"="+lit)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s", d.Name(), strings.Join(sets, ", "), where), nil
}

// DeleteByKey compiles a DELETE of the row whose Id equals rec's Id.
func DeleteByKey[T any](d *schema.Descriptor[T], rec *T) (string, error) {
	where, err := keyClause(d, rec)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("DELETE FROM %s WHERE %s", d.Name(), where), nil
}

// DropTable compiles the DROP TABLE statement for d.
func DropTable[T any](d *schema.Descriptor[T]) string {
	return "DROP TABLE " + d.Name()
}

// InsertBound compiles Insert for execution with the row values bound as
// parameters. The statement's Text is exactly what Insert returns, and it
// fails exactly when Insert does.
func InsertBound[T any](d *schema.Descriptor[T], rec *T) (store.Statement, error) {
	text, err := Insert(d, rec)
	if err != nil {
		return store.Statement{}, err
	}
	marks := make([]string, 0, len(d.Fields()))
	args := make([]any, 0, len(d.Fields()))
	for _, f := range d.Fields() {
		marks = append(marks, "?")
		args = append(args, f.Get(rec))
	}
	return store.Statement{
		Text:  text,
		Query: fmt.Sprintf("INSERT INTO %s VALUES (%s)", d.Name(), strings.Join(marks, ", ")),
		Args:  args,
	}, nil
}

// UpdateBound is UpdateByKey with every value, the key included, bound as a
// parameter.
func UpdateBound[T any](d *schema.Descriptor[T], rec *T) (store.Statement, error) {
	text, err := UpdateByKey(d, rec)
	if err != nil {
		return store.Statement{}, err
	}
	key, _ := d.Key()

	sets := make([]string, 0, len(d.Fields()))
	args := make([]any, 0, len(d.Fields())+1)
	for _, f := range d.Fields() {
		sets = append(sets, f.Name+"=?")
		args = append(args, f.Get(rec))
	}
	args = append(args, key.Get(rec))
	return store.Statement{
		Text:  text,
		Query: fmt.Sprintf("UPDATE %s SET %s WHERE (%s=?)", d.Name(), strings.Join(sets, ", "), key.Name),
		Args:  args,
	}, nil
}

// DeleteBound is DeleteByKey with the key bound as a parameter.
func DeleteBound[T any](d *schema.Descriptor[T], rec *T) (store.Statement, error) {
	text, err := DeleteByKey(d, rec)
	if err != nil {
		return store.Statement{}, err
	}
	key, _ := d.Key()
	return store.Statement{
		Text:  text,
		Query: fmt.Sprintf("DELETE FROM %s WHERE (%s=?)", d.Name(), key.Name),
		Args:  []any{key.Get(rec)},
	}, nil
}

// keyClause renders "(Id='<id>')".
// A type without an Id field is refused: the clause would otherwise match
// every row.
func keyClause[T any](d *schema.Descriptor[T], rec *T) (string, error) {
	key, ok := d.Key()
	if !ok {
		return "", schema.NewMissingKeyError(d.Name())
	}
	lit, err := quote(d, key, rec)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(%s=%s)", key.Name, lit), nil
}

// quote renders one field of rec as a single-quoted literal.
// Values are not escaped; a value containing a quote is rejected instead of
// producing a statement that means something else.
func quote[T any](d *schema.Descriptor[T], f schema.Field[T], rec *T) (string, error) {
	text, err := schema.Literal(f.Kind, f.Get(rec))
	if err != nil {
		var se *schema.Error
		if errors.As(err, &se) {
			se.Table = d.Name()
			se.Field = f.Name
		}
		return "", err
	}
	if strings.ContainsRune(text, '\'') {
		return "", &schema.Error{
			Code:    schema.ErrCodeUnsafeLiteral,
			Message: "value contains a single quote and literals are not escaped",
			Table:   d.Name(),
			Field:   f.Name,
		}
	}
	return "'" + text + "'", nil
}
