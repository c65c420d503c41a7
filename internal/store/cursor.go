package store

import "database/sql"

// Cursor is an in-flight result set owned by a Store.
// It is invalidated when the store runs its next statement or closes.
type Cursor struct {
	rows    *sql.Rows
	columns []string
	closed  bool
}

// Columns returns the result column names in select order.
func (c *Cursor) Columns() ([]string, error) {
	if c.columns != nil {
		return c.columns, nil
	}
	cols, err := c.rows.Columns()
	if err != nil {
		return nil, err
	}
	c.columns = cols
	return cols, nil
}

// Next advances to the next row. Returns false when exhausted or closed.
func (c *Cursor) Next() bool {
	if c.closed {
		return false
	}
	return c.rows.Next()
}

// Values returns the current row as the driver's loosely typed scalars.
func (c *Cursor) Values() ([]any, error) {
	cols, err := c.Columns()
	if err != nil {
		return nil, err
	}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	return values, nil
}

// Err returns the error, if any, that ended iteration.
func (c *Cursor) Err() error {
	return c.rows.Err()
}

// Close releases the result set. Closing twice is a no-op.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.rows.Close()
}
