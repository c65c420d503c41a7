package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/minorm/internal/schema"
)

// Statement is one statement with its row values bound as parameters.
//
// Text is the literal rendering of the statement; it is what logs, errors and
// traces show. Query, when set, is what actually runs, with one placeholder
// per element of Args. An empty Query runs Text as is.
type Statement struct {
	Text  string
	Query string
	Args  []any
}

func (st Statement) query() string {
	if st.Query != "" {
		return st.Query
	}
	return st.Text
}

// Execute runs one statement.
//
// Statements that produce rows return a Cursor; the cursor stays owned by the
// store and is closed by the next Execute, Scan or Close, so callers that
// share a store between goroutines should use Scan instead. Other statements
// return a nil cursor.
//
// Failures are reported as schema.ErrCodeStatement carrying the statement
// text; the store stays open. A closed store fails with schema.ErrCodeNotOpen.
func (s *Store) Execute(ctx context.Context, text string) (*Cursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.execute(ctx, Statement{Text: text})
}

// Run executes a statement that produces no rows, binding st.Args.
// Failures are reported like Execute's, carrying st.Text.
func (s *Store) Run(ctx context.Context, st Statement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.execute(ctx, st)
	return err
}

// Scan runs a row-producing statement and calls fn for each row while holding
// the store, then releases the cursor. fn must not call back into the store
// (other than State).
func (s *Store) Scan(ctx context.Context, text string, fn func(columns []string, values []any) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.execute(ctx, Statement{Text: text})
	if err != nil {
		return err
	}
	if cur == nil {
		return nil
	}
	s.state.Store(int32(StateExecuting))
	defer s.state.Store(int32(StateOpen))
	defer func() {
		s.releaseCursor()
		s.releaseStmt()
	}()

	columns, err := cur.Columns()
	if err != nil {
		return schema.NewStatementError(text, err)
	}
	for cur.Next() {
		values, err := cur.Values()
		if err != nil {
			return schema.NewStatementError(text, err)
		}
		if err := fn(columns, values); err != nil {
			return err
		}
	}
	if err := cur.Err(); err != nil {
		return schema.NewStatementError(text, err)
	}
	return nil
}

// TableExists reports whether a table with the given name exists.
// Table names compare case-insensitively, as both engines resolve them.
func (s *Store) TableExists(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var query string
	switch s.cfg.Driver {
	case DriverDuckDB:
		query = "SELECT COUNT(*) FROM information_schema.tables WHERE lower(table_name) = lower(?)"
	default:
		query = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ? COLLATE NOCASE"
	}

	if s.State() == StateClosed {
		return false, schema.NewNotOpenError(query)
	}
	s.releaseCursor()
	s.releaseStmt()

	var count int
	if err := s.conn.QueryRowContext(ctx, query, name).Scan(&count); err != nil {
		return false, schema.NewStatementError(query, fmt.Errorf("table lookup %q: %w", name, err))
	}
	return count > 0, nil
}

// execute requires s.mu to be held.
func (s *Store) execute(ctx context.Context, st Statement) (*Cursor, error) {
	text := st.Text
	if s.State() == StateClosed {
		return nil, schema.NewNotOpenError(text)
	}
	if strings.TrimSpace(text) == "" {
		return nil, schema.NewStatementError(text, fmt.Errorf("empty statement"))
	}

	// The previous result set is invalidated before anything else runs.
	if err := s.releaseCursor(); err != nil {
		s.logger.Warn("releasing cursor failed", "error", err)
	}
	if err := s.releaseStmt(); err != nil {
		s.logger.Warn("releasing statement failed", "error", err)
	}

	s.state.Store(int32(StateExecuting))
	defer s.state.Store(int32(StateOpen))

	stmt, err := s.conn.PrepareContext(ctx, st.query())
	if err != nil {
		return nil, s.fail(text, err)
	}

	if producesRows(text) {
		rows, err := stmt.QueryContext(ctx, st.Args...)
		if err != nil {
			stmt.Close()
			return nil, s.fail(text, err)
		}
		s.stmt = stmt
		s.cursor = &Cursor{rows: rows}
		s.logger.Debug("statement executed", "sql", text, "rows", true)
		return s.cursor, nil
	}

	_, err = stmt.ExecContext(ctx, st.Args...)
	stmt.Close()
	if err != nil {
		return nil, s.fail(text, err)
	}
	s.logger.Debug("statement executed", "sql", text, "args", len(st.Args))
	return nil, nil
}

func (s *Store) fail(text string, err error) error {
	s.logger.Error("statement failed", "sql", text, "error", err)
	return schema.NewStatementError(text, err)
}

// producesRows reports whether a statement's leading keyword yields a result set.
func producesRows(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(strings.TrimLeft(fields[0], "(")) {
	case "SELECT", "WITH", "PRAGMA", "VALUES", "SHOW", "DESCRIBE", "EXPLAIN":
		return true
	default:
		return false
	}
}
