package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// createTestStore opens a store on a fresh SQLite file.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{
		DSN:    filepath.Join(t.TempDir(), "test.db"),
		Logger: discard,
	})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustExec runs a statement that produces no rows.
func mustExec(t *testing.T, s *Store, text string) {
	t.Helper()
	cur, err := s.Execute(context.Background(), text)
	require.NoError(t, err)
	require.Nil(t, cur, "statement %q unexpectedly produced rows", text)
}

// collect reads every row of a statement via Scan.
func collect(t *testing.T, s *Store, text string) ([]string, [][]any) {
	t.Helper()
	var cols []string
	var rows [][]any
	err := s.Scan(context.Background(), text, func(columns []string, values []any) error {
		cols = columns
		rows = append(rows, values)
		return nil
	})
	require.NoError(t, err)
	return cols, rows
}
