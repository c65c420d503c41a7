package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/minorm/internal/schema"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(context.Background(), Config{DSN: path, Logger: discard})
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
	assert.Equal(t, StateOpen, s.State())
	assert.Equal(t, DriverSQLite, s.Driver())
}

func TestOpen_InvalidPath(t *testing.T) {
	s := New(Config{DSN: "/nonexistent/dir/test.db", Logger: discard})

	err := s.Open(context.Background())
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeConnection))
	assert.Equal(t, StateClosed, s.State())

	_, err = s.Execute(context.Background(), "SELECT 1")
	assert.True(t, schema.IsCode(err, schema.ErrCodeNotOpen))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "nosuchdriver", DSN: "x", Logger: discard})
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeConnection))
}

func TestOpen_BadPragma(t *testing.T) {
	s := New(Config{
		DSN:     filepath.Join(t.TempDir(), "test.db"),
		Pragmas: []string{"THIS IS NOT SQL"},
		Logger:  discard,
	})

	err := s.Open(context.Background())
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeConnection))
	assert.Equal(t, StateClosed, s.State())
}

func TestOpen_Idempotent(t *testing.T) {
	s := createTestStore(t)
	mustExec(t, s, "CREATE TABLE T (Id Text)")

	require.NoError(t, s.Open(context.Background()))

	// Same connection: the table is still visible.
	exists, err := s.TableExists(context.Background(), "T")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPragma_Defaults(t *testing.T) {
	s := createTestStore(t)

	testCases := []struct {
		pragma string
		want   any
	}{
		{"PRAGMA journal_mode", "wal"},
		{"PRAGMA busy_timeout", int64(5000)},
		{"PRAGMA synchronous", int64(1)}, // NORMAL
	}

	for _, tc := range testCases {
		t.Run(tc.pragma, func(t *testing.T) {
			_, rows := collect(t, s, tc.pragma)
			require.Len(t, rows, 1)
			var got any
			var err error
			switch tc.want.(type) {
			case string:
				got, err = schema.FromStoreValue(schema.Text, rows[0][0])
			default:
				got, err = schema.FromStoreValue(schema.Integer, rows[0][0])
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPragma_InMemorySkipsWAL(t *testing.T) {
	assert.Equal(t, []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}, defaultPragmas(DriverSQLite, "app.db"))

	for _, dsn := range []string{":memory:", "", "file::memory:?cache=shared", "file:x?mode=memory"} {
		assert.NotContains(t, defaultPragmas(DriverSQLite, dsn), "PRAGMA journal_mode = WAL", dsn)
	}
	assert.Nil(t, defaultPragmas(DriverDuckDB, ""))

	s, err := Open(context.Background(), Config{DSN: ":memory:", Logger: discard})
	require.NoError(t, err)
	defer s.Close()

	_, rows := collect(t, s, "PRAGMA journal_mode")
	require.Len(t, rows, 1)
	mode, err := schema.FromStoreValue(schema.Text, rows[0][0])
	require.NoError(t, err)
	assert.Equal(t, "memory", mode)
}

func TestExecute_WriteThenRead(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	mustExec(t, s, "CREATE TABLE User (Id Text, Age Int, Name Text, Height FLOAT)")
	mustExec(t, s, "INSERT INTO User VALUES ('0001', '21', 'zhangsan', '179.5')")

	cur, err := s.Execute(ctx, "SELECT * FROM User")
	require.NoError(t, err)
	require.NotNil(t, cur)

	cols, err := cur.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"Id", "Age", "Name", "Height"}, cols)

	require.True(t, cur.Next())
	values, err := cur.Values()
	require.NoError(t, err)

	id, _ := schema.FromStoreValue(schema.Text, values[0])
	assert.Equal(t, "0001", id, "TEXT affinity keeps the leading zeros")
	assert.Equal(t, int64(21), values[1], "INTEGER affinity converts the quoted literal")
	assert.Equal(t, 179.5, values[3], "REAL affinity converts the quoted literal")

	assert.False(t, cur.Next())
	assert.NoError(t, cur.Err())
}

func TestRun_BindsArgs(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	mustExec(t, s, "CREATE TABLE User (Id Text, Age Int, Name Text, Height FLOAT)")

	height := 2.507042724627193e-308
	require.NoError(t, s.Run(ctx, Statement{
		Text:  "INSERT INTO User VALUES ('0001', '21', 'zhangsan', '2.507042724627193e-308')",
		Query: "INSERT INTO User VALUES (?, ?, ?, ?)",
		Args:  []any{"0001", int64(21), "zhangsan", height},
	}))

	_, rows := collect(t, s, "SELECT * FROM User")
	require.Len(t, rows, 1)
	assert.Equal(t, int64(21), rows[0][1])
	assert.Equal(t, math.Float64bits(height), math.Float64bits(rows[0][3].(float64)))
}

func TestRun_ErrorCarriesLiteralText(t *testing.T) {
	s := createTestStore(t)

	err := s.Run(context.Background(), Statement{
		Text:  "INSERT INTO Missing VALUES ('1')",
		Query: "INSERT INTO Missing VALUES (?)",
		Args:  []any{"1"},
	})
	var se *schema.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, schema.ErrCodeStatement, se.Code)
	assert.Equal(t, "INSERT INTO Missing VALUES ('1')", se.Statement)
	assert.Equal(t, StateOpen, s.State())
}

func TestRun_WithoutQueryRunsText(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.Run(context.Background(), Statement{Text: "CREATE TABLE T (Id Text)"}))
	ok, err := s.TableExists(context.Background(), "T")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExecute_StatementErrorKeepsStoreOpen(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Execute(ctx, "INSERT INTO Missing VALUES ('1')")
	require.Error(t, err)

	var se *schema.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, schema.ErrCodeStatement, se.Code)
	assert.Equal(t, "INSERT INTO Missing VALUES ('1')", se.Statement)
	assert.NotNil(t, errors.Unwrap(se), "driver cause is preserved")

	assert.Equal(t, StateOpen, s.State())
	mustExec(t, s, "CREATE TABLE Missing (Id Text)")
	mustExec(t, s, "INSERT INTO Missing VALUES ('1')")
}

func TestExecute_EmptyStatement(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Execute(context.Background(), "   ")
	assert.True(t, schema.IsCode(err, schema.ErrCodeStatement))
}

func TestExecute_InvalidatesPreviousCursor(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	mustExec(t, s, "CREATE TABLE T (Id Text)")
	mustExec(t, s, "INSERT INTO T VALUES ('a')")

	first, err := s.Execute(ctx, "SELECT * FROM T")
	require.NoError(t, err)

	second, err := s.Execute(ctx, "SELECT * FROM T")
	require.NoError(t, err)

	assert.False(t, first.Next(), "cursor must be closed once another statement runs")
	assert.True(t, second.Next())
}

func TestClose_ReleasesEverything(t *testing.T) {
	s := New(Config{DSN: filepath.Join(t.TempDir(), "test.db"), Logger: discard})
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))
	mustExec(t, s, "CREATE TABLE T (Id Text)")
	mustExec(t, s, "INSERT INTO T VALUES ('a')")

	cur, err := s.Execute(ctx, "SELECT * FROM T")
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.Equal(t, StateClosed, s.State())
	assert.False(t, cur.Next())
	assert.Nil(t, s.cursor)
	assert.Nil(t, s.stmt)
	assert.Nil(t, s.conn)
	assert.Nil(t, s.db)

	// Closing again is harmless.
	assert.NoError(t, s.Close())

	_, err = s.Execute(ctx, "SELECT * FROM T")
	assert.True(t, schema.IsCode(err, schema.ErrCodeNotOpen))
	_, err = s.TableExists(ctx, "T")
	assert.True(t, schema.IsCode(err, schema.ErrCodeNotOpen))

	// And it can be reopened on the same file.
	require.NoError(t, s.Open(ctx))
	defer s.Close()
	_, rows := collect(t, s, "SELECT * FROM T")
	assert.Len(t, rows, 1)
}

func TestClose_NeverOpened(t *testing.T) {
	s := New(Config{DSN: ":memory:"})
	assert.NoError(t, s.Close())
}

func TestScan(t *testing.T) {
	s := createTestStore(t)
	mustExec(t, s, "CREATE TABLE T (Id Text, N Int)")
	for i := 0; i < 3; i++ {
		mustExec(t, s, fmt.Sprintf("INSERT INTO T VALUES ('%d', '%d')", i, i*10))
	}

	cols, rows := collect(t, s, "SELECT * FROM T")
	assert.Equal(t, []string{"Id", "N"}, cols)
	require.Len(t, rows, 3)
	assert.Equal(t, int64(20), rows[2][1])
	assert.Nil(t, s.cursor, "Scan releases its cursor")
}

func TestScan_StateAndCallbackError(t *testing.T) {
	s := createTestStore(t)
	mustExec(t, s, "CREATE TABLE T (Id Text)")
	mustExec(t, s, "INSERT INTO T VALUES ('a')")

	stop := errors.New("stop")
	var seen State
	err := s.Scan(context.Background(), "SELECT * FROM T", func([]string, []any) error {
		seen = s.State()
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, StateExecuting, seen)
	assert.Equal(t, StateOpen, s.State())
}

func TestScan_NonRowStatement(t *testing.T) {
	s := createTestStore(t)
	called := false
	err := s.Scan(context.Background(), "CREATE TABLE T (Id Text)", func([]string, []any) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)

	exists, err := s.TableExists(context.Background(), "T")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestTableExists(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	exists, err := s.TableExists(ctx, "User")
	require.NoError(t, err)
	assert.False(t, exists)

	mustExec(t, s, "CREATE TABLE User (Id Text)")

	exists, err = s.TableExists(ctx, "User")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.TableExists(ctx, "user")
	require.NoError(t, err)
	assert.True(t, exists, "SQLite resolves table names case-insensitively")
}

func TestExecute_Serialized(t *testing.T) {
	s := createTestStore(t)
	mustExec(t, s, "CREATE TABLE T (Id Text)")

	const writers = 8
	const perWriter = 25

	var wg sync.WaitGroup
	errs := make(chan error, writers*perWriter)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				// Identical text from different goroutines must not be a problem.
				if _, err := s.Execute(context.Background(), "INSERT INTO T VALUES ('same')"); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent insert failed: %v", err)
	}

	_, rows := collect(t, s, "SELECT COUNT(*) FROM T")
	assert.Equal(t, int64(writers*perWriter), rows[0][0])
}

func TestProducesRows(t *testing.T) {
	testCases := []struct {
		text string
		want bool
	}{
		{"SELECT * FROM T", true},
		{"  select 1", true},
		{"(SELECT 1)", true},
		{"WITH x AS (SELECT 1) SELECT * FROM x", true},
		{"PRAGMA journal_mode", true},
		{"INSERT INTO T VALUES ('a')", false},
		{"UPDATE T SET Id='b'", false},
		{"CREATE TABLE T (Id Text)", false},
		{"DROP TABLE T", false},
		{"", false},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, producesRows(tc.text), tc.text)
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "executing", StateExecuting.String())
	assert.Equal(t, "State(9)", State(9).String())
}
