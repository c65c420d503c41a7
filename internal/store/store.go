package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/roach88/minorm/internal/schema"
)

// Supported database/sql drivers.
const (
	DriverSQLite = "sqlite3"
	DriverDuckDB = "duckdb"
)

// State is the lifecycle state of a Store.
type State int32

const (
	StateClosed State = iota
	StateOpen
	StateExecuting
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateExecuting:
		return "executing"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Config locates the backing database.
type Config struct {
	// Driver is the database/sql driver name. Defaults to DriverSQLite.
	Driver string

	// DSN is the driver-specific locator: a file path or ":memory:" for
	// SQLite, a file path or "" (in-memory) for DuckDB.
	DSN string

	// Pragmas run once on the connection right after it is opened.
	// nil selects the driver defaults; an empty slice runs nothing.
	Pragmas []string

	// Logger receives statement logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// defaultPragmas returns the per-driver connection setup.
//
// SQLite gets a busy timeout so a second process holding the file does not
// fail statements immediately. WAL applies to files only; an in-memory
// database keeps its own journal. Tables carry no references, so foreign_keys
// stays at the engine default. DuckDB needs no setup.
func defaultPragmas(driver, dsn string) []string {
	switch driver {
	case DriverSQLite:
		pragmas := []string{
			"PRAGMA synchronous = NORMAL",
			"PRAGMA busy_timeout = 5000",
		}
		if !inMemory(dsn) {
			pragmas = append([]string{"PRAGMA journal_mode = WAL"}, pragmas...)
		}
		return pragmas
	default:
		return nil
	}
}

// inMemory reports whether a SQLite DSN names an in-memory database.
func inMemory(dsn string) bool {
	return dsn == "" || dsn == ":memory:" ||
		strings.HasPrefix(dsn, "file::memory:") ||
		strings.Contains(dsn, "mode=memory")
}

// Store owns exactly one database connection and runs one statement at a
// time against it.
//
// The mutex guards the connection handle itself; statements with identical
// text do not block each other for any other reason than sharing the handle.
// Close releases the outstanding cursor, then the prepared statement, then
// the connection, then the pool.
type Store struct {
	mu     sync.Mutex
	state  atomic.Int32
	cfg    Config
	logger *slog.Logger

	db     *sql.DB
	conn   *sql.Conn
	stmt   *sql.Stmt
	cursor *Cursor
}

// New creates a closed store for cfg.
func New(cfg Config) *Store {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	if cfg.Pragmas == nil {
		cfg.Pragmas = defaultPragmas(cfg.Driver, cfg.DSN)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{cfg: cfg, logger: logger}
}

// Open creates a store for cfg and opens it.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	s := New(cfg)
	if err := s.Open(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Driver returns the configured driver name.
func (s *Store) Driver() string {
	return s.cfg.Driver
}

// State reports the current lifecycle state. Safe to call from a Scan callback.
func (s *Store) State() State {
	return State(s.state.Load())
}

// Open acquires the connection. Opening an open store is a no-op.
// On failure everything acquired so far is released and the store stays closed.
func (s *Store) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != StateClosed {
		return nil
	}

	db, err := sql.Open(s.cfg.Driver, s.cfg.DSN)
	if err != nil {
		return schema.NewConnectionError(s.locator(), err)
	}

	// Pin a single connection: in-memory databases live exactly as long as it.
	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return schema.NewConnectionError(s.locator(), err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		db.Close()
		return schema.NewConnectionError(s.locator(), err)
	}

	for _, pragma := range s.cfg.Pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			conn.Close()
			db.Close()
			return schema.NewConnectionError(s.locator(), fmt.Errorf("failed to execute %q: %w", pragma, err))
		}
	}

	s.db = db
	s.conn = conn
	s.state.Store(int32(StateOpen))
	s.logger.Debug("store opened", "driver", s.cfg.Driver, "dsn", s.cfg.DSN)
	return nil
}

// Close releases cursor, statement, connection and pool, each only if held.
// Valid from any state; closing a closed store returns nil.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() == StateClosed {
		return nil
	}

	var errs []error
	errs = append(errs, s.releaseCursor(), s.releaseStmt())
	if s.conn != nil {
		errs = append(errs, s.conn.Close())
		s.conn = nil
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
		s.db = nil
	}
	s.state.Store(int32(StateClosed))
	s.logger.Debug("store closed", "driver", s.cfg.Driver, "dsn", s.cfg.DSN)

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

func (s *Store) releaseCursor() error {
	if s.cursor == nil {
		return nil
	}
	err := s.cursor.Close()
	s.cursor = nil
	return err
}

func (s *Store) releaseStmt() error {
	if s.stmt == nil {
		return nil
	}
	err := s.stmt.Close()
	s.stmt = nil
	return err
}

func (s *Store) locator() string {
	return s.cfg.Driver + ":" + s.cfg.DSN
}
