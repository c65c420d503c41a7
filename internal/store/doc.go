// Package store is the record store: one database connection, one statement
// at a time.
//
// A Store moves through three states:
//
//	Closed --Open--> Open --Execute--> Executing --> Open
//	  ^                                                |
//	  +---------------------- Close -------------------+
//
// Open pins a single *sql.Conn from a database/sql pool and applies the
// driver's pragmas; failures leave the store Closed and are reported as
// schema.ErrCodeConnection. Execute prepares the statement, runs it, and
// returns a Cursor for row-producing statements; Run does the same for a
// Statement whose values are bound as parameters. Statement failures are
// reported as schema.ErrCodeStatement and leave the store Open. Any statement
// against a Closed store fails with schema.ErrCodeNotOpen.
//
// # Drivers
//
//   - sqlite3 (github.com/mattn/go-sqlite3), the default. Pragmas:
//     journal_mode=WAL (files only), synchronous=NORMAL, busy_timeout=5000.
//   - duckdb (github.com/duckdb/duckdb-go/v2). Note that DuckDB's FLOAT is
//     single precision.
//
// In-memory databases (":memory:" for SQLite, "" for DuckDB) live exactly as
// long as the store stays open.
package store
