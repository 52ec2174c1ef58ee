// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database: it lives inside your Go binary as a single file.
// No separate database server to install, configure, or manage. Perfect for:
// - Single-server deployments (which is most apps, honestly)
// - Development and testing (use ":memory:" for in-memory DB)
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C compiler
// installed and cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code, so it needs no C compiler and works everywhere Go works.
//
// STORE LAYOUT:
// DB owns the connection pool. Each table gets a small store type
// (UserDB, ShoppingListDB, ItemDB, RevokedTokenDB) obtained from DB and
// implementing one repository interface. They share the same *sql.DB.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/flacode/shopping-list-api/internal/repository/sqlite/migrations"
)

// DB wraps a sql.DB connection pool and hands out the per-table stores.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/shopping.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (great for tests, lost on close)
//
// PRAGMAS IN THE DSN:
// foreign_keys is a per-connection setting and database/sql keeps a pool of
// connections. Passing it as a _pragma DSN parameter makes the driver apply
// it to every connection it opens, so ON DELETE CASCADE always fires.
func New(ctx context.Context, dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every new connection to ":memory:" is a separate, empty database.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL (Write-Ahead Logging) mode lets readers proceed while a write is in
	// progress. It is persisted in the database file, so once is enough.
	if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// newFromConn wraps an existing pool without touching the schema.
// Tests use it with go-sqlmock.
func newFromConn(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

func dsn(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Close closes the database connection pool.
//
//	db, err := sqlite.New(ctx, "data/shopping.db")
//	if err != nil { ... }
//	defer db.Close()
func (db *DB) Close() error {
	return db.conn.Close()
}

// Users returns the store for the users table.
func (db *DB) Users() *UserDB { return &UserDB{conn: db.conn} }

// ShoppingLists returns the store for the shopping_lists table.
func (db *DB) ShoppingLists() *ShoppingListDB { return &ShoppingListDB{conn: db.conn} }

// Items returns the store for the items table.
func (db *DB) Items() *ItemDB { return &ItemDB{conn: db.conn} }

// RevokedTokens returns the store behind the revocation ledger.
func (db *DB) RevokedTokens() *RevokedTokenDB { return &RevokedTokenDB{conn: db.conn} }

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, conn *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, conn, dir, opts...)
}

// goose keeps its base FS, logger and dialect in package globals. They are
// set once per process so that several New calls may run at the same time.
var (
	gooseSetupOnce sync.Once
	gooseSetupErr  error
)

func setupGoose() error {
	gooseSetupOnce.Do(func() {
		goose.SetBaseFS(migrations.FS)
		goose.SetLogger(goose.NopLogger())
		if err := goose.SetDialect("sqlite3"); err != nil {
			gooseSetupErr = fmt.Errorf("setting goose dialect: %w", err)
		}
	})
	return gooseSetupErr
}

// migrate applies the embedded goose migrations (migrations/*.sql).
// goose records applied versions in goose_db_version, so this is safe
// to run on every start.
func (db *DB) migrate(ctx context.Context) error {
	if err := setupGoose(); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db.conn, "."); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is SQLite rejecting a write because
// of a UNIQUE or PRIMARY KEY constraint.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	// Older builds report only the primary result code.
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
}
