// Package sqlite stores users, lists, items and grants in a single SQLite
// file. It backs local development and the end-to-end tests; production
// uses the postgres package.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/geocoder89/todohub/internal/observability"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	full_name TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS todo_lists (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	owner_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS todo_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	list_id INTEGER NOT NULL REFERENCES todo_lists(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending'
		CHECK (status IN ('pending', 'in-progress', 'completed')),
	assigned_to INTEGER REFERENCES users(id) ON DELETE SET NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS list_collaborators (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	list_id INTEGER NOT NULL REFERENCES todo_lists(id) ON DELETE CASCADE,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	permission TEXT NOT NULL DEFAULT 'edit'
		CHECK (permission IN ('view', 'edit', 'admin')),
	invited_at DATETIME NOT NULL,
	accepted_at DATETIME,
	UNIQUE (list_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_todo_lists_owner ON todo_lists(owner_id);
CREATE INDEX IF NOT EXISTS idx_todo_items_list ON todo_items(list_id);
CREATE INDEX IF NOT EXISTS idx_list_collaborators_user ON list_collaborators(user_id);
`

// DB wraps the SQLite connection.
type DB struct {
	*sql.DB
	prom *observability.Prom
}

// Open opens or creates the database at path with foreign keys enforced.
func Open(path string, prom *observability.Prom) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer at a time; every query below finishes reading its rows
	// before the next one starts.
	db.SetMaxOpenConns(1)

	return &DB{DB: db, prom: prom}, nil
}

// Init creates any missing tables.
func (db *DB) Init(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

func (db *DB) observe(op string, fn func() error) error {
	if db.prom != nil {
		return db.prom.ObserveDB(op, fn)
	}
	return fn()
}

func sqliteCode(err error) int {
	var e *moderncsqlite.Error
	if errors.As(err, &e) {
		return e.Code()
	}
	return 0
}

func isUniqueViolation(err error) bool {
	code := sqliteCode(err)
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func isForeignKeyViolation(err error) bool {
	return sqliteCode(err) == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

// violates reports whether a unique violation names table.column.
func violates(err error, column string) bool {
	return isUniqueViolation(err) && strings.Contains(err.Error(), column)
}

type scanner interface {
	Scan(dest ...any) error
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
