package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"blockpage/internal/domain"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps the connection pool of the configured backend.
type DB struct {
	conn    *sql.DB
	dialect dialect
}

// New opens (or creates) the SQLite file at dbPath.
func New(dbPath string) (*DB, error) {
	return Open(ConnConfig{Driver: domain.DatabaseDriverSQLite, Path: dbPath})
}

// Open connects to the backend described by cfg and applies migrations.
func Open(cfg ConnConfig) (*DB, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	if d.driver == domain.DatabaseDriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	conn, err := sql.Open(d.sqlDriver, d.dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.sqlDriver, err)
	}
	conn.SetMaxOpenConns(d.maxConns)
	conn.SetMaxIdleConns(d.maxConns)
	conn.SetConnMaxLifetime(10 * time.Minute)

	db := &DB{conn: conn, dialect: d}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	for _, m := range db.dialect.migrations {
		if _, err := db.conn.Exec(m); err != nil {
			head := strings.TrimSpace(m)
			if len(head) > 40 {
				head = head[:40]
			}
			return fmt.Errorf("migration failed: %s: %w", head, err)
		}
	}
	return nil
}

// Tx is an open transaction handing out stores bound to it.
type Tx struct {
	tx      *sql.Tx
	dialect dialect
}

func (t *Tx) Blocks() *BlockStore {
	return &BlockStore{q: t.tx, dialect: t.dialect}
}

func (t *Tx) Pages() *PageStore {
	return &PageStore{q: t.tx, dialect: t.dialect}
}

// WithTx runs fn inside a single transaction. Any error from fn rolls the
// whole transaction back. Unique-position violations and serialization
// failures reported by the backend come back wrapping domain.ErrConflict.
func (db *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := db.conn.BeginTx(ctx, db.dialect.txOptions)
	if err != nil {
		return translate(fmt.Errorf("begin tx: %w", err))
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{tx: sqlTx, dialect: db.dialect}); err != nil {
		return translate(err)
	}
	if err := sqlTx.Commit(); err != nil {
		return translate(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}
