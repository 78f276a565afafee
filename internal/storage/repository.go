package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteRepository keeps each slot as a row of the slots table.
type SQLiteRepository struct {
	db      *sqlx.DB
	version uint
}

type slotRow struct {
	Name  string `db:"name"`
	Value string `db:"value"`
}

const (
	selectSlotSQL = `SELECT name, value FROM slots WHERE name = ?`
	upsertSlotSQL = `INSERT INTO slots (name, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	deleteSlotSQL = `DELETE FROM slots WHERE name = ?`
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one writer; the ledger already serializes saves
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, version: version}, nil
}

// SchemaVersion is the migration version applied when the repository opened.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.version
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReadSlot implements store.Slot
func (r *SQLiteRepository) ReadSlot(ctx context.Context, name string) ([]byte, bool, error) {
	var row slotRow
	err := r.db.GetContext(ctx, &row, selectSlotSQL, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get slot %s: %w", name, err)
	}
	return []byte(row.Value), true, nil
}

// WriteSlot implements store.Slot. The upsert is a single statement, so the
// row holds either the previous or the new value.
func (r *SQLiteRepository) WriteSlot(ctx context.Context, name string, value []byte) error {
	if _, err := r.db.ExecContext(ctx, upsertSlotSQL, name, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert slot %s: %w", name, err)
	}
	return nil
}

// DeleteSlot implements store.Slot
func (r *SQLiteRepository) DeleteSlot(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, deleteSlotSQL, name); err != nil {
		return fmt.Errorf("delete slot %s: %w", name, err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
