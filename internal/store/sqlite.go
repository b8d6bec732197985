package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteSlot keeps slots as rows of a single table in a local SQLite file.
type SQLiteSlot struct {
	db    *sql.DB
	quota int
}

func NewSQLiteSlot(dataSourceName string, quota int) (*SQLiteSlot, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer, and ":memory:" databases are per connection
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slot := &SQLiteSlot{db: db, quota: quota}
	if err = slot.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return slot, nil
}

func (s *SQLiteSlot) Close() error {
	return s.db.Close()
}

func (s *SQLiteSlot) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS slots (
        name TEXT PRIMARY KEY,
        payload BLOB NOT NULL,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteSlot) Get(ctx context.Context, name string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM slots WHERE name = ?", name).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to query slot %s: %w", name, err)
	}
	return payload, true, nil
}

func (s *SQLiteSlot) Put(ctx context.Context, name string, payload []byte) error {
	if err := checkQuota(payload, s.quota); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin slot write: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO slots (name, payload, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
    `)
	if err != nil {
		return fmt.Errorf("failed to prepare slot write: %w", err)
	}
	defer stmt.Close()

	if _, err = stmt.ExecContext(ctx, name, payload, time.Now()); err != nil {
		return fmt.Errorf("failed to execute slot write: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit slot write: %w", err)
	}
	return nil
}

func (s *SQLiteSlot) Delete(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM slots WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete slot %s: %w", name, err)
	}
	return nil
}
