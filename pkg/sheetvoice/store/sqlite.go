package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS scripts (
	file_name    TEXT PRIMARY KEY,
	script_id    TEXT NOT NULL,
	redirect_url TEXT NOT NULL,
	client_name  TEXT NOT NULL
);`

// SQLiteStore persists records in an embedded SQLite database. It keeps
// the same external behavior as the JSON backend: every lookup sees the
// full live record set, keyed by file name.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store", "backend", BackendSQLite),
	}, nil
}

// Load creates the schema if needed.
func (s *SQLiteStore) Load() error {
	if _, err := s.db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("creating scripts table: %w", err)
	}
	return nil
}

// Upsert inserts or replaces the record keyed by file name.
func (s *SQLiteStore) Upsert(rec Record) error {
	_, err := s.db.Exec(`
INSERT INTO scripts (file_name, script_id, redirect_url, client_name)
VALUES (?, ?, ?, ?)
ON CONFLICT(file_name) DO UPDATE SET
	script_id = excluded.script_id,
	redirect_url = excluded.redirect_url,
	client_name = excluded.client_name`,
		rec.FileName, rec.ScriptID, rec.RedirectURL, rec.ClientName)
	if err != nil {
		return fmt.Errorf("upserting record %s: %w", rec.FileName, err)
	}
	return nil
}

// Remove deletes the record keyed by fileName.
func (s *SQLiteStore) Remove(fileName string) error {
	if _, err := s.db.Exec(`DELETE FROM scripts WHERE file_name = ?`, fileName); err != nil {
		return fmt.Errorf("removing record %s: %w", fileName, err)
	}
	return nil
}

// FindByScriptID returns the record with the given script ID, or nil.
func (s *SQLiteStore) FindByScriptID(id string) (*Record, error) {
	return s.findOne(`SELECT file_name, script_id, redirect_url, client_name FROM scripts WHERE script_id = ?`, id)
}

// FindByClientName returns the record with the given client name, or nil.
func (s *SQLiteStore) FindByClientName(name string) (*Record, error) {
	return s.findOne(`SELECT file_name, script_id, redirect_url, client_name FROM scripts WHERE client_name = ?`, name)
}

// All returns every record ordered by file name.
func (s *SQLiteStore) All() ([]Record, error) {
	rows, err := s.db.Query(`SELECT file_name, script_id, redirect_url, client_name FROM scripts ORDER BY file_name`)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.FileName, &rec.ScriptID, &rec.RedirectURL, &rec.ClientName); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) findOne(query string, arg any) (*Record, error) {
	var rec Record
	err := s.db.QueryRow(query, arg).Scan(&rec.FileName, &rec.ScriptID, &rec.RedirectURL, &rec.ClientName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying record: %w", err)
	}
	return &rec, nil
}
