// Package store persists merged declaration forests in SQLite.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for the merged declaration model.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  language        TEXT NOT NULL,
  hash            TEXT,
  last_indexed    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS declarations (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER REFERENCES files(id),
  parent_id       INTEGER REFERENCES declarations(id),
  name            TEXT NOT NULL,
  full_name       TEXT NOT NULL,
  kind            TEXT NOT NULL,
  access          TEXT,
  class_type      TEXT,
  line            INTEGER,
  type_expr       TEXT,
  value           TEXT,
  modifiers       TEXT,
  signature_hash  TEXT
);

CREATE TABLE IF NOT EXISTS hierarchy (
  id              INTEGER PRIMARY KEY,
  derived_id      INTEGER NOT NULL REFERENCES declarations(id),
  base_id         INTEGER NOT NULL REFERENCES declarations(id),
  access          TEXT
);

CREATE TABLE IF NOT EXISTS type_refs (
  id              INTEGER PRIMARY KEY,
  declaration_id  INTEGER NOT NULL REFERENCES declarations(id),
  target_id       INTEGER NOT NULL REFERENCES declarations(id),
  role            TEXT NOT NULL,
  ordinal         INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT
);

CREATE INDEX IF NOT EXISTS idx_declarations_file ON declarations(file_id);
CREATE INDEX IF NOT EXISTS idx_declarations_parent ON declarations(parent_id);
CREATE INDEX IF NOT EXISTS idx_declarations_name ON declarations(name);
CREATE INDEX IF NOT EXISTS idx_declarations_full_name ON declarations(full_name);
CREATE INDEX IF NOT EXISTS idx_declarations_kind ON declarations(kind);
CREATE INDEX IF NOT EXISTS idx_hierarchy_derived ON hierarchy(derived_id);
CREATE INDEX IF NOT EXISTS idx_hierarchy_base ON hierarchy(base_id);
CREATE INDEX IF NOT EXISTS idx_type_refs_declaration ON type_refs(declaration_id);
CREATE INDEX IF NOT EXISTS idx_type_refs_target ON type_refs(target_id);
`

// reset removes every stored row inside tx, in reverse dependency order.
func reset(tx *sql.Tx) error {
	for _, q := range []string{
		"DELETE FROM type_refs",
		"DELETE FROM hierarchy",
		"UPDATE declarations SET parent_id = NULL",
		"DELETE FROM declarations",
		"DELETE FROM files",
	} {
		if _, err := tx.Exec(q); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	return nil
}

// GetMetadata returns the value stored under key, or "" when unset.
func (s *Store) GetMetadata(key string) (string, error) {
	var v sql.NullString
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata: %w", err)
	}
	return v.String, nil
}

func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata: %w", err)
	}
	return nil
}
