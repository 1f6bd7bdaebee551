package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"ideatracker/infrastructure/persistence/keypath"
)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
    parent TEXT NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (parent, key)
);
`

// PathStore implements ports.PathStore on a single SQLite table. Every leaf
// is one row keyed by its parent path and key.
type PathStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dataSourceName and applies
// the schema.
func Open(dataSourceName string) (*PathStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; also keeps ":memory:" on a single connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &PathStore{db: db}, nil
}

// Close closes the database
func (s *PathStore) Close() error {
	return s.db.Close()
}

// Ping checks the connection; used by readiness checks.
func (s *PathStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Get returns the leaf at path, or the object of its direct children.
func (s *PathStore) Get(ctx context.Context, path string) ([]byte, bool, error) {
	if err := keypath.Validate(path); err != nil {
		return nil, false, err
	}

	parent, key := keypath.Split(path)
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM nodes WHERE parent = ? AND key = ?`, parent, key,
	).Scan(&value)
	switch {
	case err == nil:
		return []byte(value), true, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM nodes WHERE parent = ?`, path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list %s: %w", path, err)
	}
	defer rows.Close()

	var children []keypath.Child
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, false, fmt.Errorf("failed to scan %s: %w", path, err)
		}
		children = append(children, keypath.Child{Key: k, Value: json.RawMessage(v)})
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("failed to list %s: %w", path, err)
	}
	if len(children) == 0 {
		return nil, false, nil
	}

	data, err := keypath.EncodeChildren(children)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set replaces the leaf at path.
func (s *PathStore) Set(ctx context.Context, path string, value []byte) error {
	if err := keypath.Validate(path); err != nil {
		return err
	}
	if !json.Valid(value) {
		return fmt.Errorf("value at %s is not valid JSON", path)
	}

	parent, key := keypath.Split(path)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO nodes (parent, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(parent, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		parent, key, string(value), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
