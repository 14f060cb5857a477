package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Common errors
var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrLengthMismatch     = errors.New("ids, vectors, documents, and metadatas must have equal length")
)

const schema = `
CREATE TABLE IF NOT EXISTS collections (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	metadata TEXT NOT NULL DEFAULT '{}',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	collection_id INTEGER NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
	record_id TEXT NOT NULL,
	vector BLOB NOT NULL,
	document TEXT NOT NULL,
	metadata TEXT NOT NULL DEFAULT '{}',
	UNIQUE(collection_id, record_id)
);

CREATE INDEX IF NOT EXISTS idx_records_collection ON records(collection_id);
`

// Store is a SQLite-backed vector database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the vector database at path and ensures the
// schema exists. Foreign keys are enabled so collection deletes cascade
// to their records.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening vector database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing vector schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateOrGetCollection returns the named collection, creating it with
// the given metadata if it does not exist. Metadata on an existing
// collection is left untouched.
func (s *Store) CreateOrGetCollection(ctx context.Context, name string, metadata map[string]string) (*Collection, error) {
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshaling collection metadata: %w", err)
	}
	if metadata == nil {
		metaJSON = []byte("{}")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO collections (name, metadata) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		name, string(metaJSON))
	if err != nil {
		return nil, fmt.Errorf("creating collection %q: %w", name, err)
	}

	return s.GetCollection(ctx, name)
}

// GetCollection returns the named collection or ErrCollectionNotFound.
func (s *Store) GetCollection(ctx context.Context, name string) (*Collection, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM collections WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up collection %q: %w", name, err)
	}

	return &Collection{store: s, id: id, name: name}, nil
}

// DeleteCollection removes the named collection and all its records.
// Deleting a collection that does not exist is not an error.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting collection %q: %w", name, err)
	}
	return nil
}

// ListCollections returns all collection names in creation order.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM collections ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
