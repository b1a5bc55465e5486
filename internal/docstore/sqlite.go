package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"

	_ "modernc.org/sqlite"
)

// collectionNamePattern restricts collection names to safe SQL identifiers.
var collectionNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// SQLiteStore is a Store backed by a local SQLite database. Each collection
// is a table of (key, doc) rows with the document serialized as JSON;
// exact-match search uses json_extract over the stored document.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) a SQLite-backed store at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func validCollection(collection string) error {
	if !collectionNamePattern.MatchString(collection) {
		return fmt.Errorf("invalid collection name %q", collection)
	}
	return nil
}

// CreateCollection creates the collection table if it does not exist.
func (s *SQLiteStore) CreateCollection(ctx context.Context, collection string) error {
	if err := validCollection(collection); err != nil {
		return err
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  key TEXT PRIMARY KEY,
  doc TEXT NOT NULL
)`, collection)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating collection %s: %w", collection, err)
	}
	return nil
}

// DropCollection removes the collection table and all its documents.
func (s *SQLiteStore) DropCollection(ctx context.Context, collection string) error {
	if err := validCollection(collection); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", collection)); err != nil {
		return fmt.Errorf("dropping collection %s: %w", collection, err)
	}
	return nil
}

// Exists reports whether a document is stored under key.
func (s *SQLiteStore) Exists(ctx context.Context, collection, key string) (bool, error) {
	if err := validCollection(collection); err != nil {
		return false, err
	}
	var one int
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE key = ?", collection)
	err := s.db.QueryRowContext(ctx, query, key).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s/%s: %w", collection, key, err)
	}
	return true, nil
}

// Get returns the document stored under key, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, collection, key string) (Document, error) {
	if err := validCollection(collection); err != nil {
		return nil, err
	}
	var raw string
	query := fmt.Sprintf("SELECT doc FROM %s WHERE key = ?", collection)
	err := s.db.QueryRowContext(ctx, query, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s/%s: %w", collection, key, err)
	}

	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("parsing document %s/%s: %w", collection, key, err)
	}
	return doc, nil
}

// Put stores a document under key, replacing any previous document.
func (s *SQLiteStore) Put(ctx context.Context, collection, key string, doc Document) error {
	if err := validCollection(collection); err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("serializing document %s/%s: %w", collection, key, err)
	}
	query := fmt.Sprintf("INSERT OR REPLACE INTO %s (key, doc) VALUES (?, ?)", collection)
	if _, err := s.db.ExecContext(ctx, query, key, string(raw)); err != nil {
		return fmt.Errorf("storing %s/%s: %w", collection, key, err)
	}
	return nil
}

// Update merges the partial document into the stored document at the
// top level. Returns ErrNotFound when no document is stored under key.
func (s *SQLiteStore) Update(ctx context.Context, collection, key string, partial Document) error {
	if err := validCollection(collection); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting update transaction: %w", err)
	}
	defer tx.Rollback()

	var raw string
	query := fmt.Sprintf("SELECT doc FROM %s WHERE key = ?", collection)
	err = tx.QueryRowContext(ctx, query, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading %s/%s for update: %w", collection, key, err)
	}

	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return fmt.Errorf("parsing document %s/%s: %w", collection, key, err)
	}
	for k, v := range partial {
		doc[k] = v
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("serializing document %s/%s: %w", collection, key, err)
	}
	update := fmt.Sprintf("UPDATE %s SET doc = ? WHERE key = ?", collection)
	if _, err := tx.ExecContext(ctx, update, string(merged), key); err != nil {
		return fmt.Errorf("updating %s/%s: %w", collection, key, err)
	}

	return tx.Commit()
}

// SearchExactMatch returns the first document whose top-level field equals
// value, or ErrNotFound. A field holding an array matches when any of its
// elements equals value.
func (s *SQLiteStore) SearchExactMatch(ctx context.Context, collection, field, value string) (Document, error) {
	if err := validCollection(collection); err != nil {
		return nil, err
	}
	var raw string
	query := fmt.Sprintf(
		`SELECT doc FROM %s
		 WHERE json_extract(doc, '$.' || ?1) = ?2
		    OR EXISTS (SELECT 1 FROM json_each(doc, '$.' || ?1) WHERE json_each.value = ?2)
		 LIMIT 1`, collection)
	err := s.db.QueryRowContext(ctx, query, field, value).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("searching %s by %s: %w", collection, field, err)
	}

	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("parsing search result in %s: %w", collection, err)
	}
	return doc, nil
}

// Delete removes the document stored under key. Missing keys are ignored.
func (s *SQLiteStore) Delete(ctx context.Context, collection, key string) error {
	if err := validCollection(collection); err != nil {
		return err
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE key = ?", collection)
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, key, err)
	}
	return nil
}
