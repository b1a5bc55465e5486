// Package docstore provides the document-store collaborator used by the
// record and TOC indexes: keyed JSON documents grouped into collections, with
// exact-match search over top-level fields.
package docstore

import (
	"context"
	"errors"
)

// Collection names used by the index layer.
const (
	RecordIndexCollection = "record_index"
	TOCIndexCollection    = "toc_index"
)

// ErrNotFound indicates the requested key or search value has no document.
var ErrNotFound = errors.New("document not found")

// Document is a JSON-shaped document: top-level fields map to values.
type Document = map[string]any

// Store is the abstract document-store interface. The SQLite implementation
// in this package is the default backend; any key/value or document store can
// satisfy it.
type Store interface {
	// Exists reports whether a document is stored under key.
	Exists(ctx context.Context, collection, key string) (bool, error)

	// Get returns the document stored under key, or ErrNotFound.
	Get(ctx context.Context, collection, key string) (Document, error)

	// Put stores a document under key, replacing any previous document.
	Put(ctx context.Context, collection, key string, doc Document) error

	// Update merges the partial document into the stored document. The
	// stored document must exist; ErrNotFound otherwise.
	Update(ctx context.Context, collection, key string, partial Document) error

	// SearchExactMatch returns the first document whose top-level field
	// equals value, or ErrNotFound.
	SearchExactMatch(ctx context.Context, collection, field, value string) (Document, error)

	// Delete removes the document stored under key. Deleting a missing key
	// is not an error.
	Delete(ctx context.Context, collection, key string) error

	// CreateCollection ensures a collection exists.
	CreateCollection(ctx context.Context, collection string) error

	// DropCollection removes a collection and all its documents.
	DropCollection(ctx context.Context, collection string) error

	// Close releases the backing resources.
	Close() error
}
