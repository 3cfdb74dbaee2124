// Package store persists documents, their paragraphs, and placeholder
// variables in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/docsift/docsift/dbopen"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("store: not found")

// Document processing states.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusProcessed  = "processed"
	StatusError      = "error"
)

// Store wraps the SQLite handle.
type Store struct {
	DB *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(Schema))
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return &Store{DB: db}, nil
}

// OpenMemory returns a Store backed by an in-memory database for tests.
func OpenMemory(t testing.TB) *Store {
	t.Helper()
	return &Store{DB: dbopen.OpenMemory(t, dbopen.WithSchema(Schema))}
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.DB.Close() }

func nowMilli() int64 { return time.Now().UnixMilli() }
