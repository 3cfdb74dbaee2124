package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docsift/docsift/dbopen"
)

// Document is one ingested file and its extraction results.
type Document struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"original_name"`
	StoredName   string    `json:"stored_name"`
	FileType     string    `json:"file_type"`
	FileSize     int64     `json:"file_size"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	FullText     string    `json:"full_text,omitempty"`
	Layout       string    `json:"layout,omitempty"`
	PageCount    int       `json:"page_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ListFilter narrows and orders ListDocuments results.
type ListFilter struct {
	FileType string
	Status   string
	// Sort is one of "created_at" (default, newest first), "name",
	// or "page_count".
	Sort string
}

// CreateDocument inserts a new document in pending state. A missing ID
// is filled with a UUIDv7 so records sort by creation time.
func (s *Store) CreateDocument(ctx context.Context, d *Document) error {
	if d.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("store: uuid: %w", err)
		}
		d.ID = id.String()
	}
	if d.Status == "" {
		d.Status = StatusPending
	}
	now := nowMilli()
	d.CreatedAt = time.UnixMilli(now)
	d.UpdatedAt = d.CreatedAt

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO documents (id, original_name, stored_name, file_type, file_size, status, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		d.ID, d.OriginalName, d.StoredName, d.FileType, d.FileSize, d.Status, now, now,
	)
	if err != nil {
		return fmt.Errorf("store: create document: %w", err)
	}
	return nil
}

// GetDocument loads a document, including its full text and layout.
func (s *Store) GetDocument(ctx context.Context, id string) (*Document, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, original_name, stored_name, file_type, file_size, status, error,
		       full_text, layout, page_count, created_at, updated_at
		FROM documents WHERE id = ?`, id)

	var d Document
	var created, updated int64
	err := row.Scan(&d.ID, &d.OriginalName, &d.StoredName, &d.FileType, &d.FileSize,
		&d.Status, &d.Error, &d.FullText, &d.Layout, &d.PageCount, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get document: %w", err)
	}
	d.CreatedAt = time.UnixMilli(created)
	d.UpdatedAt = time.UnixMilli(updated)
	return &d, nil
}

// ListDocuments returns documents matching the filter. Full text and
// layout are omitted from listings.
func (s *Store) ListDocuments(ctx context.Context, f ListFilter) ([]Document, error) {
	q := `SELECT id, original_name, stored_name, file_type, file_size, status, error,
	             page_count, created_at, updated_at
	      FROM documents WHERE 1=1`
	var args []any
	if f.FileType != "" {
		q += " AND file_type = ?"
		args = append(args, f.FileType)
	}
	if f.Status != "" {
		q += " AND status = ?"
		args = append(args, f.Status)
	}
	switch f.Sort {
	case "name":
		q += " ORDER BY original_name COLLATE NOCASE ASC"
	case "page_count":
		q += " ORDER BY page_count DESC, created_at DESC"
	default:
		q += " ORDER BY created_at DESC"
	}

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var created, updated int64
		if err := rows.Scan(&d.ID, &d.OriginalName, &d.StoredName, &d.FileType, &d.FileSize,
			&d.Status, &d.Error, &d.PageCount, &created, &updated); err != nil {
			return nil, fmt.Errorf("store: list documents: %w", err)
		}
		d.CreatedAt = time.UnixMilli(created)
		d.UpdatedAt = time.UnixMilli(updated)
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list documents: %w", err)
	}
	return docs, nil
}

// SetProcessing marks a document as being worked on.
func (s *Store) SetProcessing(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, StatusProcessing, "")
}

// SetError marks a document as failed with the given message.
func (s *Store) SetError(ctx context.Context, id, msg string) error {
	return s.setStatus(ctx, id, StatusError, msg)
}

// setStatus runs through dbopen.Exec: workers and API handlers update
// status concurrently and can hit SQLITE_BUSY.
func (s *Store) setStatus(ctx context.Context, id, status, msg string) error {
	res, err := dbopen.Exec(ctx, s.DB,
		`UPDATE documents SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		status, msg, nowMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("store: set status: %w", err)
	}
	return checkFound(res)
}

// SetExtraction stores extraction results and marks the document
// processed.
func (s *Store) SetExtraction(ctx context.Context, id, fullText, layout string, pageCount int) error {
	res, err := dbopen.Exec(ctx, s.DB, `
		UPDATE documents
		SET status = ?, error = '', full_text = ?, layout = ?, page_count = ?, updated_at = ?
		WHERE id = ?`,
		StatusProcessed, fullText, layout, pageCount, nowMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("store: set extraction: %w", err)
	}
	return checkFound(res)
}

// ResetDocument returns a document to pending state and drops its
// paragraph and variable links so reprocessing starts clean. Shared
// paragraphs and variables themselves are kept.
func (s *Store) ResetDocument(ctx context.Context, id string) error {
	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE documents
			SET status = ?, error = '', full_text = '', layout = '', page_count = 0, updated_at = ?
			WHERE id = ?`,
			StatusPending, nowMilli(), id,
		)
		if err != nil {
			return fmt.Errorf("store: reset document: %w", err)
		}
		if err := checkFound(res); err != nil {
			return err
		}
		for _, table := range []string{"document_paragraphs", "document_variables", "paragraph_links"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE document_id = ?", id); err != nil {
				return fmt.Errorf("store: reset document: %w", err)
			}
		}
		return nil
	})
}

// DeleteDocument removes a document and its links. Paragraphs and
// variables shared with other documents are never deleted.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete document: %w", err)
	}
	return checkFound(res)
}

func checkFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
