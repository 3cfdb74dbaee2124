package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/docsift/docsift/dbopen"
)

// Link is a stored similarity score between two paragraphs, recorded
// under the document whose analysis produced it.
type Link struct {
	ParagraphA int64   `json:"paragraph_a"`
	ParagraphB int64   `json:"paragraph_b"`
	Score      float64 `json:"score"`
}

// ReplaceLinks atomically replaces the similarity links recorded for a
// document. Rerunning an analysis never accumulates stale pairs.
func (s *Store) ReplaceLinks(ctx context.Context, docID string, links []Link) error {
	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM paragraph_links WHERE document_id = ?`, docID); err != nil {
			return fmt.Errorf("store: replace links: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO paragraph_links (document_id, paragraph_a, paragraph_b, score)
			VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("store: replace links: %w", err)
		}
		defer stmt.Close()

		for _, l := range links {
			if _, err := stmt.ExecContext(ctx, docID, l.ParagraphA, l.ParagraphB, l.Score); err != nil {
				return fmt.Errorf("store: replace links: %w", err)
			}
		}
		return nil
	})
}

// DocumentLinks returns the similarity links recorded for a document,
// highest score first.
func (s *Store) DocumentLinks(ctx context.Context, docID string) ([]Link, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT paragraph_a, paragraph_b, score
		FROM paragraph_links WHERE document_id = ?
		ORDER BY score DESC`, docID)
	if err != nil {
		return nil, fmt.Errorf("store: document links: %w", err)
	}
	defer rows.Close()

	var links []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.ParagraphA, &l.ParagraphB, &l.Score); err != nil {
			return nil, fmt.Errorf("store: document links: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: document links: %w", err)
	}
	return links, nil
}

// Counts summarise the corpus for the status endpoint.
type Counts struct {
	Documents  int `json:"documents"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Processed  int `json:"processed"`
	Errors     int `json:"errors"`
	Paragraphs int `json:"paragraphs"`
	Variables  int `json:"variables"`
}

// StatusCounts gathers document, paragraph, and variable totals.
func (s *Store) StatusCounts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.DB.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(status = 'pending'), 0),
		       COALESCE(SUM(status = 'processing'), 0),
		       COALESCE(SUM(status = 'processed'), 0),
		       COALESCE(SUM(status = 'error'), 0)
		FROM documents`).
		Scan(&c.Documents, &c.Pending, &c.Processing, &c.Processed, &c.Errors)
	if err != nil {
		return Counts{}, fmt.Errorf("store: status counts: %w", err)
	}
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM paragraphs`).Scan(&c.Paragraphs); err != nil {
		return Counts{}, fmt.Errorf("store: status counts: %w", err)
	}
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM variables`).Scan(&c.Variables); err != nil {
		return Counts{}, fmt.Errorf("store: status counts: %w", err)
	}
	return c, nil
}
