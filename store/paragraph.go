package store

import (
	"context"
	"fmt"
)

// StoredParagraph is a shared paragraph row plus, when loaded through a
// document, its position in that document.
type StoredParagraph struct {
	ID       int64  `json:"id"`
	Hash     string `json:"hash"`
	Text     string `json:"text"`
	Position int    `json:"position"`
}

// UpsertParagraph finds or creates the paragraph with the given hash and
// returns its id. The text of an existing row is left untouched.
func (s *Store) UpsertParagraph(ctx context.Context, hash, text string) (int64, error) {
	var id int64
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO paragraphs (hash, text) VALUES (?, ?)
		ON CONFLICT (hash) DO UPDATE SET hash = hash
		RETURNING id`,
		hash, text,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: upsert paragraph: %w", err)
	}
	return id, nil
}

// AssociateParagraph links a paragraph to a document at a position.
// Re-associating the same position is idempotent.
func (s *Store) AssociateParagraph(ctx context.Context, docID string, paraID int64, position int) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO document_paragraphs (document_id, paragraph_id, position)
		VALUES (?, ?, ?)
		ON CONFLICT (document_id, position) DO UPDATE SET paragraph_id = excluded.paragraph_id`,
		docID, paraID, position,
	)
	if err != nil {
		return fmt.Errorf("store: associate paragraph: %w", err)
	}
	return nil
}

// DocumentParagraphs returns a document's paragraphs in position order.
func (s *Store) DocumentParagraphs(ctx context.Context, docID string) ([]StoredParagraph, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT p.id, p.hash, p.text, dp.position
		FROM document_paragraphs dp
		JOIN paragraphs p ON p.id = dp.paragraph_id
		WHERE dp.document_id = ?
		ORDER BY dp.position ASC`, docID)
	if err != nil {
		return nil, fmt.Errorf("store: document paragraphs: %w", err)
	}
	defer rows.Close()

	var paras []StoredParagraph
	for rows.Next() {
		var p StoredParagraph
		if err := rows.Scan(&p.ID, &p.Hash, &p.Text, &p.Position); err != nil {
			return nil, fmt.Errorf("store: document paragraphs: %w", err)
		}
		paras = append(paras, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: document paragraphs: %w", err)
	}
	return paras, nil
}

// AllParagraphs returns every stored paragraph, for corpus-wide analysis.
func (s *Store) AllParagraphs(ctx context.Context) ([]StoredParagraph, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, hash, text FROM paragraphs ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: all paragraphs: %w", err)
	}
	defer rows.Close()

	var paras []StoredParagraph
	for rows.Next() {
		var p StoredParagraph
		if err := rows.Scan(&p.ID, &p.Hash, &p.Text); err != nil {
			return nil, fmt.Errorf("store: all paragraphs: %w", err)
		}
		paras = append(paras, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: all paragraphs: %w", err)
	}
	return paras, nil
}

// ParagraphDocumentCount reports how many documents share each of the
// given paragraphs, keyed by paragraph id.
func (s *Store) ParagraphDocumentCount(ctx context.Context, paraIDs []int64) (map[int64]int, error) {
	out := make(map[int64]int, len(paraIDs))
	stmt, err := s.DB.PrepareContext(ctx, `
		SELECT COUNT(DISTINCT document_id) FROM document_paragraphs WHERE paragraph_id = ?`)
	if err != nil {
		return nil, fmt.Errorf("store: paragraph document count: %w", err)
	}
	defer stmt.Close()

	for _, id := range paraIDs {
		var n int
		if err := stmt.QueryRowContext(ctx, id).Scan(&n); err != nil {
			return nil, fmt.Errorf("store: paragraph document count: %w", err)
		}
		out[id] = n
	}
	return out, nil
}
