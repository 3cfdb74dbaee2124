package store

import (
	"context"
	"database/sql"
	"fmt"
)

// StoredVariable is a shared placeholder variable plus, when loaded
// through a document, its occurrence count in that document.
type StoredVariable struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Count int    `json:"count,omitempty"`
}

// UpsertVariable finds or creates the variable identified by name and
// delimiter kind and returns its id. The same name under two kinds is
// two variables.
func (s *Store) UpsertVariable(ctx context.Context, name, kind string) (int64, error) {
	var id int64
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO variables (name, kind) VALUES (?, ?)
		ON CONFLICT (name, kind) DO UPDATE SET name = name
		RETURNING id`,
		name, kind,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: upsert variable: %w", err)
	}
	return id, nil
}

// AssociateVariable links a variable to a document with its occurrence
// count. Re-associating updates the count.
func (s *Store) AssociateVariable(ctx context.Context, docID string, varID int64, count int) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO document_variables (document_id, variable_id, count)
		VALUES (?, ?, ?)
		ON CONFLICT (document_id, variable_id) DO UPDATE SET count = excluded.count`,
		docID, varID, count,
	)
	if err != nil {
		return fmt.Errorf("store: associate variable: %w", err)
	}
	return nil
}

// DocumentVariables returns a document's variables, most frequent first.
func (s *Store) DocumentVariables(ctx context.Context, docID string) ([]StoredVariable, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT v.id, v.name, v.kind, dv.count
		FROM document_variables dv
		JOIN variables v ON v.id = dv.variable_id
		WHERE dv.document_id = ?
		ORDER BY dv.count DESC, v.name ASC`, docID)
	if err != nil {
		return nil, fmt.Errorf("store: document variables: %w", err)
	}
	defer rows.Close()
	return scanVariables(rows)
}

// AllVariables returns every variable with its total occurrence count
// across all documents, most frequent first.
func (s *Store) AllVariables(ctx context.Context) ([]StoredVariable, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT v.id, v.name, v.kind, COALESCE(SUM(dv.count), 0)
		FROM variables v
		LEFT JOIN document_variables dv ON dv.variable_id = v.id
		GROUP BY v.id
		ORDER BY COALESCE(SUM(dv.count), 0) DESC, v.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: all variables: %w", err)
	}
	defer rows.Close()
	return scanVariables(rows)
}

// VariableDocumentCount reports how many documents use each of the given
// variables, keyed by variable id.
func (s *Store) VariableDocumentCount(ctx context.Context, varIDs []int64) (map[int64]int, error) {
	out := make(map[int64]int, len(varIDs))
	stmt, err := s.DB.PrepareContext(ctx, `
		SELECT COUNT(DISTINCT document_id) FROM document_variables WHERE variable_id = ?`)
	if err != nil {
		return nil, fmt.Errorf("store: variable document count: %w", err)
	}
	defer stmt.Close()

	for _, id := range varIDs {
		var n int
		if err := stmt.QueryRowContext(ctx, id).Scan(&n); err != nil {
			return nil, fmt.Errorf("store: variable document count: %w", err)
		}
		out[id] = n
	}
	return out, nil
}

func scanVariables(rows *sql.Rows) ([]StoredVariable, error) {
	var vars []StoredVariable
	for rows.Next() {
		var v StoredVariable
		if err := rows.Scan(&v.ID, &v.Name, &v.Kind, &v.Count); err != nil {
			return nil, fmt.Errorf("store: scan variable: %w", err)
		}
		vars = append(vars, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: scan variable: %w", err)
	}
	return vars, nil
}
