package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"fitcal/internal/model"
)

// SaveVitaminQuery stores a vitamin-suggestion request with its response
// text so past answers stay browsable offline.
func (s *Store) SaveVitaminQuery(q model.VitaminQuery) (model.VitaminQuery, error) {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	q.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec(`
		INSERT INTO vitamin_queries (id, query, response, created_at)
		VALUES (?, ?, ?, ?)
	`, q.ID.String(), q.Query, q.Response, q.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return model.VitaminQuery{}, fmt.Errorf("store: insert vitamin query: %w", err)
	}
	return q, nil
}

// ListVitaminQueries returns saved queries, newest first.
func (s *Store) ListVitaminQueries() ([]model.VitaminQuery, error) {
	rows, err := s.db.Query(`
		SELECT id, query, response, created_at
		FROM vitamin_queries ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list vitamin queries: %w", err)
	}
	defer rows.Close()

	var out []model.VitaminQuery
	for rows.Next() {
		var q model.VitaminQuery
		var id, createdAt string
		if err := rows.Scan(&id, &q.Query, &q.Response, &createdAt); err != nil {
			return nil, fmt.Errorf("store: scan vitamin query: %w", err)
		}
		q.ID, _ = uuid.Parse(id)
		q.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, q)
	}
	return out, rows.Err()
}

// DeleteVitaminQuery removes a saved query.
func (s *Store) DeleteVitaminQuery(id uuid.UUID) error {
	res, err := s.db.Exec(`DELETE FROM vitamin_queries WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("store: delete vitamin query: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
