package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fitcal/internal/model"
)

// GetProfile returns the single profile row, creating a default on first
// access.
func (s *Store) GetProfile() (model.Profile, error) {
	row := s.db.QueryRow(`SELECT username, updated_at FROM profile WHERE id = 1`)

	var p model.Profile
	var updatedAt string
	if err := row.Scan(&p.Username, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			p = model.Profile{Username: "friend", UpdatedAt: time.Now().UTC()}
			if err := s.SaveProfile(p); err != nil {
				return model.Profile{}, err
			}
			return p, nil
		}
		return model.Profile{}, fmt.Errorf("store: get profile: %w", err)
	}
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return p, nil
}

// SaveProfile upserts the profile row.
func (s *Store) SaveProfile(p model.Profile) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := s.db.Exec(`
		INSERT INTO profile (id, username, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET username = excluded.username, updated_at = excluded.updated_at
	`, p.Username, p.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store: save profile: %w", err)
	}
	return nil
}
