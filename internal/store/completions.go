package store

import (
	"fmt"

	"github.com/google/uuid"
)

// SetCompletion marks or unmarks an item as done on a civil date
// ("2006-01-02"). Marking twice is a no-op.
func (s *Store) SetCompletion(itemID uuid.UUID, date string, done bool) error {
	if done {
		_, err := s.db.Exec(`INSERT OR IGNORE INTO item_completions (item_id, date) VALUES (?, ?)`,
			itemID.String(), date)
		if err != nil {
			return fmt.Errorf("store: set completion: %w", err)
		}
		return nil
	}
	_, err := s.db.Exec(`DELETE FROM item_completions WHERE item_id = ? AND date = ?`,
		itemID.String(), date)
	if err != nil {
		return fmt.Errorf("store: clear completion: %w", err)
	}
	return nil
}

// CompletionsOn returns the set of item IDs marked done on a civil date.
func (s *Store) CompletionsOn(date string) (map[uuid.UUID]bool, error) {
	rows, err := s.db.Query(`SELECT item_id FROM item_completions WHERE date = ?`, date)
	if err != nil {
		return nil, fmt.Errorf("store: list completions: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]bool)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("store: scan completion: %w", err)
		}
		if id, err := uuid.Parse(raw); err == nil {
			out[id] = true
		}
	}
	return out, rows.Err()
}
