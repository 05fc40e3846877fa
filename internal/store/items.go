package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"fitcal/internal/model"
)

const civilDateLayout = "2006-01-02"

// CreateItem inserts a new scheduled item with its exercise list. A zero ID
// gets a fresh UUID; IDs are never reused afterwards.
func (s *Store) CreateItem(it model.Item) (model.Item, error) {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	now := time.Now().UTC()
	it.CreatedAt = now
	it.UpdatedAt = now

	tx, err := s.db.Begin()
	if err != nil {
		return model.Item{}, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO items (id, kind, title, notes, recurrence_kind, recurrence_date,
			recurrence_days, hour, minute, lead_minutes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, it.ID.String(), string(it.Kind), it.Title, it.Notes,
		string(it.Recurrence.Kind), encodeCivilDate(it.Recurrence.Date),
		encodeDays(it.Recurrence.Days), it.TimeOfDay.Hour, it.TimeOfDay.Minute,
		it.LeadMinutes, now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return model.Item{}, fmt.Errorf("store: insert item: %w", err)
	}

	if err := insertExercises(tx, it.ID, it.Exercises); err != nil {
		return model.Item{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Item{}, fmt.Errorf("store: commit: %w", err)
	}
	return s.GetItem(it.ID)
}

// UpdateItem replaces the whole record: there is no partial-field edit path
// for recurrence or time-of-day, a save always carries the full item.
func (s *Store) UpdateItem(it model.Item) (model.Item, error) {
	now := time.Now().UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return model.Item{}, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE items SET kind = ?, title = ?, notes = ?, recurrence_kind = ?,
			recurrence_date = ?, recurrence_days = ?, hour = ?, minute = ?,
			lead_minutes = ?, updated_at = ?
		WHERE id = ?
	`, string(it.Kind), it.Title, it.Notes, string(it.Recurrence.Kind),
		encodeCivilDate(it.Recurrence.Date), encodeDays(it.Recurrence.Days),
		it.TimeOfDay.Hour, it.TimeOfDay.Minute, it.LeadMinutes,
		now.Format(time.RFC3339), it.ID.String())
	if err != nil {
		return model.Item{}, fmt.Errorf("store: update item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Item{}, ErrNotFound
	}

	if _, err := tx.Exec(`DELETE FROM exercises WHERE item_id = ?`, it.ID.String()); err != nil {
		return model.Item{}, fmt.Errorf("store: clear exercises: %w", err)
	}
	if err := insertExercises(tx, it.ID, it.Exercises); err != nil {
		return model.Item{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Item{}, fmt.Errorf("store: commit: %w", err)
	}
	return s.GetItem(it.ID)
}

// DeleteItem removes the item and (via cascade) its exercises.
func (s *Store) DeleteItem(id uuid.UUID) error {
	res, err := s.db.Exec(`DELETE FROM items WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("store: delete item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetItem loads a single item with its exercises.
func (s *Store) GetItem(id uuid.UUID) (model.Item, error) {
	row := s.db.QueryRow(`
		SELECT id, kind, title, notes, recurrence_kind, recurrence_date,
			recurrence_days, hour, minute, lead_minutes, created_at, updated_at
		FROM items WHERE id = ?
	`, id.String())

	it, err := s.scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Item{}, ErrNotFound
		}
		return model.Item{}, fmt.Errorf("store: get item: %w", err)
	}

	it.Exercises, err = s.itemExercises(id)
	if err != nil {
		return model.Item{}, err
	}
	return it, nil
}

// ListItems returns all items sorted by time of day, then title.
func (s *Store) ListItems() ([]model.Item, error) {
	rows, err := s.db.Query(`
		SELECT id, kind, title, notes, recurrence_kind, recurrence_date,
			recurrence_days, hour, minute, lead_minutes, created_at, updated_at
		FROM items ORDER BY hour, minute, title
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		it, err := s.scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		items[i].Exercises, err = s.itemExercises(items[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return items, nil
}

func insertExercises(tx *sql.Tx, itemID uuid.UUID, exercises []model.Exercise) error {
	for i, ex := range exercises {
		if ex.ID == uuid.Nil {
			ex.ID = uuid.New()
		}
		_, err := tx.Exec(`INSERT INTO exercises (id, item_id, position, name) VALUES (?, ?, ?, ?)`,
			ex.ID.String(), itemID.String(), i, ex.Name)
		if err != nil {
			return fmt.Errorf("store: insert exercise: %w", err)
		}
	}
	return nil
}

func (s *Store) itemExercises(itemID uuid.UUID) ([]model.Exercise, error) {
	rows, err := s.db.Query(`SELECT id, name FROM exercises WHERE item_id = ? ORDER BY position`, itemID.String())
	if err != nil {
		return nil, fmt.Errorf("store: list exercises: %w", err)
	}
	defer rows.Close()

	var out []model.Exercise
	for rows.Next() {
		var ex model.Exercise
		var id string
		if err := rows.Scan(&id, &ex.Name); err != nil {
			return nil, fmt.Errorf("store: scan exercise: %w", err)
		}
		ex.ID, _ = uuid.Parse(id)
		out = append(out, ex)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanItem(row rowScanner) (model.Item, error) {
	var it model.Item
	var id, kind, recKind, recDate, recDays, createdAt, updatedAt string

	err := row.Scan(&id, &kind, &it.Title, &it.Notes, &recKind, &recDate,
		&recDays, &it.TimeOfDay.Hour, &it.TimeOfDay.Minute, &it.LeadMinutes,
		&createdAt, &updatedAt)
	if err != nil {
		return model.Item{}, err
	}

	it.ID, err = uuid.Parse(id)
	if err != nil {
		return model.Item{}, fmt.Errorf("bad item id %q: %w", id, err)
	}
	it.Kind = model.ItemKind(kind)
	it.Recurrence = model.Recurrence{
		Kind: model.RecurrenceKind(recKind),
		Date: s.decodeCivilDate(recDate),
		Days: decodeDays(recDays),
	}
	it.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	it.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return it, nil
}

// encodeCivilDate keeps only the calendar date; the time-of-day component of
// a one-shot recurrence date is ignored everywhere by contract.
func encodeCivilDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(civilDateLayout)
}

func (s *Store) decodeCivilDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(civilDateLayout, v, s.loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

func encodeDays(days []model.Weekday) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(int(d)))
	}
	return strings.Join(parts, ",")
}

func decodeDays(v string) []model.Weekday {
	if v == "" {
		return nil
	}
	var out []model.Weekday
	for _, part := range strings.Split(v, ",") {
		n, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		if d := model.Weekday(n); d.Valid() {
			out = append(out, d)
		}
	}
	return out
}
