package store

import (
	"database/sql"
	"errors"
	"fmt"

	"fitcal/internal/model"
)

// GetWaterDay returns the water record for the civil date ("2006-01-02").
// A date with no record returns ErrNotFound; the water service decides the
// default goal.
func (s *Store) GetWaterDay(date string) (model.WaterDay, error) {
	row := s.db.QueryRow(`SELECT date, goal, intake FROM water_days WHERE date = ?`, date)

	var d model.WaterDay
	if err := row.Scan(&d.Date, &d.Goal, &d.Intake); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.WaterDay{}, ErrNotFound
		}
		return model.WaterDay{}, fmt.Errorf("store: get water day: %w", err)
	}
	return d, nil
}

// UpsertWaterDay writes the record for one civil date.
func (s *Store) UpsertWaterDay(d model.WaterDay) error {
	_, err := s.db.Exec(`
		INSERT INTO water_days (date, goal, intake) VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET goal = excluded.goal, intake = excluded.intake
	`, d.Date, d.Goal, d.Intake)
	if err != nil {
		return fmt.Errorf("store: upsert water day: %w", err)
	}
	return nil
}

// ListWaterDays returns records within [from, to] inclusive, oldest first.
func (s *Store) ListWaterDays(from, to string) ([]model.WaterDay, error) {
	rows, err := s.db.Query(`
		SELECT date, goal, intake FROM water_days
		WHERE date >= ? AND date <= ? ORDER BY date
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("store: list water days: %w", err)
	}
	defer rows.Close()

	var out []model.WaterDay
	for rows.Next() {
		var d model.WaterDay
		if err := rows.Scan(&d.Date, &d.Goal, &d.Intake); err != nil {
			return nil, fmt.Errorf("store: scan water day: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
