package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"fitcal/internal/model"
)

// SaveRecipe stores an accepted AI-generated recipe.
func (s *Store) SaveRecipe(r model.Recipe) (model.Recipe, error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec(`
		INSERT INTO recipes (id, name, meal_type, ingredients, instructions, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID.String(), r.Name, r.MealType, r.Ingredients, r.Instructions,
		r.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return model.Recipe{}, fmt.Errorf("store: insert recipe: %w", err)
	}
	return r, nil
}

// ListRecipes returns saved recipes, newest first.
func (s *Store) ListRecipes() ([]model.Recipe, error) {
	rows, err := s.db.Query(`
		SELECT id, name, meal_type, ingredients, instructions, created_at
		FROM recipes ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list recipes: %w", err)
	}
	defer rows.Close()

	var out []model.Recipe
	for rows.Next() {
		var r model.Recipe
		var id, createdAt string
		if err := rows.Scan(&id, &r.Name, &r.MealType, &r.Ingredients, &r.Instructions, &createdAt); err != nil {
			return nil, fmt.Errorf("store: scan recipe: %w", err)
		}
		r.ID, _ = uuid.Parse(id)
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRecipe removes a saved recipe.
func (s *Store) DeleteRecipe(id uuid.UUID) error {
	res, err := s.db.Exec(`DELETE FROM recipes WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("store: delete recipe: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
