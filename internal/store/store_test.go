package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitcal/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", time.UTC)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestItems_CreateGetList(t *testing.T) {
	s := openTestStore(t)

	created, err := s.CreateItem(model.Item{
		Kind:  model.ItemWorkout,
		Title: "Morning run",
		Notes: "easy pace",
		Recurrence: model.Recurrence{
			Kind: model.RecurrenceWeekly,
			Days: []model.Weekday{model.Monday, model.Friday},
		},
		TimeOfDay:   model.TimeOfDay{Hour: 7, Minute: 30},
		LeadMinutes: 15,
		Exercises: []model.Exercise{
			{Name: "Exercise 1. Warm-up - five minutes of walking."},
			{Name: "Exercise 2. Run - thirty minutes."},
		},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := s.GetItem(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Morning run", got.Title)
	assert.Equal(t, model.RecurrenceWeekly, got.Recurrence.Kind)
	assert.Equal(t, []model.Weekday{model.Monday, model.Friday}, got.Recurrence.Days)
	assert.Equal(t, 7, got.TimeOfDay.Hour)
	assert.Equal(t, 30, got.TimeOfDay.Minute)
	assert.Equal(t, 15, got.LeadMinutes)
	require.Len(t, got.Exercises, 2)
	assert.Contains(t, got.Exercises[0].Name, "Warm-up")

	list, err := s.ListItems()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestItems_OnceDateRoundTrip(t *testing.T) {
	s := openTestStore(t)

	date := time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC)
	created, err := s.CreateItem(model.Item{
		Kind:       model.ItemMealReminder,
		Title:      "Nutritionist appointment",
		Recurrence: model.Recurrence{Kind: model.RecurrenceOnce, Date: date},
		TimeOfDay:  model.TimeOfDay{Hour: 14},
	})
	require.NoError(t, err)

	got, err := s.GetItem(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-07-15", got.Recurrence.Date.Format("2006-01-02"))
}

func TestItems_UpdateReplacesEverything(t *testing.T) {
	s := openTestStore(t)

	created, err := s.CreateItem(model.Item{
		Kind:       model.ItemWorkout,
		Title:      "Strength",
		Recurrence: model.Recurrence{Kind: model.RecurrenceDaily},
		TimeOfDay:  model.TimeOfDay{Hour: 18},
		Exercises:  []model.Exercise{{Name: "Squats"}, {Name: "Deadlift"}},
	})
	require.NoError(t, err)

	created.Title = "Strength (evening)"
	created.Recurrence = model.Recurrence{
		Kind: model.RecurrenceWeekly,
		Days: []model.Weekday{model.Tuesday},
	}
	created.Exercises = []model.Exercise{{Name: "Bench press"}}

	updated, err := s.UpdateItem(created)
	require.NoError(t, err)
	assert.Equal(t, "Strength (evening)", updated.Title)
	assert.Equal(t, model.RecurrenceWeekly, updated.Recurrence.Kind)
	require.Len(t, updated.Exercises, 1)
	assert.Equal(t, "Bench press", updated.Exercises[0].Name)
	assert.True(t, updated.UpdatedAt.Compare(updated.CreatedAt) >= 0)
}

func TestItems_UpdateMissingReturnsNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.UpdateItem(model.Item{ID: uuid.New(), Kind: model.ItemWorkout, Title: "ghost"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestItems_DeleteCascadesExercises(t *testing.T) {
	s := openTestStore(t)

	created, err := s.CreateItem(model.Item{
		Kind:       model.ItemWorkout,
		Title:      "Core",
		Recurrence: model.Recurrence{Kind: model.RecurrenceDaily},
		Exercises:  []model.Exercise{{Name: "Plank"}},
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteItem(created.ID))

	_, err = s.GetItem(created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM exercises`).Scan(&count))
	assert.Zero(t, count)

	assert.ErrorIs(t, s.DeleteItem(created.ID), ErrNotFound)
}

func TestItems_DeleteCascadesOnFileBackedStore(t *testing.T) {
	s, err := Open(t.TempDir(), time.UTC)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	created, err := s.CreateItem(model.Item{
		Kind:       model.ItemWorkout,
		Title:      "Core",
		Recurrence: model.Recurrence{Kind: model.RecurrenceDaily},
		Exercises:  []model.Exercise{{Name: "Plank"}, {Name: "Crunches"}},
	})
	require.NoError(t, err)
	require.NoError(t, s.SetCompletion(created.ID, "2026-08-01", true))

	// Hold the pool's first connection busy so the delete runs on a fresh
	// connection. Foreign keys are per connection in SQLite.
	rows, err := s.db.Query(`SELECT id FROM items`)
	require.NoError(t, err)
	defer rows.Close()

	require.NoError(t, s.DeleteItem(created.ID))

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM exercises`).Scan(&count))
	assert.Zero(t, count, "orphan exercises after delete")
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM item_completions`).Scan(&count))
	assert.Zero(t, count, "orphan completions after delete")
}

func TestCompletions_SetAndList(t *testing.T) {
	s := openTestStore(t)

	created, err := s.CreateItem(model.Item{
		Kind:       model.ItemWorkout,
		Title:      "Stretching",
		Recurrence: model.Recurrence{Kind: model.RecurrenceDaily},
	})
	require.NoError(t, err)

	require.NoError(t, s.SetCompletion(created.ID, "2026-09-01", true))
	// Marking twice stays a single record.
	require.NoError(t, s.SetCompletion(created.ID, "2026-09-01", true))

	done, err := s.CompletionsOn("2026-09-01")
	require.NoError(t, err)
	assert.True(t, done[created.ID])

	other, err := s.CompletionsOn("2026-09-02")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, s.SetCompletion(created.ID, "2026-09-01", false))
	done, err = s.CompletionsOn("2026-09-01")
	require.NoError(t, err)
	assert.Empty(t, done)
}

func TestRecipes_SaveListDelete(t *testing.T) {
	s := openTestStore(t)

	saved, err := s.SaveRecipe(model.Recipe{
		Name:         "Oatmeal",
		MealType:     "breakfast",
		Ingredients:  "oats, milk",
		Instructions: "1. Simmer.",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, saved.ID)

	list, err := s.ListRecipes()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Oatmeal", list[0].Name)

	require.NoError(t, s.DeleteRecipe(saved.ID))
	assert.ErrorIs(t, s.DeleteRecipe(saved.ID), ErrNotFound)
}

func TestVitaminQueries_SaveListDelete(t *testing.T) {
	s := openTestStore(t)

	saved, err := s.SaveVitaminQuery(model.VitaminQuery{
		Query:    "low energy in winter",
		Response: "Consider vitamin D.",
	})
	require.NoError(t, err)

	list, err := s.ListVitaminQueries()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "low energy in winter", list[0].Query)

	require.NoError(t, s.DeleteVitaminQuery(saved.ID))
	assert.ErrorIs(t, s.DeleteVitaminQuery(saved.ID), ErrNotFound)
}

func TestWaterDays_UpsertAndRange(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetWaterDay("2026-09-01")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.UpsertWaterDay(model.WaterDay{Date: "2026-09-01", Goal: 2000, Intake: 500}))
	require.NoError(t, s.UpsertWaterDay(model.WaterDay{Date: "2026-09-01", Goal: 2000, Intake: 750}))
	require.NoError(t, s.UpsertWaterDay(model.WaterDay{Date: "2026-09-03", Goal: 2500, Intake: 100}))

	got, err := s.GetWaterDay("2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, 750.0, got.Intake)

	days, err := s.ListWaterDays("2026-09-01", "2026-09-07")
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2026-09-01", days[0].Date)
	assert.Equal(t, "2026-09-03", days[1].Date)
}

func TestProfile_DefaultThenSave(t *testing.T) {
	s := openTestStore(t)

	p, err := s.GetProfile()
	require.NoError(t, err)
	assert.Equal(t, "friend", p.Username)

	require.NoError(t, s.SaveProfile(model.Profile{Username: "Alex"}))
	p, err = s.GetProfile()
	require.NoError(t, err)
	assert.Equal(t, "Alex", p.Username)
}
