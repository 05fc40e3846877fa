// Package water tracks daily water intake against a goal and manages the
// repeating drink-water reminders.
package water

import (
	"errors"
	"fmt"
	"time"

	"fitcal/internal/config"
	appLog "fitcal/internal/log"
	"fitcal/internal/model"
	"fitcal/internal/notify"
	"fitcal/internal/schedule"
	"fitcal/internal/store"
)

const dateLayout = "2006-01-02"

// waterKeyPrefix namespaces water-reminder trigger keys away from the item
// key family.
const waterKeyPrefix = "wtr_"

// Tracker is the water-intake service. Day rollover is structural: every
// civil date is its own record, so a new day simply starts from zero
// without any reset job.
type Tracker struct {
	store       *store.Store
	svc         notify.Service
	loc         *time.Location
	defaultGoal float64
}

func NewTracker(st *store.Store, svc notify.Service, loc *time.Location, defaultGoal float64) *Tracker {
	if loc == nil {
		loc = time.Local
	}
	if defaultGoal <= 0 {
		defaultGoal = 2000
	}
	return &Tracker{store: st, svc: svc, loc: loc, defaultGoal: defaultGoal}
}

// Today returns the current date's record, or a fresh unsaved record with
// the default goal when nothing was logged yet.
func (t *Tracker) Today() (model.WaterDay, error) {
	date := time.Now().In(t.loc).Format(dateLayout)
	d, err := t.store.GetWaterDay(date)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.WaterDay{Date: date, Goal: t.defaultGoal}, nil
		}
		return model.WaterDay{}, err
	}
	return d, nil
}

// Add increments today's intake by amount milliliters.
func (t *Tracker) Add(amount float64) (model.WaterDay, error) {
	if amount <= 0 {
		return model.WaterDay{}, fmt.Errorf("water: amount must be positive, got %v", amount)
	}
	d, err := t.Today()
	if err != nil {
		return model.WaterDay{}, err
	}
	d.Intake += amount
	if err := t.store.UpsertWaterDay(d); err != nil {
		return model.WaterDay{}, err
	}
	return d, nil
}

// SetGoal updates today's goal, keeping the intake logged so far.
func (t *Tracker) SetGoal(goal float64) (model.WaterDay, error) {
	if goal <= 0 {
		return model.WaterDay{}, fmt.Errorf("water: goal must be positive, got %v", goal)
	}
	d, err := t.Today()
	if err != nil {
		return model.WaterDay{}, err
	}
	d.Goal = goal
	if err := t.store.UpsertWaterDay(d); err != nil {
		return model.WaterDay{}, err
	}
	return d, nil
}

// Reset zeroes today's intake.
func (t *Tracker) Reset() (model.WaterDay, error) {
	d, err := t.Today()
	if err != nil {
		return model.WaterDay{}, err
	}
	d.Intake = 0
	if err := t.store.UpsertWaterDay(d); err != nil {
		return model.WaterDay{}, err
	}
	return d, nil
}

// Week returns the last seven days, newest first, with missing days filled
// in as zero-intake records so charts have a stable shape.
func (t *Tracker) Week() ([]model.WaterDay, error) {
	now := time.Now().In(t.loc)
	from := now.AddDate(0, 0, -6).Format(dateLayout)
	to := now.Format(dateLayout)

	rows, err := t.store.ListWaterDays(from, to)
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]model.WaterDay, len(rows))
	for _, d := range rows {
		byDate[d.Date] = d
	}

	out := make([]model.WaterDay, 0, 7)
	for i := 0; i < 7; i++ {
		date := now.AddDate(0, 0, -i).Format(dateLayout)
		if d, ok := byDate[date]; ok {
			out = append(out, d)
		} else {
			out = append(out, model.WaterDay{Date: date, Goal: t.defaultGoal})
		}
	}
	return out, nil
}

// SyncReminders reconciles the standing drink-water triggers with the
// reminder settings: one repeating daily trigger per interval step between
// start and end hour. Disabled settings cancel everything. Idempotent.
func (t *Tracker) SyncReminders(cfg config.WaterReminderConfig) error {
	pending, err := t.svc.ListPending()
	if err != nil {
		return fmt.Errorf("water: list pending: %w", err)
	}
	current := make(map[string]bool)
	for _, key := range pending {
		if len(key) > len(waterKeyPrefix) && key[:len(waterKeyPrefix)] == waterKeyPrefix {
			current[key] = true
		}
	}

	wanted := make(map[string]schedule.TriggerSpec)
	if cfg.Enabled {
		for hour := cfg.StartHour; hour <= cfg.EndHour; hour += cfg.IntervalHours {
			key := fmt.Sprintf("%s%02d00", waterKeyPrefix, hour)
			wanted[key] = schedule.TriggerSpec{Repeats: true, Hour: hour}
		}
	}

	var stale []string
	for key := range current {
		if _, ok := wanted[key]; !ok {
			stale = append(stale, key)
		}
	}
	if len(stale) > 0 {
		if err := t.svc.Cancel(stale); err != nil {
			return fmt.Errorf("water: cancel stale: %w", err)
		}
	}

	content := notify.Content{Title: "Time to drink water!", Body: "Stay hydrated through the day"}
	for key, spec := range wanted {
		if current[key] {
			continue
		}
		if err := t.svc.Schedule(key, spec, content); err != nil {
			return fmt.Errorf("water: schedule %s: %w", key, err)
		}
	}

	appLog.Debug("water reminders reconciled", "enabled", cfg.Enabled, "count", len(wanted))
	return nil
}
