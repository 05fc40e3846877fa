package notify

import (
	"fmt"

	"github.com/google/uuid"

	appLog "fitcal/internal/log"
	"fitcal/internal/model"
	"fitcal/internal/schedule"
)

// Reconciler keeps the notification service's registered triggers in step
// with an item's current recurrence, time-of-day and lead configuration.
type Reconciler struct {
	svc Service
}

func NewReconciler(svc Service) *Reconciler {
	return &Reconciler{svc: svc}
}

// Sync makes the scheduled trigger set for the item exactly the set implied
// by its current configuration: stale triggers are cancelled, missing ones
// installed, matching ones left alone. Calling it again with no change is a
// no-op, so concurrent or repeated reconciliation converges.
//
// Errors are returned for the caller to log; a failed sync never invalidates
// the item save that triggered it. The reminder simply does not fire.
func (r *Reconciler) Sync(it model.Item) error {
	desired := schedule.Plan(it)

	pending, err := r.svc.ListPending()
	if err != nil {
		return fmt.Errorf("notify: list pending: %w", err)
	}

	current := make(map[string]bool)
	for _, key := range pending {
		if schedule.KeyBelongsTo(key, it.ID) {
			current[key] = true
		}
	}

	wanted := make(map[string]bool, len(desired))
	for _, spec := range desired {
		wanted[spec.Key.String()] = true
	}

	var stale []string
	for key := range current {
		if !wanted[key] {
			stale = append(stale, key)
		}
	}
	if len(stale) > 0 {
		if err := r.svc.Cancel(stale); err != nil {
			return fmt.Errorf("notify: cancel stale: %w", err)
		}
	}

	content := contentFor(it)
	installed := 0
	for _, spec := range desired {
		key := spec.Key.String()
		if current[key] {
			continue
		}
		if err := r.svc.Schedule(key, spec, content); err != nil {
			return fmt.Errorf("notify: schedule %s: %w", key, err)
		}
		installed++
	}

	appLog.Debug("reconciled item triggers",
		"item_id", it.ID,
		"desired", len(desired),
		"cancelled", len(stale),
		"installed", installed,
	)
	return nil
}

// CancelAll removes every trigger belonging to the item. Safe to call when
// nothing is scheduled; used on item deletion.
func (r *Reconciler) CancelAll(itemID uuid.UUID) error {
	pending, err := r.svc.ListPending()
	if err != nil {
		return fmt.Errorf("notify: list pending: %w", err)
	}

	var mine []string
	for _, key := range pending {
		if schedule.KeyBelongsTo(key, itemID) {
			mine = append(mine, key)
		}
	}
	if len(mine) == 0 {
		return nil
	}
	if err := r.svc.Cancel(mine); err != nil {
		return fmt.Errorf("notify: cancel all: %w", err)
	}
	appLog.Debug("cancelled item triggers", "item_id", itemID, "count", len(mine))
	return nil
}

func contentFor(it model.Item) Content {
	body := it.Title
	switch it.Kind {
	case model.ItemMealReminder:
		if body == "" {
			body = "Time to eat"
		}
	default:
		if body == "" {
			body = "Time to train"
		}
	}
	return Content{Title: "Reminder", Body: body}
}
