package schedule

import (
	"time"

	"fitcal/internal/model"
)

// OccursOn reports whether the item occurs on the given calendar date.
// Comparison is civil: year, month and day in date's location; time-of-day
// and zone offsets are ignored. Weekly items with an empty weekday set and
// items with an unset recurrence never occur.
func OccursOn(it model.Item, date time.Time) bool {
	switch it.Recurrence.Kind {
	case model.RecurrenceOnce:
		if it.Recurrence.Date.IsZero() {
			return false
		}
		return sameCivilDate(it.Recurrence.Date, date)
	case model.RecurrenceDaily:
		return true
	case model.RecurrenceWeekly:
		return it.Recurrence.HasDay(model.FromTime(date.Weekday()))
	default:
		return false
	}
}

// sameCivilDate compares calendar dates with both values viewed in b's
// location, so a rule date stored in another zone still matches the day the
// user picked.
func sameCivilDate(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
