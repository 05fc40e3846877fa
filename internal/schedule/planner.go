package schedule

import (
	"sort"
	"time"

	"fitcal/internal/model"
)

const minutesPerDay = 24 * 60

// TriggerSpec is one concrete trigger to register with the notification
// service: either a one-shot calendar date or a repeating daily/weekly
// wall-clock time.
type TriggerSpec struct {
	Key     Key
	Repeats bool

	// Date is the civil date of a one-shot trigger (zero for repeating).
	Date time.Time
	// Weekday is set for weekly repeating triggers; zero on daily repeats
	// and one-shots.
	Weekday model.Weekday

	Hour   int
	Minute int
}

// Plan computes the trigger set implied by the item's recurrence, time of
// day and reminder lead time. The lead subtraction carries across day
// boundaries: a Once trigger moves to the previous date, a Weekly trigger
// registers under the previous weekday, a Daily trigger keeps only the
// wrapped wall-clock time. Items that can never occur (missing Once date,
// empty Weekly set) plan nothing; this is not an error.
func Plan(it model.Item) []TriggerSpec {
	lead := it.LeadMinutes
	if lead < 0 {
		lead = 0
	}
	dayShift, mins := splitLead(it.TimeOfDay.Minutes() - lead)
	hour, minute := mins/60, mins%60

	switch it.Recurrence.Kind {
	case model.RecurrenceOnce:
		if it.Recurrence.Date.IsZero() {
			return nil
		}
		d := it.Recurrence.Date
		date := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
		return []TriggerSpec{{
			Key:    NewKey(it.ID),
			Date:   date.AddDate(0, 0, dayShift),
			Hour:   hour,
			Minute: minute,
		}}

	case model.RecurrenceDaily:
		// Repeats every day, so the carry has no date component.
		return []TriggerSpec{{
			Key:     NewKey(it.ID),
			Repeats: true,
			Hour:    hour,
			Minute:  minute,
		}}

	case model.RecurrenceWeekly:
		days := dedupDays(it.Recurrence.Days)
		specs := make([]TriggerSpec, 0, len(days))
		for _, day := range days {
			wd := shiftWeekday(day, dayShift)
			specs = append(specs, TriggerSpec{
				Key:     NewWeekdayKey(it.ID, wd),
				Repeats: true,
				Weekday: wd,
				Hour:    hour,
				Minute:  minute,
			})
		}
		return specs

	default:
		return nil
	}
}

// splitLead splits an offset-from-midnight (possibly negative, possibly
// beyond one day for large lead times) into a day shift and a wall-clock
// minute within [0, 1440).
func splitLead(total int) (dayShift, mins int) {
	dayShift = total / minutesPerDay
	mins = total % minutesPerDay
	if mins < 0 {
		mins += minutesPerDay
		dayShift--
	}
	return dayShift, mins
}

// shiftWeekday moves a weekday by the given number of days, wrapping mod 7.
func shiftWeekday(w model.Weekday, days int) model.Weekday {
	n := (int(w) - 1 + days) % 7
	if n < 0 {
		n += 7
	}
	return model.Weekday(n + 1)
}

// dedupDays drops invalid and duplicate weekdays and sorts the rest so the
// planned trigger set is deterministic regardless of input order.
func dedupDays(days []model.Weekday) []model.Weekday {
	seen := make(map[model.Weekday]bool, len(days))
	out := make([]model.Weekday, 0, len(days))
	for _, d := range days {
		if !d.Valid() || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
