package schedule

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "fitcal/internal/log"
	"fitcal/internal/model"
)

const defaultMaxOccurrencesPerItem = 1000

// ExpandConfig controls occurrence expansion for the calendar/agenda views.
type ExpandConfig struct {
	// Location is the display timezone; time.Local if nil.
	Location *time.Location

	// RangeStart / RangeEnd bound the inclusive expansion window.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerItem caps expansion per item as a safety limit.
	// Zero means defaultMaxOccurrencesPerItem.
	MaxOccurrencesPerItem int
}

// Expand turns scheduled items into concrete dated occurrences within the
// window. Daily and weekly recurrences go through an RRULE set; one-shot
// items are included when their date falls inside the window. Results are
// sorted by start time, then title for stable ordering of same-time entries.
func Expand(items []model.Item, cfg ExpandConfig) ([]model.Occurrence, error) {
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return nil, errors.New("schedule: expand range end before start")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxOccurrencesPerItem <= 0 {
		cfg.MaxOccurrencesPerItem = defaultMaxOccurrencesPerItem
	}

	out := make([]model.Occurrence, 0, len(items))
	for _, it := range items {
		occ, err := expandItem(it, cfg)
		if err != nil {
			appLog.Error("expand: skipping item", err, "item_id", it.ID, "kind", string(it.Recurrence.Kind))
			continue
		}
		out = append(out, occ...)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

func expandItem(it model.Item, cfg ExpandConfig) ([]model.Occurrence, error) {
	switch it.Recurrence.Kind {
	case model.RecurrenceOnce:
		if it.Recurrence.Date.IsZero() {
			return nil, nil
		}
		d := it.Recurrence.Date.In(cfg.Location)
		start := time.Date(d.Year(), d.Month(), d.Day(), it.TimeOfDay.Hour, it.TimeOfDay.Minute, 0, 0, cfg.Location)
		if start.Before(cfg.RangeStart) || start.After(cfg.RangeEnd) {
			return nil, nil
		}
		return []model.Occurrence{makeOccurrence(it, start)}, nil

	case model.RecurrenceDaily, model.RecurrenceWeekly:
		opt := rrule.ROption{
			Freq:    rrule.DAILY,
			Dtstart: dtstart(it, cfg),
		}
		if it.Recurrence.Kind == model.RecurrenceWeekly {
			days := dedupDays(it.Recurrence.Days)
			if len(days) == 0 {
				return nil, nil
			}
			opt.Freq = rrule.WEEKLY
			opt.Byweekday = toRRuleDays(days)
		}
		r, err := rrule.NewRRule(opt)
		if err != nil {
			return nil, err
		}

		times := r.Between(cfg.RangeStart, cfg.RangeEnd, true)
		if len(times) > cfg.MaxOccurrencesPerItem {
			times = times[:cfg.MaxOccurrencesPerItem]
			appLog.Warn("expand: occurrence cap hit", "item_id", it.ID, "cap", cfg.MaxOccurrencesPerItem)
		}

		occ := make([]model.Occurrence, 0, len(times))
		for _, t := range times {
			occ = append(occ, makeOccurrence(it, t.In(cfg.Location)))
		}
		return occ, nil

	default:
		return nil, nil
	}
}

// dtstart anchors the rule at the item's wall-clock time on the first day of
// the window so Between() yields correctly timed instances.
func dtstart(it model.Item, cfg ExpandConfig) time.Time {
	s := cfg.RangeStart.In(cfg.Location)
	return time.Date(s.Year(), s.Month(), s.Day(), it.TimeOfDay.Hour, it.TimeOfDay.Minute, 0, 0, cfg.Location)
}

func toRRuleDays(days []model.Weekday) []rrule.Weekday {
	table := map[model.Weekday]rrule.Weekday{
		model.Monday:    rrule.MO,
		model.Tuesday:   rrule.TU,
		model.Wednesday: rrule.WE,
		model.Thursday:  rrule.TH,
		model.Friday:    rrule.FR,
		model.Saturday:  rrule.SA,
		model.Sunday:    rrule.SU,
	}
	out := make([]rrule.Weekday, 0, len(days))
	for _, d := range days {
		out = append(out, table[d])
	}
	return out
}

func makeOccurrence(it model.Item, start time.Time) model.Occurrence {
	return model.Occurrence{
		ItemID: it.ID,
		Title:  it.Title,
		Notes:  it.Notes,
		Kind:   it.Kind,
		Start:  start,
	}
}
