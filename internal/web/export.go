package web

import (
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "fitcal/internal/log"
	"fitcal/internal/model"
)

var icsByDay = map[model.Weekday]string{
	model.Monday:    "MO",
	model.Tuesday:   "TU",
	model.Wednesday: "WE",
	model.Thursday:  "TH",
	model.Friday:    "FR",
	model.Saturday:  "SA",
	model.Sunday:    "SU",
}

// handleExportICS publishes the scheduled items as an iCalendar feed so they
// can be subscribed to from an external calendar app.
func (s *Server) handleExportICS(w http.ResponseWriter, _ *http.Request) {
	items, err := s.store.ListItems()
	if err != nil {
		appLog.Error("failed to list items", err)
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	now := time.Now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//fitcal//EN")

	for _, it := range items {
		start, ok := exportStart(it, today, s.loc)
		if !ok {
			continue
		}

		ev := cal.AddEvent(it.ID.String() + "@fitcal")
		ev.SetDtStampTime(now)
		ev.SetStartAt(start)
		ev.SetEndAt(start.Add(30 * time.Minute))
		ev.SetSummary(it.Title)
		if it.Notes != "" {
			ev.SetDescription(it.Notes)
		}

		switch it.Recurrence.Kind {
		case model.RecurrenceDaily:
			ev.SetProperty(ical.ComponentPropertyRrule, "FREQ=DAILY")
		case model.RecurrenceWeekly:
			days := make([]string, 0, len(it.Recurrence.Days))
			for _, d := range it.Recurrence.Days {
				days = append(days, icsByDay[d])
			}
			ev.SetProperty(ical.ComponentPropertyRrule, "FREQ=WEEKLY;BYDAY="+strings.Join(days, ","))
		}
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="fitcal.ics"`)
	if _, err := w.Write([]byte(cal.Serialize())); err != nil {
		appLog.Error("failed to write calendar export", err)
	}
}

// exportStart picks the first DTSTART to emit: the stored date for one-shot
// items, today for daily ones, and the next matching weekday for weekly ones.
func exportStart(it model.Item, today time.Time, loc *time.Location) (time.Time, bool) {
	at := func(d time.Time) time.Time {
		return time.Date(d.Year(), d.Month(), d.Day(), it.TimeOfDay.Hour, it.TimeOfDay.Minute, 0, 0, loc)
	}

	switch it.Recurrence.Kind {
	case model.RecurrenceOnce:
		if it.Recurrence.Date.IsZero() {
			return time.Time{}, false
		}
		return at(it.Recurrence.Date.In(loc)), true
	case model.RecurrenceDaily:
		return at(today), true
	case model.RecurrenceWeekly:
		if len(it.Recurrence.Days) == 0 {
			return time.Time{}, false
		}
		for i := 0; i < 7; i++ {
			d := today.AddDate(0, 0, i)
			if it.Recurrence.HasDay(model.FromTime(d.Weekday())) {
				return at(d), true
			}
		}
	}
	return time.Time{}, false
}
