package ics

import (
	"bytes"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "fitcal/internal/log"
	"fitcal/internal/model"
)

const maxOccurrencesPerEvent = 1000

// Expand parses an ICS payload and returns the occurrences of its events
// inside [rangeStart, rangeEnd], converted to loc. Recurring events go
// through their RRULE; EXDATEs are honored. Events that fail to parse are
// skipped with a log line, never fatal.
func Expand(sourceID string, body []byte, rangeStart, rangeEnd time.Time, loc *time.Location) []model.Occurrence {
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", sourceID)
		return nil
	}

	var out []model.Occurrence
	for _, ve := range cal.Events() {
		out = append(out, expandEvent(sourceID, ve, rangeStart, rangeEnd, loc)...)
	}
	return out
}

func expandEvent(sourceID string, ve *ical.VEvent, rangeStart, rangeEnd time.Time, loc *time.Location) []model.Occurrence {
	start, err := ve.GetStartAt()
	if err != nil {
		return nil
	}
	end, _ := ve.GetEndAt()

	summary := propValue(ve, ical.ComponentPropertySummary)
	description := propValue(ve, ical.ComponentPropertyDescription)
	allDay := isAllDay(ve)
	duration := end.Sub(start)

	rawRRule := propValue(ve, ical.ComponentPropertyRrule)
	if rawRRule == "" {
		if start.Before(rangeStart) || start.After(rangeEnd) {
			return nil
		}
		return []model.Occurrence{makeOccurrence(sourceID, summary, description, allDay, start, duration, loc)}
	}

	r, err := rrule.StrToRRule(rawRRule)
	if err != nil {
		appLog.Error("ics rrule parse failed", err, "id", sourceID, "rrule", rawRRule)
		return nil
	}
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range exDates(ve) {
		set.ExDate(ex.In(start.Location()))
	}

	times := set.Between(rangeStart.In(start.Location()), rangeEnd.In(start.Location()), true)
	if len(times) > maxOccurrencesPerEvent {
		times = times[:maxOccurrencesPerEvent]
		appLog.Warn("ics occurrence cap hit", "id", sourceID, "summary", summary)
	}

	out := make([]model.Occurrence, 0, len(times))
	for _, t := range times {
		out = append(out, makeOccurrence(sourceID, summary, description, allDay, t, duration, loc))
	}
	return out
}

func makeOccurrence(sourceID, summary, description string, allDay bool, start time.Time, duration time.Duration, loc *time.Location) model.Occurrence {
	s := start.In(loc)
	e := time.Time{}
	if allDay {
		s = time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, loc)
		e = s.Add(24 * time.Hour)
	} else if duration > 0 {
		e = s.Add(duration)
	}
	return model.Occurrence{
		SourceID: sourceID,
		Title:    summary,
		Notes:    description,
		AllDay:   allDay,
		Start:    s,
		End:      e,
		External: true,
	}
}

func propValue(ve *ical.VEvent, name ical.ComponentProperty) string {
	if p := ve.GetProperty(name); p != nil {
		return p.Value
	}
	return ""
}

// isAllDay checks DTSTART for VALUE=DATE or a date-only value.
func isAllDay(ve *ical.VEvent) bool {
	p := ve.GetProperty(ical.ComponentPropertyDtStart)
	if p == nil {
		return false
	}
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func exDates(ve *ical.VEvent) []time.Time {
	var out []time.Time
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out = append(out, t)
			}
		}
	}
	return out
}

// parseICSTime handles the basic DATE / DATE-TIME / UTC forms EXDATE uses.
func parseICSTime(v string) (time.Time, error) {
	switch {
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, time.Local)
	default:
		return time.ParseInLocation("20060102", v, time.Local)
	}
}
