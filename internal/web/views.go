package web

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"fitcal/internal/ics"
	appLog "fitcal/internal/log"
	"fitcal/internal/model"
	"fitcal/internal/schedule"
	"fitcal/internal/snapshot"
)

const (
	externalEventsTTL = 5 * time.Minute
	snapshotTTL       = time.Minute
	maxCalendarDays   = 62
)

// externalCache holds merged external-calendar occurrences per requested
// window, so the today and calendar views do not evict each other's entries.
// Expired windows are pruned on write, keeping the map small.
type externalCache struct {
	mu      sync.Mutex
	windows map[string]externalWindow
}

type externalWindow struct {
	events    []model.Occurrence
	fetchedAt time.Time
}

type todayEntry struct {
	model.Occurrence
	Done bool `json:"done"`
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	now := time.Now().In(s.loc)
	date := now
	if v := r.URL.Query().Get("date"); v != "" {
		d, err := time.ParseInLocation("2006-01-02", v, s.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = d
	}
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.loc)
	dayEnd := dayStart.Add(24*time.Hour - time.Second)

	items, err := s.store.ListItems()
	if err != nil {
		appLog.Error("failed to list items", err)
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	civil := dayStart.Format("2006-01-02")
	done, err := s.store.CompletionsOn(civil)
	if err != nil {
		appLog.Error("failed to load completions", err, "date", civil)
		done = nil
	}

	entries := make([]todayEntry, 0, len(items))
	for _, it := range items {
		if !schedule.OccursOn(it, dayStart) {
			continue
		}
		start := time.Date(date.Year(), date.Month(), date.Day(),
			it.TimeOfDay.Hour, it.TimeOfDay.Minute, 0, 0, s.loc)
		entries = append(entries, todayEntry{
			Occurrence: model.Occurrence{
				ItemID: it.ID,
				Title:  it.Title,
				Notes:  it.Notes,
				Kind:   it.Kind,
				Start:  start,
			},
			Done: done[it.ID],
		})
	}
	for _, ev := range s.externalEvents(r, dayStart, dayEnd) {
		entries = append(entries, todayEntry{Occurrence: ev})
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Start.Equal(entries[j].Start) {
			return entries[i].Start.Before(entries[j].Start)
		}
		return entries[i].Title < entries[j].Title
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"date":    civil,
		"entries": entries,
	})
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	days := parseIntDefault(r.URL.Query().Get("days"), 7)
	if days < 1 {
		days = 1
	}
	if days > maxCalendarDays {
		days = maxCalendarDays
	}

	now := time.Now().In(s.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	if v := r.URL.Query().Get("start"); v != "" {
		d, err := time.ParseInLocation("2006-01-02", v, s.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
			return
		}
		start = d
	}
	end := start.AddDate(0, 0, days).Add(-time.Second)

	items, err := s.store.ListItems()
	if err != nil {
		appLog.Error("failed to list items", err)
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	occ, err := schedule.Expand(items, schedule.ExpandConfig{
		Location:   s.loc,
		RangeStart: start,
		RangeEnd:   end,
	})
	if err != nil {
		appLog.Error("failed to expand occurrences", err)
		writeError(w, http.StatusInternalServerError, "failed to expand occurrences")
		return
	}

	occ = append(occ, s.externalEvents(r, start, end)...)
	sort.Slice(occ, func(i, j int) bool {
		if !occ[i].Start.Equal(occ[j].Start) {
			return occ[i].Start.Before(occ[j].Start)
		}
		return occ[i].Title < occ[j].Title
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"start":       start.Format("2006-01-02"),
		"days":        days,
		"occurrences": occ,
	})
}

// externalEvents returns the subscribed ICS feeds expanded over the window,
// served from a short-lived cache. Feed failures degrade to whatever the
// fetcher has cached; they never fail the view.
func (s *Server) externalEvents(r *http.Request, start, end time.Time) []model.Occurrence {
	if len(s.cfg.ICS) == 0 {
		return nil
	}

	key := start.Format(time.RFC3339) + "/" + end.Format(time.RFC3339)
	s.external.mu.Lock()
	defer s.external.mu.Unlock()
	if win, ok := s.external.windows[key]; ok && time.Since(win.fetchedAt) < externalEventsTTL {
		return win.events
	}

	sources := make([]ics.Source, 0, len(s.cfg.ICS))
	for _, c := range s.cfg.ICS {
		sources = append(sources, ics.Source{ID: c.ID, URL: c.URL})
	}

	var events []model.Occurrence
	bodies := s.fetcher.FetchAll(r.Context(), sources)
	for id, body := range bodies {
		events = append(events, ics.Expand(id, body, start, end, s.loc)...)
	}

	if s.external.windows == nil {
		s.external.windows = make(map[string]externalWindow)
	}
	for k, win := range s.external.windows {
		if time.Since(win.fetchedAt) >= externalEventsTTL {
			delete(s.external.windows, k)
		}
	}
	s.external.windows[key] = externalWindow{events: events, fetchedAt: time.Now()}
	return events
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	out := filepath.Join(s.cfg.DataDir, "snapshot.png")

	s.snapMu.Lock()
	stale := time.Since(s.snapAt) >= snapshotTTL
	if stale {
		// The capture browser is a plain HTTP client of this same server,
		// so it needs the basic-auth credentials embedded in the URL.
		target := "http://" + s.cfg.Listen + "/"
		if s.basicAuthEnabled() {
			target = "http://" + s.cfg.BasicAuth.Username + ":" + s.cfg.BasicAuth.Password + "@" + s.cfg.Listen + "/"
		}
		err := snapshot.CapturePNG(r.Context(), snapshot.Options{
			URL:        target,
			OutputPath: out,
			Width:      parseIntDefault(r.URL.Query().Get("width"), 0),
			Height:     parseIntDefault(r.URL.Query().Get("height"), 0),
		})
		if err != nil {
			s.snapMu.Unlock()
			appLog.Error("failed to capture snapshot", err)
			writeError(w, http.StatusBadGateway, "failed to capture snapshot")
			return
		}
		s.snapAt = time.Now()
	}
	s.snapMu.Unlock()

	if _, err := os.Stat(out); err != nil {
		writeError(w, http.StatusNotFound, "no snapshot available")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, out)
}
