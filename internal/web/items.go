package web

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	appLog "fitcal/internal/log"
	"fitcal/internal/model"
	"fitcal/internal/store"
)

// itemRequest is the create/update payload. The recurrence date is a civil
// date string; weekdays use the Monday=1..Sunday=7 numbering.
type itemRequest struct {
	Kind       string `json:"kind"`
	Title      string `json:"title"`
	Notes      string `json:"notes"`
	Recurrence struct {
		Kind string `json:"kind"`
		Date string `json:"date"`
		Days []int  `json:"days"`
	} `json:"recurrence"`
	TimeOfDay struct {
		Hour   int `json:"hour"`
		Minute int `json:"minute"`
	} `json:"time_of_day"`
	LeadMinutes int      `json:"reminder_lead_minutes"`
	Exercises   []string `json:"exercises"`
}

func (s *Server) handleListItems(w http.ResponseWriter, _ *http.Request) {
	items, err := s.store.ListItems()
	if err != nil {
		appLog.Error("failed to list items", err)
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	it, err := s.itemFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := s.store.CreateItem(it)
	if err != nil {
		appLog.Error("failed to create item", err)
		writeError(w, http.StatusInternalServerError, "failed to save item")
		return
	}
	s.syncTriggers(saved)
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	it, err := s.store.GetItem(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		appLog.Error("failed to load item", err, "item_id", id)
		writeError(w, http.StatusInternalServerError, "failed to load item")
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	it, err := s.itemFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	it.ID = id

	saved, err := s.store.UpdateItem(it)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		appLog.Error("failed to update item", err, "item_id", id)
		writeError(w, http.StatusInternalServerError, "failed to save item")
		return
	}
	s.syncTriggers(saved)
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteItem(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		appLog.Error("failed to delete item", err, "item_id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}
	if err := s.recon.CancelAll(id); err != nil {
		// The stored item is already gone; a stale trigger will be caught
		// on the next sync, so losing the cancel is not fatal.
		appLog.Error("failed to cancel reminders for deleted item", err, "item_id", id)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCompleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Date string `json:"date"`
		Done bool   `json:"done"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Date == "" {
		req.Date = time.Now().In(s.loc).Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	if _, err := s.store.GetItem(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "item not found")
			return
		}
		appLog.Error("failed to load item", err, "item_id", id)
		writeError(w, http.StatusInternalServerError, "failed to load item")
		return
	}
	if err := s.store.SetCompletion(id, req.Date, req.Done); err != nil {
		appLog.Error("failed to set completion", err, "item_id", id)
		writeError(w, http.StatusInternalServerError, "failed to set completion")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item_id": id, "date": req.Date, "done": req.Done})
}

// syncTriggers reconciles notification triggers after a save. Notification
// failures never fail the save itself.
func (s *Server) syncTriggers(it model.Item) {
	if err := s.recon.Sync(it); err != nil {
		appLog.Error("failed to sync reminders", err, "item_id", it.ID)
	}
}

func (s *Server) itemFromRequest(req itemRequest) (model.Item, error) {
	kind := model.ItemKind(req.Kind)
	if kind != model.ItemWorkout && kind != model.ItemMealReminder {
		return model.Item{}, fmt.Errorf("kind must be %q or %q", model.ItemWorkout, model.ItemMealReminder)
	}
	if req.Title == "" {
		return model.Item{}, errors.New("title is required")
	}
	if req.TimeOfDay.Hour < 0 || req.TimeOfDay.Hour > 23 {
		return model.Item{}, errors.New("time_of_day.hour must be 0..23")
	}
	if req.TimeOfDay.Minute < 0 || req.TimeOfDay.Minute > 59 {
		return model.Item{}, errors.New("time_of_day.minute must be 0..59")
	}
	if req.LeadMinutes < 0 {
		return model.Item{}, errors.New("reminder_lead_minutes must not be negative")
	}

	rec := model.Recurrence{Kind: model.RecurrenceKind(req.Recurrence.Kind)}
	switch rec.Kind {
	case model.RecurrenceOnce:
		if req.Recurrence.Date == "" {
			return model.Item{}, errors.New("recurrence.date is required for one-shot items")
		}
		d, err := time.ParseInLocation("2006-01-02", req.Recurrence.Date, s.loc)
		if err != nil {
			return model.Item{}, errors.New("recurrence.date must be YYYY-MM-DD")
		}
		rec.Date = d
	case model.RecurrenceDaily:
	case model.RecurrenceWeekly:
		for _, n := range req.Recurrence.Days {
			d := model.Weekday(n)
			if !d.Valid() {
				return model.Item{}, fmt.Errorf("recurrence.days contains invalid weekday %d", n)
			}
			if !rec.HasDay(d) {
				rec.Days = append(rec.Days, d)
			}
		}
	default:
		return model.Item{}, errors.New("recurrence.kind must be once, daily or weekly")
	}

	var exercises []model.Exercise
	for _, name := range req.Exercises {
		if name == "" {
			continue
		}
		exercises = append(exercises, model.Exercise{Name: name})
	}

	return model.Item{
		Kind:        kind,
		Title:       req.Title,
		Notes:       req.Notes,
		Recurrence:  rec,
		TimeOfDay:   model.TimeOfDay{Hour: req.TimeOfDay.Hour, Minute: req.TimeOfDay.Minute},
		LeadMinutes: req.LeadMinutes,
		Exercises:   exercises,
	}, nil
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
