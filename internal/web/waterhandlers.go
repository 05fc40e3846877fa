package web

import (
	"net/http"

	appLog "fitcal/internal/log"
	"fitcal/internal/model"
)

func (s *Server) handleWaterToday(w http.ResponseWriter, _ *http.Request) {
	day, err := s.tracker.Today()
	if err != nil {
		appLog.Error("failed to load water day", err)
		writeError(w, http.StatusInternalServerError, "failed to load water tracking")
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *Server) handleWaterAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	day, err := s.tracker.Add(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *Server) handleWaterGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Goal float64 `json:"goal"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	day, err := s.tracker.SetGoal(req.Goal)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *Server) handleWaterReset(w http.ResponseWriter, _ *http.Request) {
	day, err := s.tracker.Reset()
	if err != nil {
		appLog.Error("failed to reset water day", err)
		writeError(w, http.StatusInternalServerError, "failed to reset water tracking")
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *Server) handleWaterWeek(w http.ResponseWriter, _ *http.Request) {
	week, err := s.tracker.Week()
	if err != nil {
		appLog.Error("failed to load water week", err)
		writeError(w, http.StatusInternalServerError, "failed to load water tracking")
		return
	}
	writeJSON(w, http.StatusOK, week)
}

func (s *Server) handleGetWaterReminders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Water.Reminders)
}

// handlePutWaterReminders updates the drink-water reminder window, persists
// the config, and reconciles the installed triggers with the new settings.
func (s *Server) handlePutWaterReminders(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled       bool `json:"enabled"`
		StartHour     int  `json:"start_hour"`
		EndHour       int  `json:"end_hour"`
		IntervalHours int  `json:"interval_hours"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.StartHour < 0 || req.StartHour > 23 || req.EndHour < 0 || req.EndHour > 23 {
		writeError(w, http.StatusBadRequest, "hours must be 0..23")
		return
	}
	if req.EndHour < req.StartHour {
		writeError(w, http.StatusBadRequest, "end_hour must not be before start_hour")
		return
	}
	if req.IntervalHours < 1 {
		writeError(w, http.StatusBadRequest, "interval_hours must be at least 1")
		return
	}

	s.cfg.Water.Reminders.Enabled = req.Enabled
	s.cfg.Water.Reminders.StartHour = req.StartHour
	s.cfg.Water.Reminders.EndHour = req.EndHour
	s.cfg.Water.Reminders.IntervalHours = req.IntervalHours

	if err := s.cfg.Save(s.cfgPath); err != nil {
		appLog.Error("failed to save config", err, "path", s.cfgPath)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	if err := s.tracker.SyncReminders(s.cfg.Water.Reminders); err != nil {
		appLog.Error("failed to sync water reminders", err)
	}
	writeJSON(w, http.StatusOK, s.cfg.Water.Reminders)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, _ *http.Request) {
	p, err := s.store.GetProfile()
	if err != nil {
		appLog.Error("failed to load profile", err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}
	if err := s.store.SaveProfile(model.Profile{Username: req.Username}); err != nil {
		appLog.Error("failed to save profile", err)
		writeError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}
	p, err := s.store.GetProfile()
	if err != nil {
		appLog.Error("failed to reload profile", err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, p)
}
