// Package web exposes the HTTP API and the embedded dashboard.
package web

import (
	"crypto/subtle"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"fitcal/internal/ai"
	"fitcal/internal/config"
	"fitcal/internal/ics"
	appLog "fitcal/internal/log"
	"fitcal/internal/notify"
	"fitcal/internal/store"
	"fitcal/internal/water"
)

// Server wires the HTTP layer to the application services.
type Server struct {
	cfg     *config.Config
	cfgPath string
	store   *store.Store
	recon   *notify.Reconciler
	tracker *water.Tracker
	ai      *ai.Client
	fetcher *ics.Fetcher
	loc     *time.Location
	debug   bool
	mux     *http.ServeMux

	external externalCache

	snapMu sync.Mutex
	snapAt time.Time
}

//go:embed all:static
var embeddedStatic embed.FS

// NewServer constructs the HTTP server. cfgPath is needed because some
// handlers (water reminder settings) persist config changes.
func NewServer(cfg *config.Config, cfgPath string, st *store.Store, recon *notify.Reconciler,
	tracker *water.Tracker, aiClient *ai.Client, loc *time.Location, debug bool) *Server {
	s := &Server{
		cfg:     cfg,
		cfgPath: cfgPath,
		store:   st,
		recon:   recon,
		tracker: tracker,
		ai:      aiClient,
		fetcher: ics.NewFetcher(),
		loc:     loc,
		debug:   debug,
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the root handler, wrapped with basic auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/items", s.handleListItems)
	s.mux.HandleFunc("POST /api/items", s.handleCreateItem)
	s.mux.HandleFunc("GET /api/items/{id}", s.handleGetItem)
	s.mux.HandleFunc("PUT /api/items/{id}", s.handleUpdateItem)
	s.mux.HandleFunc("DELETE /api/items/{id}", s.handleDeleteItem)
	s.mux.HandleFunc("POST /api/items/{id}/complete", s.handleCompleteItem)

	s.mux.HandleFunc("GET /api/today", s.handleToday)
	s.mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	s.mux.HandleFunc("GET /api/export.ics", s.handleExportICS)
	s.mux.HandleFunc("GET /api/snapshot.png", s.handleSnapshot)

	s.mux.HandleFunc("POST /api/ai/workout", s.handleAIWorkout)
	s.mux.HandleFunc("POST /api/ai/recipes", s.handleAIRecipes)
	s.mux.HandleFunc("POST /api/ai/vitamins", s.handleAIVitamins)

	s.mux.HandleFunc("GET /api/recipes", s.handleListRecipes)
	s.mux.HandleFunc("POST /api/recipes", s.handleSaveRecipe)
	s.mux.HandleFunc("DELETE /api/recipes/{id}", s.handleDeleteRecipe)

	s.mux.HandleFunc("GET /api/vitamins", s.handleListVitaminQueries)
	s.mux.HandleFunc("DELETE /api/vitamins/{id}", s.handleDeleteVitaminQuery)

	s.mux.HandleFunc("GET /api/water", s.handleWaterToday)
	s.mux.HandleFunc("POST /api/water/add", s.handleWaterAdd)
	s.mux.HandleFunc("PUT /api/water/goal", s.handleWaterGoal)
	s.mux.HandleFunc("POST /api/water/reset", s.handleWaterReset)
	s.mux.HandleFunc("GET /api/water/week", s.handleWaterWeek)
	s.mux.HandleFunc("GET /api/water/reminders", s.handleGetWaterReminders)
	s.mux.HandleFunc("PUT /api/water/reminders", s.handlePutWaterReminders)

	s.mux.HandleFunc("GET /api/profile", s.handleGetProfile)
	s.mux.HandleFunc("PUT /api/profile", s.handlePutProfile)

	// Everything else is the embedded dashboard.
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) basicAuthEnabled() bool {
	ba := s.cfg.BasicAuth
	return ba != nil && ba.Username != "" && ba.Password != ""
}

// basicAuthMiddleware protects everything except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="fitcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "dashboard not available", http.StatusServiceUnavailable)
		})
	}
	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// API paths never fall through to the dashboard.
		if r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
