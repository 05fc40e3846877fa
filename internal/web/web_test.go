package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitcal/internal/ai"
	"fitcal/internal/config"
	"fitcal/internal/model"
	"fitcal/internal/notify"
	"fitcal/internal/schedule"
	"fitcal/internal/store"
	"fitcal/internal/water"
)

type fakeService struct {
	pending map[string]schedule.TriggerSpec
}

func (f *fakeService) Schedule(key string, spec schedule.TriggerSpec, _ notify.Content) error {
	f.pending[key] = spec
	return nil
}

func (f *fakeService) Cancel(keys []string) error {
	for _, k := range keys {
		delete(f.pending, k)
	}
	return nil
}

func (f *fakeService) ListPending() ([]string, error) {
	out := make([]string, 0, len(f.pending))
	for k := range f.pending {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

type testEnv struct {
	srv     *httptest.Server
	svc     *fakeService
	cfg     *config.Config
	cfgPath string
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	if mutate != nil {
		mutate(cfg)
	}
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, cfg.Save(cfgPath))

	st, err := store.Open(":memory:", time.UTC)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	svc := &fakeService{pending: make(map[string]schedule.TriggerSpec)}
	recon := notify.NewReconciler(svc)
	tracker := water.NewTracker(st, svc, time.UTC, cfg.Water.DefaultGoalMl)
	aiClient := ai.NewClient(config.AIConfig{})

	s := NewServer(cfg, cfgPath, st, recon, tracker, aiClient, time.UTC, false)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, svc: svc, cfg: cfg, cfgPath: cfgPath}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func validItemBody() map[string]any {
	return map[string]any{
		"kind":  "workout",
		"title": "Leg day",
		"recurrence": map[string]any{
			"kind": "weekly",
			"days": []int{1, 3},
		},
		"time_of_day":           map[string]any{"hour": 18, "minute": 0},
		"reminder_lead_minutes": 30,
		"exercises":             []string{"Squats", "Lunges"},
	}
}

func TestItems_CreateSyncsTriggers(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodPost, "/api/items", validItemBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[model.Item](t, resp)
	assert.Equal(t, "Leg day", created.Title)
	require.Len(t, created.Exercises, 2)

	// One trigger per selected weekday.
	pending, _ := env.svc.ListPending()
	require.Len(t, pending, 2)
	for _, key := range pending {
		assert.True(t, schedule.KeyBelongsTo(key, created.ID), "key %q", key)
	}
}

func TestItems_UpdateReconcilesTriggers(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodPost, "/api/items", validItemBody())
	created := decodeBody[model.Item](t, resp)

	body := validItemBody()
	body["recurrence"] = map[string]any{"kind": "weekly", "days": []int{5}}
	resp = env.do(t, http.MethodPut, "/api/items/"+created.ID.String(), body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	pending, _ := env.svc.ListPending()
	require.Len(t, pending, 1)
	want := schedule.NewWeekdayKey(created.ID, model.Friday).String()
	assert.Equal(t, want, pending[0])
}

func TestItems_DeleteCancelsTriggers(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodPost, "/api/items", validItemBody())
	created := decodeBody[model.Item](t, resp)

	resp = env.do(t, http.MethodDelete, "/api/items/"+created.ID.String(), nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	pending, _ := env.svc.ListPending()
	assert.Empty(t, pending)

	resp = env.do(t, http.MethodGet, "/api/items/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestItems_ValidationErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	cases := []func(map[string]any){
		func(b map[string]any) { b["kind"] = "nap" },
		func(b map[string]any) { b["title"] = "" },
		func(b map[string]any) { b["time_of_day"] = map[string]any{"hour": 24} },
		func(b map[string]any) { b["time_of_day"] = map[string]any{"hour": 10, "minute": 60} },
		func(b map[string]any) { b["reminder_lead_minutes"] = -5 },
		func(b map[string]any) { b["recurrence"] = map[string]any{"kind": "yearly"} },
		func(b map[string]any) { b["recurrence"] = map[string]any{"kind": "once"} },
		func(b map[string]any) { b["recurrence"] = map[string]any{"kind": "once", "date": "July 4"} },
		func(b map[string]any) { b["recurrence"] = map[string]any{"kind": "weekly", "days": []int{8}} },
	}
	for i, mutate := range cases {
		body := validItemBody()
		mutate(body)
		resp := env.do(t, http.MethodPost, "/api/items", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "case %d", i)
		resp.Body.Close()
	}

	resp := env.do(t, http.MethodGet, "/api/items/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestToday_ListsMatchingItemsWithCompletion(t *testing.T) {
	env := newTestEnv(t, nil)

	daily := validItemBody()
	daily["title"] = "Morning stretch"
	daily["recurrence"] = map[string]any{"kind": "daily"}
	resp := env.do(t, http.MethodPost, "/api/items", daily)
	created := decodeBody[model.Item](t, resp)

	// A one-shot on another date stays out of today's list.
	other := validItemBody()
	other["title"] = "Future checkup"
	other["recurrence"] = map[string]any{"kind": "once", "date": "2099-01-01"}
	resp = env.do(t, http.MethodPost, "/api/items", other)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/items/"+created.ID.String()+"/complete",
		map[string]any{"done": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/api/today", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decodeBody[struct {
		Date    string `json:"date"`
		Entries []struct {
			Title string `json:"title"`
			Done  bool   `json:"done"`
		} `json:"entries"`
	}](t, resp)

	require.Len(t, view.Entries, 1)
	assert.Equal(t, "Morning stretch", view.Entries[0].Title)
	assert.True(t, view.Entries[0].Done)
}

func TestCalendar_ExpandsOverWindow(t *testing.T) {
	env := newTestEnv(t, nil)

	daily := validItemBody()
	daily["recurrence"] = map[string]any{"kind": "daily"}
	resp := env.do(t, http.MethodPost, "/api/items", daily)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/api/calendar?days=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decodeBody[struct {
		Days        int                `json:"days"`
		Occurrences []model.Occurrence `json:"occurrences"`
	}](t, resp)

	assert.Equal(t, 3, view.Days)
	assert.Len(t, view.Occurrences, 3)
}

func TestWater_AddAndGoalFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodPost, "/api/water/add", map[string]any{"amount": 250})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	day := decodeBody[model.WaterDay](t, resp)
	assert.Equal(t, 250.0, day.Intake)

	resp = env.do(t, http.MethodPut, "/api/water/goal", map[string]any{"goal": 1800})
	day = decodeBody[model.WaterDay](t, resp)
	assert.Equal(t, 1800.0, day.Goal)
	assert.Equal(t, 250.0, day.Intake)

	resp = env.do(t, http.MethodPost, "/api/water/add", map[string]any{"amount": -10})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/api/water/week", nil)
	week := decodeBody[[]model.WaterDay](t, resp)
	assert.Len(t, week, 7)
}

func TestWaterReminders_PutReconciles(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodPut, "/api/water/reminders", map[string]any{
		"enabled":        true,
		"start_hour":     9,
		"end_hour":       18,
		"interval_hours": 3,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	pending, _ := env.svc.ListPending()
	// 9, 12, 15, 18.
	assert.Len(t, pending, 4)
	assert.Equal(t, "wtr_0900", pending[0])

	resp = env.do(t, http.MethodPut, "/api/water/reminders", map[string]any{
		"enabled": false, "start_hour": 9, "end_hour": 18, "interval_hours": 3,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	pending, _ = env.svc.ListPending()
	assert.Empty(t, pending)
}

func TestWaterReminders_MidnightWindowPersistsAsAccepted(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodPut, "/api/water/reminders", map[string]any{
		"enabled":        true,
		"start_hour":     0,
		"end_hour":       0,
		"interval_hours": 2,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[config.WaterReminderConfig](t, resp)
	assert.Equal(t, 0, got.StartHour)
	assert.Equal(t, 0, got.EndHour)

	// The saved config carries the accepted values, not config defaults.
	saved, err := config.Load(env.cfgPath)
	require.NoError(t, err)
	assert.True(t, saved.Water.Reminders.Enabled)
	assert.Equal(t, 0, saved.Water.Reminders.StartHour)
	assert.Equal(t, 0, saved.Water.Reminders.EndHour)

	pending, _ := env.svc.ListPending()
	require.Len(t, pending, 1)
	assert.Equal(t, "wtr_0000", pending[0])
}

func TestExternalEvents_CachedPerWindow(t *testing.T) {
	var hits atomic.Int32
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/calendar")
		fmt.Fprint(w, "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\nEND:VCALENDAR\r\n")
	}))
	defer feed.Close()

	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.ICS = []config.ICSConfig{{ID: "ext", URL: feed.URL, Name: "External"}}
	})

	for _, path := range []string{"/api/today", "/api/calendar?days=3", "/api/today"} {
		resp := env.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		resp.Body.Close()
	}

	// Two distinct windows fetch once each; the repeated today window is
	// served from cache even after the calendar load in between.
	assert.Equal(t, int32(2), hits.Load())
}

func TestProfile_GetAndPut(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodGet, "/api/profile", nil)
	p := decodeBody[model.Profile](t, resp)
	assert.Equal(t, "friend", p.Username)

	resp = env.do(t, http.MethodPut, "/api/profile", map[string]any{"username": "Sam"})
	p = decodeBody[model.Profile](t, resp)
	assert.Equal(t, "Sam", p.Username)
}

func TestAI_DisabledReturns503(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodPost, "/api/ai/workout", map[string]any{"goal": "strength"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}

func TestExportICS_ContainsItems(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodPost, "/api/items", validItemBody())
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/api/export.ics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/calendar")

	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	body := buf.String()
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "SUMMARY:Leg day")
	assert.Contains(t, body, "FREQ=WEEKLY;BYDAY=MO,WE")
}

func TestBasicAuth_ProtectsAPIButNotHealth(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "s3cret"}
	})

	resp, err := http.Get(env.srv.URL + "/api/items")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("WWW-Authenticate"), "Basic")
	resp.Body.Close()

	resp, err = http.Get(env.srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/api/items", nil)
	req.SetBasicAuth("admin", "s3cret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	req, _ = http.NewRequest(http.MethodGet, env.srv.URL+"/api/items", nil)
	req.SetBasicAuth("admin", "wrong")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestDashboard_ServedAtRoot(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := http.Get(env.srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "fitcal")
}

func TestUnknownAPIPathIs404(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := http.Get(fmt.Sprintf("%s/api/nope", env.srv.URL))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
