package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "Europe/Moscow", cfg.Timezone)
	assert.Equal(t, 2000.0, cfg.Water.DefaultGoalMl)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoad_RoundTripsSavedConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Listen = "0.0.0.0:9000"
	cfg.Timezone = "Europe/Berlin"
	cfg.Water.Reminders.Enabled = true
	cfg.Water.Reminders.StartHour = 9
	cfg.ICS = []ICSConfig{{ID: "work", URL: "https://example.com/work.ics", Name: "Work"}}
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", got.Listen)
	assert.Equal(t, "Europe/Berlin", got.Timezone)
	assert.True(t, got.Water.Reminders.Enabled)
	assert.Equal(t, 9, got.Water.Reminders.StartHour)
	require.Len(t, got.ICS, 1)
	assert.Equal(t, "work", got.ICS[0].ID)
}

func TestNormalize_FillsMissingValues(t *testing.T) {
	cfg := &Config{}
	cfg.Normalize()

	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "Europe/Moscow", cfg.Timezone)
	assert.Equal(t, "monday", cfg.WeekStart)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotEmpty(t, cfg.AI.APIURL)
	assert.NotEmpty(t, cfg.AI.IAMURL)
	assert.Equal(t, 2000.0, cfg.Water.DefaultGoalMl)
	assert.Equal(t, 8, cfg.Water.Reminders.StartHour)
	assert.Equal(t, 22, cfg.Water.Reminders.EndHour)
	assert.Equal(t, 2, cfg.Water.Reminders.IntervalHours)
	assert.NotNil(t, cfg.ICS)
}

func TestNormalize_ClampsReminderWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Water.Reminders.StartHour = 30
	cfg.Water.Reminders.EndHour = 5
	cfg.Water.Reminders.IntervalHours = 0
	cfg.Normalize()

	assert.Equal(t, 8, cfg.Water.Reminders.StartHour)
	assert.Equal(t, 22, cfg.Water.Reminders.EndHour)
	assert.Equal(t, 2, cfg.Water.Reminders.IntervalHours)
}

func TestNormalize_KeepsValidReminderWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Water.Reminders = WaterReminderConfig{
		Enabled:       true,
		StartHour:     0,
		EndHour:       0,
		IntervalHours: 12,
	}
	cfg.Normalize()

	// Midnight start and a single-hour window are valid settings, not
	// placeholders for the defaults.
	assert.Equal(t, 0, cfg.Water.Reminders.StartHour)
	assert.Equal(t, 0, cfg.Water.Reminders.EndHour)
	assert.Equal(t, 12, cfg.Water.Reminders.IntervalHours)
}

func TestAIConfig_Enabled(t *testing.T) {
	assert.False(t, AIConfig{}.Enabled())
	assert.False(t, AIConfig{OAuthToken: "tok"}.Enabled())
	assert.False(t, AIConfig{FolderID: "folder"}.Enabled())
	assert.True(t, AIConfig{OAuthToken: "tok", FolderID: "folder"}.Enabled())
}

func TestLoad_RejectsEmptyPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}
