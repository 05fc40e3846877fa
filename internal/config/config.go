package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ICSConfig describes one external ICS subscription merged into the
// today/calendar views.
type ICSConfig struct {
	URL  string `yaml:"url" json:"url"`
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API/UI.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// AIConfig configures the completion API used for workout plans, recipes
// and vitamin suggestions. OAuthToken is exchanged for a short-lived IAM
// token at request time; it is never sent to the completion endpoint itself.
type AIConfig struct {
	OAuthToken string `yaml:"oauth_token" json:"-"`
	FolderID   string `yaml:"folder_id" json:"folder_id"`
	APIURL     string `yaml:"api_url" json:"api_url"`
	IAMURL     string `yaml:"iam_url" json:"iam_url"`
}

// Enabled reports whether the completion API is usable.
func (a AIConfig) Enabled() bool {
	return a.OAuthToken != "" && a.FolderID != ""
}

// NotifyConfig selects how fired reminders are delivered. With an empty
// Command reminders go to the application log only.
type NotifyConfig struct {
	Command string   `yaml:"command" json:"command"`
	Args    []string `yaml:"args" json:"args"`
}

// WaterReminderConfig drives the repeating drink-water reminders: one
// trigger every IntervalHours between StartHour and EndHour.
type WaterReminderConfig struct {
	Enabled       bool `yaml:"enabled" json:"enabled"`
	StartHour     int  `yaml:"start_hour" json:"start_hour"`
	EndHour       int  `yaml:"end_hour" json:"end_hour"`
	IntervalHours int  `yaml:"interval_hours" json:"interval_hours"`
}

// WaterConfig holds water-tracking defaults.
type WaterConfig struct {
	DefaultGoalMl float64             `yaml:"default_goal_ml" json:"default_goal_ml"`
	Reminders     WaterReminderConfig `yaml:"reminders" json:"reminders"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API and dashboard.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA display timezone (e.g. "Europe/Moscow"). All
	// civil-date arithmetic (occurrence matching, water rollover) happens
	// in this zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart controls dashboard layout only ("monday" or "sunday");
	// recurrence matching always uses the canonical Monday=1 numbering.
	WeekStart string `yaml:"week_start" json:"week_start"`

	// LogLevel is one of debug/info/warn/error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// DataDir holds the SQLite database and snapshot cache.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	AI     AIConfig     `yaml:"ai" json:"ai"`
	Notify NotifyConfig `yaml:"notify" json:"notify"`
	Water  WaterConfig  `yaml:"water" json:"water"`

	// ICS is the list of subscribed external calendars.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:    "127.0.0.1:8080",
		Timezone:  "Europe/Moscow",
		WeekStart: "monday",
		LogLevel:  "info",
		DataDir:   "/var/lib/fitcal",
		AI: AIConfig{
			APIURL: "https://llm.api.cloud.yandex.net/foundationModels/v1/completion",
			IAMURL: "https://iam.api.cloud.yandex.net/iam/v1/tokens",
		},
		Water: WaterConfig{
			DefaultGoalMl: 2000,
			Reminders: WaterReminderConfig{
				StartHour:     8,
				EndHour:       22,
				IntervalHours: 2,
			},
		},
		ICS: []ICSConfig{},
	}
}

// Normalize fills missing/zero values so partially filled configs from
// older versions keep working.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Moscow"
	}
	switch c.WeekStart {
	case "monday", "sunday":
	default:
		c.WeekStart = "monday"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DataDir == "" {
		c.DataDir = "/var/lib/fitcal"
	}
	if c.AI.APIURL == "" {
		c.AI.APIURL = "https://llm.api.cloud.yandex.net/foundationModels/v1/completion"
	}
	if c.AI.IAMURL == "" {
		c.AI.IAMURL = "https://iam.api.cloud.yandex.net/iam/v1/tokens"
	}
	if c.Water.DefaultGoalMl <= 0 {
		c.Water.DefaultGoalMl = 2000
	}
	w := &c.Water.Reminders
	// The zero value (disabled, all fields zero) means unset and gets the
	// defaults. A configured start_hour of 0 is midnight and stays, as does
	// end_hour == start_hour (a single reminder).
	if !w.Enabled && w.StartHour == 0 && w.EndHour == 0 && w.IntervalHours == 0 {
		w.StartHour = 8
		w.EndHour = 22
		w.IntervalHours = 2
	}
	if w.StartHour < 0 || w.StartHour > 23 {
		w.StartHour = 8
	}
	if w.EndHour > 23 || w.EndHour < w.StartHour {
		w.EndHour = 22
		if w.EndHour < w.StartHour {
			w.EndHour = w.StartHour
		}
	}
	if w.IntervalHours < 1 {
		w.IntervalHours = 2
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
}

// Load reads configuration from a YAML file. A missing file is a first run:
// the defaults are written out (0600) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".fitcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method for handlers that mutate settings:
//
//	cfg, _ := config.Load(path)
//	// ... mutate cfg ...
//	if err := cfg.Save(path); err != nil { ... }
func (c *Config) Save(path string) error {
	return Save(path, c)
}
