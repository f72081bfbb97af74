package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// NOTE: This file provides the configuration model and YAML load/save,
// including first-run config creation and 0600 permissions.

// SubscriptionConfig describes an ICS feed imported into the calendar at
// start.
type SubscriptionConfig struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
	// Color is the marker color for imported events (#rrggbb).
	Color string `yaml:"color" json:"color"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// CalendarConfig holds the initial page state.
type CalendarConfig struct {
	DefaultStyle string   `yaml:"default_style" json:"default_style"`
	DefaultRatio string   `yaml:"default_ratio" json:"default_ratio"`
	Palette      []string `yaml:"palette" json:"palette"`
}

// PolicyConfig is one export capture policy.
type PolicyConfig struct {
	DebounceMS int     `yaml:"debounce_ms" json:"debounce_ms"`
	Scale      float64 `yaml:"scale" json:"scale"`
}

func (p PolicyConfig) Debounce() time.Duration {
	return time.Duration(p.DebounceMS) * time.Millisecond
}

// ExportConfig controls the PNG export pipeline.
type ExportConfig struct {
	// Backend is "painter" (pure Go) or "chromium" (headless browser).
	Backend string `yaml:"backend" json:"backend"`
	// Viewport fixes the capture policy: "desktop", "mobile", or "auto"
	// to follow the width reported by the UI.
	Viewport           string       `yaml:"viewport" json:"viewport"`
	Desktop            PolicyConfig `yaml:"desktop" json:"desktop"`
	Mobile             PolicyConfig `yaml:"mobile" json:"mobile"`
	IdleMaxWaitMS      int          `yaml:"idle_max_wait_ms" json:"idle_max_wait_ms"`
	ChromiumTimeoutSec int          `yaml:"chromium_timeout_sec" json:"chromium_timeout_sec"`
	// ChromiumPath overrides the browser executable lookup.
	ChromiumPath string `yaml:"chromium_path,omitempty" json:"chromium_path,omitempty"`
	// FontPath is a Hangul capable font for the painter backend. Without
	// it the painter draws Latin labels.
	FontPath string `yaml:"font_path,omitempty" json:"font_path,omitempty"`
}

func (e ExportConfig) IdleMaxWait() time.Duration {
	return time.Duration(e.IdleMaxWaitMS) * time.Millisecond
}

func (e ExportConfig) ChromiumTimeout() time.Duration {
	return time.Duration(e.ChromiumTimeoutSec) * time.Second
}

// APIConfig points at the recipe recommendation backend.
type APIConfig struct {
	BaseURL        string `yaml:"base_url" json:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	// QuotaRefresh is a cron spec for polling the YouTube quota. Empty
	// disables polling.
	QuotaRefresh string `yaml:"quota_refresh" json:"quota_refresh"`
}

func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Timezone is the IANA timezone that decides "today" (e.g. "Asia/Seoul").
	Timezone string `yaml:"timezone" json:"timezone"`

	// DataDir holds settings.yaml and the ICS feed cache.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// HolidaysFile, if set, replaces the embedded holiday table.
	HolidaysFile string `yaml:"holidays_file,omitempty" json:"holidays_file,omitempty"`

	Calendar      CalendarConfig       `yaml:"calendar" json:"calendar"`
	Export        ExportConfig         `yaml:"export" json:"export"`
	API           APIConfig            `yaml:"api" json:"api"`
	Subscriptions []SubscriptionConfig `yaml:"subscriptions" json:"subscriptions"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{Subscriptions: []SubscriptionConfig{}}
	c.Normalize()
	return c
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:3000"
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = "info"
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Seoul"
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}

	if c.Calendar.DefaultStyle == "" {
		c.Calendar.DefaultStyle = "modern"
	}
	if c.Calendar.DefaultRatio == "" {
		c.Calendar.DefaultRatio = "9_16"
	}

	switch c.Export.Backend {
	case "painter", "chromium":
	default:
		c.Export.Backend = "painter"
	}
	switch c.Export.Viewport {
	case "auto", "desktop", "mobile":
	default:
		c.Export.Viewport = "auto"
	}
	if c.Export.Desktop.DebounceMS <= 0 {
		c.Export.Desktop.DebounceMS = 1500
	}
	if c.Export.Desktop.Scale <= 0 {
		c.Export.Desktop.Scale = 2
	}
	if c.Export.Mobile.DebounceMS <= 0 {
		c.Export.Mobile.DebounceMS = 2000
	}
	if c.Export.Mobile.Scale <= 0 {
		c.Export.Mobile.Scale = 1
	}
	// Negative disables the bound; zero means unset.
	if c.Export.IdleMaxWaitMS == 0 {
		c.Export.IdleMaxWaitMS = 1500
	}
	if c.Export.ChromiumTimeoutSec <= 0 {
		c.Export.ChromiumTimeoutSec = 30
	}

	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:8080"
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = 15
	}

	if c.Subscriptions == nil {
		c.Subscriptions = []SubscriptionConfig{}
	}
}

// Location resolves Timezone, falling back to UTC on an unknown name.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC, err
	}
	return loc, nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
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

// Save writes the given configuration to the specified path.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

// WriteFileAtomic writes data to path with 0600 permissions.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Writes to a temp file in the same directory, then renames over path.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".fridgecal-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
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
