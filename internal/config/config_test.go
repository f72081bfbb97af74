package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != "127.0.0.1:3000" || cfg.Timezone != "Asia/Seoul" || cfg.LogLevel != "info" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Export.Backend != "painter" || cfg.Export.Viewport != "auto" {
		t.Errorf("export defaults = %+v", cfg.Export)
	}
	if cfg.Export.Desktop.Debounce() != 1500*time.Millisecond || cfg.Export.Desktop.Scale != 2 {
		t.Errorf("desktop = %+v", cfg.Export.Desktop)
	}
	if cfg.Export.Mobile.Debounce() != 2000*time.Millisecond || cfg.Export.Mobile.Scale != 1 {
		t.Errorf("mobile = %+v", cfg.Export.Mobile)
	}
	if cfg.API.Timeout() != 15*time.Second {
		t.Errorf("api timeout = %v", cfg.API.Timeout())
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Errorf("perm = %v", fi.Mode().Perm())
	}
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
listen: ":9000"
log_level: DEBUG
export:
  backend: bogus
  mobile:
    debounce_ms: 2500
  idle_max_wait_ms: -1
subscriptions:
  - id: kr
    name: Korean holidays
    url: https://example.com/kr.ics
    color: "#ef4444"
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen != ":9000" || cfg.LogLevel != "debug" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Export.Backend != "painter" {
		t.Errorf("backend = %q", cfg.Export.Backend)
	}
	if cfg.Export.Mobile.DebounceMS != 2500 || cfg.Export.Mobile.Scale != 1 {
		t.Errorf("mobile = %+v", cfg.Export.Mobile)
	}
	if cfg.Export.IdleMaxWait() >= 0 {
		t.Errorf("negative idle max wait should be kept, got %v", cfg.Export.IdleMaxWait())
	}
	if len(cfg.Subscriptions) != 1 || cfg.Subscriptions[0].Color != "#ef4444" {
		t.Errorf("subscriptions = %+v", cfg.Subscriptions)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}
	cfg.Calendar.DefaultStyle = "dark"
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.BasicAuth == nil || got.BasicAuth.Username != "u" || got.Calendar.DefaultStyle != "dark" {
		t.Errorf("reloaded = %+v", got)
	}
}

func TestWriteFileAtomicReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.yaml")
	if err := WriteFileAtomic(path, []byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("b")); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "b" {
		t.Errorf("content = %q", data)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestLocation(t *testing.T) {
	cfg := DefaultConfig()
	if _, err := cfg.Location(); err != nil {
		t.Errorf("Asia/Seoul: %v", err)
	}
	cfg.Timezone = "Nowhere/Special"
	loc, err := cfg.Location()
	if err == nil || loc != time.UTC {
		t.Errorf("loc = %v, err = %v", loc, err)
	}
}
