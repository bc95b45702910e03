package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestLoadUsesDefaultsWithoutFile(t *testing.T) {
	cfg, err := load(viper.New(), t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := DefaultConfig()
	if cfg.API.URL != def.API.URL || cfg.API.Source != def.API.Source {
		t.Fatalf("expected default api, got %+v", cfg.API)
	}
	if cfg.Search.MinQueryLength != 3 || cfg.Search.Debounce != 500*time.Millisecond {
		t.Fatalf("unexpected search defaults %+v", cfg.Search)
	}
	if !cfg.IsConfigured() {
		t.Fatalf("expected defaults to be configured")
	}
}

func TestLoadReadsFileAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
api:
  url: "http://localhost:8080/api/"
  source: "/arcade/"
http:
  timeout: 5s
  retries: -2
search:
  min_query_length: 0
ui:
  default_tab: Favorites
`)

	cfg, err := load(viper.New(), dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.URL != "http://localhost:8080/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.API.URL)
	}
	if cfg.API.Source != "arcade" {
		t.Fatalf("expected source trimmed, got %q", cfg.API.Source)
	}
	if cfg.HTTP.Timeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %v", cfg.HTTP.Timeout)
	}
	if cfg.HTTP.Retries != 0 {
		t.Fatalf("expected negative retries clamped, got %d", cfg.HTTP.Retries)
	}
	if cfg.Search.MinQueryLength != 1 {
		t.Fatalf("expected min query length clamped, got %d", cfg.Search.MinQueryLength)
	}
	if cfg.UI.DefaultTab != TabFavorites {
		t.Fatalf("expected favorites tab, got %q", cfg.UI.DefaultTab)
	}
}

func TestLoadUnknownTabFallsBackToHome(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "ui:\n  default_tab: settings\n")

	cfg, err := load(viper.New(), dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.UI.DefaultTab != TabHome {
		t.Fatalf("expected home tab, got %q", cfg.UI.DefaultTab)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("GAMEDECK_STORAGE_PATH", "/tmp/override.db")
	t.Setenv("GAMEDECK_API_SOURCE", "puzzles")

	cfg, err := load(viper.New(), t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Path != "/tmp/override.db" {
		t.Fatalf("expected env storage path, got %q", cfg.Storage.Path)
	}
	if cfg.API.Source != "puzzles" {
		t.Fatalf("expected env source, got %q", cfg.API.Source)
	}
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "api: [unterminated\n")

	if _, err := load(viper.New(), dir); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.API.URL = "http://example.test/api"
	cfg.Player.Command = "firefox"
	if !cfg.EnsureClientID() {
		t.Fatalf("expected a client id to be generated")
	}
	if cfg.EnsureClientID() {
		t.Fatalf("expected existing client id to be kept")
	}

	if err := save(viper.New(), dir, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := load(viper.New(), dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.API.URL != cfg.API.URL || got.API.ClientID != cfg.API.ClientID {
		t.Fatalf("expected saved api config, got %+v", got.API)
	}
	if got.Player.Command != "firefox" {
		t.Fatalf("expected player command, got %q", got.Player.Command)
	}
	if got.HTTP.Timeout != cfg.HTTP.Timeout {
		t.Fatalf("expected timeout %v, got %v", cfg.HTTP.Timeout, got.HTTP.Timeout)
	}
}
