package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	qerrors "move-quote/internal/errors"
)

func env(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.ReloadTimeout() != 10*time.Second {
		t.Errorf("expected 10s reload timeout, got %s", cfg.ReloadTimeout())
	}
	if cfg.PollInterval() != 0 {
		t.Errorf("expected polling disabled by default, got %s", cfg.PollInterval())
	}
	if v, err := cfg.FallbackVolume(); err != nil || v.String() != "1" {
		t.Errorf("expected fallback volume 1, got %s (%v)", v, err)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "move-quote.json")
	data := `{"server": {"addr": ":9090"}, "settings": {"backend": "sqlite", "path": "/tmp/s.db", "reload_timeout_seconds": 3}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.Server.Addr)
	}
	if cfg.Settings.Backend != "sqlite" || cfg.ReloadTimeout() != 3*time.Second {
		t.Errorf("unexpected settings config: %+v", cfg.Settings)
	}
	if cfg.Output.DefaultFormat != "cli" {
		t.Errorf("expected default format preserved, got %s", cfg.Output.DefaultFormat)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != Default().Server.Addr {
		t.Errorf("expected default addr, got %s", cfg.Server.Addr)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !qerrors.IsType(err, qerrors.TypeConfig) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		"MOVEQUOTE_ADDR":                  ":7000",
		"MOVEQUOTE_SETTINGS_BACKEND":      "postgres",
		"MOVEQUOTE_SETTINGS_DSN":          "postgres://localhost/quotes",
		"MOVEQUOTE_POLL_INTERVAL_SECONDS": "30",
		"MOVEQUOTE_SIMILARITY_THRESHOLD":  "0.7",
		"MOVEQUOTE_REDIS_ADDR":            "localhost:6379",
		"MOVEQUOTE_LOG_LEVEL":             "debug",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Server.Addr != ":7000" || cfg.Settings.Backend != "postgres" || cfg.Notify.RedisAddr != "localhost:6379" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.PollInterval() != 30*time.Second {
		t.Errorf("expected 30s poll, got %s", cfg.PollInterval())
	}
	if cfg.Catalog.SimilarityThreshold != 0.7 {
		t.Errorf("expected threshold 0.7, got %v", cfg.Catalog.SimilarityThreshold)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestApplyEnvRejectsBadNumbers(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(env(map[string]string{
		"MOVEQUOTE_POLL_INTERVAL_SECONDS": "soon",
		"MOVEQUOTE_SIMILARITY_THRESHOLD":  "high",
	}))
	if !qerrors.IsType(err, qerrors.TypeConfig) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Settings.Backend = "etcd" }},
		{"sqlite without path", func(c *Config) { c.Settings.Backend = "sqlite"; c.Settings.Path = "" }},
		{"postgres without dsn", func(c *Config) { c.Settings.Backend = "postgres" }},
		{"zero reload timeout", func(c *Config) { c.Settings.ReloadTimeoutSeconds = 0 }},
		{"negative poll", func(c *Config) { c.Settings.PollIntervalSeconds = -1 }},
		{"bad threshold", func(c *Config) { c.Catalog.SimilarityThreshold = 1.5 }},
		{"bad fallback volume", func(c *Config) { c.Catalog.FallbackVolume = "0" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	cfg.Server.Addr = ":1234"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Server.Addr != ":1234" {
		t.Errorf("expected :1234, got %s", loaded.Server.Addr)
	}
}
