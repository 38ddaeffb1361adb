// Package config provides configuration management.
// Values come from Default(), then an optional JSON file, then a .env
// file, then MOVEQUOTE_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"move-quote/adapters/notify"
	"move-quote/adapters/storage"
	"move-quote/core/catalog"
	"move-quote/core/items"
	"move-quote/core/settings"
	qerrors "move-quote/internal/errors"
	"move-quote/internal/logging"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "MOVEQUOTE_"

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Server contains HTTP server configuration
	Server ServerConfig `json:"server"`

	// Catalog contains item catalog configuration
	Catalog CatalogConfig `json:"catalog"`

	// Settings contains pricing settings configuration
	Settings SettingsConfig `json:"settings"`

	// Notify contains Redis change notification configuration
	Notify NotifyConfig `json:"notify"`

	// Output contains output configuration
	Output OutputConfig `json:"output"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `json:"addr"`
}

// CatalogConfig contains catalog settings
type CatalogConfig struct {
	// Path is a catalog CSV; empty uses the built-in catalog
	Path string `json:"path,omitempty"`

	// SimilarityThreshold is the minimum fuzzy match score
	SimilarityThreshold float64 `json:"similarity_threshold"`

	// FallbackVolume is the volume factor of unresolved items
	FallbackVolume string `json:"fallback_volume"`
}

// SettingsConfig contains settings source configuration
type SettingsConfig struct {
	// Backend is default, file, sqlite or postgres
	Backend string `json:"backend"`

	// Path is the JSON file or SQLite database path
	Path string `json:"path,omitempty"`

	// DSN is the PostgreSQL connection string
	DSN string `json:"dsn,omitempty"`

	// ReloadTimeoutSeconds bounds one reload
	ReloadTimeoutSeconds int `json:"reload_timeout_seconds"`

	// PollIntervalSeconds enables periodic reloads when > 0
	PollIntervalSeconds int `json:"poll_interval_seconds"`
}

// NotifyConfig contains Redis pub/sub settings
type NotifyConfig struct {
	// RedisAddr enables reload notifications when set
	RedisAddr string `json:"redis_addr,omitempty"`

	// Channel is the pub/sub channel
	Channel string `json:"channel"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format
	DefaultFormat string `json:"default_format"`

	// NoColor disables ANSI colors
	NoColor bool `json:"no_color"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Version: "1.0",
		Server: ServerConfig{
			Addr: ":8080",
		},
		Catalog: CatalogConfig{
			SimilarityThreshold: catalog.DefaultSimilarityThreshold,
			FallbackVolume:      items.DefaultFallbackVolume.String(),
		},
		Settings: SettingsConfig{
			Backend:              string(storage.BackendDefault),
			Path:                 filepath.Join(homeDir, ".move-quote", "settings.db"),
			ReloadTimeoutSeconds: int(settings.DefaultReloadTimeout / time.Second),
		},
		Notify: NotifyConfig{
			Channel: notify.DefaultChannel,
		},
		Output: OutputConfig{
			DefaultFormat: "cli",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load builds the configuration. A missing config file is not an error;
// a missing .env file is skipped.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, qerrors.Wrap(qerrors.TypeConfig, "read config", err)
		default:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, qerrors.Wrapf(qerrors.TypeConfig, err, "parse %s", path)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, qerrors.Wrap(qerrors.TypeConfig, "read .env", err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv applies MOVEQUOTE_* overrides read through lookup
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	var errs []error
	integer := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}

	str("ADDR", &c.Server.Addr)
	str("CATALOG_PATH", &c.Catalog.Path)
	str("FALLBACK_VOLUME", &c.Catalog.FallbackVolume)
	if v, ok := lookup(EnvPrefix + "SIMILARITY_THRESHOLD"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSIMILARITY_THRESHOLD: %w", EnvPrefix, err))
		} else {
			c.Catalog.SimilarityThreshold = f
		}
	}
	str("SETTINGS_BACKEND", &c.Settings.Backend)
	str("SETTINGS_PATH", &c.Settings.Path)
	str("SETTINGS_DSN", &c.Settings.DSN)
	integer("RELOAD_TIMEOUT_SECONDS", &c.Settings.ReloadTimeoutSeconds)
	integer("POLL_INTERVAL_SECONDS", &c.Settings.PollIntervalSeconds)
	str("REDIS_ADDR", &c.Notify.RedisAddr)
	str("NOTIFY_CHANNEL", &c.Notify.Channel)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)

	if len(errs) > 0 {
		return qerrors.Wrap(qerrors.TypeConfig, "environment overrides", errors.Join(errs...))
	}
	return nil
}

// Validate checks cross-field consistency
func (c *Config) Validate() error {
	switch storage.Backend(c.Settings.Backend) {
	case storage.BackendDefault:
	case storage.BackendFile, storage.BackendSQLite:
		if c.Settings.Path == "" {
			return qerrors.Newf(qerrors.TypeConfig, "settings backend %s requires a path", c.Settings.Backend)
		}
	case storage.BackendPostgres:
		if c.Settings.DSN == "" {
			return qerrors.New(qerrors.TypeConfig, "settings backend postgres requires a dsn")
		}
	default:
		return qerrors.Newf(qerrors.TypeConfig, "unknown settings backend %q", c.Settings.Backend)
	}
	if c.Settings.ReloadTimeoutSeconds <= 0 {
		return qerrors.New(qerrors.TypeConfig, "reload_timeout_seconds must be > 0")
	}
	if c.Settings.PollIntervalSeconds < 0 {
		return qerrors.New(qerrors.TypeConfig, "poll_interval_seconds must be >= 0")
	}
	if v, err := c.FallbackVolume(); err != nil || !v.IsPositive() {
		return qerrors.Newf(qerrors.TypeConfig, "fallback_volume must be a positive number, got %q", c.Catalog.FallbackVolume)
	}
	if c.Catalog.SimilarityThreshold <= 0 || c.Catalog.SimilarityThreshold > 1 {
		return qerrors.Newf(qerrors.TypeConfig, "similarity_threshold must be in (0, 1], got %v", c.Catalog.SimilarityThreshold)
	}
	return nil
}

// StorageConfig returns the storage backend selection
func (c *Config) StorageConfig() storage.Config {
	return storage.Config{
		Backend: storage.Backend(c.Settings.Backend),
		Path:    c.Settings.Path,
		DSN:     c.Settings.DSN,
	}
}

// FallbackVolume parses the unresolved item volume factor
func (c *Config) FallbackVolume() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(c.Catalog.FallbackVolume))
}

// ReloadTimeout returns the reload bound as a duration
func (c *Config) ReloadTimeout() time.Duration {
	return time.Duration(c.Settings.ReloadTimeoutSeconds) * time.Second
}

// PollInterval returns the settings poll interval; zero disables polling
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Settings.PollIntervalSeconds) * time.Second
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
