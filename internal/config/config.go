// Package config provides configuration loading for the mudoc tools.
// Supports YAML files, a .env file, and environment variable overrides.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spherical/mudoc/internal/domain"
)

// Config holds all configuration for the mudoc tools.
type Config struct {
	Engine        EngineConfig        `yaml:"engine"`
	Layout        LayoutConfig        `yaml:"layout"`
	Catalog       CatalogConfig       `yaml:"catalog"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// EngineConfig holds native engine settings.
type EngineConfig struct {
	// Library is the shim shared library used by builds without cgo.
	Library   string `yaml:"library"`
	StoreSize uint   `yaml:"store_size"`
}

// LayoutConfig holds the default reflow viewport for reflowable documents.
type LayoutConfig struct {
	Width  float32 `yaml:"width"`
	Height float32 `yaml:"height"`
	Em     float32 `yaml:"em"`
}

// CatalogConfig holds catalog database settings.
type CatalogConfig struct {
	Driver string `yaml:"driver"` // sqlite or postgres
	DSN    string `yaml:"dsn"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads the optional .env file, the YAML file at path (skipped when
// empty) and environment overrides, then validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ConfigError("load .env", err)
	}

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, domain.ConfigError("read config file", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, domain.ConfigError("parse config file", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultConfig returns the configuration used when nothing is set: an A5
// reflow viewport and a SQLite catalog in the working directory.
func DefaultConfig() *Config {
	return &Config{
		Layout: LayoutConfig{
			Width:  420,
			Height: 595,
			Em:     11,
		},
		Catalog: CatalogConfig{
			Driver: "sqlite",
			DSN:    "mudoc.db",
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Catalog.Driver != "sqlite" && c.Catalog.Driver != "postgres" {
		return domain.ConfigError("invalid catalog driver: "+c.Catalog.Driver, nil)
	}

	if c.Catalog.DSN == "" {
		return domain.ConfigError("catalog dsn is required", nil)
	}

	if c.Layout.Width <= 0 || c.Layout.Height <= 0 || c.Layout.Em <= 0 {
		return domain.ConfigError("layout width, height and em must be positive", nil)
	}

	switch c.Observability.LogFormat {
	case "json", "console":
	default:
		return domain.ConfigError("invalid log format: "+c.Observability.LogFormat, nil)
	}

	return nil
}

// SQLDriver returns the database/sql driver name for the catalog.
func (c *Config) SQLDriver() string {
	if c.Catalog.Driver == "postgres" {
		return "postgres"
	}
	return "sqlite3"
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("MUDOC_LIBRARY"); v != "" {
		cfg.Engine.Library = v
	}

	if v := os.Getenv("MUDOC_STORE_SIZE"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return domain.ConfigError("invalid MUDOC_STORE_SIZE", err)
		}
		cfg.Engine.StoreSize = uint(n)
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		if strings.HasPrefix(v, "sqlite:") {
			cfg.Catalog.Driver = "sqlite"
			cfg.Catalog.DSN = strings.TrimPrefix(v, "sqlite:")
		} else if strings.HasPrefix(v, "postgres") {
			cfg.Catalog.Driver = "postgres"
			cfg.Catalog.DSN = v
		}
	}

	layout := []struct {
		env string
		dst *float32
	}{
		{"MUDOC_LAYOUT_WIDTH", &cfg.Layout.Width},
		{"MUDOC_LAYOUT_HEIGHT", &cfg.Layout.Height},
		{"MUDOC_LAYOUT_EM", &cfg.Layout.Em},
	}
	for _, l := range layout {
		v := os.Getenv(l.env)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return domain.ConfigError("invalid "+l.env, err)
		}
		*l.dst = float32(f)
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}

	return nil
}
