// Package config loads server configuration from a TOML file with
// environment overrides, and manages the runtime chart settings the UI
// edits.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/dbauto/orgchart/pkg/errors"
)

// Config is the server's startup configuration. File values come from
// TOML; every field can be overridden through the environment, which is
// how secrets are expected to arrive.
type Config struct {
	Listen   string `toml:"listen" env:"ORGCHART_LISTEN"`
	DataDir  string `toml:"data_dir" env:"ORGCHART_DATA_DIR"`
	CacheDir string `toml:"cache_dir" env:"ORGCHART_CACHE_DIR"`

	// Cache selects the artifact cache backend: file, redis, or none.
	Cache    string `toml:"cache" env:"ORGCHART_CACHE"`
	RedisURL string `toml:"redis_url" env:"ORGCHART_REDIS_URL"`

	// Store selects snapshot persistence: file or mongo.
	Store         string `toml:"store" env:"ORGCHART_STORE"`
	MongoURI      string `toml:"mongo_uri" env:"ORGCHART_MONGO_URI"`
	MongoDatabase string `toml:"mongo_database" env:"ORGCHART_MONGO_DATABASE"`

	Directory DirectoryConfig `toml:"directory"`
	Refresh   RefreshConfig   `toml:"refresh"`
}

// DirectoryConfig holds the identity provider app registration.
type DirectoryConfig struct {
	TenantID     string `toml:"tenant_id" env:"ORGCHART_TENANT_ID"`
	ClientID     string `toml:"client_id" env:"ORGCHART_CLIENT_ID"`
	ClientSecret string `toml:"client_secret" env:"ORGCHART_CLIENT_SECRET"`
	BaseURL      string `toml:"base_url" env:"ORGCHART_GRAPH_URL"`
}

// RefreshConfig controls the nightly directory refresh.
type RefreshConfig struct {
	Enabled  bool   `toml:"enabled" env:"ORGCHART_REFRESH_ENABLED"`
	Time     string `toml:"time" env:"ORGCHART_REFRESH_TIME"`
	Timezone string `toml:"timezone" env:"ORGCHART_REFRESH_TIMEZONE"`
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		Listen:   ":8080",
		DataDir:  "data",
		CacheDir: "",
		Cache:    "file",
		Store:    "file",
		Refresh: RefreshConfig{
			Enabled:  true,
			Time:     "03:00",
			Timezone: "Local",
		},
	}
}

// Load reads the TOML file at path (skipped when path is empty or the
// file does not exist), applies environment overrides on top, and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints the type system cannot.
func (c Config) Validate() error {
	switch c.Cache {
	case "file", "redis", "none":
	default:
		return errors.New(errors.ErrCodeInvalidSettings, "cache must be file, redis, or none (got %q)", c.Cache)
	}
	if c.Cache == "redis" && c.RedisURL == "" {
		return errors.New(errors.ErrCodeInvalidSettings, "redis cache requires redis_url")
	}

	switch c.Store {
	case "file", "mongo":
	default:
		return errors.New(errors.ErrCodeInvalidSettings, "store must be file or mongo (got %q)", c.Store)
	}
	if c.Store == "mongo" && c.MongoURI == "" {
		return errors.New(errors.ErrCodeInvalidSettings, "mongo store requires mongo_uri")
	}

	if c.Refresh.Enabled {
		if err := errors.ValidateUpdateTime(c.Refresh.Time); err != nil {
			return err
		}
	}
	return nil
}
