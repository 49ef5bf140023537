// Package config loads settings from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting the tool reads.
type Config struct {
	AssetBaseURL     string        `yaml:"asset_base_url"`
	AssetArchive     string        `yaml:"asset_archive"`
	AssetTokenSecret string        `yaml:"asset_token_secret"`
	CatalogPath      string        `yaml:"catalog_path"`
	CacheDB          string        `yaml:"cache_db"`
	ProbeTimeout     time.Duration `yaml:"probe_timeout"`
	MaxTextureSize   int           `yaml:"max_texture_size"`
	TypoTolerance    bool          `yaml:"typo_tolerance"`
	Verbose          bool          `yaml:"verbose"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ProbeTimeout:   8 * time.Second,
		MaxTextureSize: 2048,
		TypoTolerance:  true,
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path or a missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	c.AssetBaseURL = getEnv("SKIN_ASSET_BASE_URL", c.AssetBaseURL)
	c.AssetArchive = getEnv("SKIN_ASSET_ARCHIVE", c.AssetArchive)
	c.AssetTokenSecret = getEnv("SKIN_ASSET_TOKEN_SECRET", c.AssetTokenSecret)
	c.CatalogPath = getEnv("SKIN_CATALOG_PATH", c.CatalogPath)
	c.CacheDB = getEnv("SKIN_CACHE_DB", c.CacheDB)

	if v := os.Getenv("SKIN_PROBE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SKIN_PROBE_TIMEOUT: %w", err)
		}
		c.ProbeTimeout = d
	}
	if v := os.Getenv("SKIN_MAX_TEXTURE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SKIN_MAX_TEXTURE_SIZE: %w", err)
		}
		c.MaxTextureSize = n
	}
	for key, dst := range map[string]*bool{
		"SKIN_TYPO_TOLERANCE": &c.TypoTolerance,
		"SKIN_VERBOSE":        &c.Verbose,
	} {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}
	return nil
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("probe_timeout must be positive, got %s", c.ProbeTimeout)
	}
	if c.MaxTextureSize < 0 {
		return fmt.Errorf("max_texture_size must not be negative, got %d", c.MaxTextureSize)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
