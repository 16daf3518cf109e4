// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package config provides the application configuration of the revgeo service
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Xuanwo/go-locale"
	"github.com/joho/godotenv"
	"github.com/kkyr/fig"
	"golang.org/x/text/language"
)

const configEnv = "REVGEO"

// Known cache backends
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Known provider identifiers for the provider priority order
const (
	ProviderGoogleMaps   = "google_maps"
	ProviderMapbox       = "mapbox"
	ProviderNominatim    = "nominatim"
	ProviderOpenCage     = "opencage"
	ProviderGeocodeEarth = "geocode_earth"
)

var knownProviders = []string{ProviderGoogleMaps, ProviderMapbox, ProviderNominatim, ProviderOpenCage,
	ProviderGeocodeEarth}

// Config represents the application's configuration structure.
type Config struct {
	LogLevel slog.Level `fig:"loglevel" default:"0"`
	// Language is the default two-letter response language, detected from the
	// OS locale when unset
	Language string `fig:"language"`

	Server struct {
		Host            string        `fig:"host" default:"0.0.0.0"`
		Port            uint          `fig:"port" default:"8080"`
		ShutdownTimeout time.Duration `fig:"shutdown_timeout" default:"10s"`
	} `fig:"server"`

	Providers struct {
		// Order is the provider priority, unconfigured providers are skipped
		Order   []string      `fig:"order" default:"[google_maps,mapbox,nominatim]"`
		Timeout time.Duration `fig:"timeout" default:"10s"`

		GoogleMaps struct {
			APIKey string `fig:"api_key"`
		} `fig:"google_maps"`
		Mapbox struct {
			AccessToken string `fig:"access_token"`
		} `fig:"mapbox"`
		Nominatim struct {
			Disable bool `fig:"disable"`
		} `fig:"nominatim"`
		OpenCage struct {
			APIKey string `fig:"api_key"`
		} `fig:"opencage"`
		GeocodeEarth struct {
			APIKey string `fig:"api_key"`
		} `fig:"geocode_earth"`
	} `fig:"providers"`

	Cache struct {
		// Allowed values: memory, redis
		Backend string `fig:"backend" default:"memory"`
		// Precision is the number of decimal digits coordinates are rounded to
		// for cache keys
		Precision  int           `fig:"precision" default:"4"`
		DefaultTTL time.Duration `fig:"default_ttl" default:"24h"`
		TTL        struct {
			StreetAddress   time.Duration `fig:"street_address" default:"24h"`
			Establishment   time.Duration `fig:"establishment" default:"24h"`
			PointOfInterest time.Duration `fig:"point_of_interest" default:"24h"`
			Locality        time.Duration `fig:"locality" default:"168h"`
			Administrative  time.Duration `fig:"administrative" default:"720h"`
		} `fig:"ttl"`
		Redis struct {
			Address  string `fig:"address" default:"localhost:6379"`
			Username string `fig:"username"`
			Password string `fig:"password"`
			DB       int    `fig:"db"`
		} `fig:"redis"`
	} `fig:"cache"`

	Batch struct {
		Cap     int `fig:"cap" default:"100"`
		Workers int `fig:"workers" default:"4"`
	} `fig:"batch"`

	Health struct {
		ProbeInterval time.Duration `fig:"probe_interval" default:"1m"`
	} `fig:"health"`
}

func NewFromFile(path, file string) (*Config, error) {
	loadDotEnv()
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func New() (*Config, error) {
	loadDotEnv()
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func (c *Config) Validate() error {
	if c.Language == "" {
		c.Language = detectLanguage()
	}
	if len(c.Language) != 2 || c.Language != strings.ToLower(c.Language) {
		return fmt.Errorf("invalid default language: %s", c.Language)
	}
	if c.Server.Port == 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	for _, provider := range c.Providers.Order {
		if !slices.Contains(knownProviders, provider) {
			return fmt.Errorf("unknown provider in priority order: %s", provider)
		}
	}
	if c.Providers.Timeout <= 0 {
		return fmt.Errorf("invalid provider timeout: %s", c.Providers.Timeout)
	}
	if c.Cache.Backend != CacheBackendMemory && c.Cache.Backend != CacheBackendRedis {
		return fmt.Errorf("invalid cache backend: %s", c.Cache.Backend)
	}
	if c.Cache.Precision < 1 || c.Cache.Precision > 8 {
		return fmt.Errorf("invalid cache precision: %d", c.Cache.Precision)
	}
	if c.Batch.Cap < 1 {
		return fmt.Errorf("invalid batch cap: %d", c.Batch.Cap)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("invalid batch worker count: %d", c.Batch.Workers)
	}

	return nil
}

// ServerAddr returns the host:port address the HTTP server binds to
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// loadDotEnv populates the process environment from a .env file in the working
// directory, so that provider credentials do not have to live in the config
// file. Absence of the file is not an error.
func loadDotEnv() {
	_ = godotenv.Load()
}

// detectLanguage derives the default response language from the OS locale,
// falling back to English when detection fails
func detectLanguage() string {
	tag, err := locale.Detect()
	if err != nil {
		tag = language.English
	}
	base, _ := tag.Base()
	lang := strings.ToLower(base.String())
	if len(lang) != 2 {
		return "en"
	}
	return lang
}
