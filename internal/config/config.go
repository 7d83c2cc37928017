package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/station-climate/internal/climate"
	"github.com/i474232898/station-climate/internal/ghcn"
	"github.com/i474232898/station-climate/internal/store"
)

// defaultCities are the airport stations the charts were first built for.
const defaultCities = "Chicago=USW00094846,Miami=USW00012839,Los Angeles=USW00023174," +
	"New York=USW00094789,Houston=USW00012960"

type AppConfig struct {
	AppEnv   string
	LogLevel slog.Level
	Port     string

	// GHCN-Daily source.
	GHCNBaseURL     string
	HTTPTimeout     time.Duration
	DropFlagged     bool
	GeocoderAPIKey  string
	RefreshInterval time.Duration

	// HistoryStart is the first date used for averages and records.
	HistoryStart climate.Date

	// Observation cache.
	CacheDriver string
	CacheDSN    string

	// In-memory table cache retention.
	StoreMaxEntries int           // max number of cached tables (0 = unlimited)
	StoreMaxAge     time.Duration // max age of a cached table (0 = unlimited)

	Cities []climate.City
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.AppEnv = getenvDefault("APP_ENV", "dev")
	switch cfg.AppEnv {
	case "dev", "prod":
	default:
		return nil, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", cfg.AppEnv)
	}

	level, err := ParseLogLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level
	cfg.Port = getenvDefault("PORT", "8080")

	cfg.GHCNBaseURL = getenvDefault("GHCN_BASE_URL", ghcn.DefaultBaseURL)
	cfg.DropFlagged = getenvBool("GHCN_DROP_FLAGGED", false)
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "2m"); err != nil {
		return nil, err
	}
	// Station files change once a day.
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "24h"); err != nil {
		return nil, err
	}

	cfg.HistoryStart, err = climate.ParseDate(getenvDefault("HISTORY_START", "1981-01-01"))
	if err != nil {
		return nil, fmt.Errorf("invalid HISTORY_START: %w", err)
	}

	cfg.CacheDriver = getenvDefault("CACHE_DRIVER", store.DriverSQLite)
	if cfg.CacheDriver != store.DriverSQLite && cfg.CacheDriver != store.DriverPostgres {
		return nil, fmt.Errorf("invalid CACHE_DRIVER %q (allowed: %s, %s)", cfg.CacheDriver, store.DriverSQLite, store.DriverPostgres)
	}
	cfg.CacheDSN = getenvDefault("CACHE_DSN", "file:station-climate.db?_busy_timeout=5000&_journal_mode=WAL")

	cfg.StoreMaxEntries = getenvInt("STORE_MAX_ENTRIES", 256)
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	cities, err := ParseCities(getenvDefault("CITIES", defaultCities))
	if err != nil {
		return nil, err
	}
	cfg.Cities = cities

	return cfg, nil
}

// ParseCities parses a comma separated list of Name=StationID pairs.
func ParseCities(s string) ([]climate.City, error) {
	var cities []climate.City
	seen := make(map[string]bool)

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, id, ok := strings.Cut(part, "=")
		name, id = strings.TrimSpace(name), strings.TrimSpace(id)
		if !ok || name == "" || id == "" {
			return nil, fmt.Errorf("invalid CITIES entry %q (want Name=StationID)", part)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate city %q in CITIES", name)
		}
		seen[name] = true

		cities = append(cities, climate.City{
			Key:       name,
			Title:     strings.ToUpper(name),
			StationID: id,
		})
	}

	return cities, nil
}

// ParseLogLevel maps a LOG_LEVEL value to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
