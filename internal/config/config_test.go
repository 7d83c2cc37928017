package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestParseCities(t *testing.T) {
	cities, err := ParseCities(" Chicago=USW00094846, Los Angeles = USW00023174 ,")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cities) != 2 {
		t.Fatalf("expected 2 cities, got %d", len(cities))
	}
	la := cities[1]
	if la.Key != "Los Angeles" || la.Title != "LOS ANGELES" || la.StationID != "USW00023174" {
		t.Fatalf("unexpected city %+v", la)
	}
}

func TestParseCitiesRejectsBadEntries(t *testing.T) {
	for _, in := range []string{
		"Chicago",
		"Chicago=",
		"=USW00094846",
		"Chicago=USW00094846,Chicago=USW00094847",
	} {
		if _, err := ParseCities(in); err == nil {
			t.Errorf("%q: expected an error", in)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Errorf("%q: got %v (%v), want %v", in, got, err, want)
		}
	}
	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "LOG_LEVEL", "PORT", "GHCN_BASE_URL", "GHCN_DROP_FLAGGED",
		"GEOCODER_API_KEY", "HTTP_TIMEOUT", "REFRESH_INTERVAL", "HISTORY_START",
		"CACHE_DRIVER", "CACHE_DSN", "STORE_MAX_ENTRIES", "STORE_MAX_AGE", "CITIES",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AppEnv != "dev" || cfg.Port != "8080" || cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.RefreshInterval != 24*time.Hour || cfg.HTTPTimeout != 2*time.Minute {
		t.Fatalf("unexpected durations %v, %v", cfg.RefreshInterval, cfg.HTTPTimeout)
	}
	if cfg.HistoryStart.String() != "1981-01-01" {
		t.Fatalf("unexpected history start %s", cfg.HistoryStart)
	}
	if cfg.CacheDriver != "sqlite3" || cfg.StoreMaxEntries != 256 {
		t.Fatalf("unexpected cache settings %q, %d", cfg.CacheDriver, cfg.StoreMaxEntries)
	}
	if len(cfg.Cities) != 5 || cfg.Cities[0].StationID != "USW00094846" {
		t.Fatalf("unexpected default cities %+v", cfg.Cities)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("CACHE_DRIVER", "pgx")
	t.Setenv("GHCN_DROP_FLAGGED", "true")
	t.Setenv("HISTORY_START", "1991-01-01")
	t.Setenv("CITIES", "Denver=USW00003017")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AppEnv != "prod" || cfg.CacheDriver != "pgx" || !cfg.DropFlagged {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.HistoryStart.String() != "1991-01-01" {
		t.Fatalf("unexpected history start %s", cfg.HistoryStart)
	}
	if len(cfg.Cities) != 1 || cfg.Cities[0].Key != "Denver" {
		t.Fatalf("unexpected cities %+v", cfg.Cities)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	for key, value := range map[string]string{
		"APP_ENV":          "staging",
		"LOG_LEVEL":        "loud",
		"CACHE_DRIVER":     "mysql",
		"HISTORY_START":    "1981/01/01",
		"REFRESH_INTERVAL": "daily",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected an error for %s=%s", key, value)
			}
		})
	}
}
