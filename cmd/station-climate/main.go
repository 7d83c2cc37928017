package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	httpapi "github.com/i474232898/station-climate/internal/api/http"
	"github.com/i474232898/station-climate/internal/climate"
	"github.com/i474232898/station-climate/internal/config"
	"github.com/i474232898/station-climate/internal/ghcn"
	"github.com/i474232898/station-climate/internal/scheduler"
	"github.com/i474232898/station-climate/internal/store"
)

const appName = "station-climate"

// Default version is "dev" if not set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	envErr := godotenv.Load()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(cfg))
	if envErr != nil {
		slog.Info("no .env file loaded", "err", envErr)
	}
	slog.Info("starting",
		"version", version,
		"env", cfg.AppEnv,
		"log_level", cfg.LogLevel.String(),
		"cities", len(cfg.Cities),
	)

	if err := run(cfg); err != nil {
		slog.Error("run failed", "err", err)
		os.Exit(1)
	}
	slog.Info("shutting down")
}

func run(cfg *config.AppConfig) error {
	// Shared HTTP client for NOAA downloads.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	source := ghcn.NewClient(httpClient, cfg.GHCNBaseURL, cfg.DropFlagged).
		WithElements(climate.ElementTMin, climate.ElementTMax)

	// Raw observation cache.
	db, err := store.OpenSQL(cfg.CacheDriver, cfg.CacheDSN, store.PoolConfig{
		MaxOpenConns: 4,
		MaxIdleConns: 2,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	cache, err := store.NewSQLStore(context.Background(), db, cfg.CacheDriver)
	if err != nil {
		return err
	}

	deps := climate.Deps{
		Source:  source,
		Cache:   cache,
		Tables:  store.NewMemoryStore(cfg.StoreMaxEntries, cfg.StoreMaxAge),
		Catalog: ghcn.NewRemoteCatalog(source),
	}
	if cfg.GeocoderAPIKey != "" {
		deps.Geocoder = ghcn.NewGoogleGeocoder(cfg.GeocoderAPIKey)
	}

	// Core service orchestrating source, caches and aggregation.
	service := climate.NewService(deps, cfg.Cities, cfg.HistoryStart)

	// Scheduler that periodically refreshes cached observations.
	sched := scheduler.New(cfg.Cities, cfg.RefreshInterval, service)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	app := newApp(service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("fiber server stopped", "err", err)
		}
	}()
	slog.Info("listening", "port", cfg.Port)

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("error during shutdown", "err", err)
	}
	return nil
}

func newApp(service *climate.Service) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// First requests for a station download its whole history.
		WriteTimeout: 3 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
			"version": version,
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service)
	return app
}

func newLogger(cfg *config.AppConfig) *slog.Logger {
	if cfg.AppEnv == "dev" {
		h := tint.NewHandler(os.Stdout, &tint.Options{
			Level:      cfg.LogLevel,
			AddSource:  true,
			TimeFormat: time.Kitchen,
		})
		return slog.New(h).With("app", appName)
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})
	return slog.New(h).With(
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
	)
}
