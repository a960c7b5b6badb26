package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/session"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared HTTP client for outbound OpenWeatherMap calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	owm := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey,
		providers.WithBaseURL(cfg.OpenWeatherBaseURL),
		providers.WithLanguage(cfg.Language),
	)

	// Last known good snapshot per city.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)
	service := weather.NewService(owm, memStore, weather.WithLogger(logger))

	// Favorites survive restarts; without storage the session runs in memory only.
	var favorites session.FavoritesStore
	if db, err := store.OpenSQLite(cfg.FavoritesDBPath); err != nil {
		logger.Warn("favorites storage unavailable; favorites will not persist", "path", cfg.FavoritesDBPath, "error", err)
	} else if repo, err := store.NewFavoritesRepo(db); err != nil {
		logger.Warn("favorites storage unavailable; favorites will not persist", "path", cfg.FavoritesDBPath, "error", err)
	} else {
		favorites = repo
	}

	sess := session.New(ctx, service, favorites, cfg.Unit(), session.WithLogger(logger))

	sched := scheduler.New(sess, session.RefreshInterval, logger)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()
	sess.AttachTimer(sched)

	if cfg.HasStartPosition() {
		go func() {
			lookupCtx, cancel := context.WithTimeout(ctx, cfg.HTTPTimeout*2)
			defer cancel()
			if _, err := sess.FetchWeatherAt(lookupCtx, *cfg.StartLat, *cfg.StartLon); err != nil {
				logger.Warn("could not load weather for start position", "error", err)
			}
		}()
	}

	app := fiber.New(fiber.Config{
		AppName:               "weather-dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
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
	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-dashboard",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpapi.RegisterRoutes(app, sess)

	go func() {
		slog.Info("weather-dashboard started", "addr", cfg.ListenAddr, "favorites", len(sess.Favorites()))
		if err := app.Listen(cfg.ListenAddr); err != nil {
			slog.Error("fiber server stopped", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("shutting down")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("error during shutdown", "error", err)
	}
}
