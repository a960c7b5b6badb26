package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

type AppConfig struct {
	// OpenWeatherAPIKey is the single static credential for every remote call.
	OpenWeatherAPIKey  string `envconfig:"OPENWEATHER_API_KEY" validate:"required"`
	OpenWeatherBaseURL string `envconfig:"OPENWEATHER_BASE_URL" default:"https://api.openweathermap.org" validate:"required,url"`
	Language           string `envconfig:"WEATHER_LANGUAGE" default:"en" validate:"required,max=5"`

	// Units is the active unit system at session start.
	Units string `envconfig:"WEATHER_UNITS" default:"metric" validate:"oneof=metric imperial"`

	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s" validate:"gt=0"`

	FavoritesDBPath string `envconfig:"FAVORITES_DB_PATH" default:"favorites.db" validate:"required"`

	// In-memory snapshot retention per city.
	StoreMaxHistory int           `envconfig:"STORE_MAX_HISTORY" default:"48" validate:"gte=0"` // 0 = unlimited
	StoreMaxAge     time.Duration `envconfig:"STORE_MAX_AGE" default:"24h" validate:"gte=0"`    // 0 = unlimited

	ListenAddr string `envconfig:"LISTEN_ADDR" default:"127.0.0.1:8080" validate:"required"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	// Optional geolocated start position.
	StartLat *float64 `envconfig:"START_LAT" validate:"omitempty,gte=-90,lte=90"`
	StartLon *float64 `envconfig:"START_LON" validate:"omitempty,gte=-180,lte=180"`
}

// Unit returns the configured unit system.
func (c *AppConfig) Unit() weather.UnitSystem {
	u, err := weather.ParseUnitSystem(c.Units)
	if err != nil {
		return weather.Metric
	}
	return u
}

// SlogLevel maps LogLevel to a slog.Level.
func (c *AppConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// HasStartPosition reports whether both START_LAT and START_LON are set.
func (c *AppConfig) HasStartPosition() bool {
	return c.StartLat != nil && c.StartLon != nil
}

var validate = validator.New()

// Load reads configuration from a .env file (if any) and the environment.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "error", err)
	}
	return FromEnv()
}

// FromEnv reads configuration from the environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.Units = strings.ToLower(strings.TrimSpace(cfg.Units))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
