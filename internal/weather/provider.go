package weather

import (
	"context"
	"time"
)

// Place identifies what a current-conditions or forecast request is about.
// Name is used when set; otherwise Coords.
type Place struct {
	Name   string
	Coords *Coordinates
}

// Observation is a current-conditions response together with the location
// the source resolved the request to.
type Observation struct {
	Location Location
	Current  CurrentConditions
}

// Source abstracts the remote weather service. Temperature and wind speed in
// responses are expressed in the requested unit system.
type Source interface {
	Current(ctx context.Context, place Place, unit UnitSystem) (Observation, error)
	Forecast(ctx context.Context, place Place, unit UnitSystem) (ForecastSeries, error)
	AirPollution(ctx context.Context, c Coordinates) (AirQuality, error)
	UVIndex(ctx context.Context, c Coordinates) (float64, error)
	// ReverseGeocode returns candidate places for c, nearest first.
	ReverseGeocode(ctx context.Context, c Coordinates, limit int) ([]Location, error)
}

// SnapshotStore keeps the last known good snapshots per location.
type SnapshotStore interface {
	SaveSnapshot(loc Location, snapshot WeatherSnapshot)
	GetLatest(key string) (WeatherSnapshot, error)
	GetRange(key string, from, to time.Time) ([]WeatherSnapshot, error)
}
