package weather

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/i474232898/weather-dashboard/internal/metrics"
)

// FetchResults holds the outcome of the four sub-fetches. Current and
// Forecast are always set when Fetch returns a nil error; Air and UV are nil
// when their sub-fetch failed, with the cause in AirErr/UVErr.
type FetchResults struct {
	Location Location
	Current  CurrentConditions
	Forecast ForecastSeries
	Air      *AirQuality
	AirErr   error
	UV       *UVReading
	UVErr    error
}

// Fetcher retrieves current conditions, forecast, air quality and UV for a location.
type Fetcher struct {
	source Source
	logger *slog.Logger
}

// NewFetcher creates a Fetcher backed by source.
func NewFetcher(source Source, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{source: source, logger: logger}
}

// Fetch runs current+forecast concurrently, then air+uv concurrently using the
// coordinates of the current result. A failure of current or forecast fails
// the whole fetch with ErrWeatherUnavailable; air and uv failures are recorded
// in the results and never returned.
func (f *Fetcher) Fetch(ctx context.Context, loc Location, unit UnitSystem) (FetchResults, error) {
	place := Place{Name: loc.DisplayName}
	if place.Name == "" && loc.Resolved() {
		place.Coords = &Coordinates{Lat: loc.Latitude, Lon: loc.Longitude}
	}

	var (
		obs      Observation
		forecast ForecastSeries
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		obs, err = f.source.Current(gCtx, place, unit)
		metrics.ObserveSubFetch(string(SubFetchCurrent), err)
		if err != nil {
			return fmt.Errorf("%w: current conditions for %q: %w", ErrWeatherUnavailable, loc.DisplayName, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		forecast, err = f.source.Forecast(gCtx, place, unit)
		metrics.ObserveSubFetch(string(SubFetchForecast), err)
		if err != nil {
			return fmt.Errorf("%w: forecast for %q: %w", ErrWeatherUnavailable, loc.DisplayName, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return FetchResults{}, err
	}

	resolved := obs.Location
	if !resolved.Resolved() {
		resolved = loc
	}
	coords := Coordinates{Lat: resolved.Latitude, Lon: resolved.Longitude}

	res := FetchResults{
		Location: resolved,
		Current:  obs.Current,
		Forecast: forecast,
	}

	// Best-effort sources: goroutines never return an error so one failure
	// does not cancel the other.
	var bg errgroup.Group
	bg.Go(func() error {
		aq, err := f.source.AirPollution(ctx, coords)
		metrics.ObserveSubFetch(string(SubFetchAir), err)
		if err != nil {
			f.logger.Warn("air quality unavailable", "city", resolved.DisplayName, "error", err)
			res.AirErr = err
			return nil
		}
		aq.Category = AirQualityCategory(aq.Index)
		res.Air = &aq
		return nil
	})
	bg.Go(func() error {
		v, err := f.source.UVIndex(ctx, coords)
		metrics.ObserveSubFetch(string(SubFetchUV), err)
		if err != nil {
			f.logger.Warn("uv index unavailable", "city", resolved.DisplayName, "error", err)
			res.UVErr = err
			return nil
		}
		res.UV = &UVReading{Value: v, Risk: UVRisk(v)}
		return nil
	})
	_ = bg.Wait()

	return res, nil
}
