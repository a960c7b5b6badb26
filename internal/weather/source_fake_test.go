package weather

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// fakeSource is an in-memory Source. Each city maps to a canned observation;
// per-endpoint errors and delays can be injected.
type fakeSource struct {
	mu sync.Mutex

	cities map[string]Location
	geo    map[string][]Location

	currentErr  error
	forecastErr error
	airErr      error
	uvErr       error
	airDelay    time.Duration
	uvValue     float64

	mandatoryDone atomic.Int32
	// optionalEarly is set when air or uv started before current and
	// forecast had both completed.
	optionalEarly atomic.Bool
	geoCalls      atomic.Int32
	units         []UnitSystem
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		cities: map[string]Location{
			"ankara":   NewLocation("Ankara", "TR", 39.93, 32.86),
			"izmir":    NewLocation("Izmir", "TR", 38.42, 27.14),
			"istanbul": NewLocation("Istanbul", "TR", 41.01, 28.97),
		},
		geo:     map[string][]Location{},
		uvValue: 4,
	}
}

func (f *fakeSource) lookup(place Place) (Location, error) {
	if place.Name != "" {
		for key, loc := range f.cities {
			if key == place.Name || loc.DisplayName == place.Name {
				return loc, nil
			}
		}
		return Location{}, fmt.Errorf("city %q: %w", place.Name, ErrNotFound)
	}
	if place.Coords != nil {
		return NewLocation("Somewhere", "XX", place.Coords.Lat, place.Coords.Lon), nil
	}
	return Location{}, ErrEmptyQuery
}

func (f *fakeSource) Current(_ context.Context, place Place, unit UnitSystem) (Observation, error) {
	defer f.mandatoryDone.Add(1)
	f.mu.Lock()
	f.units = append(f.units, unit)
	f.mu.Unlock()
	if f.currentErr != nil {
		return Observation{}, f.currentErr
	}
	loc, err := f.lookup(place)
	if err != nil {
		return Observation{}, err
	}
	temp := 20.0
	if unit == Imperial {
		temp = 68
	}
	return Observation{
		Location: loc,
		Current:  CurrentConditions{Temperature: temp, Humidity: 40, Condition: Condition{Main: "Clear"}},
	}, nil
}

func (f *fakeSource) Forecast(_ context.Context, place Place, _ UnitSystem) (ForecastSeries, error) {
	defer f.mandatoryDone.Add(1)
	if f.forecastErr != nil {
		return nil, f.forecastErr
	}
	if _, err := f.lookup(place); err != nil {
		return nil, err
	}
	out := make(ForecastSeries, 40)
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = ForecastEntry{Timestamp: start.Add(time.Duration(i) * 3 * time.Hour), Temperature: float64(i)}
	}
	return out, nil
}

func (f *fakeSource) AirPollution(ctx context.Context, _ Coordinates) (AirQuality, error) {
	if f.mandatoryDone.Load() < 2 {
		f.optionalEarly.Store(true)
	}
	if f.airDelay > 0 {
		select {
		case <-time.After(f.airDelay):
		case <-ctx.Done():
			return AirQuality{}, ctx.Err()
		}
	}
	if f.airErr != nil {
		return AirQuality{}, f.airErr
	}
	return AirQuality{Index: 2, PM25: 12}, nil
}

func (f *fakeSource) UVIndex(_ context.Context, _ Coordinates) (float64, error) {
	if f.mandatoryDone.Load() < 2 {
		f.optionalEarly.Store(true)
	}
	if f.uvErr != nil {
		return 0, f.uvErr
	}
	return f.uvValue, nil
}

func (f *fakeSource) ReverseGeocode(_ context.Context, c Coordinates, _ int) ([]Location, error) {
	f.geoCalls.Add(1)
	return f.geo[fmt.Sprintf("%.2f,%.2f", c.Lat, c.Lon)], nil
}
