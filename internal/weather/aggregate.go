package weather

import "time"

// DailySamplingStride is the number of 3-hour forecast steps per calendar day.
const DailySamplingStride = 8

// SampleDaily selects indices 0, 8, 16, ... from a 3-hour series so each
// selected entry sits at the same reference hour on consecutive days.
func SampleDaily(series ForecastSeries) ForecastSeries {
	daily := make(ForecastSeries, 0, (len(series)+DailySamplingStride-1)/DailySamplingStride)
	for i := 0; i < len(series); i += DailySamplingStride {
		daily = append(daily, series[i])
	}
	return daily
}

// Build merges fetch results into a snapshot stamped with now. It never
// fails: Fetch only returns results whose current and forecast succeeded.
// Missing optional sources stay nil.
func Build(loc Location, res FetchResults, unit UnitSystem, now time.Time) WeatherSnapshot {
	if res.Location.Resolved() {
		loc = res.Location
	}

	forecast := make(ForecastSeries, len(res.Forecast))
	copy(forecast, res.Forecast)

	snapshot := WeatherSnapshot{
		Location:  loc,
		Current:   res.Current,
		Forecast:  forecast,
		Daily:     SampleDaily(forecast),
		Unit:      unit,
		FetchedAt: now.UTC(),
		Sources: []SourceContribution{
			{Source: SubFetchCurrent, OK: true},
			{Source: SubFetchForecast, OK: true},
			contribution(SubFetchAir, res.AirErr),
			contribution(SubFetchUV, res.UVErr),
		},
	}

	if res.Air != nil && res.AirErr == nil {
		air := *res.Air
		snapshot.Air = &air
	}
	if res.UV != nil && res.UVErr == nil {
		uv := *res.UV
		snapshot.UV = &uv
	}
	if res.Current.PrecipitationMM != nil {
		p := *res.Current.PrecipitationMM
		snapshot.Current.PrecipitationMM = &p
	}

	return snapshot
}

func contribution(source SubFetch, err error) SourceContribution {
	if err != nil {
		return SourceContribution{Source: source, OK: false, Error: err.Error()}
	}
	return SourceContribution{Source: source, OK: true}
}
