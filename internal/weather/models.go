package weather

import (
	"strings"
	"time"
)

// Location is a place resolved from a text query or a coordinate pair.
// It is immutable once resolved.
type Location struct {
	DisplayName string  `json:"displayName"`
	CountryCode string  `json:"countryCode"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`

	// resolved is false for a text query that has not yet been looked up by
	// the current-conditions source.
	resolved bool
}

// Key returns a canonical string key for indexing this location in stores.
// Locations are keyed by display name.
func (l Location) Key() string {
	return l.DisplayName
}

// Resolved reports whether the location carries coordinates from a remote lookup.
func (l Location) Resolved() bool {
	return l.resolved
}

// NewLocation returns a resolved location.
func NewLocation(name, country string, lat, lon float64) Location {
	return Location{
		DisplayName: name,
		CountryCode: country,
		Latitude:    lat,
		Longitude:   lon,
		resolved:    true,
	}
}

// Coordinates is a geographic coordinate pair.
type Coordinates struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// Query is either free text or a coordinate pair. Coords wins when both are set.
type Query struct {
	Text   string
	Coords *Coordinates
}

// TextQuery builds a query for a city name.
func TextQuery(text string) Query {
	return Query{Text: strings.TrimSpace(text)}
}

// CoordinateQuery builds a query for a coordinate pair.
func CoordinateQuery(lat, lon float64) Query {
	return Query{Coords: &Coordinates{Lat: lat, Lon: lon}}
}

// Condition is the primary condition reported by the source.
type Condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// CurrentConditions is the observation for "now". Values are in the unit
// system the request was made with.
type CurrentConditions struct {
	Temperature     float64   `json:"temperature"`
	FeelsLike       float64   `json:"feelsLike"`
	Humidity        int       `json:"humidity"`
	Pressure        int       `json:"pressure"`
	WindSpeed       float64   `json:"windSpeed"`
	WindDirection   int       `json:"windDirection"`
	CloudCover      int       `json:"cloudCover"`
	PrecipitationMM *float64  `json:"precipitationMm,omitempty"`
	Sunrise         int64     `json:"sunrise"`
	Sunset          int64     `json:"sunset"`
	Condition       Condition `json:"condition"`
	ObservedAt      time.Time `json:"observedAt"`
}

// ForecastEntry is one 3-hour step of the forecast.
type ForecastEntry struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	FeelsLike   float64   `json:"feelsLike"`
	Humidity    int       `json:"humidity"`
	WindSpeed   float64   `json:"windSpeed"`
	Condition   Condition `json:"condition"`
}

// ForecastSeries is ordered by Timestamp ascending at 3-hour granularity.
type ForecastSeries []ForecastEntry

// AirQuality is the current air-pollution record. Concentrations are µg/m³.
type AirQuality struct {
	Index    int     `json:"index"`
	Category string  `json:"category"`
	PM25     float64 `json:"pm2_5"`
	PM10     float64 `json:"pm10"`
	O3       float64 `json:"o3"`
	NO2      float64 `json:"no2"`
	CO       float64 `json:"co"`
}

// UVReading is a UV index with its locally derived risk label.
type UVReading struct {
	Value float64 `json:"value"`
	Risk  string  `json:"risk"`
}

// WeatherSnapshot is the aggregated weather view for one location at one
// point in time. It is never mutated after Build returns it.
type WeatherSnapshot struct {
	Location  Location          `json:"location"`
	Current   CurrentConditions `json:"current"`
	Forecast  ForecastSeries    `json:"forecast"`
	Daily     ForecastSeries    `json:"daily"`
	Air       *AirQuality       `json:"airQuality,omitempty"`
	UV        *UVReading        `json:"uv,omitempty"`
	Unit      UnitSystem        `json:"unit"`
	FetchedAt time.Time         `json:"fetchedAt"` // always UTC

	// Sources lists which sub-fetches contributed to this snapshot.
	Sources []SourceContribution `json:"sources"`
}

// SourceContribution records the outcome of one sub-fetch.
type SourceContribution struct {
	Source SubFetch `json:"source"`
	OK     bool     `json:"ok"`
	Error  string   `json:"error,omitempty"`
}

// SubFetch names one of the four remote retrievals of a weather query.
type SubFetch string

const (
	SubFetchCurrent  SubFetch = "current"
	SubFetchForecast SubFetch = "forecast"
	SubFetchAir      SubFetch = "air"
	SubFetchUV       SubFetch = "uv"
)
