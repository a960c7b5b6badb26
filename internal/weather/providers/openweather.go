package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// DefaultBaseURL is the OpenWeatherMap API root.
const DefaultBaseURL = "https://api.openweathermap.org"

// OpenWeatherProvider implements weather.Source for OpenWeatherMap.
type OpenWeatherProvider struct {
	name     string
	apiKey   string
	language string
	client   *resty.Client

	// One breaker per endpoint family so a failing best-effort endpoint
	// never opens the breaker of a mandatory one.
	weatherCircuit *gobreaker.CircuitBreaker
	airCircuit     *gobreaker.CircuitBreaker
	uvCircuit      *gobreaker.CircuitBreaker
	geoCircuit     *gobreaker.CircuitBreaker
}

// Option configures an OpenWeatherProvider.
type Option func(*OpenWeatherProvider)

// WithBaseURL points the provider at another API root (tests, proxies).
func WithBaseURL(baseURL string) Option {
	return func(p *OpenWeatherProvider) {
		p.client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	}
}

// WithLanguage sets the lang parameter of current and forecast requests.
func WithLanguage(lang string) Option {
	return func(p *OpenWeatherProvider) {
		p.language = lang
	}
}

// NewOpenWeatherProvider creates a provider using httpClient for transport.
func NewOpenWeatherProvider(httpClient *http.Client, apiKey string, opts ...Option) *OpenWeatherProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	p := &OpenWeatherProvider{
		name:   "openweathermap",
		apiKey: apiKey,
		client: resty.NewWithClient(httpClient).
			SetBaseURL(DefaultBaseURL).
			SetHeader("Accept", "application/json"),
		language: "en",
	}
	p.weatherCircuit = newBreaker(p.name, "weather")
	p.airCircuit = newBreaker(p.name, "air")
	p.uvCircuit = newBreaker(p.name, "uv")
	p.geoCircuit = newBreaker(p.name, "geo")
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *OpenWeatherProvider) request(params map[string]string) func() *resty.Request {
	return func() *resty.Request {
		return p.client.R().
			SetQueryParams(params).
			SetQueryParam("appid", p.apiKey)
	}
}

func (p *OpenWeatherProvider) placeParams(place weather.Place, unit weather.UnitSystem) (map[string]string, error) {
	params := map[string]string{
		"units": string(unit),
		"lang":  p.language,
	}
	switch {
	case place.Name != "":
		params["q"] = place.Name
	case place.Coords != nil:
		params["lat"] = formatCoord(place.Coords.Lat)
		params["lon"] = formatCoord(place.Coords.Lon)
	default:
		return nil, weather.ErrEmptyQuery
	}
	return params, nil
}

type owmCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

func firstCondition(items []owmCondition) weather.Condition {
	if len(items) == 0 {
		return weather.Condition{}
	}
	return weather.Condition{
		Main:        items[0].Main,
		Description: items[0].Description,
		Icon:        items[0].Icon,
	}
}

// Current fetches /data/2.5/weather by name or coordinates.
func (p *OpenWeatherProvider) Current(ctx context.Context, place weather.Place, unit weather.UnitSystem) (weather.Observation, error) {
	params, err := p.placeParams(place, unit)
	if err != nil {
		return weather.Observation{}, err
	}

	resp, err := doRequest(ctx, p.weatherCircuit, p.request(params), "/data/2.5/weather")
	if err != nil {
		return weather.Observation{}, err
	}

	var payload struct {
		Name  string `json:"name"`
		Dt    int64  `json:"dt"`
		Coord struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"coord"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
			Pressure  int     `json:"pressure"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
			Deg   int     `json:"deg"`
		} `json:"wind"`
		Clouds struct {
			All int `json:"all"`
		} `json:"clouds"`
		Rain *struct {
			OneH   *float64 `json:"1h"`
			ThreeH *float64 `json:"3h"`
		} `json:"rain"`
		Sys struct {
			Country string `json:"country"`
			Sunrise int64  `json:"sunrise"`
			Sunset  int64  `json:"sunset"`
		} `json:"sys"`
		Weather []owmCondition `json:"weather"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return weather.Observation{}, fmt.Errorf("decoding current conditions: %w", err)
	}

	ts := time.Unix(payload.Dt, 0).UTC()
	if payload.Dt == 0 {
		ts = time.Now().UTC()
	}

	var precip *float64
	if payload.Rain != nil {
		precip = payload.Rain.OneH
		if precip == nil {
			precip = payload.Rain.ThreeH
		}
	}

	return weather.Observation{
		Location: weather.NewLocation(payload.Name, payload.Sys.Country, payload.Coord.Lat, payload.Coord.Lon),
		Current: weather.CurrentConditions{
			Temperature:     payload.Main.Temp,
			FeelsLike:       payload.Main.FeelsLike,
			Humidity:        payload.Main.Humidity,
			Pressure:        payload.Main.Pressure,
			WindSpeed:       payload.Wind.Speed,
			WindDirection:   payload.Wind.Deg,
			CloudCover:      payload.Clouds.All,
			PrecipitationMM: precip,
			Sunrise:         payload.Sys.Sunrise,
			Sunset:          payload.Sys.Sunset,
			Condition:       firstCondition(payload.Weather),
			ObservedAt:      ts,
		},
	}, nil
}

// Forecast fetches the 5-day/3-hour /data/2.5/forecast series.
func (p *OpenWeatherProvider) Forecast(ctx context.Context, place weather.Place, unit weather.UnitSystem) (weather.ForecastSeries, error) {
	params, err := p.placeParams(place, unit)
	if err != nil {
		return nil, err
	}

	resp, err := doRequest(ctx, p.weatherCircuit, p.request(params), "/data/2.5/forecast")
	if err != nil {
		return nil, err
	}

	var payload struct {
		List []struct {
			Dt   int64 `json:"dt"`
			Main struct {
				Temp      float64 `json:"temp"`
				FeelsLike float64 `json:"feels_like"`
				Humidity  int     `json:"humidity"`
			} `json:"main"`
			Wind struct {
				Speed float64 `json:"speed"`
			} `json:"wind"`
			Weather []owmCondition `json:"weather"`
		} `json:"list"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("decoding forecast: %w", err)
	}

	series := make(weather.ForecastSeries, 0, len(payload.List))
	for _, item := range payload.List {
		series = append(series, weather.ForecastEntry{
			Timestamp:   time.Unix(item.Dt, 0).UTC(),
			Temperature: item.Main.Temp,
			FeelsLike:   item.Main.FeelsLike,
			Humidity:    item.Main.Humidity,
			WindSpeed:   item.Wind.Speed,
			Condition:   firstCondition(item.Weather),
		})
	}
	return series, nil
}

// AirPollution fetches /data/2.5/air_pollution for "now".
func (p *OpenWeatherProvider) AirPollution(ctx context.Context, c weather.Coordinates) (weather.AirQuality, error) {
	params := map[string]string{"lat": formatCoord(c.Lat), "lon": formatCoord(c.Lon)}

	resp, err := doRequest(ctx, p.airCircuit, p.request(params), "/data/2.5/air_pollution")
	if err != nil {
		return weather.AirQuality{}, err
	}

	var payload struct {
		List []struct {
			Main struct {
				AQI int `json:"aqi"`
			} `json:"main"`
			Components struct {
				CO   float64 `json:"co"`
				NO2  float64 `json:"no2"`
				O3   float64 `json:"o3"`
				PM25 float64 `json:"pm2_5"`
				PM10 float64 `json:"pm10"`
			} `json:"components"`
		} `json:"list"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return weather.AirQuality{}, fmt.Errorf("decoding air pollution: %w", err)
	}
	if len(payload.List) == 0 {
		return weather.AirQuality{}, fmt.Errorf("air pollution response has no records")
	}

	rec := payload.List[0]
	return weather.AirQuality{
		Index: rec.Main.AQI,
		PM25:  rec.Components.PM25,
		PM10:  rec.Components.PM10,
		O3:    rec.Components.O3,
		NO2:   rec.Components.NO2,
		CO:    rec.Components.CO,
	}, nil
}

// UVIndex fetches /data/2.5/uvi. The risk label is derived by the caller.
func (p *OpenWeatherProvider) UVIndex(ctx context.Context, c weather.Coordinates) (float64, error) {
	params := map[string]string{"lat": formatCoord(c.Lat), "lon": formatCoord(c.Lon)}

	resp, err := doRequest(ctx, p.uvCircuit, p.request(params), "/data/2.5/uvi")
	if err != nil {
		return 0, err
	}

	var payload struct {
		Value *float64 `json:"value"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return 0, fmt.Errorf("decoding uv index: %w", err)
	}
	if payload.Value == nil {
		return 0, fmt.Errorf("uv index response has no value")
	}
	return *payload.Value, nil
}

// ReverseGeocode fetches /geo/1.0/reverse.
func (p *OpenWeatherProvider) ReverseGeocode(ctx context.Context, c weather.Coordinates, limit int) ([]weather.Location, error) {
	if limit <= 0 {
		limit = 1
	}
	params := map[string]string{
		"lat":   formatCoord(c.Lat),
		"lon":   formatCoord(c.Lon),
		"limit": strconv.Itoa(limit),
	}

	resp, err := doRequest(ctx, p.geoCircuit, p.request(params), "/geo/1.0/reverse")
	if err != nil {
		return nil, err
	}

	var results []struct {
		Name    string  `json:"name"`
		Country string  `json:"country"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	}
	if err := json.Unmarshal(resp.Body(), &results); err != nil {
		return nil, fmt.Errorf("decoding reverse geocoding: %w", err)
	}

	locations := make([]weather.Location, 0, len(results))
	for _, r := range results {
		locations = append(locations, weather.NewLocation(r.Name, r.Country, r.Lat, r.Lon))
	}
	return locations, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var _ weather.Source = (*OpenWeatherProvider)(nil)
