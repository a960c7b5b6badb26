package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/session"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// stubPipeline answers every city except the ones in missing and down.
type stubPipeline struct {
	store   *store.MemoryStore
	missing map[string]bool
	down    map[string]bool
}

func (p *stubPipeline) Lookup(_ context.Context, q weather.Query, unit weather.UnitSystem) (weather.WeatherSnapshot, error) {
	name := q.Text
	if q.Coords != nil {
		name = "Izmir"
	}
	if p.missing[name] {
		return weather.WeatherSnapshot{}, fmt.Errorf("%w: %w", weather.ErrWeatherUnavailable, weather.ErrNotFound)
	}
	if p.down[name] {
		return weather.WeatherSnapshot{}, fmt.Errorf("%w: %w", weather.ErrWeatherUnavailable, weather.ErrUpstreamUnavailable)
	}
	loc := weather.NewLocation(name, "TR", 38.42, 27.14)
	snap := weather.WeatherSnapshot{Location: loc, Unit: unit, FetchedAt: time.Now().UTC()}
	p.store.SaveSnapshot(loc, snap)
	return snap, nil
}

func (p *stubPipeline) GetLatest(city string) (weather.WeatherSnapshot, error) {
	return p.store.GetLatest(city)
}

func (p *stubPipeline) GetRange(city string, from, to time.Time) ([]weather.WeatherSnapshot, error) {
	return p.store.GetRange(city, from, to)
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	p := &stubPipeline{
		store:   store.NewMemoryStore(10, time.Hour),
		missing: map[string]bool{"Atlantis": true},
		down:    map[string]bool{"Bursa": true},
	}
	RegisterRoutes(app, session.New(context.Background(), p, nil, weather.Metric))
	return app
}

func do(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, data
}

// TestWeatherStatusMapping verifies the error taxonomy to HTTP status mapping.
func TestWeatherStatusMapping(t *testing.T) {
	app := newTestApp(t)

	cases := []struct {
		target string
		want   int
	}{
		{"/api/v1/weather", http.StatusBadRequest},
		{"/api/v1/weather?city=Ankara", http.StatusOK},
		{"/api/v1/weather?city=Atlantis", http.StatusNotFound},
		{"/api/v1/weather?city=Bursa", http.StatusServiceUnavailable},
		{"/api/v1/weather/coords?lat=38.42", http.StatusBadRequest},
		{"/api/v1/weather/coords?lat=95&lon=27.14", http.StatusBadRequest},
		{"/api/v1/weather/coords?lat=38.42&lon=27.14", http.StatusOK},
		{"/api/v1/status", http.StatusBadRequest},
		{"/api/v1/snapshots/Konya", http.StatusNotFound},
	}
	for _, tc := range cases {
		resp, _ := do(t, app, http.MethodGet, tc.target, "")
		if resp.StatusCode != tc.want {
			t.Errorf("%s: expected status %d, got %d", tc.target, tc.want, resp.StatusCode)
		}
	}
}

func TestSessionFlow(t *testing.T) {
	app := newTestApp(t)

	resp, _ := do(t, app, http.MethodGet, "/api/v1/weather?city=Ankara", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	resp, body := do(t, app, http.MethodPost, "/api/v1/favorites/Ankara/toggle", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	var toggled struct {
		Favorite  bool     `json:"favorite"`
		Persisted bool     `json:"persisted"`
		Favorites []string `json:"favorites"`
	}
	if err := json.Unmarshal(body, &toggled); err != nil {
		t.Fatalf("decoding toggle response: %v", err)
	}
	if !toggled.Favorite || !toggled.Persisted || len(toggled.Favorites) != 1 {
		t.Fatalf("unexpected toggle response: %s", body)
	}

	resp, body = do(t, app, http.MethodPut, "/api/v1/units", `{"unit":"imperial"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.StatusCode, body)
	}
	var switched struct {
		Unit     string                   `json:"unit"`
		Snapshot *weather.WeatherSnapshot `json:"snapshot"`
	}
	if err := json.Unmarshal(body, &switched); err != nil {
		t.Fatalf("decoding units response: %v", err)
	}
	if switched.Unit != "imperial" || switched.Snapshot == nil || switched.Snapshot.Unit != weather.Imperial {
		t.Fatalf("unexpected units response: %s", body)
	}

	_, body = do(t, app, http.MethodGet, "/api/v1/session", "")
	var view session.View
	if err := json.Unmarshal(body, &view); err != nil {
		t.Fatalf("decoding session view: %v", err)
	}
	if len(view.RecentSearches) != 1 || view.RecentSearches[0] != "Ankara" {
		t.Fatalf("unexpected recent searches: %v", view.RecentSearches)
	}
	if view.Unit != weather.Imperial {
		t.Fatalf("expected imperial unit, got %s", view.Unit)
	}

	resp, _ = do(t, app, http.MethodGet, "/api/v1/snapshots/Ankara", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	_, body = do(t, app, http.MethodGet, "/api/v1/status?query=Ankara", "")
	var st session.QueryState
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if st.Status != session.StatusReady {
		t.Fatalf("expected ready status, got %s", st.Status)
	}
}

func TestFavoritesAndUnitsValidation(t *testing.T) {
	app := newTestApp(t)

	resp, _ := do(t, app, http.MethodPut, "/api/v1/units", `{"unit":"kelvin"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}

	resp, body := do(t, app, http.MethodPut, "/api/v1/favorites", `{"cities":["Izmir","Istanbul","Izmir"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	var out struct {
		Favorites []string `json:"favorites"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decoding favorites response: %v", err)
	}
	if strings.Join(out.Favorites, ",") != "Izmir,Istanbul" {
		t.Fatalf("unexpected favorites: %v", out.Favorites)
	}

	resp, _ = do(t, app, http.MethodPut, "/api/v1/favorites", `{"cities":[""]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.StatusCode)
	}
}

// TestSnapshotHistory verifies the history endpoint and its range validation.
func TestSnapshotHistory(t *testing.T) {
	app := newTestApp(t)

	resp, _ := do(t, app, http.MethodGet, "/api/v1/snapshots/Ankara/history", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404 before any fetch, got %d", resp.StatusCode)
	}

	for i := 0; i < 2; i++ {
		resp, _ = do(t, app, http.MethodGet, "/api/v1/weather?city=Ankara", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected status 200, got %d", resp.StatusCode)
		}
	}

	resp, body := do(t, app, http.MethodGet, "/api/v1/snapshots/Ankara/history", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.StatusCode, body)
	}
	var out struct {
		City      string                    `json:"city"`
		Snapshots []weather.WeatherSnapshot `json:"snapshots"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decoding history response: %v", err)
	}
	if out.City != "Ankara" || len(out.Snapshots) != 2 {
		t.Fatalf("unexpected history response: %s", body)
	}

	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	resp, _ = do(t, app, http.MethodGet, "/api/v1/snapshots/Ankara/history?from="+future, "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400 for a range ending before it starts, got %d", resp.StatusCode)
	}

	resp, _ = do(t, app, http.MethodGet, "/api/v1/snapshots/Ankara/history?to=yesterday", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status 400 for an invalid to, got %d", resp.StatusCode)
	}
}
