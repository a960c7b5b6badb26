package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

var (
	errServerError = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")
	errRejected    = errors.New("credential rejected")
	errNoClient    = errors.New("http client not configured")
)

// newBreaker creates the breaker of one endpoint family, named "<provider>-<family>".
func newBreaker(provider, family string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        provider + "-" + family,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		// A missing city is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, weather.ErrNotFound)
		},
	})
}

// doRequest executes one request through the circuit breaker. There are no
// retries: a failed call needs a new explicit or scheduled invocation.
// Transport failures, 5xx answers, a rejected API key and an open breaker are
// classified as weather.ErrUpstreamUnavailable; 404 as weather.ErrNotFound.
func doRequest(
	ctx context.Context,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() *resty.Request,
	path string,
) (*resty.Response, error) {
	if cb == nil || buildRequest == nil {
		return nil, errNoClient
	}

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := buildRequest().SetContext(ctx).Get(path)
		if execErr != nil {
			return nil, fmt.Errorf("%w: %v", weather.ErrUpstreamUnavailable, execErr)
		}

		switch code := resp.StatusCode(); {
		case code == http.StatusNotFound:
			return nil, fmt.Errorf("%s: %w", path, weather.ErrNotFound)
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			return nil, fmt.Errorf("%w: %w: %d", weather.ErrUpstreamUnavailable, errRejected, code)
		case code >= 500:
			return nil, fmt.Errorf("%w: %w: %d", weather.ErrUpstreamUnavailable, errServerError, code)
		case code < 200 || code >= 300:
			return nil, fmt.Errorf("%w: %d: %s", errUnexpected, code, resp.String())
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w: %v", weather.ErrUpstreamUnavailable, errCircuitOpen, err)
		}
		return nil, err
	}

	resp, ok := result.(*resty.Response)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, nil
}
