package weather

import "errors"

var (
	// ErrNotFound is returned when a query resolves to no place.
	ErrNotFound = errors.New("location not found")

	// ErrWeatherUnavailable is returned when a mandatory sub-fetch (current or forecast) fails.
	ErrWeatherUnavailable = errors.New("weather unavailable")

	// ErrUpstreamUnavailable is returned when a remote service cannot be reached.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrPersistence is returned when the favorites record cannot be read or written.
	ErrPersistence = errors.New("favorites persistence failure")

	// ErrEmptyQuery is returned for a blank text query before any I/O is done.
	ErrEmptyQuery = errors.New("empty location query")
)
