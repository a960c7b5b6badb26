package httpapi

import (
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/session"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, sess *session.State) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		q := cityQuery{City: c.Query("city")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshot, err := sess.FetchWeather(c.UserContext(), q.City)
		if err != nil {
			return weatherError(err)
		}
		return c.JSON(snapshot)
	})

	v1.Get("/weather/coords", func(c *fiber.Ctx) error {
		var q coordsQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshot, err := sess.FetchWeatherAt(c.UserContext(), *q.Lat, *q.Lon)
		if err != nil {
			return weatherError(err)
		}
		return c.JSON(snapshot)
	})

	v1.Get("/session", func(c *fiber.Ctx) error {
		return c.JSON(sess.View())
	})

	v1.Get("/status", func(c *fiber.Ctx) error {
		key := c.Query("query")
		if key == "" {
			return fiber.NewError(fiber.StatusBadRequest, "query parameter is required")
		}
		return c.JSON(sess.QueryStatus(key))
	})

	v1.Get("/snapshots/:city", func(c *fiber.Ctx) error {
		city, err := pathCity(c)
		if err != nil {
			return err
		}
		snapshot, err := sess.SnapshotFor(city)
		if err != nil {
			if errors.Is(err, weather.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather data for requested city")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read weather data")
		}
		return c.JSON(snapshot)
	})

	v1.Get("/snapshots/:city/history", func(c *fiber.Ctx) error {
		city, err := pathCity(c)
		if err != nil {
			return err
		}
		from, to, err := historyRange(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		snapshots, err := sess.HistoryFor(city, from, to)
		if err != nil {
			if errors.Is(err, weather.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather data for requested range")
			}
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(fiber.Map{
			"city":      city,
			"snapshots": snapshots,
		})
	})

	v1.Post("/favorites/:city/toggle", func(c *fiber.Ctx) error {
		city, err := pathCity(c)
		if err != nil {
			return err
		}
		isFavorite, err := sess.ToggleFavorite(c.UserContext(), city)
		if err != nil && !errors.Is(err, weather.ErrPersistence) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(fiber.Map{
			"city":      city,
			"favorite":  isFavorite,
			"persisted": err == nil,
			"favorites": sess.Favorites(),
		})
	})

	v1.Put("/favorites", func(c *fiber.Ctx) error {
		var body favoritesBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		err := sess.ReplaceFavorites(c.UserContext(), body.Cities)
		return c.JSON(fiber.Map{
			"favorites": sess.Favorites(),
			"persisted": !errors.Is(err, weather.ErrPersistence),
		})
	})

	v1.Put("/units", func(c *fiber.Ctx) error {
		var body unitBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		unit, err := weather.ParseUnitSystem(body.Unit)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshot, err := sess.SetUnitSystem(c.UserContext(), unit)
		if err != nil {
			return weatherError(err)
		}
		return c.JSON(fiber.Map{
			"unit":     sess.Unit(),
			"snapshot": snapshot,
		})
	})
}

// weatherError maps the error taxonomy to HTTP status codes.
func weatherError(err error) error {
	switch weather.Classify(err) {
	case weather.ErrEmptyQuery:
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case weather.ErrNotFound:
		return fiber.NewError(fiber.StatusNotFound, "city not found")
	case weather.ErrUpstreamUnavailable:
		return fiber.NewError(fiber.StatusServiceUnavailable, "weather service unreachable")
	case weather.ErrWeatherUnavailable:
		return fiber.NewError(fiber.StatusBadGateway, "weather information unavailable")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
	}
}

type cityQuery struct {
	City string `validate:"required,max=100"`
}

type coordsQuery struct {
	Lat *float64 `validate:"required,gte=-90,lte=90"`
	Lon *float64 `validate:"required,gte=-180,lte=180"`
}

func (q *coordsQuery) bind(c *fiber.Ctx) error {
	latStr := c.Query("lat")
	lonStr := c.Query("lon")
	if latStr == "" || lonStr == "" {
		return errors.New("lat and lon query parameters are required")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return errors.New("invalid lat parameter")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return errors.New("invalid lon parameter")
	}
	q.Lat = &lat
	q.Lon = &lon
	return nil
}

type favoritesBody struct {
	Cities []string `json:"cities" validate:"dive,required,max=100"`
}

type unitBody struct {
	Unit string `json:"unit" validate:"required,oneof=metric imperial"`
}

// historyRange reads the optional RFC 3339 from/to query parameters. An
// absent from means the beginning of retained history, an absent to means now.
func historyRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	from := time.Unix(0, 0).UTC()
	to := time.Now().UTC()
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return from, to, errors.New("invalid from parameter")
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return from, to, errors.New("invalid to parameter")
		}
		to = t
	}
	return from, to, nil
}

func pathCity(c *fiber.Ctx) (string, error) {
	city, err := url.PathUnescape(c.Params("city"))
	if err != nil || city == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid city")
	}
	return city, nil
}
