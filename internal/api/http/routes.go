package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/swissweather/internal/common"
	"github.com/i474232898/swissweather/internal/logger"
	"github.com/i474232898/swissweather/internal/places"
	"github.com/i474232898/swissweather/internal/upstream"
)

// RequestIDLocal is the fiber locals key the requestid middleware writes to.
const RequestIDLocal = "requestid"

// maxQueryRunes bounds the free-text location query.
const maxQueryRunes = 100

var validate = validator.New()

// LocationResolver resolves free-text location queries.
type LocationResolver interface {
	Resolve(ctx context.Context, query string) []places.Place
}

// WeatherSource returns raw forecast payloads.
type WeatherSource interface {
	Forecast(ctx context.Context, lat, lon float64) (json.RawMessage, error)
}

// SunTimesSource returns raw sunrise/sunset payloads.
type SunTimesSource interface {
	Times(ctx context.Context, lat, lon float64, date string) (json.RawMessage, error)
}

// Services bundles what the routes depend on.
type Services struct {
	Locations LocationResolver
	Weather   WeatherSource
	SunTimes  SunTimesSource
	Limiter   *IPRateLimiter // optional
	Logger    *logger.Logger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, svc Services) {
	log := svc.Logger
	if log == nil {
		log = logger.Discard()
	}

	// Only the proxy routes are throttled. Location search must answer 200,
	// so it is never rate limited.
	limit := func(c *fiber.Ctx) error { return c.Next() }
	if svc.Limiter != nil {
		limit = svc.Limiter.Middleware()
	}

	api := app.Group("/api")

	// Always 200: resolution falls back to the curated list on any failure.
	api.Get("/locations", func(c *fiber.Ctx) error {
		query := common.Truncate(c.Query("query"), maxQueryRunes)
		return c.JSON(svc.Locations.Resolve(requestContext(c), query))
	})

	api.Get("/locations/nearest", limit, func(c *fiber.Ctx) error {
		q, err := parseCoordQuery(c, false)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		place, dist, ok := places.Nearest(q.Lat, q.Lon)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "invalid coordinates")
		}
		return c.JSON(fiber.Map{
			"name":       place.Name,
			"lat":        place.Lat,
			"lon":        place.Lon,
			"distanceKm": dist,
		})
	})

	api.Get("/weather", limit, func(c *fiber.Ctx) error {
		q, err := parseCoordQuery(c, true)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx := requestContext(c)
		data, err := svc.Weather.Forecast(ctx, q.Lat, q.Lon)
		if err != nil {
			log.WithContext(ctx).Error("weather fetch failed", "lat", q.Lat, "lon", q.Lon, "error", err.Error())
			return proxyError(c, "Failed to fetch weather data", err)
		}
		return sendRaw(c, data)
	})

	api.Get("/suntime", limit, func(c *fiber.Ctx) error {
		var q sunQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx := requestContext(c)
		data, err := svc.SunTimes.Times(ctx, q.Lat, q.Lon, q.Date)
		if err != nil {
			log.WithContext(ctx).Error("sun times fetch failed", "lat", q.Lat, "lon", q.Lon, "error", err.Error())
			return proxyError(c, "Failed to fetch sun times", err)
		}
		return sendRaw(c, data)
	})
}

// coordQuery holds query parameters identifying a point.
type coordQuery struct {
	Lat float64 `validate:"latitude"`
	Lon float64 `validate:"longitude"`
}

// parseCoordQuery reads lat/lon; with withDefault, missing values fall back to the default location.
func parseCoordQuery(c *fiber.Ctx, withDefault bool) (coordQuery, error) {
	var q coordQuery

	def := places.Default()
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if withDefault {
		latStr = common.FirstNonEmpty(latStr, strconv.FormatFloat(def.Lat, 'f', -1, 64))
		lonStr = common.FirstNonEmpty(lonStr, strconv.FormatFloat(def.Lon, 'f', -1, 64))
	}
	if latStr == "" || lonStr == "" {
		return q, errors.New("lat and lon query parameters are required")
	}

	var err error
	if q.Lat, err = strconv.ParseFloat(latStr, 64); err != nil {
		return q, errors.New("lat must be a number")
	}
	if q.Lon, err = strconv.ParseFloat(lonStr, 64); err != nil {
		return q, errors.New("lon must be a number")
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// sunQuery holds query parameters for the sun times endpoint.
type sunQuery struct {
	coordQuery
	Date string `validate:"omitempty,datetime=2006-01-02"`
}

func (s *sunQuery) bind(c *fiber.Ctx) error {
	coords, err := parseCoordQuery(c, true)
	if err != nil {
		return err
	}
	s.coordQuery = coords

	s.Date = common.FirstNonEmpty(c.Query("date"), "today")
	if s.Date == "today" {
		return nil
	}
	return validate.Struct(s)
}

// requestContext carries the request ID into the service layer.
func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if rid, ok := c.Locals(RequestIDLocal).(string); ok && rid != "" {
		ctx = context.WithValue(ctx, logger.RequestIDKey, rid)
	}
	return ctx
}

func sendRaw(c *fiber.Ctx, data json.RawMessage) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(data)
}

// proxyError answers 500 with a client-safe description of err.
func proxyError(c *fiber.Ctx, message string, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   message,
		"details": upstream.Describe(err),
	})
}

// ErrorHandler renders errors returned by handlers as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}
