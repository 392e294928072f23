package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrMissingAPIKey is returned when the weather provider key is not configured.
var ErrMissingAPIKey = errors.New("meteoblue api key is not configured")

// Meteoblue fetches hourly and daily forecast packages.
type Meteoblue struct {
	baseURL string
	apiKey  string
	asl     int
	ttl     time.Duration
	fetcher *Fetcher
}

// NewMeteoblue creates a client for the packages API under baseURL.
func NewMeteoblue(baseURL, apiKey string, asl int, ttl time.Duration, fetcher *Fetcher) *Meteoblue {
	return &Meteoblue{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		asl:     asl,
		ttl:     ttl,
		fetcher: fetcher,
	}
}

// Forecast returns the raw basic-1h_basic-day payload for lat/lon.
func (m *Meteoblue) Forecast(ctx context.Context, lat, lon float64) (json.RawMessage, error) {
	if m.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("apikey", m.apiKey)
		values.Set("lat", formatFloat(lat))
		values.Set("lon", formatFloat(lon))
		values.Set("asl", strconv.Itoa(m.asl))
		values.Set("format", "json")

		u := fmt.Sprintf("%s/basic-1h_basic-day?%s", m.baseURL, values.Encode())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	// The payload echoes the requested point in its metadata, so it is cached per exact coordinate.
	body, err := m.fetcher.Get(ctx, formatFloat(lat)+","+formatFloat(lon), m.ttl, buildRequest, validateForecast)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// validateForecast requires at least one of the known top-level sections.
func validateForecast(b []byte) error {
	var payload struct {
		Metadata json.RawMessage `json:"metadata"`
		Data1h   json.RawMessage `json:"data_1h"`
		DataDay  json.RawMessage `json:"data_day"`
	}
	if err := json.Unmarshal(b, &payload); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if isEmptyJSON(payload.Metadata) && isEmptyJSON(payload.Data1h) && isEmptyJSON(payload.DataDay) {
		return fmt.Errorf("%w: unexpected weather payload format", ErrMalformed)
	}
	return nil
}

func isEmptyJSON(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
