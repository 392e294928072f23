package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	geohash "github.com/TomiHiltunen/geohash-golang"
)

// sunCellPrecision is the geohash length used in sun time cache keys (~150 m cells).
// Sun times differ by well under a second across a cell and the payload does not echo the point.
const sunCellPrecision = 7

// SunriseSunset fetches sunrise/sunset times.
type SunriseSunset struct {
	baseURL string
	ttl     time.Duration
	fetcher *Fetcher
	now     func() time.Time
}

// NewSunriseSunset creates a client for baseURL (e.g. https://api.sunrise-sunset.org).
func NewSunriseSunset(baseURL string, ttl time.Duration, fetcher *Fetcher) *SunriseSunset {
	return &SunriseSunset{
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		fetcher: fetcher,
		now:     time.Now,
	}
}

// Times returns the raw payload for lat/lon on date ("today" or YYYY-MM-DD).
func (s *SunriseSunset) Times(ctx context.Context, lat, lon float64, date string) (json.RawMessage, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", formatFloat(lat))
		values.Set("lng", formatFloat(lon))
		values.Set("date", date)
		values.Set("formatted", "0")

		u := fmt.Sprintf("%s/json?%s", s.baseURL, values.Encode())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	// "today" is keyed by the concrete day so a cached answer does not outlive it.
	day := date
	if day == "today" {
		day = s.now().UTC().Format(time.DateOnly)
	}

	body, err := s.fetcher.Get(ctx, coordKey(lat, lon)+":"+day, s.ttl, buildRequest, validateSunTimes)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func validateSunTimes(b []byte) error {
	var payload struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(b, &payload); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if isEmptyJSON(payload.Results) {
		return fmt.Errorf("%w: unexpected sun times payload format", ErrMalformed)
	}
	return nil
}

func coordKey(lat, lon float64) string {
	return geohash.EncodeWithPrecision(lat, lon, sunCellPrecision)
}
