package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/i474232898/swissweather/internal/logger"
	"github.com/i474232898/swissweather/internal/places"
)

// OpenPLZ implements places.Directory against the OpenPLZ API.
type OpenPLZ struct {
	baseURL string
	ttl     time.Duration
	fetcher *Fetcher
	log     *logger.Logger
}

var _ places.Directory = (*OpenPLZ)(nil)

// NewOpenPLZ creates a client for baseURL (e.g. https://openplzapi.org/de).
// Responses are cached for ttl per distinct query.
func NewOpenPLZ(baseURL string, ttl time.Duration, fetcher *Fetcher, log *logger.Logger) *OpenPLZ {
	if log == nil {
		log = logger.Discard()
	}
	return &OpenPLZ{
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		fetcher: fetcher,
		log:     log,
	}
}

// SearchLocalities queries /Localities by name.
func (o *OpenPLZ) SearchLocalities(ctx context.Context, name string) ([]places.Locality, error) {
	var out []places.Locality
	if err := o.search(ctx, "Localities", name, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchStreets queries /Streets by name.
func (o *OpenPLZ) SearchStreets(ctx context.Context, name string) ([]places.Street, error) {
	var out []places.Street
	if err := o.search(ctx, "Streets", name, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// search decodes the resource listing into dst. A non-OK status leaves dst empty.
func (o *OpenPLZ) search(ctx context.Context, resource, name string, dst any) error {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("name", name)

		u := fmt.Sprintf("%s/%s?%s", o.baseURL, resource, values.Encode())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "text/json")
		return req, nil
	}

	key := strings.ToLower(resource) + ":" + name
	body, err := o.fetcher.Get(ctx, key, o.ttl, buildRequest, validateJSONArray)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			o.log.WithContext(ctx).Info("openplz_status",
				"resource", resource,
				"status", se.Code,
			)
			return nil
		}
		return err
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: openplz %s: %v", ErrMalformed, resource, err)
	}
	return nil
}

// validateJSONArray rejects payloads that are not a JSON array (or null).
func validateJSONArray(b []byte) error {
	var probe []json.RawMessage
	if err := json.Unmarshal(b, &probe); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
