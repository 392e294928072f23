package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"

	"github.com/i474232898/swissweather/internal/cache"
	"github.com/i474232898/swissweather/internal/logger"
)

// maxBodyBytes bounds a cached upstream payload.
const maxBodyBytes = 8 << 20

// FetcherConfig configures a Fetcher for one upstream host.
type FetcherConfig struct {
	Name       string
	Client     *http.Client
	Cache      cache.Cache // optional
	Timeout    time.Duration
	MaxRetries int
	Logger     *logger.Logger
}

// Fetcher performs cached, coalesced GETs against one upstream.
type Fetcher struct {
	name    string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	cache   cache.Cache
	timeout time.Duration
	group   singleflight.Group
	log     *logger.Logger
}

// NewFetcher creates a Fetcher with its own circuit breaker.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Fetcher{
		name: cfg.Name,
		httpCfg: HTTPClientConfig{
			Client: cfg.Client,
			Backoff: BackoffConfig{
				MaxRetries:      cfg.MaxRetries,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: newBreaker(cfg.Name),
		cache:   cfg.Cache,
		timeout: cfg.Timeout,
		log:     log,
	}
}

// Get returns the body for key, from cache when fresh, otherwise from the upstream.
// validate, if set, must accept the body before it is cached or returned.
// Concurrent calls for the same key share one upstream request.
func (f *Fetcher) Get(
	ctx context.Context,
	key string,
	ttl time.Duration,
	build func(ctx context.Context) (*http.Request, error),
	validate func([]byte) error,
) ([]byte, error) {
	key = f.name + ":" + key
	start := time.Now()
	log := f.log.WithContext(ctx)

	if f.cache != nil {
		b, ok, err := f.cache.Get(ctx, key)
		if err != nil {
			log.Warn("cache_get_failed", "key", key, "error", err.Error())
		} else if ok {
			log.Upstream(f.name, time.Since(start), true, nil)
			return b, nil
		}
	}

	ch := f.group.DoChan(key, func() (interface{}, error) {
		// The shared call must not die with whichever caller started it.
		callCtx := context.WithoutCancel(ctx)
		if f.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(callCtx, f.timeout)
			defer cancel()
		}
		return f.fetch(callCtx, key, ttl, build, validate)
	})

	select {
	case <-ctx.Done():
		log.Upstream(f.name, time.Since(start), false, ctx.Err())
		return nil, ctx.Err()
	case res := <-ch:
		log.Upstream(f.name, time.Since(start), false, res.Err)
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (f *Fetcher) fetch(
	ctx context.Context,
	key string,
	ttl time.Duration,
	build func(ctx context.Context) (*http.Request, error),
	validate func([]byte) error,
) ([]byte, error) {
	resp, err := doRequestWithResilience(ctx, f.httpCfg, f.circuit, build)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Body != "" {
			f.log.WithContext(ctx).Debug("upstream_error_body", "op", f.name, "status", se.Code, "body", se.Body)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", f.name, err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("%w: %s response exceeds %d bytes", ErrMalformed, f.name, maxBodyBytes)
	}

	if validate != nil {
		if err := validate(body); err != nil {
			return nil, err
		}
	}

	if f.cache != nil {
		if err := f.cache.Set(ctx, key, body, ttl); err != nil {
			f.log.WithContext(ctx).Warn("cache_set_failed", "key", key, "error", err.Error())
		}
	}
	return body, nil
}
