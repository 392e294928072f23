package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	httpapi "github.com/i474232898/swissweather/internal/api/http"
	"github.com/i474232898/swissweather/internal/cache"
	"github.com/i474232898/swissweather/internal/config"
	"github.com/i474232898/swissweather/internal/logger"
	"github.com/i474232898/swissweather/internal/places"
	"github.com/i474232898/swissweather/internal/scheduler"
	"github.com/i474232898/swissweather/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLog := logger.New(cfg.AppEnv)

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.UpstreamTimeout,
	}

	var sweepers []cache.Sweeper

	// Response cache shared by all upstream clients.
	var respCache cache.Cache
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rc, err := cache.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		cancel()
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer rc.Close()
		respCache = rc
	default:
		mc := cache.NewMemoryCache(cfg.CacheMaxEntries)
		sweepers = append(sweepers, mc)
		respCache = mc
	}

	newFetcher := func(name string, retries int) *upstream.Fetcher {
		return upstream.NewFetcher(upstream.FetcherConfig{
			Name:       name,
			Client:     httpClient,
			Cache:      respCache,
			Timeout:    cfg.UpstreamTimeout,
			MaxRetries: retries,
			Logger:     appLog,
		})
	}

	// Location lookups are never retried; a failure falls back to the curated list.
	directory := upstream.NewOpenPLZ(cfg.OpenPLZBaseURL, cfg.LocationsCacheTTL, newFetcher("openplz", 0), appLog)
	resolver := places.NewResolver(directory, appLog)

	weatherClient := upstream.NewMeteoblue(cfg.MeteoblueBaseURL, cfg.MeteoblueAPIKey, cfg.MeteoblueASL,
		cfg.WeatherCacheTTL, newFetcher("meteoblue", 2))
	sunClient := upstream.NewSunriseSunset(cfg.SunriseBaseURL, cfg.SunTimeCacheTTL, newFetcher("sunrise", 2))

	if cfg.MeteoblueAPIKey == "" {
		appLog.Warn("METEOBLUE_API_KEY is not set; /api/weather will fail")
	}

	var limiter *httpapi.IPRateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = httpapi.NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
		sweepers = append(sweepers, limiter)
	}

	sched := scheduler.New(cfg.CacheSweepInterval, appLog, sweepers...)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "swissweather",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: httpapi.RequestIDLocal,
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "swissweather",
		})
	})

	httpapi.RegisterRoutes(app, httpapi.Services{
		Locations: resolver,
		Weather:   weatherClient,
		SunTimes:  sunClient,
		Limiter:   limiter,
		Logger:    appLog,
	})

	go func() {
		appLog.Info("listening", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			appLog.Error("fiber server stopped", "error", err.Error())
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLog.Error("error during shutdown", "error", err.Error())
	}
}
