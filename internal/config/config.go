package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

type AppConfig struct {
	Port   string `validate:"required,numeric"`
	AppEnv string `validate:"required"`

	// Weather provider. The key stays server side.
	MeteoblueAPIKey  string
	MeteoblueBaseURL string `validate:"required,url"`
	MeteoblueASL     int    `validate:"gte=-500,lte=9000"`

	OpenPLZBaseURL string `validate:"required,url"`
	SunriseBaseURL string `validate:"required,url"`

	// UpstreamTimeout bounds every outbound call.
	UpstreamTimeout time.Duration `validate:"gt=0"`

	LocationsCacheTTL time.Duration `validate:"gte=0"`
	WeatherCacheTTL   time.Duration `validate:"gte=0"`
	SunTimeCacheTTL   time.Duration `validate:"gte=0"`

	CacheBackend       string        `validate:"oneof=memory redis"`
	CacheMaxEntries    int           `validate:"gte=0"`
	CacheSweepInterval time.Duration `validate:"gt=0"`
	RedisAddr          string        `validate:"required_if=CacheBackend redis"`
	RedisPassword      string
	RedisDB            int `validate:"gte=0"`

	RateLimitRPS   float64 `validate:"gte=0"`
	RateLimitBurst int     `validate:"gte=1"`
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.AppEnv = getenvDefault("APP_ENV", "production")

	cfg.MeteoblueAPIKey = os.Getenv("METEOBLUE_API_KEY")
	cfg.MeteoblueBaseURL = getenvDefault("METEOBLUE_BASE_URL", "https://my.meteoblue.com/packages")
	cfg.MeteoblueASL = getenvInt("METEOBLUE_ASL", 354)
	cfg.OpenPLZBaseURL = getenvDefault("OPENPLZ_BASE_URL", "https://openplzapi.org/de")
	cfg.SunriseBaseURL = getenvDefault("SUNRISE_BASE_URL", "https://api.sunrise-sunset.org")

	var err error
	if cfg.UpstreamTimeout, err = getenvDuration("UPSTREAM_TIMEOUT", "5s"); err != nil {
		return nil, err
	}
	if cfg.LocationsCacheTTL, err = getenvDuration("LOCATIONS_CACHE_TTL", "1h"); err != nil {
		return nil, err
	}
	if cfg.WeatherCacheTTL, err = getenvDuration("WEATHER_CACHE_TTL", "5m"); err != nil {
		return nil, err
	}
	if cfg.SunTimeCacheTTL, err = getenvDuration("SUNTIME_CACHE_TTL", "24h"); err != nil {
		return nil, err
	}
	if cfg.CacheSweepInterval, err = getenvDuration("CACHE_SWEEP_INTERVAL", "10m"); err != nil {
		return nil, err
	}

	cfg.CacheBackend = getenvDefault("CACHE_BACKEND", CacheBackendMemory)
	cfg.CacheMaxEntries = getenvInt("CACHE_MAX_ENTRIES", 10000)
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getenvInt("REDIS_DB", 0)

	cfg.RateLimitRPS = getenvFloat("RATE_LIMIT_RPS", 5)
	cfg.RateLimitBurst = getenvInt("RATE_LIMIT_BURST", 20)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
