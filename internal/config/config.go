package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Throttle groups the pacing constants used against the public POI provider.
type Throttle struct {
	CourtesyDelay    time.Duration
	RateLimitBackoff time.Duration
	RetryDelay       time.Duration
	MaxAttempts      int
}

// DefaultThrottle matches the pacing the public Overpass instance tolerates.
func DefaultThrottle() Throttle {
	return Throttle{
		CourtesyDelay:    2 * time.Second,
		RateLimitBackoff: 5 * time.Second,
		RetryDelay:       2 * time.Second,
		MaxAttempts:      3,
	}
}

type Config struct {
	Port     string
	LogLevel string

	OSRMBaseURL      string
	OverpassURL      string
	NominatimBaseURL string
	UserAgent        string

	DatabaseURL string
	RedisURL    string
	CacheTTL    time.Duration

	Throttle Throttle
	MaxStops int
}

// Load reads configuration from the process environment.
// Callers are expected to have loaded any .env file beforehand.
func Load() (Config, error) {
	cfg := Config{
		Port:             Get("PORT", "8080"),
		LogLevel:         Get("LOG_LEVEL", "info"),
		OSRMBaseURL:      strings.TrimRight(Get("OSRM_BASE_URL", "https://router.project-osrm.org"), "/"),
		OverpassURL:      Get("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		NominatimBaseURL: strings.TrimRight(Get("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"), "/"),
		UserAgent:        Get("USER_AGENT", "ev-trip-planner/1.0"),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
		Throttle:         DefaultThrottle(),
	}

	var err error
	if cfg.CacheTTL, err = duration("CACHE_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.Throttle.CourtesyDelay, err = duration("CHARGER_COURTESY_DELAY", cfg.Throttle.CourtesyDelay); err != nil {
		return Config{}, err
	}
	if cfg.Throttle.RateLimitBackoff, err = duration("CHARGER_RATE_LIMIT_BACKOFF", cfg.Throttle.RateLimitBackoff); err != nil {
		return Config{}, err
	}
	if cfg.Throttle.RetryDelay, err = duration("CHARGER_RETRY_DELAY", cfg.Throttle.RetryDelay); err != nil {
		return Config{}, err
	}
	if cfg.Throttle.MaxAttempts, err = integer("CHARGER_MAX_ATTEMPTS", cfg.Throttle.MaxAttempts); err != nil {
		return Config{}, err
	}
	if cfg.Throttle.MaxAttempts < 1 {
		return Config{}, fmt.Errorf("config: CHARGER_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.MaxStops, err = integer("MAX_INTERMEDIATE_STOPS", 5); err != nil {
		return Config{}, err
	}
	if cfg.MaxStops < 0 || cfg.MaxStops > 20 {
		return Config{}, fmt.Errorf("config: MAX_INTERMEDIATE_STOPS must be between 0 and 20")
	}

	return cfg, nil
}

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s=%q: %w", key, v, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: %s must not be negative", key)
	}
	return d, nil
}

func integer(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s=%q: %w", key, v, err)
	}
	return n, nil
}
