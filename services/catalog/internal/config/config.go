package config

import (
	"os"
	"strings"
	"time"
)

// CatalogConfig carries the catalog service's backend settings.
type CatalogConfig struct {
	DatabaseURL string
	RedisURL    string
	NATSURL     string
	// CacheTTL bounds staleness of derived list views.
	CacheTTL time.Duration
	// LikeTTL bounds like-marker retention. Zero means permanent, which
	// is the safe default: an expired marker turns a repeat like into a
	// double increment.
	LikeTTL time.Duration
}

func LoadCatalog() CatalogConfig {
	return CatalogConfig{
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:    strings.TrimSpace(os.Getenv("REDIS_URL")),
		NATSURL:     strings.TrimSpace(os.Getenv("NATS_URL")),
		CacheTTL:    envDuration("CACHE_TTL", 5*time.Minute),
		LikeTTL:     envDuration("LIKE_TTL", 0),
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
