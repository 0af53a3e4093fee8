// Package config loads deployment configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is everything the gateway process needs to wire its adapters.
type Config struct {
	HTTPAddr string

	// StorageBackend selects the profile/account stores: memory or postgres.
	StorageBackend string
	DatabaseURL    string

	// RedisAddr, when set, moves sessions and the change feed to Redis.
	RedisAddr     string
	RedisPassword string

	SessionTTL     time.Duration
	TokenCachePath string

	PhotoDir          string
	PhotoBaseURL      string
	PhotoMaxBytes     int64
	PhotoAllowedTypes []string

	// DeleteFnURL, when set, routes member deletion through the remote
	// privileged function instead of the in-process cascade.
	DeleteFnURL        string
	ServiceTokenSecret string
	ServiceTokenIssuer string
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		HTTPAddr:       getenv("HTTP_ADDR", ":8080"),
		StorageBackend: getenv("STORAGE_BACKEND", "memory"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		SessionTTL:     24 * time.Hour,
		TokenCachePath: getenv("TOKEN_CACHE_PATH", ".memberd/session-token"),

		PhotoDir:          getenv("PHOTO_DIR", "data/photos"),
		PhotoBaseURL:      getenv("PHOTO_BASE_URL", "http://localhost:8080/photos"),
		PhotoAllowedTypes: []string{"image/jpeg", "image/png", "image/webp"},

		DeleteFnURL:        os.Getenv("DELETE_FN_URL"),
		ServiceTokenSecret: os.Getenv("SERVICE_TOKEN_SECRET"),
		ServiceTokenIssuer: getenv("SERVICE_TOKEN_ISSUER", "memberd"),
	}

	switch cfg.StorageBackend {
	case "memory":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	default:
		return Config{}, fmt.Errorf("STORAGE_BACKEND must be memory or postgres, got %q", cfg.StorageBackend)
	}

	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("SESSION_TTL must be a duration (e.g. 24h): %w", err)
		}
		cfg.SessionTTL = d
	}

	if v := os.Getenv("PHOTO_MAX_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("PHOTO_MAX_BYTES must be a positive integer, got %q", v)
		}
		cfg.PhotoMaxBytes = n
	}
	if v := os.Getenv("PHOTO_ALLOWED_TYPES"); v != "" {
		parts := strings.Split(v, ",")
		types := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(strings.ToLower(p)); p != "" {
				types = append(types, p)
			}
		}
		if len(types) == 0 {
			return Config{}, fmt.Errorf("PHOTO_ALLOWED_TYPES must be a comma-separated list of media types")
		}
		cfg.PhotoAllowedTypes = types
	}

	if cfg.DeleteFnURL != "" && cfg.ServiceTokenSecret == "" {
		return Config{}, fmt.Errorf("SERVICE_TOKEN_SECRET is required when DELETE_FN_URL is set")
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
