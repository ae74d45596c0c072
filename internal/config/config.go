// Package config reads the service configuration from the environment.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Port              string
	DatabaseURL       string
	TimeZone          string
	JWTSecret         string
	TokenTTL          time.Duration
	LogLevel          string
	LogFile           string
	LogDev            bool
	CORSOrigin        string
	ReconcileInterval time.Duration
}

var ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")

// LoadDotEnv loads .env files when present. A missing file is not an error.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// Load reads the environment. Invalid optional values fall back to their
// default with a warning.
func Load(log *zap.Logger) (*Config, error) {
	cfg := &Config{
		Port:              getEnv("API_PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		TimeZone:          os.Getenv("APP_TIMEZONE"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		TokenTTL:          getDuration("TOKEN_TTL", 24*time.Hour, log),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFile:           os.Getenv("LOG_FILE"),
		LogDev:            getBool("LOG_DEV", false, log),
		CORSOrigin:        getEnv("CORS_ALLOWED_ORIGIN", "*"),
		ReconcileInterval: getDuration("RECONCILE_INTERVAL", time.Hour, log),
	}
	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	return cfg, nil
}

// Location resolves TimeZone, falling back to the local zone.
func (c *Config) Location(log *zap.Logger) *time.Location {
	if c.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		log.Warn("invalid APP_TIMEZONE, falling back to local", zap.String("tz", c.TimeZone), zap.Error(err))
		return time.Local
	}
	return loc
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration, log *zap.Logger) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil || d < 0 {
		log.Warn("invalid duration, using default", zap.String("key", key), zap.String("value", val), zap.Duration("default", fallback))
		return fallback
	}
	return d
}

func getBool(key string, fallback bool, log *zap.Logger) bool {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		log.Warn("invalid boolean, using default", zap.String("key", key), zap.String("value", val))
		return fallback
	}
	return b
}
