package config

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/zakfit")
	for _, k := range []string{"API_PORT", "APP_TIMEZONE", "JWT_SECRET", "TOKEN_TTL", "LOG_LEVEL", "LOG_FILE", "LOG_DEV", "CORS_ALLOWED_ORIGIN", "RECONCILE_INTERVAL"} {
		t.Setenv(k, "")
	}

	cfg, err := Load(zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v", cfg.TokenTTL)
	}
	if cfg.ReconcileInterval != time.Hour {
		t.Errorf("ReconcileInterval = %v", cfg.ReconcileInterval)
	}
	if cfg.CORSOrigin != "*" || cfg.LogLevel != "info" || cfg.LogDev {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Location(zap.NewNop()) != time.Local {
		t.Error("empty APP_TIMEZONE should use time.Local")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/zakfit")
	t.Setenv("API_PORT", "9000")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("RECONCILE_INTERVAL", "0")
	t.Setenv("LOG_DEV", "true")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "9000" || cfg.TokenTTL != 2*time.Hour || cfg.ReconcileInterval != 0 || !cfg.LogDev || cfg.JWTSecret != "s3cret" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/zakfit")
	t.Setenv("TOKEN_TTL", "a day")
	t.Setenv("LOG_DEV", "maybe")

	cfg, err := Load(zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TokenTTL != 24*time.Hour || cfg.LogDev {
		t.Errorf("invalid values not replaced by defaults: %+v", cfg)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(zap.NewNop()); !errors.Is(err, ErrMissingDatabaseURL) {
		t.Errorf("err = %v, want ErrMissingDatabaseURL", err)
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{TimeZone: "UTC"}
	if loc := cfg.Location(zap.NewNop()); loc.String() != "UTC" {
		t.Errorf("Location = %v", loc)
	}
	cfg.TimeZone = "Mars/Olympus"
	if loc := cfg.Location(zap.NewNop()); loc != time.Local {
		t.Errorf("invalid zone should fall back to local, got %v", loc)
	}
}
