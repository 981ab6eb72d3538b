package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("JWT_ACCESS_TTL_MINUTES", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg := Load()

	if cfg.Env != "dev" || cfg.DBDriver != DriverPostgres {
		t.Fatalf("unexpected defaults: env=%q driver=%q", cfg.Env, cfg.DBDriver)
	}
	if cfg.AccessTTL() != time.Hour {
		t.Fatalf("AccessTTL = %v, want 1h", cfg.AccessTTL())
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("CORS default = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_SEED", "true")
	t.Setenv("AUTH_RATE_LIMIT", "not-a-number")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Fatalf("Port = %d", cfg.Port)
	}
	if cfg.DBDriver != DriverSQLite {
		t.Fatalf("DBDriver = %q", cfg.DBDriver)
	}
	if !cfg.DBSeed {
		t.Fatalf("DBSeed should be true")
	}
	if cfg.AuthRateLimit != 10 {
		t.Fatalf("invalid int should fall back to default, got %d", cfg.AuthRateLimit)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("CORS origins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestValidate(t *testing.T) {
	base := Config{Env: "dev", DBDriver: DriverSQLite, JWTSecret: defaultJWTSecret, JWTAccessTTLMinutes: 60}

	if err := base.Validate(); err != nil {
		t.Fatalf("dev config should validate: %v", err)
	}

	prod := base
	prod.Env = "prod"
	if err := prod.Validate(); err == nil {
		t.Fatalf("prod with default secret should fail")
	}

	prod.JWTSecret = "a-real-secret"
	if err := prod.Validate(); err != nil {
		t.Fatalf("prod with secret should validate: %v", err)
	}

	bad := base
	bad.DBDriver = "mysql"
	if err := bad.Validate(); err == nil {
		t.Fatalf("unknown driver should fail")
	}
}
