package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var managedKeys = []string{
	"APP_ENV", "PORT", "DB_PATH", "ADMIN_EMAIL", "ADMIN_PASSWORD", "SESSION_SECRET",
	"ASSETS_DIR", "FONT_DIR", "LOG_FORMAT", "LOG_LEVEL", "REDIS_URL", "RATE_URL",
	"RATE_CACHE_TTL", "METRICS_NAMESPACE",
}

// clearEnv unsets every key Load reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedKeys {
		t.Setenv(k, "")
		if err := os.Unsetenv(k); err != nil {
			t.Fatalf("unset %s: %v", k, err)
		}
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.DBPath != defaultDBPath || cfg.Port != defaultPort {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RateCacheTTL != time.Hour {
		t.Fatalf("RateCacheTTL=%v, want 1h", cfg.RateCacheTTL)
	}
	if !cfg.IsDev() {
		t.Fatalf("expected development by default")
	}
	if got := len(cfg.Warnings()); got != 3 {
		t.Fatalf("expected 3 warnings, got %d", got)
	}
}

func TestLoadFrom_ReadsDotEnvWithoutOverriding(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")

	path := filepath.Join(t.TempDir(), ".env")
	content := []byte(`
# comment
PORT=7000
export DB_PATH=/tmp/q.db
ADMIN_EMAIL="admin@example.com"
RATE_CACHE_TTL='15m'
APP_ENV=production
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Port != "9000" {
		t.Fatalf("PORT=%q, environment should win", cfg.Port)
	}
	if cfg.DBPath != "/tmp/q.db" {
		t.Fatalf("DB_PATH=%q", cfg.DBPath)
	}
	if cfg.AdminEmail != "admin@example.com" {
		t.Fatalf("ADMIN_EMAIL=%q", cfg.AdminEmail)
	}
	if cfg.RateCacheTTL != 15*time.Minute {
		t.Fatalf("RATE_CACHE_TTL=%v", cfg.RateCacheTTL)
	}
	if cfg.IsDev() {
		t.Fatalf("production must not be dev")
	}
	if cfg.HTTPAddr() != ":9000" {
		t.Fatalf("HTTPAddr=%q", cfg.HTTPAddr())
	}
}

func TestParseDuration_FallsBack(t *testing.T) {
	if got := parseDuration("soon", "2m"); got != 2*time.Minute {
		t.Fatalf("got %v", got)
	}
}
