package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rotisserie/eris"
)

const (
	defaultDBPath    = "./koshtorys.db"
	defaultPort      = "8080"
	defaultAssetsDir = "./assets"
	defaultFontDir   = "./fonts"
	defaultRateURL   = "https://bank.gov.ua/NBUStatService/v1/statdirectory/exchange?valcode=USD&json"
	defaultRateTTL   = "1h"
	defaultNamespace = "koshtorys"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	AppEnv        string
	Port          string
	DBPath        string
	AdminEmail    string
	AdminPassword string
	SessionSecret string

	// AssetsDir holds the background templates.
	AssetsDir string
	FontDir   string

	LogFormat string
	LogLevel  string

	// RedisURL is optional; without it exchange rates are not cached.
	RedisURL         string
	RateURL          string
	RateCacheTTL     time.Duration
	MetricsNamespace string
}

// Load reads .env (when present) and the process environment.
func Load() (Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit dotenv path. Variables already present
// in the environment win over the file; a missing file is not an error.
func LoadFrom(dotenv string) (Config, error) {
	_ = godotenv.Load(dotenv)

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return Config{}, eris.Wrap(err, "load env")
	}

	cfg := Config{
		AppEnv:           valueOrDefault(k.String("APP_ENV"), "development"),
		Port:             valueOrDefault(k.String("PORT"), defaultPort),
		DBPath:           valueOrDefault(k.String("DB_PATH"), defaultDBPath),
		AdminEmail:       strings.TrimSpace(k.String("ADMIN_EMAIL")),
		AdminPassword:    k.String("ADMIN_PASSWORD"),
		SessionSecret:    k.String("SESSION_SECRET"),
		AssetsDir:        valueOrDefault(k.String("ASSETS_DIR"), defaultAssetsDir),
		FontDir:          valueOrDefault(k.String("FONT_DIR"), defaultFontDir),
		LogFormat:        valueOrDefault(k.String("LOG_FORMAT"), "json"),
		LogLevel:         valueOrDefault(k.String("LOG_LEVEL"), "info"),
		RedisURL:         strings.TrimSpace(k.String("REDIS_URL")),
		RateURL:          valueOrDefault(k.String("RATE_URL"), defaultRateURL),
		RateCacheTTL:     parseDuration(k.String("RATE_CACHE_TTL"), defaultRateTTL),
		MetricsNamespace: valueOrDefault(k.String("METRICS_NAMESPACE"), defaultNamespace),
	}
	return cfg, nil
}

// IsDev reports whether the app runs in a development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(strings.TrimSpace(c.AppEnv)) {
	case "", "dev", "development", "local":
		return true
	}
	return false
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = defaultPort
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// Warnings lists settings that are missing but not fatal.
func (c Config) Warnings() []string {
	var out []string
	if c.AdminEmail == "" {
		out = append(out, "ADMIN_EMAIL is not set")
	}
	if c.AdminPassword == "" {
		out = append(out, "ADMIN_PASSWORD is not set")
	}
	if c.SessionSecret == "" {
		out = append(out, "SESSION_SECRET is not set")
	}
	return out
}

func valueOrDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}
