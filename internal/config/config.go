// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DatabasePostgres = "postgres"
	DatabaseMySQL    = "mysql"
	DatabaseSQLite   = "sqlite"
	DatabaseMemory   = "memory"
)

type Config struct {
	HTTPAddr string

	DatabaseType string
	DatabaseURL  string

	JWTSecret       string
	GoogleClientID  string
	AuthRedirectURL string
	CookieDomain    string
	CookieSameSite  http.SameSite

	CORSAllowedOrigins []string

	RedisAddr    string
	VoteGuardTTL time.Duration

	Location     *time.Location
	ListLimit    int
	MaxListLimit int

	LogLevel    string
	LogFormat   string
	SlowRequest time.Duration
}

var keys = []string{
	"http_addr",
	"database_type", "database_url",
	"postgres_host", "postgres_port", "postgres_user", "postgres_password", "postgres_db",
	"jwt_secret", "google_client_id", "auth_redirect_url", "cookie_domain", "cookie_samesite",
	"cors_allowed_origins",
	"redis_addr", "vote_guard_ttl",
	"time_zone", "list_limit", "max_list_limit",
	"log_level", "log_format", "slow_request",
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()
	return FromViper(NewViper())
}

// NewViper returns a viper instance bound to the environment with defaults.
func NewViper() *viper.Viper {
	v := viper.New()
	for _, k := range keys {
		_ = v.BindEnv(k, strings.ToUpper(k))
	}

	v.SetDefault("http_addr", "0.0.0.0:8080")
	v.SetDefault("database_type", DatabasePostgres)
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", "5432")
	v.SetDefault("auth_redirect_url", "/")
	v.SetDefault("cookie_samesite", "lax")
	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("vote_guard_ttl", "10m")
	v.SetDefault("time_zone", "UTC")
	v.SetDefault("list_limit", 5)
	v.SetDefault("max_list_limit", 100)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("slow_request", "500ms")
	return v
}

// FromViper builds and validates a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		HTTPAddr:        v.GetString("http_addr"),
		DatabaseType:    strings.ToLower(v.GetString("database_type")),
		DatabaseURL:     v.GetString("database_url"),
		JWTSecret:       v.GetString("jwt_secret"),
		GoogleClientID:  v.GetString("google_client_id"),
		AuthRedirectURL: v.GetString("auth_redirect_url"),
		CookieDomain:    v.GetString("cookie_domain"),
		RedisAddr:       v.GetString("redis_addr"),
		ListLimit:       v.GetInt("list_limit"),
		MaxListLimit:    v.GetInt("max_list_limit"),
		LogLevel:        v.GetString("log_level"),
		LogFormat:       v.GetString("log_format"),
	}

	var err error
	if cfg.VoteGuardTTL, err = time.ParseDuration(v.GetString("vote_guard_ttl")); err != nil {
		return nil, fmt.Errorf("invalid VOTE_GUARD_TTL: %w", err)
	}
	if cfg.SlowRequest, err = time.ParseDuration(v.GetString("slow_request")); err != nil {
		return nil, fmt.Errorf("invalid SLOW_REQUEST: %w", err)
	}
	if cfg.Location, err = time.LoadLocation(v.GetString("time_zone")); err != nil {
		return nil, fmt.Errorf("invalid TIME_ZONE: %w", err)
	}
	if cfg.CookieSameSite, err = parseSameSite(v.GetString("cookie_samesite")); err != nil {
		return nil, err
	}
	cfg.CORSAllowedOrigins = splitList(v.GetString("cors_allowed_origins"))

	switch cfg.DatabaseType {
	case DatabasePostgres:
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
				v.GetString("postgres_user"), v.GetString("postgres_password"),
				v.GetString("postgres_host"), v.GetString("postgres_port"), v.GetString("postgres_db"))
		}
	case DatabaseMySQL:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for mysql")
		}
	case DatabaseSQLite:
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = "file:pollsite.db"
		}
	case DatabaseMemory:
	default:
		return nil, fmt.Errorf("unsupported DATABASE_TYPE %q", cfg.DatabaseType)
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.ListLimit <= 0 {
		return nil, errors.New("LIST_LIMIT must be positive")
	}
	if cfg.MaxListLimit < cfg.ListLimit {
		return nil, errors.New("MAX_LIST_LIMIT must not be lower than LIST_LIMIT")
	}

	return cfg, nil
}

// Now returns the current time in the configured location.
func (c *Config) Now() time.Time {
	return time.Now().In(c.Location)
}

func parseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lax", "":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("invalid COOKIE_SAMESITE %q", s)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
