package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MemoryDatabaseURL selects the in-memory store instead of PostgreSQL.
const MemoryDatabaseURL = "memory:"

type Config struct {
	Port             string
	DatabaseURL      string
	JWTSecret        string
	TokenTTL         time.Duration
	MaxContentBytes  int
	CORSOrigins      []string
	LogLevel         string
	DBConnectRetries int
}

// Load reads configuration from the environment, after loading .env if one
// exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (*Config, error) {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Port:        env("PORT", "8080"),
		DatabaseURL: env("DATABASE_URL", ""),
		JWTSecret:   env("JWT_SECRET", ""),
		LogLevel:    env("LOG_LEVEL", "info"),
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	if cfg.DatabaseURL == "" {
		host := env("host", "")
		if host == "" {
			return nil, errors.New("DATABASE_URL or host/user/password/port/dbname is required")
		}
		cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			env("user", ""), env("password", ""), host, env("port", "5432"), env("dbname", ""), env("sslmode", "require"))
	}

	var err error
	if cfg.TokenTTL, err = time.ParseDuration(env("TOKEN_TTL", "24h")); err != nil || cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("invalid TOKEN_TTL %q", getenv("TOKEN_TTL"))
	}
	if cfg.MaxContentBytes, err = strconv.Atoi(env("MAX_CONTENT_BYTES", "1048576")); err != nil || cfg.MaxContentBytes <= 0 {
		return nil, fmt.Errorf("invalid MAX_CONTENT_BYTES %q", getenv("MAX_CONTENT_BYTES"))
	}
	if cfg.DBConnectRetries, err = strconv.Atoi(env("DB_CONNECT_RETRIES", "5")); err != nil || cfg.DBConnectRetries < 1 {
		return nil, fmt.Errorf("invalid DB_CONNECT_RETRIES %q", getenv("DB_CONNECT_RETRIES"))
	}

	for _, origin := range strings.Split(env("CORS_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}
	return cfg, nil
}

func (c *Config) UseMemoryStore() bool {
	return c.DatabaseURL == MemoryDatabaseURL
}
