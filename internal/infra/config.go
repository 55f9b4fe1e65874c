package infra

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv          string   `envconfig:"APP_ENV" default:"development"`
	Port            string   `envconfig:"PORT" default:"8080"`
	DatabaseURL     string   `envconfig:"DATABASE_URL"`
	DBMaxConns      int32    `envconfig:"DB_MAX_CONNS" default:"10"`
	JWTSecret       string   `envconfig:"JWT_SECRET"`
	StoreDriver     string   `envconfig:"STORE_DRIVER" default:"postgres"`
	TZOffsetMinutes int      `envconfig:"TZ_OFFSET_MINUTES" default:"540"`
	CORSOrigins     []string `envconfig:"CORS_ORIGINS"`
	RateLimitPerMin int      `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`

	HTTPReadTimeoutSeconds  int `envconfig:"HTTP_READ_TIMEOUT_SECONDS" default:"15"`
	HTTPWriteTimeoutSeconds int `envconfig:"HTTP_WRITE_TIMEOUT_SECONDS" default:"30"`
	HTTPIdleTimeoutSeconds  int `envconfig:"HTTP_IDLE_TIMEOUT_SECONDS" default:"60"`

	HTTPReadTimeout  time.Duration `ignored:"true"`
	HTTPWriteTimeout time.Duration `ignored:"true"`
	HTTPIdleTimeout  time.Duration `ignored:"true"`
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.HTTPReadTimeout = time.Duration(cfg.HTTPReadTimeoutSeconds) * time.Second
	cfg.HTTPWriteTimeout = time.Duration(cfg.HTTPWriteTimeoutSeconds) * time.Second
	cfg.HTTPIdleTimeout = time.Duration(cfg.HTTPIdleTimeoutSeconds) * time.Second
	cfg.CORSOrigins = trimAll(cfg.CORSOrigins)

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	case StoreDriverMemory:
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.TZOffsetMinutes < -14*60 || cfg.TZOffsetMinutes > 14*60 {
		return nil, fmt.Errorf("TZ_OFFSET_MINUTES out of range: %d", cfg.TZOffsetMinutes)
	}

	return &cfg, nil
}

// TZOffset returns the business timezone offset.
func (c *Config) TZOffset() time.Duration {
	return time.Duration(c.TZOffsetMinutes) * time.Minute
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
