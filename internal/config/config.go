package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/neexbeast/weather-archive/internal/openmeteo"
)

// Storage backends.
const (
	BackendGCS      = "gcs"
	BackendPostgres = "postgres"
)

// Config holds every setting the server reads from the environment.
type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	StorageBackend               string `envconfig:"STORAGE_BACKEND" default:"gcs"`
	GCSBucketName                string `envconfig:"GCS_BUCKET_NAME"`
	GoogleApplicationCredentials string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
	DatabaseURL                  string `envconfig:"DATABASE_URL"`
	MigrationsDir                string `envconfig:"MIGRATIONS_DIR" default:"migrations"`

	RedisURL string `envconfig:"REDIS_URL"`

	ArchiveURL          string        `envconfig:"OPEN_METEO_ARCHIVE_URL" default:"https://archive-api.open-meteo.com/v1/archive"`
	UpstreamTimeout     time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s"`
	UpstreamMaxAttempts int           `envconfig:"UPSTREAM_MAX_ATTEMPTS" default:"5"`
	UpstreamBackoff     time.Duration `envconfig:"UPSTREAM_BACKOFF" default:"200ms"`
	UpstreamRPS         float64       `envconfig:"UPSTREAM_RPS" default:"10"`
	UpstreamBurst       int           `envconfig:"UPSTREAM_BURST" default:"5"`
	BreakerFailures     uint32        `envconfig:"BREAKER_FAILURES" default:"5"`
	BreakerTimeout      time.Duration `envconfig:"BREAKER_TIMEOUT" default:"30s"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// Load reads an optional .env file, then the process environment.
// Variables already set in the environment win over .env entries.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv reads the process environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings each storage backend depends on.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendGCS:
		if c.GCSBucketName == "" {
			return errors.New("GCS_BUCKET_NAME must be set when STORAGE_BACKEND=gcs")
		}
		if c.GoogleApplicationCredentials == "" {
			return errors.New("GOOGLE_APPLICATION_CREDENTIALS must be set when STORAGE_BACKEND=gcs")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL must be set when STORAGE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (want %s or %s)", c.StorageBackend, BackendGCS, BackendPostgres)
	}

	if c.UpstreamMaxAttempts < 1 {
		return fmt.Errorf("UPSTREAM_MAX_ATTEMPTS must be at least 1, got %d", c.UpstreamMaxAttempts)
	}
	if c.UpstreamBackoff <= 0 {
		return fmt.Errorf("UPSTREAM_BACKOFF must be positive, got %s", c.UpstreamBackoff)
	}
	return nil
}

// Upstream returns the archive client settings.
func (c *Config) Upstream() openmeteo.Config {
	return openmeteo.Config{
		BaseURL:         c.ArchiveURL,
		Timeout:         c.UpstreamTimeout,
		MaxAttempts:     c.UpstreamMaxAttempts,
		Backoff:         c.UpstreamBackoff,
		RPS:             c.UpstreamRPS,
		Burst:           c.UpstreamBurst,
		BreakerFailures: c.BreakerFailures,
		BreakerTimeout:  c.BreakerTimeout,
	}
}
