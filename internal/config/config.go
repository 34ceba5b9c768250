package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	SyncModeLoopback = "loopback"
	SyncModeLocal    = "local"

	AllocatorMax       = "max"
	AllocatorMonotonic = "monotonic"
)

type Config struct {
	Port    string `envconfig:"PORT" default:"8080"`
	SelfURL string `envconfig:"SELF_URL" default:"http://localhost:8080"`

	SyncMode    string        `envconfig:"SYNC_MODE" default:"loopback"`
	SyncTimeout time.Duration `envconfig:"SYNC_TIMEOUT" default:"3s"`
	SyncRetries int           `envconfig:"SYNC_RETRIES" default:"2"`
	SyncBackoff time.Duration `envconfig:"SYNC_BACKOFF" default:"100ms"`

	IDAllocator string `envconfig:"ID_ALLOCATOR" default:"max"`

	CORSOrigin      string `envconfig:"CORS_ORIGIN" default:"http://localhost:5173"`
	MetricsEnabled  bool   `envconfig:"METRICS_ENABLED" default:"true"`
	MetricsToken    string `envconfig:"METRICS_TOKEN"`
	RateLimitPerMin int    `envconfig:"RATE_LIMIT_PER_MIN" default:"0"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over .env entries.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	c.SyncMode = strings.ToLower(strings.TrimSpace(c.SyncMode))
	c.IDAllocator = strings.ToLower(strings.TrimSpace(c.IDAllocator))
	c.SelfURL = strings.TrimRight(c.SelfURL, "/")

	switch c.SyncMode {
	case SyncModeLoopback, SyncModeLocal:
	default:
		return fmt.Errorf("SYNC_MODE: unknown mode %q", c.SyncMode)
	}
	switch c.IDAllocator {
	case AllocatorMax, AllocatorMonotonic:
	default:
		return fmt.Errorf("ID_ALLOCATOR: unknown allocator %q", c.IDAllocator)
	}
	if c.SyncMode == SyncModeLoopback && c.SelfURL == "" {
		return errors.New("SELF_URL is required in loopback mode")
	}
	if c.SyncTimeout <= 0 {
		return errors.New("SYNC_TIMEOUT must be positive")
	}
	if c.SyncRetries < 0 {
		return errors.New("SYNC_RETRIES must not be negative")
	}
	if c.RateLimitPerMin < 0 {
		return errors.New("RATE_LIMIT_PER_MIN must not be negative")
	}
	return nil
}

func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}
