package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/caarlos0/env/v11"
)

// Config holds the file server settings. Environment variables provide the
// defaults; command line flags override them.
type Config struct {
	Host             string `env:"HOST" envDefault:"0.0.0.0"`
	Port             int    `env:"PORT" envDefault:"0"`
	Threads          int    `env:"THREADS" envDefault:"2"`
	Storage          string `env:"STORAGE"`
	AccessConfig     string `env:"ACCESS_CONFIG"`
	LogPath          string `env:"LOG"`
	LogHeaders       bool   `env:"LOG_HEADERS"`
	FlushLog         bool   `env:"SHOULD_FLUSH_LOG"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	BodyLimit        int    `env:"BODY_LIMIT" envDefault:"1073741824"`
	Realm            string `env:"REALM" envDefault:"Test"`
	ShutdownTimeoutS int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
}

// EnvPrefix is prepended to every variable name, e.g. FILESERVER_THREADS.
const EnvPrefix = "FILESERVER_"

// ParseEnv loads configuration from environment variables.
func ParseEnv() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks the settings that have no safe fallback.
func (c Config) Validate() error {
	var errs []error
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Threads < 1 {
		errs = append(errs, fmt.Errorf("threads must be at least 1, got %d", c.Threads))
	}
	if c.Storage == "" {
		errs = append(errs, errors.New("storage path is required"))
	}
	if c.BodyLimit < 1 {
		errs = append(errs, fmt.Errorf("body limit must be positive, got %d", c.BodyLimit))
	}
	return errors.Join(errs...)
}
