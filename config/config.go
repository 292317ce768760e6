// Package config loads the process configuration from the environment.
// Every knob lives under the URLSAVE_ prefix and carries a default that
// matches the behavior of an unconfigured server.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full set of process-level knobs. The base-directory keys
// are deliberately absent: the path policy reads those live per request,
// not from a boot-time snapshot.
type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// HTTP transport.
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"5s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s"`
	IdleTimeout     time.Duration `envconfig:"IDLE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"20s"`
	TLSCertFile     string        `envconfig:"TLS_CERT_FILE"`
	TLSKeyFile      string        `envconfig:"TLS_KEY_FILE"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS"`

	// Protocol sessions.
	SessionIdleTimeout time.Duration `envconfig:"SESSION_IDLE_TIMEOUT" default:"30m"`
	SSEKeepalive       time.Duration `envconfig:"SSE_KEEPALIVE" default:"30s"`

	// Outbound transfers. A zero FetchTimeout means no deadline; throttling
	// is off until both RPS and burst are positive.
	FetchTimeout  time.Duration `envconfig:"FETCH_TIMEOUT" default:"0"`
	UserAgent     string        `envconfig:"USER_AGENT" default:"urlsave"`
	ThrottleRPS   int           `envconfig:"THROTTLE_RPS" default:"0"`
	ThrottleBurst int           `envconfig:"THROTTLE_BURST" default:"0"`
	ProgressLogs  bool          `envconfig:"PROGRESS_LOGS" default:"false"`
}

// Load reads the URLSAVE_-prefixed environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("urlsave", &cfg); err != nil {
		return Config{}, fmt.Errorf("processing environment: %w", err)
	}

	return cfg, nil
}

// Level maps the configured log level onto slog's scale. Unknown values
// fall back to info rather than failing startup.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
