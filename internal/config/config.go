package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the voice service.
type Config struct {
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"voice-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"3000"`
	MetricsPort     int           `env:"METRICS_PORT" envDefault:"9099"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Understanding engine (OpenAI-compatible chat completions).
	EngineAPIKey      string        `env:"ENGINE_API_KEY"`
	EngineBaseURL     string        `env:"ENGINE_BASE_URL" envDefault:""`
	EngineModel       string        `env:"ENGINE_MODEL" envDefault:"gpt-4o-mini"`
	EngineTemperature float64       `env:"ENGINE_TEMPERATURE" envDefault:"0.2"`
	EngineTimeout     time.Duration `env:"ENGINE_TIMEOUT" envDefault:"45s"`

	// Conversation behavior.
	SessionWindow     int    `env:"SESSION_WINDOW" envDefault:"24"`
	DefaultSessionID  string `env:"DEFAULT_SESSION_ID" envDefault:"default-session"`
	LanguageSelection bool   `env:"LANGUAGE_SELECTION" envDefault:"true"`
	MaxStalledTurns   int    `env:"MAX_STALLED_TURNS" envDefault:"5"`

	// Business-record hand-off. Empty disables the hand-off.
	RecordsBaseURL string        `env:"RECORDS_BASE_URL" envDefault:""`
	RecordsTimeout time.Duration `env:"RECORDS_TIMEOUT" envDefault:"10s"`

	AuthEnabled  bool   `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer   string `env:"AUTH_ISSUER"`
	AuthAudience string `env:"AUTH_AUDIENCE"`
	AuthJWKSURL  string `env:"AUTH_JWKS_URL"`
}

// Load parses environment variables into Config and validates them.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	if strings.TrimSpace(cfg.EngineAPIKey) == "" {
		return nil, fmt.Errorf("ENGINE_API_KEY is required")
	}
	if cfg.SessionWindow < 2 {
		return nil, fmt.Errorf("SESSION_WINDOW must be at least 2, got %d", cfg.SessionWindow)
	}

	if cfg.AuthEnabled {
		if strings.TrimSpace(cfg.AuthIssuer) == "" {
			return nil, fmt.Errorf("AUTH_ISSUER is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.AuthAudience) == "" {
			return nil, fmt.Errorf("AUTH_AUDIENCE is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.AuthJWKSURL) == "" {
			return nil, fmt.Errorf("AUTH_JWKS_URL is required when AUTH_ENABLED is true")
		}
	}

	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// MetricsAddr returns the metrics listen address.
func (c *Config) MetricsAddr() string {
	return fmt.Sprintf(":%d", c.MetricsPort)
}
