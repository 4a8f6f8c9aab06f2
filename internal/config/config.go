package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"invoiceguard/internal/logger"
)

// Store backends.
const (
	BackendJSON   = "json"
	BackendSqlite = "sqlite"
)

// Config is the environment-driven application configuration.
type Config struct {
	// Historical invoice store
	StoreBackend string `envconfig:"STORE_BACKEND" default:"json"`
	StorePath    string `envconfig:"STORE_PATH" default:"invoices_db.json"`

	// Advisory hook (optional; analysis degrades gracefully without it)
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel  string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`

	// Ledger watcher
	PaymentEventsFile string `envconfig:"PAYMENT_EVENTS_FILE"`

	// Report sink
	ReportDir string `envconfig:"REPORT_DIR" default:"."`

	// Logging
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat     string `envconfig:"LOG_FORMAT" default:"console"`
	LogTimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02T15:04:05Z07:00"`
	LogOutput     string `envconfig:"LOG_OUTPUT" default:"stdout"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to read configuration from environment: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.StoreBackend != BackendJSON && c.StoreBackend != BackendSqlite {
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendJSON, BackendSqlite, c.StoreBackend)
	}
	if c.StorePath == "" {
		return fmt.Errorf("STORE_PATH is required")
	}
	return nil
}

// AdvisoryEnabled reports whether the advisory hook is configured.
func (c *Config) AdvisoryEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// GetLoggerConfig returns a logger configuration from the main config.
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}
