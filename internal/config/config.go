// Package config reads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/thereceipt/label-engine/internal/export"
	"github.com/thereceipt/label-engine/internal/layout"
)

// Config holds runtime configuration for the service and CLI.
type Config struct {
	AppEnv    string `envconfig:"APP_ENV" default:"development"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	Addr            string        `envconfig:"LABEL_ADDR" default:":12212"`
	ShutdownTimeout time.Duration `envconfig:"LABEL_SHUTDOWN_TIMEOUT" default:"10s"`

	PixelsPerMM  float64 `envconfig:"LABEL_PIXELS_PER_MM" default:"8"`
	Currency     string  `envconfig:"LABEL_CURRENCY" default:"S/"`
	PageWidth    float64 `envconfig:"LABEL_PAGE_WIDTH_MM" default:"210"`
	PageHeight   float64 `envconfig:"LABEL_PAGE_HEIGHT_MM" default:"297"`
	PageMargin   float64 `envconfig:"LABEL_PAGE_MARGIN_MM" default:"10"`
	FooterFormat string  `envconfig:"LABEL_FOOTER_FORMAT" default:"page %d of %d"`

	// CatalogPath is a .json file or a SQLite database.
	CatalogPath  string `envconfig:"LABEL_CATALOG" default:"products.json"`
	RegistryPath string `envconfig:"LABEL_PRINTERS" default:"printers.json"`

	MaxRetries int           `envconfig:"LABEL_MAX_RETRIES" default:"3"`
	RetryDelay time.Duration `envconfig:"LABEL_RETRY_DELAY" default:"2s"`
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.PixelsPerMM <= 0 {
		return errors.New("LABEL_PIXELS_PER_MM must be positive")
	}
	if c.PageWidth <= 0 || c.PageHeight <= 0 || c.PageMargin < 0 {
		return errors.New("page dimensions must be positive")
	}
	if c.MaxRetries < 0 {
		return errors.New("LABEL_MAX_RETRIES must not be negative")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// Export returns the pipeline settings.
func (c *Config) Export() export.Config {
	return export.Config{
		PixelsPerMM:  c.PixelsPerMM,
		Currency:     c.Currency,
		Geometry:     layout.PageGeometry{Width: c.PageWidth, Height: c.PageHeight, Margin: c.PageMargin},
		FooterFormat: c.FooterFormat,
	}
}
