// Package env reads the module configuration from environment variables.
package env

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"github.com/grafana/xk6-webdriver/log"
	"github.com/grafana/xk6-webdriver/trace"
)

// DefaultServerURL is the address of a Selenium server running locally.
const DefaultServerURL = "http://localhost:4444/wd/hub"

// Config is the environment configuration.
type Config struct {
	// ServerURL is the remote end sessions are opened on.
	ServerURL string `envconfig:"SELENIUM_SERVER_URL" default:"http://localhost:4444/wd/hub"`
	// Debug turns on debug logging.
	Debug bool `envconfig:"WEBDRIVER_DEBUG" default:"false"`
	// WaitTimeout is used by waits called without a timeout.
	WaitTimeout time.Duration `envconfig:"WEBDRIVER_WAIT_TIMEOUT" default:"5s"`
	// LogCategoryFilter only lets log entries of matching categories through.
	LogCategoryFilter string `envconfig:"WEBDRIVER_LOG_CATEGORY_FILTER"`

	// TracesEndpoint is the OTLP collector spans are exported to. Tracing is
	// off when empty.
	TracesEndpoint string `envconfig:"WEBDRIVER_TRACES_ENDPOINT"`
	TracesProtocol string `envconfig:"WEBDRIVER_TRACES_PROTOCOL" default:"http"`
	TracesInsecure bool   `envconfig:"WEBDRIVER_TRACES_INSECURE" default:"false"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if c.ServerURL == "" {
		c.ServerURL = DefaultServerURL
	}
	if c.WaitTimeout <= 0 {
		return nil, fmt.Errorf("WEBDRIVER_WAIT_TIMEOUT must be positive, got %s", c.WaitTimeout)
	}
	return &c, nil
}

// NewLogger returns a logger writing to stderr, at debug level and with
// colored categories when debugging is on.
func (c *Config) NewLogger() (*log.Logger, error) {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	logger := log.New(l, nil)

	if err := logger.SetCategoryFilter(c.LogCategoryFilter); err != nil {
		return nil, err
	}
	if c.Debug {
		logger.Logger.SetLevel(logrus.DebugLevel)
		logger.EnableColor()
	}

	return logger, nil
}

// NewTraceProvider returns the provider spans are exported with, a noop one
// unless TracesEndpoint is set.
func (c *Config) NewTraceProvider(ctx context.Context) (trace.TraceProvider, error) {
	if c.TracesEndpoint == "" {
		return trace.NewNoopTraceProvider(), nil
	}
	tp, err := trace.NewTraceProvider(ctx, c.TracesProtocol, c.TracesEndpoint, c.TracesInsecure)
	if err != nil {
		return nil, fmt.Errorf("creating trace provider: %w", err)
	}
	return tp, nil
}
