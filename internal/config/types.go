// Package config loads and validates the server configuration from YAML,
// applies environment overrides and watches the config file for runtime
// changes.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config is the top-level configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	ABC     ABCConfig     `yaml:"abc"`
	SSE     SSEConfig     `yaml:"sse"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host,omitempty"` // Host to bind to (default: 0.0.0.0)
	Port int    `yaml:"port,omitempty"` // Listen port (default: 8000)
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ABCConfig configures the ABC system client.
type ABCConfig struct {
	BaseURL      string        `yaml:"baseUrl,omitempty"`      // ABC system base URL
	APIKey       string        `yaml:"apiKey,omitempty"`       // Bearer token, usually set via ABC_API_KEY
	Timeout      time.Duration `yaml:"timeout,omitempty"`      // Per-request timeout (default: 30s)
	MaxRetries   int           `yaml:"maxRetries,omitempty"`   // Attempts per request (default: 3)
	RetryBackoff time.Duration `yaml:"retryBackoff,omitempty"` // Initial retry delay (default: 1s)
}

// SSEConfig configures the push-channel connection manager.
type SSEConfig struct {
	HeartbeatInterval time.Duration `yaml:"heartbeatInterval,omitempty"` // Per-session heartbeat period (default: 30s)
	MaxConnections    int           `yaml:"maxConnections,omitempty"`    // Concurrent connection cap (default: 100)
	QueueSize         int           `yaml:"queueSize,omitempty"`         // Per-session event buffer (default: 64)
}

// LoggingConfig configures the log output.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // debug, info, warn or error (default: info)
}

// Default returns the built-in configuration, used as the base that file
// and environment settings overlay.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		ABC: ABCConfig{
			BaseURL:      "http://localhost:9000",
			Timeout:      30 * time.Second,
			MaxRetries:   3,
			RetryBackoff: time.Second,
		},
		SSE: SSEConfig{
			HeartbeatInterval: 30 * time.Second,
			MaxConnections:    100,
			QueueSize:         64,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for values that cannot work.
func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.ABC.BaseURL == "" {
		return fmt.Errorf("abc.baseUrl must not be empty")
	}
	if u, err := url.Parse(c.ABC.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("abc.baseUrl is not a valid URL: %s", c.ABC.BaseURL)
	}
	if c.ABC.MaxRetries < 1 {
		return fmt.Errorf("abc.maxRetries must be at least 1, got %d", c.ABC.MaxRetries)
	}
	if c.SSE.MaxConnections < 1 {
		return fmt.Errorf("sse.maxConnections must be at least 1, got %d", c.SSE.MaxConnections)
	}
	if c.SSE.HeartbeatInterval <= 0 {
		return fmt.Errorf("sse.heartbeatInterval must be positive, got %s", c.SSE.HeartbeatInterval)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}
