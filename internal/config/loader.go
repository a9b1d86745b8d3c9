package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"opscheck/pkg/logging"

	"gopkg.in/yaml.v3"
)

// Load reads the configuration file at path, overlaying it on the built-in
// defaults and then applying environment overrides. A missing file is not
// an error; the defaults plus environment are used.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No config file at %s, using defaults", path)
		} else {
			return Config{}, fmt.Errorf("reading config from %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config from %s: %w", path, err)
		}
		logging.Info("ConfigLoader", "Loaded configuration from %s", path)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables on the loaded configuration.
// Environment settings win over file settings so deployments can override
// without editing the file.
func applyEnv(cfg *Config) {
	setString(&cfg.Server.Host, "SERVER_HOST")
	setInt(&cfg.Server.Port, "SERVER_PORT")

	setString(&cfg.ABC.BaseURL, "ABC_SYSTEM_BASE_URL")
	setString(&cfg.ABC.APIKey, "ABC_API_KEY")
	setDuration(&cfg.ABC.Timeout, "ABC_TIMEOUT")
	setInt(&cfg.ABC.MaxRetries, "ABC_MAX_RETRIES")

	setDuration(&cfg.SSE.HeartbeatInterval, "SSE_HEARTBEAT_INTERVAL")
	setInt(&cfg.SSE.MaxConnections, "SSE_MAX_CONNECTIONS")

	setString(&cfg.Logging.Level, "LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logging.Warn("ConfigLoader", "Ignoring %s=%q: not an integer", key, v)
		return
	}
	*dst = n
}

func setDuration(dst *time.Duration, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logging.Warn("ConfigLoader", "Ignoring %s=%q: not a duration", key, v)
		return
	}
	*dst = d
}
