package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted by Load and Discover.
const (
	EnvConfig   = "HOOKCTL_CONFIG"
	EnvAPIURL   = "HOOKCTL_API_URL"
	EnvLogLevel = "HOOKCTL_LOG_LEVEL"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Defaults returns the configuration used when no file is found.
func Defaults() *Config {
	return &Config{
		API: APIConfig{
			URL:     "http://localhost:8000",
			Timeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Trigger: TriggerConfig{
			EventTypes: []string{
				"order.created",
				"order.updated",
				"order.deleted",
				"payment.succeeded",
				"payment.failed",
			},
		},
		Sink: SinkConfig{
			Listen:      "127.0.0.1:8081",
			Path:        "~/.local/share/hookctl/sink.db",
			MaxBodySize: "1MB",
		},
	}
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration at path on top of Defaults. An empty path
// yields the defaults. Environment overrides are applied last, then the
// result is validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path %q: %w", path, err)
		}

		data, err := os.ReadFile(absPath)
		if err != nil {
			return nil, fmt.Errorf("config file not found: %s\n"+
				"Hint: Check the path or run with --config flag", absPath)
		}

		if err := verifyConfigHash(absPath); err != nil {
			return nil, err
		}

		if err := yaml.Unmarshal([]byte(interpolateEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", absPath, err)
		}
		cfg.SourcePath = absPath
	}

	applyEnvOverrides(cfg)

	if err := resolve(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// interpolateEnv replaces ${VAR} with its value. Unset variables are left
// in place.
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.API.URL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = v
	}
}

// resolve fills derived fields.
func resolve(cfg *Config) error {
	cfg.API.URL = strings.TrimRight(strings.TrimSpace(cfg.API.URL), "/")
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))

	path, err := expandHome(cfg.Sink.Path)
	if err != nil {
		return err
	}
	cfg.Sink.Path = path

	size, err := ParseByteSize(cfg.Sink.MaxBodySize)
	if err != nil {
		return fmt.Errorf("sink.max_body_size: %w", err)
	}
	cfg.Sink.MaxBodyBytes = size
	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand %q: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	u, err := url.Parse(cfg.API.URL)
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("api.url must be an absolute http(s) URL (got %q)", cfg.API.URL)
	}
	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Log.Level] {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error (got %q)", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("log.format must be one of: json, text (got %q)", cfg.Log.Format)
	}

	if cfg.Sink.Listen == "" {
		return fmt.Errorf("sink.listen is required")
	}
	seen := make(map[int64]bool, len(cfg.Sink.Subscriptions))
	for i, sub := range cfg.Sink.Subscriptions {
		if sub.ID <= 0 {
			return fmt.Errorf("sink.subscriptions[%d]: id must be positive", i)
		}
		if seen[sub.ID] {
			return fmt.Errorf("sink.subscriptions[%d]: duplicate id %d", i, sub.ID)
		}
		seen[sub.ID] = true
	}
	return nil
}

// CheckSecrets reports subscriptions whose secret still holds an
// uninterpolated ${VAR}. The sink checks this at startup; Load does not.
func (s SinkConfig) CheckSecrets() error {
	for _, sub := range s.Subscriptions {
		if envVarPattern.MatchString(sub.Secret) {
			return fmt.Errorf("sink subscription %d: secret references unset variable %s", sub.ID, sub.Secret)
		}
	}
	return nil
}
