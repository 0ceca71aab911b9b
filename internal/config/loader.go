package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/mattjoyce/bubot/internal/protocol"
	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// envOverlay holds the BUBOT_* variables that override file values.
type envOverlay struct {
	WebhookSecret string `envconfig:"WEBHOOK_SECRET"`
	N8NURL        string `envconfig:"N8N_URL"`
	Listen        string `envconfig:"LISTEN"`
	LogLevel      string `envconfig:"LOG_LEVEL"`
	StatePath     string `envconfig:"STATE_PATH"`
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from configPath, which may be a YAML file or a
// directory containing config.yaml. An empty path uses defaults. The BUBOT_*
// environment is applied last.
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	if configPath != "" {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
		}

		info, err := os.Stat(absPath)
		if err != nil {
			return nil, fmt.Errorf("config file not found: %s\n"+
				"Hint: Check the path or run with --config flag", absPath)
		}
		if info.IsDir() {
			absPath = filepath.Join(absPath, "config.yaml")
			if _, err := os.Stat(absPath); err != nil {
				return nil, fmt.Errorf("directory provided but config.yaml not found: %s", absPath)
			}
		}

		fileCfg, err := loadConfigFile(absPath)
		if err != nil {
			return nil, err
		}
		cfg = applyConfigDefaults(fileCfg)
	}

	if err := applyEnvOverlay(cfg); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadConfigFile loads and parses a single config file.
func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	interpolated := interpolateEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(interpolated), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &cfg, nil
}

func applyEnvOverlay(cfg *Config) error {
	var env envOverlay
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	if env.WebhookSecret != "" {
		cfg.Webhook.Secret = env.WebhookSecret
	}
	if env.N8NURL != "" {
		cfg.N8N.URL = env.N8NURL
	}
	if env.Listen != "" {
		cfg.Webhook.Listen = env.Listen
	}
	if env.LogLevel != "" {
		cfg.Service.LogLevel = strings.ToLower(env.LogLevel)
	}
	if env.StatePath != "" {
		cfg.State.Path = env.StatePath
	}
	return nil
}

// applyConfigDefaults merges default values into config where not explicitly set.
func applyConfigDefaults(cfg *Config) *Config {
	defaults := Defaults()

	if cfg.Service.Name == "" {
		cfg.Service.Name = defaults.Service.Name
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = defaults.Service.LogLevel
	}
	if cfg.Service.LogFormat == "" {
		cfg.Service.LogFormat = defaults.Service.LogFormat
	}
	if cfg.State.Path == "" {
		cfg.State.Path = defaults.State.Path
	}
	if cfg.Webhook.Listen == "" {
		cfg.Webhook.Listen = defaults.Webhook.Listen
	}
	if cfg.Webhook.Path == "" {
		cfg.Webhook.Path = defaults.Webhook.Path
	}
	if cfg.Webhook.SignatureHeader == "" {
		cfg.Webhook.SignatureHeader = defaults.Webhook.SignatureHeader
	}
	if cfg.Webhook.MaxBodySize == "" {
		cfg.Webhook.MaxBodySize = defaults.Webhook.MaxBodySize
	}
	if cfg.N8N.URL == "" {
		cfg.N8N.URL = defaults.N8N.URL
	}
	return cfg
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is (not expanded).
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

// validate performs basic validation on the configuration. A missing secret
// is not a load error; it surfaces per request through WebhookSecret.
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Service.LogLevel] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}
	if cfg.Service.LogFormat != "json" && cfg.Service.LogFormat != "text" {
		return fmt.Errorf("service.log_format must be json or text (got %q)", cfg.Service.LogFormat)
	}

	if cfg.State.Path == "" {
		return fmt.Errorf("state.path is required")
	}

	if !strings.HasPrefix(cfg.Webhook.Path, "/") {
		return fmt.Errorf("webhook.path must start with / (got %q)", cfg.Webhook.Path)
	}
	if strings.TrimSpace(cfg.Webhook.SignatureHeader) == "" {
		return fmt.Errorf("webhook.signature_header is required")
	}
	if _, err := ParseSize(cfg.Webhook.MaxBodySize); err != nil {
		return fmt.Errorf("webhook.max_body_size %q: %w", cfg.Webhook.MaxBodySize, err)
	}
	return nil
}

// WebhookSecret returns the shared signing secret. It never falls back to a
// default: an unset, blank or unresolved ${VAR} secret is a
// ConfigurationError.
func (c *Config) WebhookSecret() (string, error) {
	return resolveSecret(c.Webhook.Secret)
}

// SecretFromEnv reads the shared secret straight from the process
// environment.
func SecretFromEnv() (string, error) {
	return resolveSecret(os.Getenv(EnvWebhookSecret))
}

func resolveSecret(secret string) (string, error) {
	if strings.TrimSpace(secret) == "" || envVarPattern.MatchString(secret) {
		return "", &protocol.ConfigurationError{Key: EnvWebhookSecret}
	}
	return secret, nil
}

// EngineURL returns the validated workflow engine endpoint.
func (c *Config) EngineURL() (string, error) {
	raw := strings.TrimSpace(c.N8N.URL)
	if raw == "" || envVarPattern.MatchString(raw) {
		return "", &protocol.ConfigurationError{Key: EnvN8NURL}
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", &protocol.ConfigurationError{Key: EnvN8NURL, Reason: "must be an absolute http(s) URL"}
	}
	return raw, nil
}

// MaxBodyBytes returns the inbound body limit in bytes.
func (c *Config) MaxBodyBytes() int64 {
	n, err := ParseSize(c.Webhook.MaxBodySize)
	if err != nil {
		return DefaultMaxBodySize
	}
	return n
}

// ParseSize parses size strings like "1MB", "512KB" or "2048576" to bytes.
// Returns DefaultMaxBodySize if empty.
func ParseSize(size string) (int64, error) {
	if size == "" {
		return DefaultMaxBodySize, nil
	}

	upper := strings.ToUpper(strings.TrimSpace(size))
	multiplier := int64(1)

	switch {
	case strings.HasSuffix(upper, "KB"):
		multiplier = 1024
		upper = strings.TrimSuffix(upper, "KB")
	case strings.HasSuffix(upper, "MB"):
		multiplier = 1024 * 1024
		upper = strings.TrimSuffix(upper, "MB")
	case strings.HasSuffix(upper, "GB"):
		multiplier = 1024 * 1024 * 1024
		upper = strings.TrimSuffix(upper, "GB")
	}

	value, err := strconv.ParseInt(strings.TrimSpace(upper), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value: %w", err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("size must be positive")
	}

	result := value * multiplier
	if result/multiplier != value {
		return 0, fmt.Errorf("size too large")
	}
	return result, nil
}
