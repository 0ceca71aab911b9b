package config

// Config represents the complete bubot configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	State   StateConfig   `yaml:"state"`
	Webhook WebhookConfig `yaml:"webhook"`
	N8N     N8NConfig     `yaml:"n8n"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// StateConfig defines where the callback inbox lives.
type StateConfig struct {
	Path string `yaml:"path"`
}

// WebhookConfig defines the inbound endpoint the workflow engine calls.
type WebhookConfig struct {
	Listen string `yaml:"listen"`
	Path   string `yaml:"path"`

	// SignatureHeader is the header holding the hex HMAC of the raw body.
	SignatureHeader string `yaml:"signature_header"`

	// MaxBodySize accepts "1MB", "512KB" or a plain byte count.
	MaxBodySize string `yaml:"max_body_size,omitempty"`

	// Secret is shared with the engine and signs both directions. Normally
	// "${BUBOT_WEBHOOK_SECRET}" or left empty and supplied via the environment.
	Secret string `yaml:"secret,omitempty"`
}

// N8NConfig defines the outbound workflow engine endpoint.
type N8NConfig struct {
	URL string `yaml:"url"`
}

// Environment variable names read by the overlay.
const (
	EnvPrefix        = "BUBOT"
	EnvWebhookSecret = "BUBOT_WEBHOOK_SECRET"
	EnvN8NURL        = "BUBOT_N8N_URL"
)

// DefaultN8NURL is only suitable for local development.
const DefaultN8NURL = "http://localhost:5678/webhook/bubot-router"

// DefaultMaxBodySize is 1 MiB.
const DefaultMaxBodySize int64 = 1 << 20

// Defaults returns a Config with local-development defaults. There is no
// default secret.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "bubot",
			LogLevel:  "info",
			LogFormat: "json",
		},
		State: StateConfig{
			Path: "./data/bubot.db",
		},
		Webhook: WebhookConfig{
			Listen:          "127.0.0.1:8081",
			Path:            "/webhook/n8n-router",
			SignatureHeader: "x-bubot-sig",
			MaxBodySize:     "1MB",
		},
		N8N: N8NConfig{
			URL: DefaultN8NURL,
		},
	}
}
