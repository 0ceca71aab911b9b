package webhook

import (
	"github.com/mattjoyce/bubot/internal/config"
)

// FromGlobalConfig converts the webhook section of config.Config to
// webhook.Config. The secret is not copied; it is resolved per request.
func FromGlobalConfig(cfg *config.Config) Config {
	return Config{
		Listen:          cfg.Webhook.Listen,
		Path:            cfg.Webhook.Path,
		SignatureHeader: cfg.Webhook.SignatureHeader,
		MaxBodySize:     cfg.MaxBodyBytes(),
	}
}
