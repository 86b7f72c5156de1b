package adapter

import (
	"github.com/kelseyhightower/envconfig"

	"github.com/finagent/usdthub/common"
)

type Config struct {
	BaseURL             string `envconfig:"COINREMITTER_BASE_URL" default:"https://coinremitter.com/api/v3"`
	Timeout             int    `envconfig:"ADAPTER_TIMEOUT" default:"60"` // seconds
	TRC20APIKey         string `envconfig:"COINREMITTER_TRC20_API_KEY"`
	TRC20Password       string `envconfig:"COINREMITTER_TRC20_PASSWORD"`
	TRC20WebhookSecret  string `envconfig:"COINREMITTER_TRC20_WEBHOOK_SECRET"`
	ERC20APIKey         string `envconfig:"COINREMITTER_ERC20_API_KEY"`
	ERC20Password       string `envconfig:"COINREMITTER_ERC20_PASSWORD"`
	ERC20WebhookSecret  string `envconfig:"COINREMITTER_ERC20_WEBHOOK_SECRET"`
}

func LoadConfig() (c *Config, err error) {
	c = &Config{}
	err = envconfig.Process("", c)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// WebhookSecret returns the per-network secret used to verify inbound
// webhooks. Empty when the network is unknown or not configured, which the
// verifier treats as a rejection.
func (c *Config) WebhookSecret(network string) string {
	switch network {
	case common.NetworkTRC20:
		return c.TRC20WebhookSecret
	case common.NetworkERC20:
		return c.ERC20WebhookSecret
	}
	return ""
}
