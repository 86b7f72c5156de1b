package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/labstack/gommon/random"
	"github.com/uptrace/bun"
	"github.com/ziflex/lecho/v3"

	"github.com/finagent/usdthub/adapter"
	"github.com/finagent/usdthub/common"
	"github.com/finagent/usdthub/lib/ratelimit"
	"github.com/finagent/usdthub/oracle"
	"github.com/finagent/usdthub/rabbitmq"
)

const alphaNumBytes = random.Alphanumeric

// PriceSource is what the service needs from the oracle package.
type PriceSource interface {
	GetPrice(ctx context.Context) (*oracle.Quote, error)
}

type PaymentService struct {
	Config         *Config
	DB             *bun.DB
	Logger         *lecho.Logger
	Adapters       map[string]adapter.NetworkAdapter
	AdapterConfig  *adapter.Config
	Oracle         PriceSource
	Limiter        *ratelimit.Limiter
	InvoicePubSub  *Pubsub
	RabbitMQClient rabbitmq.Client
}

// AdapterFor resolves the adapter for a network name, case-insensitively.
func (svc *PaymentService) AdapterFor(network string) (adapter.NetworkAdapter, error) {
	network = strings.ToLower(network)
	if !common.IsSupportedNetwork(network) {
		return nil, invalidField("network", fmt.Sprintf("unsupported network %q, expected %s or %s", network, common.NetworkTRC20, common.NetworkERC20))
	}
	adp, ok := svc.Adapters[network]
	if !ok {
		return nil, fmt.Errorf("no adapter configured for network %s", network)
	}
	return adp, nil
}
