package service

import (
	"context"

	"github.com/finagent/usdthub/oracle"
)

// GetUsdtPrice returns the cached USDT/USD quote. A stale quote is still
// served when the oracle is down, flagged as such.
func (svc *PaymentService) GetUsdtPrice(ctx context.Context) (*oracle.Quote, error) {
	quote, err := svc.Oracle.GetPrice(ctx)
	if err != nil {
		return nil, err
	}
	if quote.Stale {
		svc.Logger.Warnf("Serving stale USDT price from %s", quote.FetchedAt)
	}
	return quote, nil
}
