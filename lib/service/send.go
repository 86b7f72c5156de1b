package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"

	"github.com/finagent/usdthub/adapter"
)

// CheckBalance reads the hot-wallet balance for a network. The read is
// idempotent, so transient provider failures are retried with backoff.
func (svc *PaymentService) CheckBalance(ctx context.Context, network string) (decimal.Decimal, error) {
	adp, err := svc.AdapterFor(network)
	if err != nil {
		return decimal.Zero, err
	}

	var balance decimal.Decimal
	operation := func() error {
		var opErr error
		balance, opErr = adp.GetBalance(ctx)
		if opErr != nil && !errors.Is(opErr, adapter.ErrUnavailable) {
			return backoff.Permanent(opErr)
		}
		return opErr
	}
	err = backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx))
	if err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// SendUSDT pays out from the hot wallet. A send is submitted at most once:
// on timeout the outcome is unknown and the caller gets ErrIndeterminate
// instead of a retry.
func (svc *PaymentService) SendUSDT(ctx context.Context, amountToken float64, address, network string) (txID string, err error) {
	if err := svc.validateAmount(amountToken); err != nil {
		return "", err
	}
	adp, err := svc.AdapterFor(network)
	if err != nil {
		return "", err
	}
	if !adp.ValidateAddress(address) {
		return "", invalidField("address", fmt.Sprintf("not a valid %s address", adp.Network()))
	}

	amount := decimal.NewFromFloat(amountToken)
	balance, err := svc.CheckBalance(ctx, network)
	if err != nil {
		return "", err
	}
	if balance.LessThan(amount) {
		return "", fmt.Errorf("%w: balance %s below requested %s", adapter.ErrRejected, balance, amount)
	}

	txID, err = adp.SendToken(ctx, amount, address)
	if err != nil {
		if errors.Is(err, adapter.ErrTimeout) {
			svc.Logger.Errorf("Send timed out, outcome unknown network=%s amount=%s address=%s", network, amount, address)
			return "", fmt.Errorf("%w: %v", ErrIndeterminate, err)
		}
		return "", err
	}
	svc.Logger.Infof("Sent USDT network=%s amount=%s address=%s tx_id=%s", network, amount, address, txID)
	return txID, nil
}
