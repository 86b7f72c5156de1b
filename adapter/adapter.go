package adapter

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnavailable marks a transient failure (timeouts excluded): the
	// request may be retried by the caller.
	ErrUnavailable = errors.New("payment network unavailable")
	// ErrRejected marks a definitive provider refusal, e.g. insufficient
	// balance or a voided invoice.
	ErrRejected = errors.New("payment network rejected the request")
	// ErrTimeout marks a deadline hit. For sends the outcome is unknown.
	ErrTimeout = errors.New("payment network call timed out")
)

type ProviderInvoice struct {
	ProviderInvoiceID string
	Address           string
	QrCodeURL         string
	PaymentURL        string
}

type InvoiceStatus struct {
	PaidAmount    decimal.Decimal
	Confirmations int
	IsFinal       bool
}

// NetworkAdapter is the only interaction point with the blockchain/payment
// processor world. One implementation per token network; confirmation counts,
// fee units and address formats stay behind this interface so callers never
// special-case networks.
type NetworkAdapter interface {
	Network() string
	ConfirmationThreshold() int
	CreateInvoice(ctx context.Context, amountToken decimal.Decimal, description string, expireIn int) (*ProviderInvoice, error)
	GetBalance(ctx context.Context) (decimal.Decimal, error)
	SendToken(ctx context.Context, amount decimal.Decimal, address string) (txID string, err error)
	GetInvoiceStatus(ctx context.Context, providerInvoiceID string) (*InvoiceStatus, error)
	ValidateAddress(address string) bool
}
