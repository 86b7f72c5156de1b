package common

const (
	NetworkTRC20 = "trc20"
	NetworkERC20 = "erc20"

	InvoiceStatePending       = "pending"
	InvoiceStatePartiallyPaid = "partially_paid"
	InvoiceStateConfirmed     = "confirmed"
	InvoiceStateExpired       = "expired"
	InvoiceStateFailed        = "failed"

	// Block confirmations required before a payment is considered final.
	ConfirmationThresholdTRC20 = 19
	ConfirmationThresholdERC20 = 12
)

func IsSupportedNetwork(network string) bool {
	return network == NetworkTRC20 || network == NetworkERC20
}

// IsTerminalState reports whether an invoice accepts further webhook events.
// Terminal invoices treat later events as no-ops.
func IsTerminalState(state string) bool {
	switch state {
	case InvoiceStateConfirmed, InvoiceStateExpired, InvoiceStateFailed:
		return true
	}
	return false
}
