package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/finagent/usdthub/common"
)

// Invoice : Invoice Model
//
// amount_token is a quote frozen at creation time; later price fetches never
// touch an existing invoice. received_token only ever grows.
type Invoice struct {
	ID                 string          `json:"invoice_id" bun:"id,pk"`
	Network            string          `json:"network" bun:",notnull"`
	AmountUSD          decimal.Decimal `json:"amount_usd" bun:"amount_usd,notnull,type:decimal(30,15)"`
	AmountToken        decimal.Decimal `json:"amount_token" bun:",notnull,type:decimal(30,15)"`
	ReceivedToken      decimal.Decimal `json:"received_amount_token" bun:"received_token,notnull,type:decimal(30,15)"`
	DestinationAddress string          `json:"address" bun:",notnull"`
	ProviderInvoiceID  string          `json:"-" bun:",nullzero"`
	Description        string          `json:"description,omitempty" bun:",nullzero"`
	QrCode             string          `json:"qr_code,omitempty" bun:",nullzero"`
	State              string          `json:"state" bun:",notnull,default:'pending'"`
	ErrorMessage       string          `json:"error_message,omitempty" bun:",nullzero"`
	CreatedAt          time.Time       `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	ExpiresAt          time.Time       `json:"expires_at" bun:",notnull"`
	ConfirmedAt        bun.NullTime    `json:"confirmed_at"`
	UpdatedAt          bun.NullTime    `json:"updated_at"`
}

func (i *Invoice) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		i.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*Invoice)(nil)

// IsTerminal reports whether the invoice accepts further state changes.
func (i *Invoice) IsTerminal() bool {
	return common.IsTerminalState(i.State)
}

// ApplyCredit adds a webhook-reported payment to the invoice and recomputes
// its state. Overpayment is recorded faithfully, not capped. Credits against
// a terminal invoice are ignored.
func (i *Invoice) ApplyCredit(credited decimal.Decimal, confirmations, threshold int, now time.Time) (changed bool) {
	if i.IsTerminal() || credited.Sign() <= 0 {
		return false
	}

	i.ReceivedToken = i.ReceivedToken.Add(credited)

	if i.ReceivedToken.GreaterThanOrEqual(i.AmountToken) && confirmations >= threshold {
		i.State = common.InvoiceStateConfirmed
		i.ConfirmedAt = bun.NullTime{Time: now}
	} else if i.ReceivedToken.Sign() > 0 {
		i.State = common.InvoiceStatePartiallyPaid
	}
	return true
}

// ExpireIfDue moves a non-terminal invoice past its deadline to EXPIRED.
func (i *Invoice) ExpireIfDue(now time.Time) (expired bool) {
	if i.IsTerminal() {
		return false
	}
	if now.After(i.ExpiresAt) {
		i.State = common.InvoiceStateExpired
		return true
	}
	return false
}

// MarkFailed handles an unrecoverable provider signal, e.g. a voided invoice.
func (i *Invoice) MarkFailed(reason string) (changed bool) {
	if i.IsTerminal() {
		return false
	}
	i.State = common.InvoiceStateFailed
	i.ErrorMessage = reason
	return true
}
