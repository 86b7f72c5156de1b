package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WebhookEvent records every applied provider event. The unique constraint on
// (event_id, invoice_id) is what makes webhook application idempotent under
// at-least-once delivery.
type WebhookEvent struct {
	ID             int64           `json:"id" bun:",pk,autoincrement"`
	EventID        string          `json:"event_id" bun:",notnull,unique:ux_webhook_events_event_invoice"`
	InvoiceID      string          `json:"invoice_id" bun:",notnull,unique:ux_webhook_events_event_invoice"`
	Network        string          `json:"network" bun:",notnull"`
	CreditedAmount decimal.Decimal `json:"credited_amount" bun:",notnull,type:decimal(30,15)"`
	Confirmations  int             `json:"confirmations" bun:",nullzero"`
	CreatedAt      time.Time       `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
}
