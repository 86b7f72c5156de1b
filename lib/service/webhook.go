package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/finagent/usdthub/db/models"
)

// WebhookPayload is what the payment processor posts on invoice activity.
type WebhookPayload struct {
	EventID           string          `json:"event_id" validate:"required"`
	ProviderInvoiceID string          `json:"provider_invoice_id" validate:"required"`
	InvoiceID         string          `json:"invoice_id"`
	Network           string          `json:"network"`
	CreditedAmount    decimal.Decimal `json:"credited_amount"`
	Confirmations     int             `json:"confirmations"`
	Status            string          `json:"status"`
}

// ApplyWebhook credits a payment event against its invoice exactly once.
// Replayed event ids are accepted and ignored, as are events against
// terminal invoices. The returned invoice reflects the state after the call.
func (svc *PaymentService) ApplyWebhook(ctx context.Context, payload *WebhookPayload) (invoice *models.Invoice, applied bool, err error) {
	invoice = &models.Invoice{}
	err = svc.DB.NewSelect().Model(invoice).
		Where("provider_invoice_id = ? OR id = ?", payload.ProviderInvoiceID, payload.InvoiceID).
		Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, ErrUnknownInvoice
		}
		return nil, false, err
	}

	// The signature only proves possession of one network's secret, so the
	// event must not touch invoices of any other network.
	if payload.Network != "" && invoice.Network != payload.Network {
		return nil, false, invalidField("network", fmt.Sprintf("invoice %s belongs to %s, event claims %s", invoice.ID, invoice.Network, payload.Network))
	}

	// Resolve the confirmation count before taking the row lock: the
	// provider cross-check is a network call and must not suspend while
	// the invoice is locked.
	adp, adpErr := svc.AdapterFor(invoice.Network)
	if adpErr != nil {
		return nil, false, adpErr
	}
	confirmations := payload.Confirmations
	threshold := adp.ConfirmationThreshold()
	if confirmations < threshold && payload.CreditedAmount.Sign() > 0 {
		if status, statusErr := adp.GetInvoiceStatus(ctx, invoice.ProviderInvoiceID); statusErr == nil {
			if status.Confirmations > confirmations {
				confirmations = status.Confirmations
			}
		} else {
			svc.Logger.Warnf("Invoice status cross-check failed invoice_id=%s: %v", invoice.ID, statusErr)
		}
	}

	tx, err := svc.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	if err = svc.lockInvoice(ctx, tx, invoice); err != nil {
		return nil, false, err
	}

	event := models.WebhookEvent{
		EventID:        payload.EventID,
		InvoiceID:      invoice.ID,
		Network:        invoice.Network,
		CreditedAmount: payload.CreditedAmount,
		Confirmations:  confirmations,
	}
	res, err := tx.NewInsert().Model(&event).On("CONFLICT DO NOTHING").Exec(ctx)
	if err != nil {
		return nil, false, err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		// duplicate delivery
		svc.Logger.Infof("Ignoring replayed webhook event_id=%s invoice_id=%s", payload.EventID, invoice.ID)
		return invoice, false, tx.Commit()
	}

	now := time.Now()
	changed := false
	switch {
	case invoice.ExpireIfDue(now):
		changed = true
	case strings.EqualFold(payload.Status, "voided") || strings.EqualFold(payload.Status, "cancelled"):
		changed = invoice.MarkFailed("invoice voided by payment processor")
	default:
		changed = invoice.ApplyCredit(payload.CreditedAmount, confirmations, threshold, now)
	}

	if changed {
		if _, err = tx.NewUpdate().Model(invoice).WherePK().Exec(ctx); err != nil {
			return nil, false, err
		}
	}
	if err = tx.Commit(); err != nil {
		return nil, false, err
	}

	if changed {
		svc.Logger.Infof("Applied webhook event_id=%s invoice_id=%s state=%s received=%s",
			payload.EventID, invoice.ID, invoice.State, invoice.ReceivedToken)
		svc.InvoicePubSub.Publish(InvoiceUpdatesTopic, *invoice)
	}
	return invoice, changed, nil
}

// lockInvoice re-reads the invoice inside the transaction so concurrent
// webhooks for the same invoice serialize on the row. sqlite runs on a
// single connection and needs no row lock.
func (svc *PaymentService) lockInvoice(ctx context.Context, tx bun.Tx, invoice *models.Invoice) error {
	q := tx.NewSelect().Model(invoice).Where("id = ?", invoice.ID)
	if svc.DB.Dialect().Name().String() == "pg" {
		q = q.For("UPDATE")
	}
	return q.Scan(ctx)
}
