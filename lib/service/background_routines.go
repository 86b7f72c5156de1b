package service

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/finagent/usdthub/common"
	"github.com/finagent/usdthub/db/models"
)

// StartExpirySweepRoutine periodically expires overdue invoices so that
// invoices nobody reads still converge. Reads perform the same transition
// lazily.
func (svc *PaymentService) StartExpirySweepRoutine(ctx context.Context) {
	interval := time.Duration(svc.Config.ExpirySweepInterval) * time.Second
	svc.Logger.Infof("Starting expiry sweep routine with interval %s", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := svc.ExpireOverdueInvoices(ctx); err != nil {
				svc.Logger.Errorf("Expiry sweep failed: %v", err)
			}
		}
	}
}

// ExpireOverdueInvoices runs a single sweep pass.
func (svc *PaymentService) ExpireOverdueInvoices(ctx context.Context) error {
	overdue := []models.Invoice{}
	err := svc.DB.NewSelect().Model(&overdue).
		Where("state IN (?, ?)", common.InvoiceStatePending, common.InvoiceStatePartiallyPaid).
		Where("expires_at < ?", time.Now()).
		Scan(ctx)
	if err != nil {
		return err
	}
	for i := range overdue {
		if err := svc.expireIfDue(ctx, &overdue[i]); err != nil {
			return err
		}
	}
	if len(overdue) > 0 {
		svc.Logger.Infof("Expired %d overdue invoices", len(overdue))
	}
	return nil
}

// StartRabbitPublishRoutine mirrors invoice updates onto the message broker
// for consumers that prefer AMQP over webhooks.
func (svc *PaymentService) StartRabbitPublishRoutine(ctx context.Context) error {
	if svc.RabbitMQClient == nil {
		return nil
	}
	return svc.RabbitMQClient.StartPublishInvoices(ctx, func() (chan models.Invoice, error) {
		updates := make(chan models.Invoice, 16)
		svc.InvoicePubSub.Subscribe(InvoiceUpdatesTopic, updates)
		return updates, nil
	}, func(w io.Writer, invoice models.Invoice) error {
		return json.NewEncoder(w).Encode(invoice)
	})
}
