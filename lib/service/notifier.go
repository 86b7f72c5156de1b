package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/finagent/usdthub/db/models"
	"github.com/finagent/usdthub/lib/security"
)

// StartWebhookSubscription forwards every invoice state change to the
// configured callback url, signed with the network's webhook secret.
func (svc *PaymentService) StartWebhookSubscription(ctx context.Context) {
	svc.Logger.Infof("Starting webhook subscription with webhook url %s", svc.Config.WebhookUrl)
	invoiceUpdates := make(chan models.Invoice)
	subID := svc.InvoicePubSub.Subscribe(InvoiceUpdatesTopic, invoiceUpdates)
	defer svc.InvoicePubSub.Unsubscribe(subID, InvoiceUpdatesTopic)
	for {
		select {
		case <-ctx.Done():
			return
		case invoice := <-invoiceUpdates:
			svc.postToWebhook(invoice)
		}
	}
}

func (svc *PaymentService) postToWebhook(invoice models.Invoice) {
	payload := new(bytes.Buffer)
	err := json.NewEncoder(payload).Encode(invoice)
	if err != nil {
		svc.Logger.Error(err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, svc.Config.WebhookUrl, payload)
	if err != nil {
		svc.Logger.Error(err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if secret := svc.AdapterConfig.WebhookSecret(invoice.Network); secret != "" {
		req.Header.Set("X-Webhook-Signature", security.SignPayload(payload.Bytes(), secret))
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		svc.Logger.Error(err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			svc.Logger.Error(err)
		}
		svc.Logger.Errorf("Webhook status code was %d, body: %s", resp.StatusCode, msg)
	}
}
