package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/finagent/usdthub/lib/responses"
	"github.com/finagent/usdthub/lib/security"
	"github.com/finagent/usdthub/lib/service"
)

const signatureHeader = "X-Webhook-Signature"

// WebhookController : Inbound payment-processor callbacks
type WebhookController struct {
	svc *service.PaymentService
}

func NewWebhookController(svc *service.PaymentService) *WebhookController {
	return &WebhookController{svc: svc}
}

type WebhookResponse struct {
	InvoiceID string `json:"invoice_id"`
	State     string `json:"state"`
	Applied   bool   `json:"applied"`
}

// Webhook verifies the processor's signature over the raw body before
// anything is parsed, then applies the event exactly once.
func (controller *WebhookController) Webhook(c echo.Context) error {
	network := c.Param("network")
	secret := controller.svc.AdapterConfig.WebhookSecret(network)

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		c.Logger().Errorf("Failed to read webhook body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	if !security.VerifySignature(body, c.Request().Header.Get(signatureHeader), secret) {
		c.Logger().Warnf("Rejected webhook with bad signature network=%s", network)
		return c.JSON(responses.SignatureInvalidError.HttpStatusCode, responses.SignatureInvalidError)
	}

	var payload service.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.Logger().Errorf("Failed to parse webhook payload: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&payload); err != nil {
		c.Logger().Errorf("Invalid webhook payload: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if payload.Network != "" && payload.Network != network {
		c.Logger().Warnf("Rejected webhook with mismatched network param=%s payload=%s", network, payload.Network)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	// the event is bound to the network whose secret signed it
	payload.Network = network

	invoice, applied, err := controller.svc.ApplyWebhook(c.Request().Context(), &payload)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, &WebhookResponse{
		InvoiceID: invoice.ID,
		State:     invoice.State,
		Applied:   applied,
	})
}
