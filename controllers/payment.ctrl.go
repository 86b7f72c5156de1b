package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/finagent/usdthub/db/models"
	"github.com/finagent/usdthub/lib/responses"
	"github.com/finagent/usdthub/lib/service"
)

// PaymentController : Create and read invoices
type PaymentController struct {
	svc *service.PaymentService
}

func NewPaymentController(svc *service.PaymentService) *PaymentController {
	return &PaymentController{svc: svc}
}

type CreatePaymentRequestBody struct {
	AmountUSD   float64 `json:"amount_usd" validate:"required,gt=0"`
	Network     string  `json:"network" validate:"required"`
	Description string  `json:"description"`
}

type Invoice struct {
	InvoiceID     string          `json:"invoice_id"`
	Network       string          `json:"network"`
	AmountUSD     decimal.Decimal `json:"amount_usd"`
	AmountToken   decimal.Decimal `json:"amount_token"`
	ReceivedToken decimal.Decimal `json:"received_amount_token"`
	Address       string          `json:"address"`
	Description   string          `json:"description,omitempty"`
	QrCode        string          `json:"qr_code,omitempty"`
	State         string          `json:"state"`
	ErrorMessage  string          `json:"error_message,omitempty"`
	CreatedAt     string          `json:"created_at"`
	ExpiresAt     string          `json:"expires_at"`
	ConfirmedAt   bun.NullTime    `json:"confirmed_at,omitempty"`
}

func newInvoiceResponse(invoice *models.Invoice) Invoice {
	return Invoice{
		InvoiceID:     invoice.ID,
		Network:       invoice.Network,
		AmountUSD:     invoice.AmountUSD,
		AmountToken:   invoice.AmountToken,
		ReceivedToken: invoice.ReceivedToken,
		Address:       invoice.DestinationAddress,
		Description:   invoice.Description,
		QrCode:        invoice.QrCode,
		State:         invoice.State,
		ErrorMessage:  invoice.ErrorMessage,
		CreatedAt:     invoice.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		ExpiresAt:     invoice.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z"),
		ConfirmedAt:   invoice.ConfirmedAt,
	}
}

func (controller *PaymentController) CreatePayment(c echo.Context) error {
	var body CreatePaymentRequestBody

	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load create payment request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid create payment request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if limited, err := rateLimited(c, controller.svc.Limiter); limited {
		return err
	}

	invoice, err := controller.svc.CreatePayment(c.Request().Context(), body.AmountUSD, body.Network, body.Description)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, newInvoiceResponse(invoice))
}

func (controller *PaymentController) GetInvoice(c echo.Context) error {
	invoice, err := controller.svc.FindInvoice(c.Request().Context(), c.Param("invoice_id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, newInvoiceResponse(invoice))
}

func (controller *PaymentController) ListInvoices(c echo.Context) error {
	invoices, err := controller.svc.ListInvoices(c.Request().Context(), c.QueryParam("state"), c.QueryParam("network"), 0)
	if err != nil {
		return errorResponse(c, err)
	}
	response := make([]Invoice, len(invoices))
	for i := range invoices {
		response[i] = newInvoiceResponse(&invoices[i])
	}
	return c.JSON(http.StatusOK, response)
}
