package integration_tests

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/finagent/usdthub/common"
	"github.com/finagent/usdthub/controllers"
	"github.com/finagent/usdthub/db/models"
	"github.com/finagent/usdthub/lib/service"
)

type ExpiryTestSuite struct {
	suite.Suite
	service *service.PaymentService
	echo    *echo.Echo
}

func (suite *ExpiryTestSuite) SetupSuite() {
	svc, _, _, err := paymentServiceInit(newTestConfig())
	if err != nil {
		log.Fatalf("Error initializing test service: %v", err)
	}
	suite.service = svc
	suite.echo = initEchoForTest(svc)
}

func (suite *ExpiryTestSuite) TearDownTest() {
	clearTable(suite.service, "webhook_events")
	clearTable(suite.service, "invoices")
}

func (suite *ExpiryTestSuite) createOverdueInvoice() controllers.Invoice {
	rec := makeRequest(suite.echo, http.MethodPost, "/v2/payments", &controllers.CreatePaymentRequestBody{
		AmountUSD: 100.0,
		Network:   common.NetworkTRC20,
	}, nil)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	var invoice controllers.Invoice
	assert.NoError(suite.T(), json.NewDecoder(rec.Body).Decode(&invoice))

	_, err := suite.service.DB.NewUpdate().
		Model((*models.Invoice)(nil)).
		Set("expires_at = ?", time.Now().Add(-time.Minute)).
		Where("id = ?", invoice.InvoiceID).
		Exec(context.Background())
	assert.NoError(suite.T(), err)
	return invoice
}

func (suite *ExpiryTestSuite) TestReadExpiresOverdueInvoice() {
	invoice := suite.createOverdueInvoice()

	rec := makeRequest(suite.echo, http.MethodGet, "/v2/invoices/"+invoice.InvoiceID, nil, nil)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)

	var stored controllers.Invoice
	assert.NoError(suite.T(), json.NewDecoder(rec.Body).Decode(&stored))
	assert.Equal(suite.T(), common.InvoiceStateExpired, stored.State)
}

func (suite *ExpiryTestSuite) TestWebhookAgainstExpiredInvoiceIsNotCredited() {
	invoice := suite.createOverdueInvoice()

	payload := &service.WebhookPayload{
		EventID:           uuid.NewString(),
		ProviderInvoiceID: invoice.InvoiceID,
		InvoiceID:         invoice.InvoiceID,
		CreditedAmount:    decimal.NewFromInt(100),
		Confirmations:     common.ConfirmationThresholdTRC20,
	}
	rec := makeSignedWebhookRequest(suite.echo, common.NetworkTRC20, payload)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)

	var resp controllers.WebhookResponse
	assert.NoError(suite.T(), json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(suite.T(), common.InvoiceStateExpired, resp.State)

	var stored models.Invoice
	err := suite.service.DB.NewSelect().Model(&stored).Where("id = ?", invoice.InvoiceID).Scan(context.Background())
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), stored.ReceivedToken.IsZero())
	assert.Equal(suite.T(), common.InvoiceStateExpired, stored.State)
}

func (suite *ExpiryTestSuite) TestSweepExpiresOverdueInvoices() {
	invoice := suite.createOverdueInvoice()

	assert.NoError(suite.T(), suite.service.ExpireOverdueInvoices(context.Background()))

	var stored models.Invoice
	err := suite.service.DB.NewSelect().Model(&stored).Where("id = ?", invoice.InvoiceID).Scan(context.Background())
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), common.InvoiceStateExpired, stored.State)
}

func TestExpiryTestSuite(t *testing.T) {
	suite.Run(t, new(ExpiryTestSuite))
}
