package integration_tests

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/finagent/usdthub/common"
	"github.com/finagent/usdthub/controllers"
	"github.com/finagent/usdthub/lib/responses"
	"github.com/finagent/usdthub/lib/service"
	"github.com/finagent/usdthub/oracle"
)

type CreatePaymentTestSuite struct {
	suite.Suite
	service *service.PaymentService
	oracle  *mockOracle
	echo    *echo.Echo
}

func (suite *CreatePaymentTestSuite) SetupSuite() {
	svc, _, priceOracle, err := paymentServiceInit(newTestConfig())
	if err != nil {
		log.Fatalf("Error initializing test service: %v", err)
	}
	suite.service = svc
	suite.oracle = priceOracle
	suite.echo = initEchoForTest(svc)
}

func (suite *CreatePaymentTestSuite) TearDownTest() {
	suite.oracle.err = nil
	suite.oracle.price = decimal.NewFromInt(1)
	clearTable(suite.service, "webhook_events")
	clearTable(suite.service, "invoices")
}

func (suite *CreatePaymentTestSuite) TestCreatePayment() {
	rec := makeRequest(suite.echo, http.MethodPost, "/v2/payments", &controllers.CreatePaymentRequestBody{
		AmountUSD: 100.0,
		Network:   common.NetworkTRC20,
	}, nil)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)

	var invoice controllers.Invoice
	assert.NoError(suite.T(), json.NewDecoder(rec.Body).Decode(&invoice))
	assert.True(suite.T(), strings.HasPrefix(invoice.InvoiceID, "INV_"))
	assert.Equal(suite.T(), common.NetworkTRC20, invoice.Network)
	assert.Equal(suite.T(), common.InvoiceStatePending, invoice.State)
	// price is pinned at 1.00 so the token amount equals the USD amount
	assert.True(suite.T(), decimal.NewFromInt(100).Equal(invoice.AmountToken))
	assert.True(suite.T(), invoice.ReceivedToken.IsZero())
	assert.Equal(suite.T(), mockAddress(common.NetworkTRC20), invoice.Address)
	assert.NotEmpty(suite.T(), invoice.QrCode)

	// the expiry deadline is created_at plus the configured payment timeout
	createdAt, err := time.Parse("2006-01-02T15:04:05Z", invoice.CreatedAt)
	assert.NoError(suite.T(), err)
	expiresAt, err := time.Parse("2006-01-02T15:04:05Z", invoice.ExpiresAt)
	assert.NoError(suite.T(), err)
	timeout := time.Duration(suite.service.Config.PaymentTimeout) * time.Second
	assert.Equal(suite.T(), timeout, expiresAt.Sub(createdAt))
}

func (suite *CreatePaymentTestSuite) TestCreatePaymentAtDifferentPrice() {
	suite.oracle.price = decimal.RequireFromString("0.5")
	rec := makeRequest(suite.echo, http.MethodPost, "/v2/payments", &controllers.CreatePaymentRequestBody{
		AmountUSD: 10.0,
		Network:   common.NetworkERC20,
	}, nil)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)

	var invoice controllers.Invoice
	assert.NoError(suite.T(), json.NewDecoder(rec.Body).Decode(&invoice))
	assert.True(suite.T(), decimal.NewFromInt(20).Equal(invoice.AmountToken))
}

func (suite *CreatePaymentTestSuite) TestCreatePaymentBelowMinimum() {
	rec := makeRequest(suite.echo, http.MethodPost, "/v2/payments", &controllers.CreatePaymentRequestBody{
		AmountUSD: 0.05,
		Network:   common.NetworkTRC20,
	}, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)

	var resp responses.ErrorResponse
	assert.NoError(suite.T(), json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(suite.T(), "VALIDATION_ERROR", resp.Kind)
}

func (suite *CreatePaymentTestSuite) TestCreatePaymentUnsupportedNetwork() {
	rec := makeRequest(suite.echo, http.MethodPost, "/v2/payments", &controllers.CreatePaymentRequestBody{
		AmountUSD: 5,
		Network:   "btc",
	}, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)

	var resp responses.ErrorResponse
	assert.NoError(suite.T(), json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(suite.T(), "VALIDATION_ERROR", resp.Kind)
}

func (suite *CreatePaymentTestSuite) TestCreatePaymentPriceUnavailable() {
	suite.oracle.err = oracle.ErrPriceUnavailable
	rec := makeRequest(suite.echo, http.MethodPost, "/v2/payments", &controllers.CreatePaymentRequestBody{
		AmountUSD: 5,
		Network:   common.NetworkTRC20,
	}, nil)
	assert.Equal(suite.T(), http.StatusServiceUnavailable, rec.Code)

	var resp responses.ErrorResponse
	assert.NoError(suite.T(), json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(suite.T(), "PRICE_UNAVAILABLE", resp.Kind)
}

func (suite *CreatePaymentTestSuite) TestGetUnknownInvoice() {
	rec := makeRequest(suite.echo, http.MethodGet, "/v2/invoices/X", nil, nil)
	assert.Equal(suite.T(), http.StatusNotFound, rec.Code)

	var resp responses.ErrorResponse
	assert.NoError(suite.T(), json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(suite.T(), "UNKNOWN_INVOICE", resp.Kind)
}

func (suite *CreatePaymentTestSuite) TestListInvoicesNewestFirst() {
	first := suite.createInvoice(1.0)
	second := suite.createInvoice(2.0)

	rec := makeRequest(suite.echo, http.MethodGet, "/v2/invoices", nil, nil)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)

	var invoices []controllers.Invoice
	assert.NoError(suite.T(), json.NewDecoder(rec.Body).Decode(&invoices))
	assert.Len(suite.T(), invoices, 2)
	assert.Equal(suite.T(), second.InvoiceID, invoices[0].InvoiceID)
	assert.Equal(suite.T(), first.InvoiceID, invoices[1].InvoiceID)
}

func (suite *CreatePaymentTestSuite) TestListInvoicesFilterByNetwork() {
	suite.createInvoice(1.0)

	rec := makeRequest(suite.echo, http.MethodGet, "/v2/invoices?network=erc20", nil, nil)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)

	var invoices []controllers.Invoice
	assert.NoError(suite.T(), json.NewDecoder(rec.Body).Decode(&invoices))
	assert.Len(suite.T(), invoices, 0)
}

func (suite *CreatePaymentTestSuite) createInvoice(amountUSD float64) controllers.Invoice {
	rec := makeRequest(suite.echo, http.MethodPost, "/v2/payments", &controllers.CreatePaymentRequestBody{
		AmountUSD: amountUSD,
		Network:   common.NetworkTRC20,
	}, nil)
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	var invoice controllers.Invoice
	assert.NoError(suite.T(), json.NewDecoder(rec.Body).Decode(&invoice))
	return invoice
}

func TestCreatePaymentTestSuite(t *testing.T) {
	suite.Run(t, new(CreatePaymentTestSuite))
}
