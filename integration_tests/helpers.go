package integration_tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun/migrate"

	"github.com/finagent/usdthub/adapter"
	"github.com/finagent/usdthub/common"
	"github.com/finagent/usdthub/db"
	"github.com/finagent/usdthub/db/migrations"
	"github.com/finagent/usdthub/lib"
	"github.com/finagent/usdthub/lib/ratelimit"
	"github.com/finagent/usdthub/lib/responses"
	"github.com/finagent/usdthub/lib/security"
	"github.com/finagent/usdthub/lib/service"
	"github.com/finagent/usdthub/lib/transport"
	"github.com/finagent/usdthub/oracle"
)

const (
	testWebhookSecretTRC20 = "trc20-test-webhook-secret"
	testWebhookSecretERC20 = "erc20-test-webhook-secret"
)

func testWebhookSecret(network string) string {
	if network == common.NetworkERC20 {
		return testWebhookSecretERC20
	}
	return testWebhookSecretTRC20
}

// mockAdapter stands in for the payment processor so the suite controls
// balances, failures and confirmation counts.
type mockAdapter struct {
	network     string
	threshold   int
	balance     decimal.Decimal
	createErr   error
	sendErr     error
	sendTxID    string
	statusConfs int
	invoiceSeq  int
}

func newMockAdapter(network string, threshold int) *mockAdapter {
	return &mockAdapter{
		network:   network,
		threshold: threshold,
		balance:   decimal.NewFromInt(500),
		sendTxID:  "0xmocktx",
	}
}

func (m *mockAdapter) Network() string            { return m.network }
func (m *mockAdapter) ConfirmationThreshold() int { return m.threshold }

func (m *mockAdapter) ValidateAddress(address string) bool {
	if m.network == common.NetworkTRC20 {
		return len(address) == 34 && address[0] == 'T'
	}
	return len(address) == 42 && address[0:2] == "0x"
}

func (m *mockAdapter) CreateInvoice(ctx context.Context, amountToken decimal.Decimal, description string, expireIn int) (*adapter.ProviderInvoice, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.invoiceSeq++
	return &adapter.ProviderInvoice{
		ProviderInvoiceID: fmt.Sprintf("prov-%s-%d", m.network, m.invoiceSeq),
		Address:           mockAddress(m.network),
		PaymentURL:        "https://example.com/pay",
	}, nil
}

func (m *mockAdapter) GetBalance(ctx context.Context) (decimal.Decimal, error) {
	return m.balance, nil
}

func (m *mockAdapter) SendToken(ctx context.Context, amount decimal.Decimal, address string) (string, error) {
	if m.sendErr != nil {
		return "", m.sendErr
	}
	return m.sendTxID, nil
}

func (m *mockAdapter) GetInvoiceStatus(ctx context.Context, providerInvoiceID string) (*adapter.InvoiceStatus, error) {
	return &adapter.InvoiceStatus{Confirmations: m.statusConfs}, nil
}

func mockAddress(network string) string {
	if network == common.NetworkTRC20 {
		return "TXYZa1b2c3d4e5f6g7h8i9j1k2m3n4p5q6"
	}
	return "0x52908400098527886E0F7030069857D2E4169EE7"
}

// mockOracle returns a fixed price, or fails on demand.
type mockOracle struct {
	price decimal.Decimal
	err   error
}

func (m *mockOracle) GetPrice(ctx context.Context) (*oracle.Quote, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &oracle.Quote{Value: m.price, FetchedAt: time.Now()}, nil
}

func newTestConfig() *service.Config {
	return &service.Config{
		DatabaseUri:      "sqlite://:memory:",
		MinPaymentAmount: 0.1,
		MaxPaymentAmount: 10000,
		PaymentTimeout:   3600,
		RateLimit:        60,
		RateLimitBurst:   10,
		RateLimitWindow:  60,
	}
}

func paymentServiceInit(cfg *service.Config) (*service.PaymentService, *mockAdapter, *mockOracle, error) {
	dbConn, err := db.Open(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	ctx := context.Background()
	migrator := migrate.NewMigrator(dbConn, migrations.Migrations)
	if err = migrator.Init(ctx); err != nil {
		return nil, nil, nil, err
	}
	if _, err = migrator.Migrate(ctx); err != nil {
		return nil, nil, nil, err
	}

	trc20 := newMockAdapter(common.NetworkTRC20, common.ConfirmationThresholdTRC20)
	erc20 := newMockAdapter(common.NetworkERC20, common.ConfirmationThresholdERC20)
	priceOracle := &mockOracle{price: decimal.NewFromInt(1)}

	svc := &service.PaymentService{
		Config: cfg,
		DB:     dbConn,
		Logger: lib.Logger(""),
		Adapters: map[string]adapter.NetworkAdapter{
			common.NetworkTRC20: trc20,
			common.NetworkERC20: erc20,
		},
		AdapterConfig: &adapter.Config{
			TRC20WebhookSecret: testWebhookSecretTRC20,
			ERC20WebhookSecret: testWebhookSecretERC20,
		},
		Oracle:        priceOracle,
		Limiter:       ratelimit.New(cfg.RateLimit, cfg.RateLimitBurst, time.Duration(cfg.RateLimitWindow)*time.Second),
		InvoicePubSub: service.NewPubsub(),
	}
	return svc, trc20, priceOracle, nil
}

func initEchoForTest(svc *service.PaymentService) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = responses.HTTPErrorHandler
	e.Validator = &lib.CustomValidator{Validator: validator.New()}
	transport.RegisterEndpoints(svc, e)
	return e
}

func makeRequest(e *echo.Echo, method, target string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			log.Fatalf("Error encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func makeSignedWebhookRequest(e *echo.Echo, network string, payload interface{}) *httptest.ResponseRecorder {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Fatalf("Error encoding webhook payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/webhook/"+network, bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Webhook-Signature", security.SignPayload(body, testWebhookSecret(network)))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func clearTable(svc *service.PaymentService, table string) {
	_, err := svc.DB.NewTruncateTable().Table(table).Exec(context.Background())
	if err != nil {
		log.Fatalf("Error clearing table %s: %v", table, err)
	}
}
