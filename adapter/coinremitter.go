package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finagent/usdthub/common"
)

var (
	trc20AddressRegex = regexp.MustCompile(`^T[A-Za-z1-9]{33}$`)
	erc20AddressRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
)

// CoinremitterAdapter talks to the Coinremitter v3 API for one USDT network.
// It never retries on its own; retry policy belongs to the caller.
type CoinremitterAdapter struct {
	network    string
	baseURL    string
	apiKey     string
	password   string
	threshold  int
	addressRe  *regexp.Regexp
	httpClient *http.Client
}

func NewCoinremitterAdapter(network string, cfg *Config) (*CoinremitterAdapter, error) {
	a := &CoinremitterAdapter{
		network:    network,
		httpClient: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
	}
	switch network {
	case common.NetworkTRC20:
		a.baseURL = cfg.BaseURL + "/USDTTRC20"
		a.apiKey = cfg.TRC20APIKey
		a.password = cfg.TRC20Password
		a.threshold = common.ConfirmationThresholdTRC20
		a.addressRe = trc20AddressRegex
	case common.NetworkERC20:
		a.baseURL = cfg.BaseURL + "/USDTERC20"
		a.apiKey = cfg.ERC20APIKey
		a.password = cfg.ERC20Password
		a.threshold = common.ConfirmationThresholdERC20
		a.addressRe = erc20AddressRegex
	default:
		return nil, fmt.Errorf("unsupported network %q", network)
	}
	return a, nil
}

func (a *CoinremitterAdapter) Network() string {
	return a.network
}

func (a *CoinremitterAdapter) ConfirmationThreshold() int {
	return a.threshold
}

func (a *CoinremitterAdapter) ValidateAddress(address string) bool {
	return a.addressRe.MatchString(address)
}

type apiEnvelope struct {
	Flag int             `json:"flag"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// call posts the credential form plus params to a Coinremitter endpoint and
// unmarshals the data envelope into out.
func (a *CoinremitterAdapter) call(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	form := url.Values{}
	form.Set("api_key", a.apiKey)
	form.Set("password", a.password)
	for k, vs := range params {
		for _, v := range vs {
			form.Add(k, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/"+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return fmt.Errorf("%s %s: %w", a.network, endpoint, ErrTimeout)
		}
		return fmt.Errorf("%s %s: %v: %w", a.network, endpoint, err, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%s %s: status %d: %w", a.network, endpoint, resp.StatusCode, ErrUnavailable)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: status %d: %w", a.network, endpoint, resp.StatusCode, ErrRejected)
	}

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%s %s: malformed response: %w", a.network, endpoint, ErrUnavailable)
	}
	if envelope.Flag != 1 {
		return fmt.Errorf("%s %s: %s: %w", a.network, endpoint, envelope.Msg, ErrRejected)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("%s %s: malformed data: %w", a.network, endpoint, ErrUnavailable)
		}
	}
	return nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

type invoiceData struct {
	InvoiceID string `json:"invoice_id"`
	Address   string `json:"address"`
	QrCode    string `json:"qr_code"`
	URL       string `json:"url"`
}

func (a *CoinremitterAdapter) CreateInvoice(ctx context.Context, amountToken decimal.Decimal, description string, expireIn int) (*ProviderInvoice, error) {
	params := url.Values{}
	params.Set("amount", amountToken.String())
	params.Set("name", description)
	params.Set("currency", "USDT")
	// Coinremitter expresses invoice expiry in minutes
	params.Set("expire_time", strconv.Itoa(expireIn/60))

	var data invoiceData
	if err := a.call(ctx, "get-invoice", params, &data); err != nil {
		return nil, err
	}
	return &ProviderInvoice{
		ProviderInvoiceID: data.InvoiceID,
		Address:           data.Address,
		QrCodeURL:         data.QrCode,
		PaymentURL:        data.URL,
	}, nil
}

type balanceData struct {
	Balance json.Number `json:"balance"`
}

func (a *CoinremitterAdapter) GetBalance(ctx context.Context) (decimal.Decimal, error) {
	var data balanceData
	if err := a.call(ctx, "get-balance", nil, &data); err != nil {
		return decimal.Zero, err
	}
	balance, err := decimal.NewFromString(data.Balance.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s get-balance: bad amount %q: %w", a.network, data.Balance, ErrUnavailable)
	}
	return balance, nil
}

type withdrawData struct {
	ID   string `json:"id"`
	TxID string `json:"txid"`
}

func (a *CoinremitterAdapter) SendToken(ctx context.Context, amount decimal.Decimal, address string) (string, error) {
	params := url.Values{}
	params.Set("amount", amount.String())
	params.Set("address", address)

	var data withdrawData
	if err := a.call(ctx, "withdraw", params, &data); err != nil {
		return "", err
	}
	if data.TxID != "" {
		return data.TxID, nil
	}
	return data.ID, nil
}

type invoiceStatusData struct {
	PaidAmount    json.Number `json:"paid_amount"`
	Confirmations int         `json:"confirmations"`
	Status        string      `json:"status"`
}

func (a *CoinremitterAdapter) GetInvoiceStatus(ctx context.Context, providerInvoiceID string) (*InvoiceStatus, error) {
	params := url.Values{}
	params.Set("invoice_id", providerInvoiceID)

	var data invoiceStatusData
	if err := a.call(ctx, "get-invoice", params, &data); err != nil {
		return nil, err
	}
	paid := decimal.Zero
	if data.PaidAmount != "" {
		var err error
		paid, err = decimal.NewFromString(data.PaidAmount.String())
		if err != nil {
			return nil, fmt.Errorf("%s get-invoice: bad paid amount %q: %w", a.network, data.PaidAmount, ErrUnavailable)
		}
	}
	return &InvoiceStatus{
		PaidAmount:    paid,
		Confirmations: data.Confirmations,
		IsFinal:       strings.EqualFold(data.Status, "paid") && data.Confirmations >= a.threshold,
	}, nil
}
