package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finagent/usdthub/common"
)

func newTestAdapter(t *testing.T, network string, handler http.HandlerFunc) *CoinremitterAdapter {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &Config{
		BaseURL:       server.URL,
		Timeout:       5,
		TRC20APIKey:   "key-trc",
		TRC20Password: "pw-trc",
		ERC20APIKey:   "key-erc",
		ERC20Password: "pw-erc",
	}
	a, err := NewCoinremitterAdapter(network, cfg)
	require.NoError(t, err)
	return a
}

func TestCreateInvoice(t *testing.T) {
	a := newTestAdapter(t, common.NetworkTRC20, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/USDTTRC20/get-invoice", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "key-trc", r.PostForm.Get("api_key"))
		assert.Equal(t, "100.5", r.PostForm.Get("amount"))
		assert.Equal(t, "60", r.PostForm.Get("expire_time"))
		w.Write([]byte(`{"flag":1,"msg":"success","data":{"invoice_id":"CR123","address":"TXYZabc","qr_code":"https://qr","url":"https://pay"}}`))
	})

	inv, err := a.CreateInvoice(context.Background(), decimal.RequireFromString("100.5"), "test payment", 3600)
	require.NoError(t, err)
	assert.Equal(t, "CR123", inv.ProviderInvoiceID)
	assert.Equal(t, "TXYZabc", inv.Address)
	assert.Equal(t, "https://qr", inv.QrCodeURL)
}

func TestGetBalance(t *testing.T) {
	a := newTestAdapter(t, common.NetworkERC20, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/USDTERC20/get-balance", r.URL.Path)
		w.Write([]byte(`{"flag":1,"data":{"balance":"1520.25"}}`))
	})

	balance, err := a.GetBalance(context.Background())
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("1520.25")))
}

func TestProviderRejection(t *testing.T) {
	a := newTestAdapter(t, common.NetworkTRC20, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"flag":0,"msg":"insufficient balance"}`))
	})

	_, err := a.SendToken(context.Background(), decimal.NewFromInt(10), "TXYZabc")
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "insufficient balance")
}

func TestServerErrorIsUnavailable(t *testing.T) {
	a := newTestAdapter(t, common.NetworkTRC20, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := a.GetBalance(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestMalformedResponseIsUnavailable(t *testing.T) {
	a := newTestAdapter(t, common.NetworkTRC20, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	_, err := a.GetBalance(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGetInvoiceStatus(t *testing.T) {
	a := newTestAdapter(t, common.NetworkERC20, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"flag":1,"data":{"paid_amount":"40","confirmations":12,"status":"paid"}}`))
	})

	status, err := a.GetInvoiceStatus(context.Background(), "CR123")
	require.NoError(t, err)
	assert.True(t, status.PaidAmount.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, 12, status.Confirmations)
	assert.True(t, status.IsFinal)
}

func TestValidateAddress(t *testing.T) {
	trc := newTestAdapter(t, common.NetworkTRC20, func(w http.ResponseWriter, r *http.Request) {})
	erc := newTestAdapter(t, common.NetworkERC20, func(w http.ResponseWriter, r *http.Request) {})

	assert.True(t, trc.ValidateAddress("TJRabPrwbZy45sbavfcjinPJC18kjpRTv8"))
	assert.False(t, trc.ValidateAddress("0x742d35Cc6634C0532925a3b844Bc454e4438f44e"))
	assert.False(t, trc.ValidateAddress("Tshort"))

	assert.True(t, erc.ValidateAddress("0x742d35Cc6634C0532925a3b844Bc454e4438f44e"))
	assert.False(t, erc.ValidateAddress("TJRabPrwbZy45sbavfcjinPJC18kjpRTv8"))
	assert.False(t, erc.ValidateAddress("0x123"))
}

func TestConfirmationThresholds(t *testing.T) {
	trc := newTestAdapter(t, common.NetworkTRC20, func(w http.ResponseWriter, r *http.Request) {})
	erc := newTestAdapter(t, common.NetworkERC20, func(w http.ResponseWriter, r *http.Request) {})

	assert.Equal(t, 19, trc.ConfirmationThreshold())
	assert.Equal(t, 12, erc.ConfirmationThreshold())
}
