package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/gommon/random"
	"github.com/shopspring/decimal"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/finagent/usdthub/common"
	"github.com/finagent/usdthub/db/models"
)

// amountTokenScale is how many fractional digits a USDT quote keeps.
const amountTokenScale = 6

func (svc *PaymentService) makeInvoiceID() string {
	return fmt.Sprintf("INV_%d_%s", time.Now().Unix(), random.String(8, alphaNumBytes))
}

func (svc *PaymentService) validateAmount(amountUSD float64) error {
	if amountUSD < svc.Config.MinPaymentAmount {
		return invalidField("amount_usd", fmt.Sprintf("below minimum of %v USD", svc.Config.MinPaymentAmount))
	}
	if amountUSD > svc.Config.MaxPaymentAmount {
		return invalidField("amount_usd", fmt.Sprintf("above maximum of %v USD", svc.Config.MaxPaymentAmount))
	}
	return nil
}

// CreatePayment quotes amount_usd into USDT at the current oracle price,
// opens an invoice with the network's payment processor and stores it as
// pending. The token amount is frozen at creation time.
func (svc *PaymentService) CreatePayment(ctx context.Context, amountUSD float64, network, description string) (*models.Invoice, error) {
	if err := svc.validateAmount(amountUSD); err != nil {
		return nil, err
	}
	adp, err := svc.AdapterFor(network)
	if err != nil {
		return nil, err
	}

	quote, err := svc.Oracle.GetPrice(ctx)
	if err != nil {
		return nil, err
	}
	amountToken := decimal.NewFromFloat(amountUSD).Div(quote.Value).Round(amountTokenScale)

	if description == "" {
		description = fmt.Sprintf("Payment of %v USD in USDT (%s)", amountUSD, strings.ToUpper(adp.Network()))
	}
	provInvoice, err := adp.CreateInvoice(ctx, amountToken, description, svc.Config.PaymentTimeout)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	invoice := models.Invoice{
		ID:                 svc.makeInvoiceID(),
		Network:            adp.Network(),
		AmountUSD:          decimal.NewFromFloat(amountUSD),
		AmountToken:        amountToken,
		DestinationAddress: provInvoice.Address,
		ProviderInvoiceID:  provInvoice.ProviderInvoiceID,
		Description:        description,
		QrCode:             provInvoice.QrCodeURL,
		State:              common.InvoiceStatePending,
		CreatedAt:          now,
		ExpiresAt:          now.Add(time.Duration(svc.Config.PaymentTimeout) * time.Second),
	}
	if invoice.QrCode == "" {
		// provider gave no QR image, render one for the deposit address
		if png, qrErr := qrcode.Encode(provInvoice.Address, qrcode.Medium, 256); qrErr == nil {
			invoice.QrCode = "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
		}
	}

	if _, err := svc.DB.NewInsert().Model(&invoice).Exec(ctx); err != nil {
		return nil, err
	}
	svc.Logger.Infof("Created invoice id=%s network=%s amount_usd=%s amount_token=%s price=%s",
		invoice.ID, invoice.Network, invoice.AmountUSD, invoice.AmountToken, quote.Value)
	return &invoice, nil
}

// FindInvoice loads an invoice by its public id and lazily expires it when
// the deadline has passed. Reading is the minimum guarantee for expiry, the
// sweep routine merely keeps unread invoices from lingering.
func (svc *PaymentService) FindInvoice(ctx context.Context, invoiceID string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := svc.DB.NewSelect().Model(&invoice).Where("id = ?", invoiceID).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnknownInvoice
		}
		return nil, err
	}
	if err := svc.expireIfDue(ctx, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// ListInvoices returns invoices newest-first, optionally filtered by state
// and network.
func (svc *PaymentService) ListInvoices(ctx context.Context, state, network string, limit int) ([]models.Invoice, error) {
	invoices := []models.Invoice{}
	q := svc.DB.NewSelect().Model(&invoices).Order("created_at DESC")
	if state != "" {
		q = q.Where("state = ?", strings.ToLower(state))
	}
	if network != "" {
		q = q.Where("network = ?", strings.ToLower(network))
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (svc *PaymentService) expireIfDue(ctx context.Context, invoice *models.Invoice) error {
	if !invoice.ExpireIfDue(time.Now()) {
		return nil
	}
	// The update only touches the state column: the invoice was read outside
	// any lock, so a full-row write could roll back a credit that committed
	// since. The state guard loses the race to any concurrent transition.
	res, err := svc.DB.NewUpdate().Model((*models.Invoice)(nil)).
		Set("state = ?", common.InvoiceStateExpired).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", invoice.ID).
		Where("state IN (?, ?)", common.InvoiceStatePending, common.InvoiceStatePartiallyPaid).
		Exec(ctx)
	if err != nil {
		return err
	}
	expired, _ := res.RowsAffected()

	// reload so callers see the committed row, credits included
	if err := svc.DB.NewSelect().Model(invoice).Where("id = ?", invoice.ID).Scan(ctx); err != nil {
		return err
	}
	if expired > 0 {
		svc.Logger.Infof("Invoice expired id=%s", invoice.ID)
		svc.InvoicePubSub.Publish(InvoiceUpdatesTopic, *invoice)
	}
	return nil
}
