package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ErrPriceUnavailable is returned only when no quote has ever been fetched.
// After the first successful fetch the client serves stale quotes instead of
// failing.
var ErrPriceUnavailable = errors.New("no USDT price available")

type Quote struct {
	Value     decimal.Decimal `json:"value"`
	FetchedAt time.Time       `json:"fetched_at"`
	Stale     bool            `json:"stale"`
}

// Client fetches the USDT market price from a DIA asset quotation endpoint
// and caches it for a TTL. Invoice pricing tolerates brief staleness better
// than hard failure, so a failed refresh serves the cached quote flagged
// stale.
type Client struct {
	url        string
	ttl        time.Duration
	httpClient *http.Client

	mu    sync.RWMutex
	quote *Quote

	now func() time.Time
}

func NewClient(url string, ttl time.Duration, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		ttl:        ttl,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

type diaQuotation struct {
	Price float64 `json:"Price"`
	Time  string  `json:"Time"`
}

// GetPrice returns the cached quote while it is fresh, otherwise refreshes.
// The lock is never held across the HTTP fetch; concurrent refreshes are
// harmless since the quote is swapped atomically.
func (c *Client) GetPrice(ctx context.Context) (*Quote, error) {
	c.mu.RLock()
	cached := c.quote
	c.mu.RUnlock()

	if cached != nil && c.now().Sub(cached.FetchedAt) < c.ttl {
		fresh := *cached
		fresh.Stale = false
		return &fresh, nil
	}

	quote, err := c.fetch(ctx)
	if err != nil {
		if cached != nil {
			stale := *cached
			stale.Stale = true
			return &stale, nil
		}
		return nil, fmt.Errorf("%v: %w", err, ErrPriceUnavailable)
	}

	c.mu.Lock()
	c.quote = quote
	c.mu.Unlock()

	result := *quote
	return &result, nil
}

func (c *Client) fetch(ctx context.Context) (*Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oracle status %d", resp.StatusCode)
	}

	var quotation diaQuotation
	if err := json.NewDecoder(resp.Body).Decode(&quotation); err != nil {
		return nil, err
	}
	if quotation.Price <= 0 {
		return nil, fmt.Errorf("oracle returned non-positive price %f", quotation.Price)
	}

	return &Quote{
		Value:     decimal.NewFromFloat(quotation.Price),
		FetchedAt: c.now(),
	}, nil
}

// SetClock overrides the time source. Used by tests.
func (c *Client) SetClock(now func() time.Time) {
	c.now = now
}
