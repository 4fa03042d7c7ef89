package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	defaultJupiterURL = "https://quote-api.jup.ag"
	jupiterTimeout    = 5 * time.Second
)

// JupiterClient wraps the Jupiter price API. It is the primary quote source
// for USDC-denominated buys.
type JupiterClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewJupiterClient creates a client; an empty baseURL uses the public API.
func NewJupiterClient(baseURL string) *JupiterClient {
	if baseURL == "" {
		baseURL = defaultJupiterURL
	}
	return &JupiterClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: jupiterTimeout},
	}
}

type jupiterPriceResponse struct {
	Data map[string]struct {
		Price json.Number `json:"price"`
	} `json:"data"`
}

// Price returns the USDC price for a symbol.
func (c *JupiterClient) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/price?ids=%s&vsToken=USDC", c.baseURL, url.QueryEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "build jupiter request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "jupiter price")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, errors.Errorf("jupiter price: unexpected status %d", resp.StatusCode)
	}

	var parsed jupiterPriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "decode jupiter response")
	}

	entry, ok := parsed.Data[symbol]
	if !ok {
		return decimal.Decimal{}, errors.Errorf("jupiter price: no data for %s", symbol)
	}
	price, err := decimal.NewFromString(entry.Price.String())
	if err != nil {
		return decimal.Decimal{}, errors.Wrap(err, "parse jupiter price")
	}
	return price, nil
}
