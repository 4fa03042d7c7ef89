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
	defaultDexScreenerURL = "https://api.dexscreener.com"
	dexScreenerTimeout    = 5 * time.Second
)

// PairInfo is the slice of DexScreener pair data the engine cares about.
type PairInfo struct {
	Symbol       string
	PriceUSD     decimal.Decimal
	LiquidityUSD decimal.Decimal
}

// DexScreenerClient wraps the DexScreener search API. It backs both the
// discovery adapter and the safety screen.
type DexScreenerClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewDexScreenerClient creates a client; an empty baseURL uses the public API.
func NewDexScreenerClient(baseURL string) *DexScreenerClient {
	if baseURL == "" {
		baseURL = defaultDexScreenerURL
	}
	return &DexScreenerClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: dexScreenerTimeout},
	}
}

type dexSearchResponse struct {
	Pairs []struct {
		BaseToken struct {
			Symbol string `json:"symbol"`
		} `json:"baseToken"`
		PriceUSD  string `json:"priceUsd"`
		Liquidity struct {
			USD float64 `json:"usd"`
		} `json:"liquidity"`
	} `json:"pairs"`
}

// Search queries pairs matching q, best match first.
func (c *DexScreenerClient) Search(ctx context.Context, q string) ([]PairInfo, error) {
	endpoint := fmt.Sprintf("%s/latest/dex/search?q=%s", c.baseURL, url.QueryEscape(q))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build dexscreener request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "dexscreener search")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("dexscreener search: unexpected status %d", resp.StatusCode)
	}

	var parsed dexSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, "decode dexscreener response")
	}

	out := make([]PairInfo, 0, len(parsed.Pairs))
	for _, p := range parsed.Pairs {
		info := PairInfo{
			Symbol:       p.BaseToken.Symbol,
			LiquidityUSD: decimal.NewFromFloat(p.Liquidity.USD),
		}
		if p.PriceUSD != "" {
			if price, err := decimal.NewFromString(p.PriceUSD); err == nil {
				info.PriceUSD = price
			}
		}
		out = append(out, info)
	}
	return out, nil
}
