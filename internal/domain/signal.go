package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Signal is an unvalidated observation about an asset from any data source.
// Immutable once created.
type Signal struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Text      string    `json:"text"`
	Symbol    string    `json:"symbol,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewPairEvent announces a freshly discovered trading pair and opens an
// observation window in the volume-velocity manager.
type NewPairEvent struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}

// OnChainTradeEvent is a raw on-chain buy observed for a symbol.
type OnChainTradeEvent struct {
	Symbol    string          `json:"symbol"`
	Buyer     string          `json:"buyer"`
	AmountUSD decimal.Decimal `json:"amountUsd"`
	TxID      string          `json:"txId"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ValidatedPayload is emitted when accumulated activity for a tracked symbol
// crossed the volume and unique-buyer thresholds within its window.
type ValidatedPayload struct {
	Symbol       string              `json:"symbol"`
	TotalVolume  decimal.Decimal     `json:"totalVolume"`
	UniqueBuyers int                 `json:"uniqueBuyers"`
	Events       []OnChainTradeEvent `json:"events"`
	WindowStart  time.Time           `json:"windowStart"`
	WindowEnd    time.Time           `json:"windowEnd"`
}
