package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side of a ledger record.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// TradeRecord is a single entry of the append-only trade ledger. The durable
// log is the source of truth: records are never modified or removed.
type TradeRecord struct {
	ID     string          `json:"id"`
	Symbol string          `json:"symbol"`
	Qty    decimal.Decimal `json:"qty"`
	Price  decimal.Decimal `json:"price"`
	Time   time.Time       `json:"time"`
	Side   Side            `json:"side"`
	Source string          `json:"source,omitempty"`
}

// Lot is an open buy quantity awaiting FIFO matching against future sells.
// Qty is the remaining unmatched quantity.
type Lot struct {
	ID    string          `json:"id"`
	Qty   decimal.Decimal `json:"qty"`
	Price decimal.Decimal `json:"price"`
	Time  time.Time       `json:"time"`
}

// RealizedEntry is produced when a sell consumes one or more lots.
type RealizedEntry struct {
	ID        string          `json:"id"`
	Symbol    string          `json:"symbol"`
	Qty       decimal.Decimal `json:"qty"`
	BuyPrice  decimal.Decimal `json:"buyPrice"`
	SellPrice decimal.Decimal `json:"sellPrice"`
	Profit    decimal.Decimal `json:"profit"`
	Time      time.Time       `json:"time"`
}

// TradeNotice is the payload published on the trade topic after a successful
// execution.
type TradeNotice struct {
	Symbol  string    `json:"symbol"`
	ID      string    `json:"id"`
	Time    time.Time `json:"time"`
	Details any       `json:"details,omitempty"`
}
