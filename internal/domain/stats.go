package domain

import "github.com/shopspring/decimal"

// Stats is derived from the ledger on demand, never stored.
type Stats struct {
	TotalTrades          int             `json:"totalTrades"`
	Buys                 int             `json:"buys"`
	Sells                int             `json:"sells"`
	RealizedCount        int             `json:"realizedCount"`
	RealizedProfit       decimal.Decimal `json:"realizedProfit"`
	WinRate              float64         `json:"winRate"`
	AvgProfitPerRealized decimal.Decimal `json:"avgProfitPerRealized"`
}
