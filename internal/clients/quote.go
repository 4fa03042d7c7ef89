package clients

import (
	"context"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// QuoteResult is the feasibility/quote outcome for a symbol. OK=false means
// no usable price could be found and the trade is infeasible.
type QuoteResult struct {
	OK        bool
	Symbol    string
	Price     decimal.Decimal
	OutAmount decimal.Decimal
	Source    string
	Latency   time.Duration
}

// simPrices mirror the built-in reference prices used when no live source
// answers for a symbol.
var simPrices = map[string]decimal.Decimal{
	"DOGE": decimal.NewFromFloat(0.06),
	"SOL":  decimal.NewFromInt(120),
	"BTC":  decimal.NewFromInt(40000),
	"ETH":  decimal.NewFromInt(2000),
	"USDC": decimal.NewFromInt(1),
}

// QuoteService resolves a USD-denominated quote for a symbol. Sources are
// tried in order: the Jupiter price API, Binance spot ticker for listed
// majors, DexScreener pair price, then the static reference table. Failures
// never propagate as errors; total failure is reported as infeasible.
type QuoteService struct {
	jupiter *JupiterClient
	binance *binance.Client
	dex     *DexScreenerClient
	logger  *zap.Logger
}

// NewQuoteService creates a quote service. The jupiter and binance clients
// are optional.
func NewQuoteService(jupiter *JupiterClient, binanceClient *binance.Client, dex *DexScreenerClient, logger *zap.Logger) *QuoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuoteService{jupiter: jupiter, binance: binanceClient, dex: dex, logger: logger}
}

// Quote prices buying usdAmount worth of symbol.
func (q *QuoteService) Quote(ctx context.Context, symbol string, usdAmount decimal.Decimal) QuoteResult {
	start := time.Now()

	if price, ok := q.jupiterPrice(ctx, symbol); ok {
		return q.result(symbol, price, usdAmount, "jupiter", start)
	}
	if price, ok := q.binancePrice(ctx, symbol); ok {
		return q.result(symbol, price, usdAmount, "binance", start)
	}
	if price, ok := q.dexPrice(ctx, symbol); ok {
		return q.result(symbol, price, usdAmount, "dexscreener", start)
	}
	if price, ok := simPrices[symbol]; ok {
		return q.result(symbol, price, usdAmount, "sim", start)
	}

	q.logger.Warn("no price source answered", zap.String("symbol", symbol))
	return QuoteResult{Symbol: symbol, Latency: time.Since(start)}
}

func (q *QuoteService) result(symbol string, price, usdAmount decimal.Decimal, source string, start time.Time) QuoteResult {
	return QuoteResult{
		OK:        true,
		Symbol:    symbol,
		Price:     price,
		OutAmount: usdAmount.Div(price),
		Source:    source,
		Latency:   time.Since(start),
	}
}

func (q *QuoteService) jupiterPrice(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	if q.jupiter == nil {
		return decimal.Decimal{}, false
	}
	price, err := q.jupiter.Price(ctx, symbol)
	if err != nil || price.LessThanOrEqual(decimal.Zero) {
		return decimal.Decimal{}, false
	}
	return price, true
}

func (q *QuoteService) binancePrice(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	if q.binance == nil {
		return decimal.Decimal{}, false
	}
	prices, err := q.binance.NewListPricesService().Symbol(symbol + "USDT").Do(ctx)
	if err != nil || len(prices) == 0 {
		return decimal.Decimal{}, false
	}
	price, err := decimal.NewFromString(prices[0].Price)
	if err != nil || price.LessThanOrEqual(decimal.Zero) {
		return decimal.Decimal{}, false
	}
	return price, true
}

func (q *QuoteService) dexPrice(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	if q.dex == nil {
		return decimal.Decimal{}, false
	}
	pairs, err := q.dex.Search(ctx, symbol)
	if err != nil || len(pairs) == 0 {
		return decimal.Decimal{}, false
	}
	if pairs[0].PriceUSD.LessThanOrEqual(decimal.Zero) {
		return decimal.Decimal{}, false
	}
	return pairs[0].PriceUSD, true
}
