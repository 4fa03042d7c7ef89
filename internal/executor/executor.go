package executor

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"velocity/internal/domain"
	"velocity/internal/ledger"
)

// Result is the outcome of a trade attempt.
type Result struct {
	OK     bool
	ID     string
	Record *domain.TradeRecord
	Err    error
}

// Executor places a buy for a symbol at the quoted price.
type Executor interface {
	Execute(ctx context.Context, symbol string, qty, price decimal.Decimal, source string) Result
}

// PaperExecutor records trades in the paper ledger instead of sending them
// anywhere. This is the default execution path.
type PaperExecutor struct {
	ledger *ledger.Ledger
	logger *zap.Logger
}

// NewPaperExecutor creates a paper executor backed by the given ledger.
func NewPaperExecutor(l *ledger.Ledger, logger *zap.Logger) *PaperExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaperExecutor{ledger: l, logger: logger}
}

// Execute appends a buy to the ledger and returns its record.
func (e *PaperExecutor) Execute(_ context.Context, symbol string, qty, price decimal.Decimal, source string) Result {
	rec, err := e.ledger.Append(symbol, qty, price, domain.SideBuy, source)
	if err != nil {
		e.logger.Error("paper trade append failed", zap.String("symbol", symbol), zap.Error(err))
		return Result{Err: err}
	}
	e.logger.Info("paper trade recorded",
		zap.String("symbol", symbol),
		zap.String("qty", qty.String()),
		zap.String("price", price.String()))
	return Result{OK: true, ID: "paper:" + rec.ID, Record: &rec}
}
