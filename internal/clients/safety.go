package clients

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SafetyResult is the outcome of the pre-trade rug screen.
type SafetyResult struct {
	OK     bool
	Reason string
}

// SafetyChecker screens a symbol before the orchestrator builds a signal
// from a validated window. It is deliberately permissive: only a confirmed
// red flag blocks the pipeline, while missing data or a collaborator
// failure defaults to allow.
type SafetyChecker struct {
	dex          *DexScreenerClient
	minLiquidity decimal.Decimal
	logger       *zap.Logger
}

// NewSafetyChecker creates a checker rejecting pairs under minLiquidity USD.
func NewSafetyChecker(dex *DexScreenerClient, minLiquidity decimal.Decimal, logger *zap.Logger) *SafetyChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SafetyChecker{dex: dex, minLiquidity: minLiquidity, logger: logger}
}

// Check runs the screen for a symbol.
func (s *SafetyChecker) Check(ctx context.Context, symbol string) SafetyResult {
	pairs, err := s.dex.Search(ctx, symbol)
	if err != nil {
		s.logger.Warn("safety check degraded to allow", zap.String("symbol", symbol), zap.Error(err))
		return SafetyResult{OK: true}
	}
	if len(pairs) == 0 {
		return SafetyResult{OK: true}
	}
	if pairs[0].LiquidityUSD.LessThan(s.minLiquidity) {
		return SafetyResult{OK: false, Reason: "low liquidity"}
	}
	return SafetyResult{OK: true}
}
