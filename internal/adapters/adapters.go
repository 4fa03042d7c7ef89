// Package adapters holds the signal sources. The set is static: each adapter
// is constructed and started explicitly from configuration, nothing is
// discovered or loaded at runtime.
package adapters

import (
	"context"

	"velocity/internal/domain"
)

// PairSink receives discovered pairs, opening observation windows.
type PairSink interface {
	OnNewPair(p domain.NewPairEvent)
}

// TradeSink receives raw on-chain buys for tracked symbols.
type TradeSink interface {
	OnTrade(t domain.OnChainTradeEvent)
}

// SignalHandler receives chatter signals for the decision pipeline.
type SignalHandler interface {
	HandleSignal(ctx context.Context, sig domain.Signal)
}
