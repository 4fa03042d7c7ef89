package adapters

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"velocity/internal/bus"
	"velocity/internal/clients"
	"velocity/internal/domain"
)

const discoveryQuery = "crypto"

// DexScreenerAdapter polls the DexScreener search API and announces the top
// results as new pairs. Poll errors are logged and the next tick retries.
type DexScreenerAdapter struct {
	dex    *clients.DexScreenerClient
	pairs  PairSink
	bus    *bus.Bus
	pollMs time.Duration
	logger *zap.Logger
}

// NewDexScreenerAdapter creates a discovery poller.
func NewDexScreenerAdapter(dex *clients.DexScreenerClient, pairs PairSink, b *bus.Bus, poll time.Duration, logger *zap.Logger) *DexScreenerAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DexScreenerAdapter{dex: dex, pairs: pairs, bus: b, pollMs: poll, logger: logger}
}

// Run polls until the context is cancelled.
func (a *DexScreenerAdapter) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.pollMs)
	defer ticker.Stop()

	a.logger.Info("dexscreener discovery started", zap.Duration("poll", a.pollMs))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.tick(ctx)
		}
	}
}

func (a *DexScreenerAdapter) tick(ctx context.Context) {
	results, err := a.dex.Search(ctx, discoveryQuery)
	if err != nil {
		a.logger.Warn("discovery poll failed", zap.Error(err))
		return
	}
	if len(results) > 3 {
		results = results[:3]
	}
	now := time.Now().UTC()
	for _, r := range results {
		symbol := r.Symbol
		if symbol == "" {
			symbol = "UNKNOWN"
		}
		event := domain.NewPairEvent{
			ID:        fmt.Sprintf("%d-%d", now.UnixMilli(), rand.Intn(10000)),
			Symbol:    symbol,
			Source:    "dexscreener",
			CreatedAt: now,
		}
		a.pairs.OnNewPair(event)
		a.bus.Publish(bus.TopicSignal, domain.Signal{
			ID:        event.ID,
			Source:    "dexscreener",
			Text:      fmt.Sprintf("DexScreener NEW PAIR: %s", symbol),
			Symbol:    symbol,
			CreatedAt: now,
		})
	}
}
