package adapters

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"velocity/internal/domain"
)

var scraperSymbols = []string{"DOGE", "SOL", "BTC", "ETH"}

// ScraperArray simulates a rotating pool of social accounts emitting
// chatter. Roughly a quarter of ticks carry a real hype signal. It is the
// fallback source when no live adapter is enabled.
type ScraperArray struct {
	accounts []string
	interval time.Duration
	handler  SignalHandler
	logger   *zap.Logger
	counter  int
}

// NewScraperArray creates the simulator.
func NewScraperArray(accounts []string, interval time.Duration, handler SignalHandler, logger *zap.Logger) *ScraperArray {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(accounts) == 0 {
		accounts = []string{"A", "B", "C"}
	}
	return &ScraperArray{accounts: accounts, interval: interval, handler: handler, logger: logger}
}

// Run emits chatter until the context is cancelled.
func (s *ScraperArray) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("scraper simulator started",
		zap.Int("accounts", len(s.accounts)),
		zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.handler.HandleSignal(ctx, s.tick())
		}
	}
}

func (s *ScraperArray) tick() domain.Signal {
	s.counter++
	account := s.accounts[s.counter%len(s.accounts)]
	isSignal := rand.Float64() < 0.25
	symbol := scraperSymbols[rand.Intn(len(scraperSymbols))]

	text := fmt.Sprintf("random chatter about %s", symbol)
	sigSymbol := ""
	if isSignal {
		text = fmt.Sprintf("%s is going to moon! 🚀", symbol)
		sigSymbol = symbol
	}

	now := time.Now().UTC()
	return domain.Signal{
		ID:        fmt.Sprintf("%d-%d", now.UnixMilli(), rand.Intn(1000)),
		Source:    account,
		Text:      text,
		Symbol:    sigSymbol,
		CreatedAt: now,
	}
}
