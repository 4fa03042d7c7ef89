// Package vvm implements the volume-velocity manager: a per-symbol window
// state machine that validates a freshly discovered pair against on-chain
// accumulation thresholds.
package vvm

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"velocity/internal/domain"
)

// Config holds the window parameters.
type Config struct {
	Window          time.Duration
	ThresholdVolume decimal.Decimal
	ThresholdBuyers int
}

// DefaultConfig mirrors the stock thresholds: a five minute window, $5000
// of volume and 20 unique buyers.
func DefaultConfig() Config {
	return Config{
		Window:          5 * time.Minute,
		ThresholdVolume: decimal.NewFromInt(5000),
		ThresholdBuyers: 20,
	}
}

type tracker struct {
	symbol      string
	windowStart time.Time
	windowEnd   time.Time
	totalVolume decimal.Decimal
	buyers      map[string]struct{}
	events      []domain.OnChainTradeEvent
}

// Manager tracks at most one live window per symbol. A tracker resolves
// exactly once, through either the early-exit path in OnTrade or the
// deferred evaluation at window end. Resolution is an atomic take-and-remove
// under the manager mutex, so a late-firing timer observes the tracker
// already absent and is a no-op.
type Manager struct {
	mu       sync.Mutex
	cfg      Config
	logger   *zap.Logger
	trackers map[string]*tracker
	handler  func(domain.ValidatedPayload)

	now       func() time.Time
	afterFunc func(time.Duration, func()) *time.Timer
}

// NewManager creates a manager with the given thresholds.
func NewManager(cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Window <= 0 {
		cfg.Window = 5 * time.Minute
	}
	return &Manager{
		cfg:       cfg,
		logger:    logger,
		trackers:  make(map[string]*tracker),
		now:       time.Now,
		afterFunc: time.AfterFunc,
	}
}

// OnValidated registers the callback invoked when a tracker resolves
// successfully. The callback runs outside the manager mutex.
func (m *Manager) OnValidated(fn func(domain.ValidatedPayload)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = fn
}

// OnNewPair opens an observation window for the pair's symbol. Duplicate
// discovery for an already tracked symbol is ignored.
func (m *Manager) OnNewPair(p domain.NewPairEvent) {
	m.mu.Lock()
	if _, ok := m.trackers[p.Symbol]; ok {
		m.mu.Unlock()
		return
	}
	start := m.now()
	m.trackers[p.Symbol] = &tracker{
		symbol:      p.Symbol,
		windowStart: start,
		windowEnd:   start.Add(m.cfg.Window),
		totalVolume: decimal.Zero,
		buyers:      make(map[string]struct{}),
	}
	m.mu.Unlock()

	m.logger.Info("tracking new pair",
		zap.String("symbol", p.Symbol),
		zap.String("source", p.Source),
		zap.Duration("window", m.cfg.Window))

	symbol := p.Symbol
	m.afterFunc(m.cfg.Window, func() { m.evaluate(symbol) })
}

// OnTrade accumulates an on-chain trade into the symbol's tracker. Trades
// for untracked symbols or outside the window are ignored. If the tracker
// crosses both thresholds the window resolves immediately.
func (m *Manager) OnTrade(t domain.OnChainTradeEvent) {
	m.mu.Lock()
	tr, ok := m.trackers[t.Symbol]
	if !ok {
		m.mu.Unlock()
		return
	}
	if t.CreatedAt.Before(tr.windowStart) || t.CreatedAt.After(tr.windowEnd) {
		m.mu.Unlock()
		return
	}

	tr.totalVolume = tr.totalVolume.Add(t.AmountUSD)
	tr.buyers[t.Buyer] = struct{}{}
	tr.events = append(tr.events, t)

	if !m.passes(tr) {
		m.mu.Unlock()
		return
	}
	// early exit: remove before emitting so the deferred evaluation
	// cannot resolve the same tracker again
	delete(m.trackers, t.Symbol)
	payload := snapshot(tr)
	m.mu.Unlock()

	m.logger.Info("window validated early",
		zap.String("symbol", payload.Symbol),
		zap.String("total_volume", payload.TotalVolume.String()),
		zap.Int("unique_buyers", payload.UniqueBuyers))
	m.emit(payload)
}

// Tracking reports whether a live tracker exists for the symbol.
func (m *Manager) Tracking(symbol string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.trackers[symbol]
	return ok
}

// evaluate is the deferred check scheduled at window end. A tracker already
// resolved early is absent from the live set, making this a no-op.
func (m *Manager) evaluate(symbol string) {
	m.mu.Lock()
	tr, ok := m.trackers[symbol]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.trackers, symbol)
	passed := m.passes(tr)
	payload := snapshot(tr)
	m.mu.Unlock()

	if !passed {
		m.logger.Debug("window lapsed",
			zap.String("symbol", symbol),
			zap.String("total_volume", payload.TotalVolume.String()),
			zap.Int("unique_buyers", payload.UniqueBuyers))
		return
	}

	m.logger.Info("window validated at expiry",
		zap.String("symbol", symbol),
		zap.String("total_volume", payload.TotalVolume.String()),
		zap.Int("unique_buyers", payload.UniqueBuyers))
	m.emit(payload)
}

func (m *Manager) passes(tr *tracker) bool {
	return tr.totalVolume.GreaterThanOrEqual(m.cfg.ThresholdVolume) &&
		len(tr.buyers) >= m.cfg.ThresholdBuyers
}

func (m *Manager) emit(payload domain.ValidatedPayload) {
	m.mu.Lock()
	fn := m.handler
	m.mu.Unlock()
	if fn != nil {
		fn(payload)
	}
}

func snapshot(tr *tracker) domain.ValidatedPayload {
	events := make([]domain.OnChainTradeEvent, len(tr.events))
	copy(events, tr.events)
	return domain.ValidatedPayload{
		Symbol:       tr.symbol,
		TotalVolume:  tr.totalVolume,
		UniqueBuyers: len(tr.buyers),
		Events:       events,
		WindowStart:  tr.windowStart,
		WindowEnd:    tr.windowEnd,
	}
}
