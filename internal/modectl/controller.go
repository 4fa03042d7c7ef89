// Package modectl owns the paper/live execution mode and the automatic
// promotion from paper to live once ledger performance clears the bar.
package modectl

import (
	"sync"

	"go.uber.org/zap"

	"velocity/internal/bus"
	"velocity/internal/domain"
)

// Thresholds gate the automatic paper-to-live switch.
type Thresholds struct {
	WinRate   float64
	MinTrades int
}

// Controller is the only writer of the mode flags. Components ask it
// intention-revealing questions instead of reading shared configuration.
type Controller struct {
	mu         sync.Mutex
	live       bool
	autoSwitch bool
	thresholds Thresholds
	bus        *bus.Bus
	logger     *zap.Logger
}

// New creates a controller with the initial flags.
func New(live, autoSwitch bool, thresholds Thresholds, b *bus.Bus, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		live:       live,
		autoSwitch: autoSwitch,
		thresholds: thresholds,
		bus:        b,
		logger:     logger,
	}
}

// IsLive reports whether execution is real rather than simulated.
func (c *Controller) IsLive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

// Mode returns the current mode value.
func (c *Controller) Mode() domain.Mode {
	if c.IsLive() {
		return domain.ModeLive
	}
	return domain.ModePaper
}

// AutoSwitchEnabled reports whether automatic promotion is armed.
func (c *Controller) AutoSwitchEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoSwitch
}

// ToggleSend flips between paper and live at operator request and returns
// the resulting mode. The mode event is published only because the state
// actually changed.
func (c *Controller) ToggleSend() domain.Mode {
	c.mu.Lock()
	c.live = !c.live
	mode := domain.ModePaper
	if c.live {
		mode = domain.ModeLive
	}
	c.mu.Unlock()

	c.logger.Info("execution mode toggled", zap.String("mode", string(mode)))
	c.publishMode(mode)
	return mode
}

// ToggleAuto flips the auto-switch flag and returns the new value.
func (c *Controller) ToggleAuto() bool {
	c.mu.Lock()
	c.autoSwitch = !c.autoSwitch
	enabled := c.autoSwitch
	c.mu.Unlock()

	c.logger.Info("auto-switch toggled", zap.Bool("enabled", enabled))
	return enabled
}

// EvaluateAfterTrade runs after every successful execution. In paper mode
// with auto-switch armed it promotes to live once the win rate and trade
// count thresholds are both met. The promotion is one-directional: nothing
// here ever drops back to paper.
func (c *Controller) EvaluateAfterTrade(stats domain.Stats) {
	c.mu.Lock()
	if c.live || !c.autoSwitch {
		c.mu.Unlock()
		return
	}
	if stats.WinRate < c.thresholds.WinRate || stats.TotalTrades < c.thresholds.MinTrades {
		c.mu.Unlock()
		return
	}
	c.live = true
	c.mu.Unlock()

	c.logger.Info("auto-switch threshold reached, going live",
		zap.Float64("win_rate", stats.WinRate),
		zap.Int("total_trades", stats.TotalTrades))
	c.publishMode(domain.ModeLive)
}

func (c *Controller) publishMode(mode domain.Mode) {
	if c.bus != nil {
		c.bus.Publish(bus.TopicMode, domain.ModeChange{Mode: mode})
	}
}
