// Package orchestrator drives the decision pipeline: every signal passes
// the hype/quote gate exactly once and either becomes a trade or a recorded
// rejection.
package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"velocity/internal/bus"
	"velocity/internal/clients"
	"velocity/internal/domain"
	"velocity/internal/executor"
	"velocity/internal/modectl"
)

const unknownSymbol = "UNKNOWN"

var symbolPattern = regexp.MustCompile(`\$?([A-Z]{2,5})`)

// HypeScorer rates signal text.
type HypeScorer interface {
	Score(ctx context.Context, text string) clients.HypeResult
}

// Quoter prices a USD-denominated buy.
type Quoter interface {
	Quote(ctx context.Context, symbol string, usdAmount decimal.Decimal) clients.QuoteResult
}

// SafetyScreen gates validated symbols before a signal is built from them.
type SafetyScreen interface {
	Check(ctx context.Context, symbol string) clients.SafetyResult
}

// StatsSource exposes the ledger's aggregate view.
type StatsSource interface {
	Stats() domain.Stats
}

// DecisionSink journals gate outcomes. Optional; journaling failures never
// block the pipeline.
type DecisionSink interface {
	Save(event domain.DecisionEvent) error
}

// Config holds the gate parameters.
type Config struct {
	HypeThreshold float64
	TradeUSD      decimal.Decimal
}

// Orchestrator wires the collaborators around the decision gate.
type Orchestrator struct {
	cfg       Config
	bus       *bus.Bus
	hype      HypeScorer
	quoter    Quoter
	safety    SafetyScreen
	paper     executor.Executor
	live      executor.Executor
	modes     *modectl.Controller
	stats     StatsSource
	decisions DecisionSink
	logger    *zap.Logger
}

// New creates an orchestrator. live and decisions may be nil; a nil live
// executor pins execution to paper regardless of mode.
func New(cfg Config, b *bus.Bus, hype HypeScorer, quoter Quoter, safety SafetyScreen,
	paper, live executor.Executor, modes *modectl.Controller, stats StatsSource,
	decisions DecisionSink, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		cfg:       cfg,
		bus:       b,
		hype:      hype,
		quoter:    quoter,
		safety:    safety,
		paper:     paper,
		live:      live,
		modes:     modes,
		stats:     stats,
		decisions: decisions,
		logger:    logger,
	}
}

// HandleSignal runs one signal through the gate.
func (o *Orchestrator) HandleSignal(ctx context.Context, sig domain.Signal) {
	o.bus.Publish(bus.TopicSignal, sig)

	symbol := resolveSymbol(sig)
	logger := o.logger.With(zap.String("signal_id", sig.ID), zap.String("symbol", symbol))

	var (
		hypeRes  clients.HypeResult
		quoteRes clients.QuoteResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hypeRes = o.hype.Score(gctx, sig.Text)
		return nil
	})
	g.Go(func() error {
		quoteRes = o.quoter.Quote(gctx, symbol, o.cfg.TradeUSD)
		return nil
	})
	_ = g.Wait()

	logger = logger.With(
		zap.Float64("hype_score", hypeRes.Score),
		zap.Bool("quote_ok", quoteRes.OK))
	logger.Info("lookups settled",
		zap.Duration("quote_latency", quoteRes.Latency),
		zap.Duration("hype_latency", hypeRes.Latency))

	if hypeRes.Score < o.cfg.HypeThreshold || !quoteRes.OK {
		reason := "hype below threshold"
		if hypeRes.Score >= o.cfg.HypeThreshold {
			reason = "no feasible quote"
		}
		logger.Info("signal rejected", zap.String("reason", reason))
		o.journal(domain.DecisionEvent{
			SignalID:  sig.ID,
			Symbol:    symbol,
			Outcome:   domain.DecisionRejected,
			HypeScore: hypeRes.Score,
			QuoteOK:   quoteRes.OK,
			Mode:      o.modes.Mode(),
			Reason:    reason,
		})
		return
	}

	exec := o.paper
	if o.modes.IsLive() && o.live != nil {
		exec = o.live
	}
	res := exec.Execute(ctx, symbol, quoteRes.OutAmount, quoteRes.Price, sig.Source)
	if !res.OK {
		logger.Error("execution failed", zap.Error(res.Err))
		o.journal(domain.DecisionEvent{
			SignalID:  sig.ID,
			Symbol:    symbol,
			Outcome:   domain.DecisionFailed,
			HypeScore: hypeRes.Score,
			QuoteOK:   true,
			Mode:      o.modes.Mode(),
			Reason:    res.Err.Error(),
		})
		return
	}

	logger.Info("trade executed", zap.String("trade_id", res.ID))
	o.bus.Publish(bus.TopicTrade, domain.TradeNotice{
		Symbol:  symbol,
		ID:      res.ID,
		Time:    time.Now().UTC(),
		Details: res.Record,
	})

	stats := o.stats.Stats()
	o.bus.Publish(bus.TopicStats, stats)
	o.modes.EvaluateAfterTrade(stats)

	o.journal(domain.DecisionEvent{
		SignalID:  sig.ID,
		Symbol:    symbol,
		Outcome:   domain.DecisionExecuted,
		HypeScore: hypeRes.Score,
		QuoteOK:   true,
		Mode:      o.modes.Mode(),
		TradeID:   res.ID,
	})
}

// HandleValidated turns a validated activity window into a synthetic signal.
func (o *Orchestrator) HandleValidated(ctx context.Context, payload domain.ValidatedPayload) {
	if o.safety != nil {
		if check := o.safety.Check(ctx, payload.Symbol); !check.OK {
			o.logger.Warn("validated symbol blocked by safety screen",
				zap.String("symbol", payload.Symbol),
				zap.String("reason", check.Reason))
			o.journal(domain.DecisionEvent{
				SignalID: fmt.Sprintf("validated-%s-%d", payload.Symbol, time.Now().UnixMilli()),
				Symbol:   payload.Symbol,
				Outcome:  domain.DecisionBlocked,
				Mode:     o.modes.Mode(),
				Reason:   check.Reason,
			})
			return
		}
	}

	sig := domain.Signal{
		ID:     fmt.Sprintf("validated-%s-%d", payload.Symbol, time.Now().UnixMilli()),
		Source: "volume-velocity",
		Text: fmt.Sprintf("Validated %s with $%s across %d wallets",
			payload.Symbol, payload.TotalVolume.String(), payload.UniqueBuyers),
		Symbol:    payload.Symbol,
		CreatedAt: time.Now().UTC(),
	}

	o.bus.Publish(bus.TopicValidated, payload)
	o.HandleSignal(ctx, sig)
}

func (o *Orchestrator) journal(event domain.DecisionEvent) {
	if o.decisions == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	if err := o.decisions.Save(event); err != nil {
		o.logger.Warn("decision journal write failed", zap.Error(err))
	}
}

func resolveSymbol(sig domain.Signal) string {
	if sig.Symbol != "" {
		return sig.Symbol
	}
	if m := symbolPattern.FindStringSubmatch(sig.Text); m != nil {
		return m[1]
	}
	return unknownSymbol
}
