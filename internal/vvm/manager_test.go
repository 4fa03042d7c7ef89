package vvm

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"velocity/internal/domain"
)

// newTestManager returns a manager with a controllable clock and captured
// deferred evaluations so tests can fire the window-end check by hand.
func newTestManager(thresholdVolume int64, thresholdBuyers int) (*Manager, *[]func(), *time.Time) {
	m := NewManager(Config{
		Window:          time.Minute,
		ThresholdVolume: decimal.NewFromInt(thresholdVolume),
		ThresholdBuyers: thresholdBuyers,
	}, zap.NewNop())

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := now
	m.now = func() time.Time { return current }

	var deferred []func()
	m.afterFunc = func(_ time.Duration, fn func()) *time.Timer {
		deferred = append(deferred, fn)
		return nil
	}
	return m, &deferred, &current
}

func pair(symbol string) domain.NewPairEvent {
	return domain.NewPairEvent{ID: "p1", Symbol: symbol, Source: "dexscreener", CreatedAt: time.Now()}
}

func trade(symbol, buyer string, usd int64, at time.Time) domain.OnChainTradeEvent {
	return domain.OnChainTradeEvent{
		Symbol:    symbol,
		Buyer:     buyer,
		AmountUSD: decimal.NewFromInt(usd),
		TxID:      "tx-" + buyer,
		CreatedAt: at,
	}
}

func TestManager_EarlyValidationFiresOnce(t *testing.T) {
	m, deferred, now := newTestManager(100, 2)

	var validated []domain.ValidatedPayload
	m.OnValidated(func(p domain.ValidatedPayload) { validated = append(validated, p) })

	m.OnNewPair(pair("MOON"))
	require.Len(t, *deferred, 1)

	m.OnTrade(trade("MOON", "w1", 60, *now))
	assert.Empty(t, validated, "thresholds not crossed yet")

	m.OnTrade(trade("MOON", "w2", 50, *now))
	require.Len(t, validated, 1, "validated fires at the moment of crossing")
	assert.Equal(t, "MOON", validated[0].Symbol)
	assert.True(t, validated[0].TotalVolume.Equal(decimal.NewFromInt(110)))
	assert.Equal(t, 2, validated[0].UniqueBuyers)
	assert.Len(t, validated[0].Events, 2)
	assert.False(t, m.Tracking("MOON"))

	// the deferred window-end check fires later and must not re-emit
	(*deferred)[0]()
	assert.Len(t, validated, 1)
}

func TestManager_TimeoutValidationAtExpiry(t *testing.T) {
	m, deferred, now := newTestManager(1000, 2)

	var validated []domain.ValidatedPayload
	m.OnValidated(func(p domain.ValidatedPayload) { validated = append(validated, p) })

	m.OnNewPair(pair("SLOW"))
	m.OnTrade(trade("SLOW", "w1", 70, *now))
	m.OnTrade(trade("SLOW", "w2", 40, now.Add(30*time.Second)))
	require.Empty(t, validated, "under the volume threshold, no early exit")

	// the expiry check re-evaluates the same condition; lower the bar so
	// the accumulated state now passes and the timeout path emits
	m.cfg.ThresholdVolume = decimal.NewFromInt(100)
	require.Len(t, *deferred, 1)
	(*deferred)[0]()

	require.Len(t, validated, 1)
	assert.Equal(t, "SLOW", validated[0].Symbol)
	assert.True(t, validated[0].TotalVolume.Equal(decimal.NewFromInt(110)))
	assert.False(t, m.Tracking("SLOW"))

	// a second firing of the same deferred check is a guaranteed no-op
	(*deferred)[0]()
	assert.Len(t, validated, 1)
}

func TestManager_CrossingResolvesImmediately(t *testing.T) {
	m, deferred, now := newTestManager(100, 2)

	var validated []domain.ValidatedPayload
	m.OnValidated(func(p domain.ValidatedPayload) { validated = append(validated, p) })

	m.OnNewPair(pair("EDGE"))
	// volume crosses but buyers stay at one: no early exit yet
	m.OnTrade(trade("EDGE", "w1", 150, *now))
	require.Empty(t, validated)

	// second unique buyer completes the condition at this exact event
	m.OnTrade(trade("EDGE", "w2", 1, now.Add(time.Second)))
	require.Len(t, validated, 1)
	(*deferred)[0]()
	assert.Len(t, validated, 1)
}

func TestManager_LapsesSilentlyBelowThresholds(t *testing.T) {
	m, deferred, now := newTestManager(1000, 5)

	var validated int
	m.OnValidated(func(domain.ValidatedPayload) { validated++ })

	m.OnNewPair(pair("DUST"))
	m.OnTrade(trade("DUST", "w1", 10, *now))
	m.OnTrade(trade("DUST", "w2", 10, *now))

	require.Len(t, *deferred, 1)
	(*deferred)[0]()

	assert.Zero(t, validated)
	assert.False(t, m.Tracking("DUST"), "tracker removed at window end")
}

func TestManager_DuplicateNewPairIgnored(t *testing.T) {
	m, deferred, _ := newTestManager(100, 1)

	m.OnNewPair(pair("DUP"))
	m.OnNewPair(pair("DUP"))

	assert.Len(t, *deferred, 1, "second discovery schedules nothing")
	assert.True(t, m.Tracking("DUP"))
}

func TestManager_UntrackedSymbolIgnored(t *testing.T) {
	m, _, now := newTestManager(1, 1)

	var validated int
	m.OnValidated(func(domain.ValidatedPayload) { validated++ })

	m.OnTrade(trade("GHOST", "w1", 100, *now))
	assert.Zero(t, validated)
}

func TestManager_OutOfWindowTradeIgnored(t *testing.T) {
	m, deferred, now := newTestManager(50, 1)

	var validated int
	m.OnValidated(func(domain.ValidatedPayload) { validated++ })

	m.OnNewPair(pair("LATE"))
	m.OnTrade(trade("LATE", "w1", 100, now.Add(2*time.Minute)))
	assert.Zero(t, validated, "event after windowEnd is dropped")

	m.OnTrade(trade("LATE", "w1", 100, now.Add(-time.Second)))
	assert.Zero(t, validated, "event before windowStart is dropped")

	(*deferred)[0]()
	assert.Zero(t, validated)
}
