package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"velocity/internal/domain"
)

func newTestLedger(t *testing.T) (*Ledger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paper-trades.jsonl")
	l, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l, path
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestLedger_FIFOMatching(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.Append("X", d(10), d(1), domain.SideBuy, "")
	require.NoError(t, err)
	_, err = l.Append("X", d(5), d(2), domain.SideBuy, "")
	require.NoError(t, err)
	_, err = l.Append("X", d(12), d(3), domain.SideSell, "")
	require.NoError(t, err)

	realized := l.Realized()
	require.Len(t, realized, 2)

	assert.True(t, realized[0].Qty.Equal(d(10)))
	assert.True(t, realized[0].Profit.Equal(d(20)), "10 * (3-1)")
	assert.True(t, realized[1].Qty.Equal(d(2)))
	assert.True(t, realized[1].Profit.Equal(d(2)), "2 * (3-2)")

	lots := l.Lots("X")
	require.Len(t, lots, 1)
	assert.True(t, lots[0].Qty.Equal(d(3)))
	assert.True(t, lots[0].Price.Equal(d(2)))
}

func TestLedger_OversellDropsRemainder(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.Append("Y", d(5), d(1), domain.SideBuy, "")
	require.NoError(t, err)
	_, err = l.Append("Y", d(8), d(2), domain.SideSell, "")
	require.NoError(t, err)

	realized := l.Realized()
	require.Len(t, realized, 1)
	assert.True(t, realized[0].Qty.Equal(d(5)))
	assert.True(t, realized[0].Profit.Equal(d(5)), "5 * (2-1)")
	assert.Empty(t, l.Lots("Y"), "unmatched sell quantity is silently dropped")
}

func TestLedger_ReplayEquivalence(t *testing.T) {
	l, path := newTestLedger(t)

	_, err := l.Append("A", d(10), d(1), domain.SideBuy, "sig-1")
	require.NoError(t, err)
	_, err = l.Append("B", d(3), d(5), domain.SideBuy, "")
	require.NoError(t, err)
	_, err = l.Append("A", d(5), d(2), domain.SideBuy, "")
	require.NoError(t, err)
	_, err = l.Append("A", d(12), d(3), domain.SideSell, "")
	require.NoError(t, err)
	_, err = l.Append("B", d(4), d(6), domain.SideSell, "")
	require.NoError(t, err)

	wantTrades := l.Trades()
	wantRealized := l.Realized()
	wantLotsA := l.Lots("A")
	wantLotsB := l.Lots("B")
	wantStats := l.Stats()
	require.NoError(t, l.Close())

	replayed, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	defer replayed.Close()

	assert.Equal(t, wantTrades, replayed.Trades())
	assert.Equal(t, wantRealized, replayed.Realized())
	assert.Equal(t, wantLotsA, replayed.Lots("A"))
	assert.Equal(t, wantLotsB, replayed.Lots("B"))
	assert.Equal(t, wantStats, replayed.Stats())
}

func TestLedger_StatsEmpty(t *testing.T) {
	l, _ := newTestLedger(t)

	stats := l.Stats()
	assert.Zero(t, stats.TotalTrades)
	assert.Zero(t, stats.RealizedCount)
	assert.Zero(t, stats.WinRate, "winRate is 0 with no realized trades")
	assert.True(t, stats.AvgProfitPerRealized.IsZero())
}

func TestLedger_StatsCountsAndWinRate(t *testing.T) {
	l, _ := newTestLedger(t)

	// one winning realization and one losing realization
	_, err := l.Append("W", d(1), d(10), domain.SideBuy, "")
	require.NoError(t, err)
	_, err = l.Append("W", d(1), d(20), domain.SideSell, "")
	require.NoError(t, err)
	_, err = l.Append("L", d(1), d(10), domain.SideBuy, "")
	require.NoError(t, err)
	_, err = l.Append("L", d(1), d(5), domain.SideSell, "")
	require.NoError(t, err)

	stats := l.Stats()
	assert.Equal(t, 4, stats.TotalTrades)
	assert.Equal(t, 2, stats.Buys)
	assert.Equal(t, 2, stats.Sells)
	assert.Equal(t, 2, stats.RealizedCount)
	assert.True(t, stats.RealizedProfit.Equal(d(5)), "+10 -5")
	assert.InDelta(t, 0.5, stats.WinRate, 1e-9)
	assert.True(t, stats.AvgProfitPerRealized.Equal(decimal.NewFromFloat(2.5)))
}

func TestLedger_TruncatedFinalLineRejected(t *testing.T) {
	l, path := newTestLedger(t)
	_, err := l.Append("X", d(1), d(1), domain.SideBuy, "")
	require.NoError(t, err)
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-3], 0o644))

	_, err = Open(path, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated")
}

func TestLedger_MalformedRecordRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paper-trades.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("not-json\n"), 0o644))

	_, err := Open(path, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

func TestLedger_TradesCapAtMostRecent(t *testing.T) {
	l, _ := newTestLedger(t)

	for i := 0; i < 5; i++ {
		_, err := l.Append("Z", d(1), d(int64(i+1)), domain.SideBuy, "")
		require.NoError(t, err)
	}
	trades := l.Trades()
	require.Len(t, trades, 5)
	assert.True(t, trades[4].Price.Equal(d(5)), "newest last")
}
