package executor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"velocity/internal/domain"
	"velocity/internal/ledger"
)

func newTestLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l, err := ledger.Open(filepath.Join(t.TempDir(), "trades.jsonl"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestPaperExecutor_RecordsBuy(t *testing.T) {
	l := newTestLedger(t)
	e := NewPaperExecutor(l, zap.NewNop())

	res := e.Execute(context.Background(), "SOL", decimal.NewFromInt(2), decimal.NewFromInt(120), "twitter")

	require.True(t, res.OK)
	assert.True(t, strings.HasPrefix(res.ID, "paper:"))
	require.NotNil(t, res.Record)
	assert.Equal(t, domain.SideBuy, res.Record.Side)

	trades := l.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, "SOL", trades[0].Symbol)
}

func TestLiveExecutor_NoKeyFails(t *testing.T) {
	l := newTestLedger(t)
	e, err := NewLiveExecutor("http://unused.invalid", "", l, zap.NewNop())
	require.NoError(t, err)

	res := e.Execute(context.Background(), "SOL", decimal.NewFromInt(1), decimal.NewFromInt(120), "twitter")

	assert.False(t, res.OK)
	assert.Error(t, res.Err)
	assert.Empty(t, l.Trades())
}

func TestLiveExecutor_SendsAndRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"5xSig"}`))
	}))
	defer srv.Close()

	l := newTestLedger(t)
	key := base58.Encode([]byte("test-payer-key"))
	e, err := NewLiveExecutor(srv.URL, key, l, zap.NewNop())
	require.NoError(t, err)

	res := e.Execute(context.Background(), "ETH", decimal.NewFromInt(1), decimal.NewFromInt(2000), "twitter")

	require.True(t, res.OK)
	assert.Equal(t, "live:5xSig", res.ID)
	assert.Len(t, l.Trades(), 1)
}

func TestLiveExecutor_RPCErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32002,"message":"simulation failed"}}`))
	}))
	defer srv.Close()

	l := newTestLedger(t)
	key := base58.Encode([]byte("test-payer-key"))
	e, err := NewLiveExecutor(srv.URL, key, l, zap.NewNop())
	require.NoError(t, err)

	res := e.Execute(context.Background(), "ETH", decimal.NewFromInt(1), decimal.NewFromInt(2000), "twitter")

	assert.False(t, res.OK)
	assert.Error(t, res.Err)
	assert.Empty(t, l.Trades())
}
