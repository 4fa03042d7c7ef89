package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestQuoteService_JupiterIsPrimary(t *testing.T) {
	jup := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SOL", r.URL.Query().Get("ids"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"SOL":{"price":118.5}}}`))
	}))
	defer jup.Close()
	dex := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("dexscreener must not be queried when jupiter answers")
	}))
	defer dex.Close()

	q := NewQuoteService(NewJupiterClient(jup.URL), nil, NewDexScreenerClient(dex.URL), zap.NewNop())
	res := q.Quote(context.Background(), "SOL", decimal.NewFromInt(237))

	require.True(t, res.OK)
	assert.Equal(t, "jupiter", res.Source)
	assert.True(t, res.Price.Equal(decimal.NewFromFloat(118.5)))
	assert.True(t, res.OutAmount.Equal(decimal.NewFromInt(2)))
}

func TestQuoteService_DexScreenerFallback(t *testing.T) {
	jup := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer jup.Close()
	dex := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pairs":[{"baseToken":{"symbol":"WIF"},"priceUsd":"2.5","liquidity":{"usd":500000}}]}`))
	}))
	defer dex.Close()

	q := NewQuoteService(NewJupiterClient(jup.URL), nil, NewDexScreenerClient(dex.URL), zap.NewNop())
	res := q.Quote(context.Background(), "WIF", decimal.NewFromInt(100))

	require.True(t, res.OK)
	assert.Equal(t, "dexscreener", res.Source)
	assert.True(t, res.Price.Equal(decimal.NewFromFloat(2.5)))
	assert.True(t, res.OutAmount.Equal(decimal.NewFromInt(40)))
}

func TestQuoteService_SimTableFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	q := NewQuoteService(NewJupiterClient(srv.URL), nil, NewDexScreenerClient(srv.URL), zap.NewNop())
	res := q.Quote(context.Background(), "SOL", decimal.NewFromInt(120))

	require.True(t, res.OK)
	assert.Equal(t, "sim", res.Source)
	assert.True(t, res.OutAmount.Equal(decimal.NewFromInt(1)))
}

func TestQuoteService_UnknownSymbolInfeasible(t *testing.T) {
	jup := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer jup.Close()
	dex := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pairs":[]}`))
	}))
	defer dex.Close()

	q := NewQuoteService(NewJupiterClient(jup.URL), nil, NewDexScreenerClient(dex.URL), zap.NewNop())
	res := q.Quote(context.Background(), "NOPE", decimal.NewFromInt(50))

	assert.False(t, res.OK)
}
