package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHeuristicScore(t *testing.T) {
	assert.InDelta(t, 0.3, HeuristicScore("random chatter about SOL"), 1e-9)
	// "moon" matches both "moon" and "going to moon" and "to the moon"
	assert.InDelta(t, 1.0, HeuristicScore("SOL is going to moon! 🚀"), 1e-9)
	assert.InDelta(t, 0.65, HeuristicScore("rekt again"), 1e-9)
	assert.InDelta(t, 1.0, HeuristicScore("ALL IN, we never get rekt, moon soon"), 1e-9)
}

func TestHypeScorer_NoKeyUsesHeuristic(t *testing.T) {
	s := NewHypeScorer("http://unused.invalid", "", zap.NewNop())
	res := s.Score(context.Background(), "moon")
	assert.Equal(t, "heuristic", res.Reason)
	// one keyword hit: 0.3 + 0.35
	assert.InDelta(t, 0.65, res.Score, 1e-9)
}

func TestHypeScorer_RemoteScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hype_score": 0.92}`))
	}))
	defer srv.Close()

	s := NewHypeScorer(srv.URL, "test-key", zap.NewNop())
	res := s.Score(context.Background(), "whatever")
	assert.Equal(t, "remote", res.Reason)
	assert.InDelta(t, 0.92, res.Score, 1e-9)
}

func TestHypeScorer_RemoteFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewHypeScorer(srv.URL, "test-key", zap.NewNop())
	res := s.Score(context.Background(), "to the moon")
	assert.Equal(t, "fallback-on-error", res.Reason)
	assert.InDelta(t, 1.0, res.Score, 1e-9)
}
