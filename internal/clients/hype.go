package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const hypeTimeout = 10 * time.Second

// HypeResult is a sentiment score for a piece of signal text.
type HypeResult struct {
	Score   float64
	Reason  string
	Latency time.Duration
}

// HypeScorer scores signal text via a remote model when an API key is
// configured, and falls back to a fast keyword heuristic otherwise or on
// any remote failure. Score never returns an error: a degraded score is a
// safe default, not a pipeline failure.
type HypeScorer struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHypeScorer creates a scorer. An empty apiKey pins it to the heuristic.
func NewHypeScorer(apiURL, apiKey string, logger *zap.Logger) *HypeScorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HypeScorer{
		apiURL:     apiURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: hypeTimeout},
		logger:     logger,
	}
}

type hypeRequest struct {
	Text string `json:"text"`
}

type hypeResponse struct {
	HypeScore float64 `json:"hype_score"`
}

// Score rates text in [0,1] and records the call latency.
func (h *HypeScorer) Score(ctx context.Context, text string) HypeResult {
	start := time.Now()

	if h.apiKey == "" {
		return HypeResult{Score: HeuristicScore(text), Reason: "heuristic", Latency: time.Since(start)}
	}

	score, err := h.remoteScore(ctx, text)
	if err != nil {
		h.logger.Warn("hype scoring degraded to heuristic", zap.Error(err))
		return HypeResult{Score: HeuristicScore(text), Reason: "fallback-on-error", Latency: time.Since(start)}
	}
	return HypeResult{Score: clamp01(score), Reason: "remote", Latency: time.Since(start)}
}

func (h *HypeScorer) remoteScore(ctx context.Context, text string) (float64, error) {
	body, err := json.Marshal(hypeRequest{Text: text})
	if err != nil {
		return 0, errors.Wrap(err, "marshal hype request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.apiURL, bytes.NewReader(body))
	if err != nil {
		return 0, errors.Wrap(err, "build hype request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.apiKey)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "hype request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, errors.Errorf("hype API returned status %d", resp.StatusCode)
	}

	var parsed hypeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, errors.Wrap(err, "decode hype response")
	}
	return parsed.HypeScore, nil
}

var hypeKeywords = []string{"moon", "going to moon", "to the moon", "🚀", "rekt", "all in"}

// HeuristicScore is the keyword fallback: 0.3 base plus 0.35 per hit,
// capped at 1.
func HeuristicScore(text string) float64 {
	t := strings.ToLower(text)
	hits := 0
	for _, w := range hypeKeywords {
		if strings.Contains(t, w) {
			hits++
		}
	}
	return clamp01(0.3 + float64(hits)*0.35)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
