// Package web exposes the dashboard API and the websocket event stream.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"velocity/internal/bus"
	"velocity/internal/clients"
	"velocity/internal/domain"
	"velocity/internal/modectl"
)

const maxAnalyzeTexts = 50

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

var explainHypePattern = regexp.MustCompile(`(?i)(moon|🚀|to the moon|all in)`)

type tradeReader interface {
	Trades() []domain.TradeRecord
	Stats() domain.Stats
}

type decisionReader interface {
	EventsAfter(index uint64) ([]domain.DecisionEventRecord, error)
}

type hypeScorer interface {
	Score(ctx context.Context, text string) clients.HypeResult
}

// Server serves the HTTP API and streams bus events over websocket.
type Server struct {
	addr      string
	bus       *bus.Bus
	ledger    tradeReader
	modes     *modectl.Controller
	decisions decisionReader
	hype      hypeScorer
	llm       *clients.LLMClient
	hub       *hub
	logger    *zap.Logger
}

// NewServer creates a server. decisions and llm may be nil; their endpoints
// degrade accordingly.
func NewServer(addr string, b *bus.Bus, ledger tradeReader, modes *modectl.Controller,
	decisions decisionReader, hype hypeScorer, llm *clients.LLMClient, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		addr:      addr,
		bus:       b,
		ledger:    ledger,
		modes:     modes,
		decisions: decisions,
		hype:      hype,
		llm:       llm,
		hub:       newHub(logger),
		logger:    logger,
	}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.subscribeBus()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/trades", s.handleTrades)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/decisions", s.handleDecisions)
	mux.HandleFunc("/api/toggle/send", s.handleToggleSend)
	mux.HandleFunc("/api/toggle/auto", s.handleToggleAuto)
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/explain", s.handleExplain)
	mux.HandleFunc("/ws", s.handleWS)

	server := &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		s.hub.closeAll()
	}()

	s.logger.Info("web server listening", zap.String("addr", s.addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) subscribeBus() {
	forward := func(frameType string) bus.Handler {
		return func(payload any) {
			s.hub.broadcast(frame{Type: frameType, Data: payload})
		}
	}
	s.bus.Subscribe(bus.TopicSignal, forward("signal"))
	s.bus.Subscribe(bus.TopicValidated, forward("validated"))
	s.bus.Subscribe(bus.TopicTrade, forward("trade"))
	s.bus.Subscribe(bus.TopicStats, forward("stats"))
	s.bus.Subscribe(bus.TopicMode, forward("mode"))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"now":        time.Now().UnixMilli(),
		"mode":       s.modes.Mode(),
		"autoSwitch": s.modes.AutoSwitchEnabled(),
	})
}

func (s *Server) handleTrades(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Trades())
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Stats())
}

func (s *Server) handleDecisions(w http.ResponseWriter, _ *http.Request) {
	if s.decisions == nil {
		http.Error(w, "decision journal not available", http.StatusServiceUnavailable)
		return
	}
	records, err := s.decisions.EventsAfter(0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []domain.DecisionEventRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleToggleSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	mode := s.modes.ToggleSend()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "mode": mode})
}

func (s *Server) handleToggleAuto(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	auto := s.modes.ToggleAuto()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "auto": auto})
}

type analyzeRequest struct {
	Tweets []struct {
		ID      string `json:"id"`
		Content string `json:"content"`
		Text    string `json:"text"`
	} `json:"tweets"`
}

type analyzeResult struct {
	ID      string  `json:"id"`
	Text    string  `json:"text"`
	Score   float64 `json:"score"`
	Latency int64   `json:"latency"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Tweets == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid body, expected { tweets: [] }"})
		return
	}

	tweets := req.Tweets
	if len(tweets) > maxAnalyzeTexts {
		tweets = tweets[:maxAnalyzeTexts]
	}

	results := make([]analyzeResult, 0, len(tweets))
	sum := 0.0
	for _, t := range tweets {
		text := t.Content
		if text == "" {
			text = t.Text
		}
		res := s.hype.Score(r.Context(), text)
		results = append(results, analyzeResult{
			ID:      t.ID,
			Text:    text,
			Score:   res.Score,
			Latency: res.Latency.Milliseconds(),
		})
		sum += res.Score
	}

	avg := 0.0
	if len(results) > 0 {
		avg = sum / float64(len(results))
	}
	summary := "Neutral/Low sentiment"
	switch {
	case avg >= 0.75:
		summary = "Strong bullish sentiment"
	case avg >= 0.5:
		summary = "Moderate bullish sentiment"
	}

	writeJSON(w, http.StatusOK, map[string]any{"avg": avg, "summary": summary, "results": results})
}

type explainRequest struct {
	Trade struct {
		Type   string `json:"type"`
		Symbol string `json:"symbol"`
		Asset  string `json:"asset"`
	} `json:"trade"`
	Signals []struct {
		Content string `json:"content"`
		Text    string `json:"text"`
	} `json:"signals"`
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req explainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	texts := make([]string, 0, len(req.Signals))
	for _, sig := range req.Signals {
		text := sig.Content
		if text == "" {
			text = sig.Text
		}
		texts = append(texts, text)
	}

	if s.llm.Configured() {
		side := req.Trade.Type
		if side == "" {
			side = "buy"
		}
		symbol := req.Trade.Symbol
		if symbol == "" {
			symbol = req.Trade.Asset
		}
		if symbol == "" {
			symbol = "ASSET"
		}
		prompt := fmt.Sprintf(
			"Explain why a trading bot would execute a %s order for %s based on these signals:\n%s\nKeep it short and data-driven.",
			side, symbol, strings.Join(texts, "\n"))
		if text, err := s.llm.Complete(r.Context(), prompt); err == nil {
			writeJSON(w, http.StatusOK, map[string]any{"text": text})
			return
		} else {
			s.logger.Warn("explain degraded to rule-based rationale", zap.Error(err))
		}
	}

	hits := 0
	for _, text := range texts {
		if explainHypePattern.MatchString(text) {
			hits++
		}
	}
	reason := "No strong hype keywords detected; decision likely low-confidence."
	if hits > 0 {
		reason = fmt.Sprintf("Detected %d high-hype messages; signal appears bullish.", hits)
	}
	writeJSON(w, http.StatusOK, map[string]any{"text": reason})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	greeting := []frame{
		{Type: "hello", TS: time.Now().UnixMilli()},
		{Type: "trades", Data: s.ledger.Trades()},
		{Type: "stats", Data: s.ledger.Stats()},
		{Type: "mode", Data: domain.ModeChange{Mode: s.modes.Mode()}},
	}
	for _, f := range greeting {
		msg, err := json.Marshal(f)
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			_ = conn.Close()
			return
		}
	}

	s.hub.add(conn)

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.remove(conn)
				return
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
