package domain

import "time"

// Decision outcomes recorded in the decision journal.
const (
	DecisionRejected = "rejected"
	DecisionExecuted = "executed"
	DecisionFailed   = "failed"
	DecisionBlocked  = "blocked"
)

// DecisionEvent captures the outcome of one pass through the decision gate.
type DecisionEvent struct {
	Timestamp time.Time `json:"ts"`
	SignalID  string    `json:"signal_id"`
	Symbol    string    `json:"symbol"`
	Outcome   string    `json:"outcome"`
	HypeScore float64   `json:"hype_score,omitempty"`
	QuoteOK   bool      `json:"quote_ok"`
	Mode      Mode      `json:"mode"`
	TradeID   string    `json:"trade_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// DecisionEventRecord bundles a decision event with its journal index.
type DecisionEventRecord struct {
	Index uint64        `json:"index"`
	Event DecisionEvent `json:"event"`
}
