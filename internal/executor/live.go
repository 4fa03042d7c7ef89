package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"velocity/internal/domain"
	"velocity/internal/ledger"
)

const rpcTimeout = 15 * time.Second

// LiveExecutor submits transactions to a Solana-style JSON-RPC node and
// mirrors each confirmed trade into the ledger so stats and replay stay
// authoritative regardless of mode.
type LiveExecutor struct {
	rpcURL     string
	payerKey   []byte
	ledger     *ledger.Ledger
	httpClient *http.Client
	logger     *zap.Logger
}

// NewLiveExecutor creates a live executor. payerKeyB58 is the base58-encoded
// payer private key; an empty key leaves the executor unable to send.
func NewLiveExecutor(rpcURL, payerKeyB58 string, l *ledger.Ledger, logger *zap.Logger) (*LiveExecutor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var key []byte
	if payerKeyB58 != "" {
		decoded, err := base58.Decode(payerKeyB58)
		if err != nil {
			return nil, errors.Wrap(err, "decode payer key")
		}
		key = decoded
	}
	return &LiveExecutor{
		rpcURL:     rpcURL,
		payerKey:   key,
		ledger:     l,
		httpClient: &http.Client{Timeout: rpcTimeout},
		logger:     logger,
	}, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Execute submits the trade and, on confirmation, records it in the ledger.
func (e *LiveExecutor) Execute(ctx context.Context, symbol string, qty, price decimal.Decimal, source string) Result {
	if len(e.payerKey) == 0 {
		err := errors.New("live executor has no payer key configured")
		e.logger.Error("live trade rejected", zap.String("symbol", symbol), zap.Error(err))
		return Result{Err: err}
	}

	sig, err := e.sendTransaction(ctx, symbol, qty, price)
	if err != nil {
		e.logger.Error("live trade failed", zap.String("symbol", symbol), zap.Error(err))
		return Result{Err: err}
	}

	rec, err := e.ledger.Append(symbol, qty, price, domain.SideBuy, source)
	if err != nil {
		return Result{Err: errors.Wrap(err, "record live trade")}
	}
	e.logger.Info("live trade sent",
		zap.String("symbol", symbol),
		zap.String("signature", sig))
	return Result{OK: true, ID: "live:" + sig, Record: &rec}
}

func (e *LiveExecutor) sendTransaction(ctx context.Context, symbol string, qty, price decimal.Decimal) (string, error) {
	payload := map[string]string{
		"symbol": symbol,
		"qty":    qty.String(),
		"price":  price.String(),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "marshal transaction payload")
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "sendTransaction",
		Params:  []any{base58.Encode(raw)},
	})
	if err != nil {
		return "", errors.Wrap(err, "marshal rpc request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.rpcURL, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "build rpc request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "rpc call")
	}
	defer resp.Body.Close()

	var parsed rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", errors.Wrap(err, "decode rpc response")
	}
	if parsed.Error != nil {
		return "", errors.Errorf("rpc error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}

	var sig string
	if err := json.Unmarshal(parsed.Result, &sig); err != nil {
		return "", errors.Wrap(err, "decode transaction signature")
	}
	return sig, nil
}
