// Package ledger implements the append-only paper-trade ledger with FIFO
// lot matching. The newline-delimited JSON log on disk is the sole source
// of truth; in-memory lot queues and realized entries are rebuilt from it
// at startup and never advance ahead of a durable write.
package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"velocity/internal/domain"
)

const maxTradesReturned = 1000

// Ledger is the durable trade log plus its in-memory matching state.
type Ledger struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	logger   *zap.Logger
	records  []domain.TradeRecord
	queues   map[string][]*domain.Lot
	realized []domain.RealizedEntry
}

// Open loads the ledger at path, replaying any existing records, and keeps
// the file open for appending. A malformed or truncated record makes the
// replay fail rather than silently masking ledger corruption.
func Open(path string, logger *zap.Logger) (*Ledger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create ledger dir")
	}

	l := &Ledger{
		path:   path,
		logger: logger,
		queues: make(map[string][]*domain.Lot),
	}
	if err := l.replay(); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open ledger file")
	}
	l.file = file

	logger.Info("ledger opened",
		zap.String("path", path),
		zap.Int("records", len(l.records)),
		zap.Int("realized", len(l.realized)))
	return l, nil
}

// Close releases the underlying file.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Append assigns an id and timestamp, persists the record (synced to disk
// before return), then updates the in-memory lot queues. If the durable
// write fails the in-memory state does not advance.
func (l *Ledger) Append(symbol string, qty, price decimal.Decimal, side domain.Side, source string) (domain.TradeRecord, error) {
	rec := domain.TradeRecord{
		ID:     uuid.New().String(),
		Symbol: symbol,
		Qty:    qty,
		Price:  price,
		Time:   time.Now().UTC(),
		Side:   side,
		Source: source,
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return domain.TradeRecord{}, errors.Wrap(err, "marshal trade record")
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return domain.TradeRecord{}, errors.New("ledger is closed")
	}
	if _, err := l.file.Write(line); err != nil {
		return domain.TradeRecord{}, errors.Wrap(err, "append trade record")
	}
	if err := l.file.Sync(); err != nil {
		return domain.TradeRecord{}, errors.Wrap(err, "sync ledger file")
	}

	l.records = append(l.records, rec)
	l.apply(rec)
	return rec, nil
}

// Trades returns the most recent records (at most 1000), newest last.
func (l *Ledger) Trades() []domain.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	start := 0
	if len(l.records) > maxTradesReturned {
		start = len(l.records) - maxTradesReturned
	}
	out := make([]domain.TradeRecord, len(l.records)-start)
	copy(out, l.records[start:])
	return out
}

// Realized returns a copy of all realized entries in production order.
func (l *Ledger) Realized() []domain.RealizedEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.RealizedEntry, len(l.realized))
	copy(out, l.realized)
	return out
}

// Lots returns a copy of the open lot queue for a symbol, head first.
func (l *Ledger) Lots(symbol string) []domain.Lot {
	l.mu.Lock()
	defer l.mu.Unlock()
	queue := l.queues[symbol]
	out := make([]domain.Lot, 0, len(queue))
	for _, lot := range queue {
		out = append(out, *lot)
	}
	return out
}

// Stats derives aggregate statistics from the current ledger state.
func (l *Ledger) Stats() domain.Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := domain.Stats{
		TotalTrades:    len(l.records),
		RealizedCount:  len(l.realized),
		RealizedProfit: decimal.Zero,
	}
	for _, rec := range l.records {
		if rec.Side == domain.SideBuy {
			stats.Buys++
		} else {
			stats.Sells++
		}
	}

	wins := 0
	for _, r := range l.realized {
		stats.RealizedProfit = stats.RealizedProfit.Add(r.Profit)
		if r.Profit.GreaterThan(decimal.Zero) {
			wins++
		}
	}
	if stats.RealizedCount > 0 {
		stats.WinRate = float64(wins) / float64(stats.RealizedCount)
		stats.AvgProfitPerRealized = stats.RealizedProfit.
			Div(decimal.NewFromInt(int64(stats.RealizedCount)))
	} else {
		stats.AvgProfitPerRealized = decimal.Zero
	}
	return stats
}

// replay resets in-memory state and re-applies every durable record through
// the same matching logic as Append, in file order.
func (l *Ledger) replay() error {
	l.records = nil
	l.realized = nil
	l.queues = make(map[string][]*domain.Lot)

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "read ledger file")
	}
	if len(data) == 0 {
		return nil
	}
	if data[len(data)-1] != '\n' {
		return errors.Errorf("ledger %s ends with a truncated record", l.path)
	}

	for i, line := range bytes.Split(bytes.TrimRight(data, "\n"), []byte("\n")) {
		var rec domain.TradeRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return errors.Wrapf(err, "malformed ledger record at line %d", i+1)
		}
		l.records = append(l.records, rec)
		l.apply(rec)
	}
	return nil
}

// apply updates lot queues and realized entries for one record. Callers
// hold the mutex (or run before the ledger is shared).
func (l *Ledger) apply(rec domain.TradeRecord) {
	if rec.Side == domain.SideBuy {
		l.queues[rec.Symbol] = append(l.queues[rec.Symbol], &domain.Lot{
			ID:    rec.ID,
			Qty:   rec.Qty,
			Price: rec.Price,
			Time:  rec.Time,
		})
		return
	}

	remaining := rec.Qty
	queue := l.queues[rec.Symbol]
	for remaining.GreaterThan(decimal.Zero) && len(queue) > 0 {
		lot := queue[0]
		take := decimal.Min(remaining, lot.Qty)
		l.realized = append(l.realized, domain.RealizedEntry{
			ID:        fmt.Sprintf("%s:%s", rec.ID, lot.ID),
			Symbol:    rec.Symbol,
			Qty:       take,
			BuyPrice:  lot.Price,
			SellPrice: rec.Price,
			Profit:    take.Mul(rec.Price.Sub(lot.Price)),
			Time:      rec.Time,
		})
		lot.Qty = lot.Qty.Sub(take)
		remaining = remaining.Sub(take)
		if lot.Qty.LessThanOrEqual(decimal.Zero) {
			queue = queue[1:]
		}
	}
	// any sell quantity left once the queue is empty is dropped, not queued
	l.queues[rec.Symbol] = queue
}
