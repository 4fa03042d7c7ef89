package decisions

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"velocity/internal/domain"
)

const (
	defaultDecisionDir   = "./wal/decisions"
	decisionSegmentLimit = 1000
	decisionMaxSegments  = 100
	decisionKeyPrefix    = "decision_"
)

// WALStore persists every orchestrator decision in a WAL so the decision
// trail survives restarts and can be streamed to the dashboard.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed decision store under the provided directory.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultDecisionDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "decision_",
		SegmentThreshold: decisionSegmentLimit,
		MaxSegments:      decisionMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init decision WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save writes the decision to WAL. Callers must ensure event.Symbol is set.
func (s *WALStore) Save(event domain.DecisionEvent) error {
	if s == nil || s.wal == nil {
		return errors.New("decision store is not initialized")
	}
	if event.Symbol == "" {
		return fmt.Errorf("decision symbol is required")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal decision")
	}

	key := fmt.Sprintf("%s%s", decisionKeyPrefix, event.Symbol)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// EventsAfter returns all decisions written after the provided WAL index.
func (s *WALStore) EventsAfter(index uint64) ([]domain.DecisionEventRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("decision store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]domain.DecisionEventRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil {
			continue
		}
		if !strings.HasPrefix(key, decisionKeyPrefix) {
			continue
		}
		var event domain.DecisionEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, errors.Wrap(err, "decode decision")
		}
		records = append(records, domain.DecisionEventRecord{
			Index: idx,
			Event: event,
		})
	}

	return records, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("decision store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
