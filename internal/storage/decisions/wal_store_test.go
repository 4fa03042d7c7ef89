package decisions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velocity/internal/domain"
)

func TestWALStore_SaveAndReadBack(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(domain.DecisionEvent{
		SignalID: "sig-1",
		Symbol:   "SOL",
		Outcome:  domain.DecisionExecuted,
	}))
	require.NoError(t, store.Save(domain.DecisionEvent{
		SignalID: "sig-2",
		Symbol:   "DOGE",
		Outcome:  domain.DecisionRejected,
		Reason:   "hype below threshold",
	}))

	records, err := store.EventsAfter(0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "SOL", records[0].Event.Symbol)
	assert.Equal(t, domain.DecisionRejected, records[1].Event.Outcome)
	assert.Equal(t, uint64(2), store.CurrentIndex())
}

func TestWALStore_EventsAfterSkipsEarlierIndexes(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	for _, symbol := range []string{"SOL", "DOGE", "ETH"} {
		require.NoError(t, store.Save(domain.DecisionEvent{
			SignalID: "sig-" + symbol,
			Symbol:   symbol,
			Outcome:  domain.DecisionExecuted,
		}))
	}

	records, err := store.EventsAfter(1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "DOGE", records[0].Event.Symbol)
	assert.Equal(t, uint64(2), records[0].Index)
	assert.Equal(t, "ETH", records[1].Event.Symbol)
	assert.Equal(t, uint64(3), records[1].Index)
}

func TestWALStore_RejectsEmptySymbol(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	assert.Error(t, store.Save(domain.DecisionEvent{SignalID: "sig-1"}))
}

func TestWALStore_EventsAfterCurrentIsEmpty(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	records, err := store.EventsAfter(0)
	require.NoError(t, err)
	assert.Empty(t, records)
}
