package enginestate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/seesaw/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir(), domain.Pair{A: "ETH", B: "BTC"})
	require.NoError(t, err, "failed to create store")
	t.Cleanup(func() {
		assert.NoError(t, store.Close(), "failed to close store")
	})
	return store
}

func TestStore_LoadEmpty(t *testing.T) {
	store := newTestStore(t)

	state, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, state, "empty store must load nil state")
}

func TestStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t)

	ts := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	state := domain.NewEngineState()
	state.LastSampleAt["ETH"] = ts
	state.LastSampleAt["BTC"] = ts.Add(time.Second)
	state.LastExecutedKey = "eth-btc-1234"
	state.LastTriggerAt = ts

	require.NoError(t, store.Save(state))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "eth-btc-1234", loaded.LastExecutedKey)
	assert.True(t, loaded.LastTriggerAt.Equal(ts))
	assert.True(t, loaded.LastSampleAt["ETH"].Equal(ts))
	assert.True(t, loaded.LastSampleAt["BTC"].Equal(ts.Add(time.Second)))
}

func TestStore_LastRecordWins(t *testing.T) {
	store := newTestStore(t)

	first := domain.NewEngineState()
	first.LastExecutedKey = "first"
	require.NoError(t, store.Save(first))

	second := domain.NewEngineState()
	second.LastExecutedKey = "second"
	require.NoError(t, store.Save(second))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "second", loaded.LastExecutedKey)
}
