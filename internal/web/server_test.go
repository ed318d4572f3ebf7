package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/seesaw/internal/domain"
	"github.com/vadiminshakov/seesaw/internal/services/engine"
)

type fakeEngine struct {
	status engine.Status
	ticks  []engine.TickRecord
}

func (f *fakeEngine) Status() engine.Status { return f.status }

func (f *fakeEngine) TicksAfter(after uint64) []engine.TickRecord {
	var out []engine.TickRecord
	for _, rec := range f.ticks {
		if rec.Index > after {
			out = append(out, rec)
		}
	}
	return out
}

func TestHandleStatus(t *testing.T) {
	pair, err := domain.NewPair("ETH", "BTC")
	require.NoError(t, err)

	eng := &fakeEngine{
		status: engine.Status{
			Pair: pair,
			State: domain.EngineState{
				LastExecutedKey: "eth-btc-42",
				LastTriggerAt:   time.Now(),
			},
			LatestRates: map[string]decimal.Decimal{
				"ETH": decimal.NewFromInt(3000),
				"BTC": decimal.NewFromInt(60000),
			},
			RelativeChanges: map[string]decimal.Decimal{
				"ETH": decimal.NewFromFloat(0.2),
			},
		},
	}

	srv := NewServer(":0", eng, "run-1")
	rec := httptest.NewRecorder()
	srv.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		RunID           string `json:"run_id"`
		Pair            string `json:"pair"`
		LastExecutedKey string `json:"last_executed_key"`
		Assets          map[string]struct {
			Rate           *string `json:"rate"`
			RelativeChange *string `json:"relative_change"`
		} `json:"assets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, "ETH_BTC", resp.Pair)
	assert.Equal(t, "eth-btc-42", resp.LastExecutedKey)
	require.Contains(t, resp.Assets, "ETH")
	require.Contains(t, resp.Assets, "BTC")
	require.NotNil(t, resp.Assets["ETH"].Rate)
	assert.Equal(t, "3000", *resp.Assets["ETH"].Rate)
	require.NotNil(t, resp.Assets["ETH"].RelativeChange)
	assert.Equal(t, "0.2", *resp.Assets["ETH"].RelativeChange)
	assert.Nil(t, resp.Assets["BTC"].RelativeChange)
}

func TestTicksAfterFiltering(t *testing.T) {
	eng := &fakeEngine{
		ticks: []engine.TickRecord{
			{Index: 1, Status: engine.StatusNoSignal},
			{Index: 2, Status: engine.StatusExecuted},
			{Index: 3, Status: engine.StatusNoNewSample},
		},
	}

	out := eng.TicksAfter(1)
	require.Len(t, out, 2)
	assert.Equal(t, uint64(2), out[0].Index)
}
