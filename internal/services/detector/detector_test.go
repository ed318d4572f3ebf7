package detector

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/seesaw/internal/domain"
	"github.com/vadiminshakov/seesaw/internal/services/history"
)

var t0 = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

func historyWith(t *testing.T, rates map[string][2]float64) *history.History {
	t.Helper()

	h, err := history.New(time.Hour, 2)
	require.NoError(t, err)

	for asset, pair := range rates {
		require.NoError(t, h.Record(domain.PriceSample{Asset: asset, Rate: decimal.NewFromFloat(pair[0]), At: t0}))
		require.NoError(t, h.Record(domain.PriceSample{Asset: asset, Rate: decimal.NewFromFloat(pair[1]), At: t0.Add(time.Hour)}))
	}
	return h
}

func TestNew_RejectsNonPositiveThreshold(t *testing.T) {
	pair := domain.Pair{A: "ETH", B: "BTC"}

	_, err := New(pair, decimal.Zero)
	assert.Error(t, err)
	_, err = New(pair, decimal.NewFromFloat(-0.01))
	assert.Error(t, err)
}

func TestEvaluate_TriggersOnDivergence(t *testing.T) {
	// A +20%, B +2%, threshold 5% -> score 0.18, sell A into B
	h := historyWith(t, map[string][2]float64{
		"ETH": {100, 120},
		"BTC": {100, 102},
	})

	d, err := New(domain.Pair{A: "ETH", B: "BTC"}, decimal.NewFromFloat(0.05))
	require.NoError(t, err)

	decision, err := d.Evaluate(h)
	require.NoError(t, err)
	require.NotNil(t, decision)
	assert.Equal(t, "ETH", decision.Source)
	assert.Equal(t, "BTC", decision.Target)
	assert.True(t, decision.Score.Equal(decimal.NewFromFloat(0.18)), "score: %s", decision.Score)
	assert.Equal(t, t0.Add(time.Hour), decision.At)
}

func TestEvaluate_NoTriggerBelowThreshold(t *testing.T) {
	// A +1%, B -1%, threshold 5% -> score 0.02, no trigger
	h := historyWith(t, map[string][2]float64{
		"ETH": {100, 101},
		"BTC": {100, 99},
	})

	d, err := New(domain.Pair{A: "ETH", B: "BTC"}, decimal.NewFromFloat(0.05))
	require.NoError(t, err)

	decision, err := d.Evaluate(h)
	require.NoError(t, err)
	assert.Nil(t, decision)
}

func TestEvaluate_DirectionIsAntisymmetric(t *testing.T) {
	h := historyWith(t, map[string][2]float64{
		"ETH": {100, 120},
		"BTC": {100, 102},
	})
	threshold := decimal.NewFromFloat(0.05)

	forward, err := New(domain.Pair{A: "ETH", B: "BTC"}, threshold)
	require.NoError(t, err)
	reversed, err := New(domain.Pair{A: "BTC", B: "ETH"}, threshold)
	require.NoError(t, err)

	df, err := forward.Evaluate(h)
	require.NoError(t, err)
	dr, err := reversed.Evaluate(h)
	require.NoError(t, err)

	require.NotNil(t, df)
	require.NotNil(t, dr)
	assert.Equal(t, df.Source, dr.Source)
	assert.Equal(t, df.Target, dr.Target)
	assert.True(t, df.Score.Equal(dr.Score))
}

func TestEvaluate_BothFallingUsesRelativeChange(t *testing.T) {
	// A -1%, B -20%: A is the relative gainer, so A funds B
	h := historyWith(t, map[string][2]float64{
		"ETH": {100, 99},
		"BTC": {100, 80},
	})

	d, err := New(domain.Pair{A: "ETH", B: "BTC"}, decimal.NewFromFloat(0.05))
	require.NoError(t, err)

	decision, err := d.Evaluate(h)
	require.NoError(t, err)
	require.NotNil(t, decision)
	assert.Equal(t, "ETH", decision.Source)
	assert.Equal(t, "BTC", decision.Target)
}

func TestEvaluate_ExactTieIsNoSignal(t *testing.T) {
	h := historyWith(t, map[string][2]float64{
		"ETH": {100, 110},
		"BTC": {200, 220},
	})

	d, err := New(domain.Pair{A: "ETH", B: "BTC"}, decimal.NewFromFloat(0.05))
	require.NoError(t, err)

	decision, err := d.Evaluate(h)
	require.NoError(t, err)
	assert.Nil(t, decision)
}

func TestEvaluate_MissingSignalIsNotAnError(t *testing.T) {
	h, err := history.New(time.Hour, 2)
	require.NoError(t, err)

	d, err := New(domain.Pair{A: "ETH", B: "BTC"}, decimal.NewFromFloat(0.05))
	require.NoError(t, err)

	// empty history
	decision, err := d.Evaluate(h)
	require.NoError(t, err)
	assert.Nil(t, decision)

	// one leg has history, the other does not
	require.NoError(t, h.Record(domain.PriceSample{Asset: "ETH", Rate: decimal.NewFromInt(100), At: t0}))
	require.NoError(t, h.Record(domain.PriceSample{Asset: "ETH", Rate: decimal.NewFromInt(120), At: t0.Add(time.Hour)}))

	decision, err = d.Evaluate(h)
	require.NoError(t, err)
	assert.Nil(t, decision)

	// degenerate baseline on one leg
	require.NoError(t, h.Record(domain.PriceSample{Asset: "BTC", Rate: decimal.Zero, At: t0}))
	require.NoError(t, h.Record(domain.PriceSample{Asset: "BTC", Rate: decimal.NewFromInt(10), At: t0.Add(time.Hour)}))

	decision, err = d.Evaluate(h)
	require.NoError(t, err)
	assert.Nil(t, decision)
}
