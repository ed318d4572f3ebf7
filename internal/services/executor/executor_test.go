package executor

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/seesaw/internal/domain"
	"github.com/vadiminshakov/seesaw/internal/services/broker"
	"go.uber.org/zap"
)

type fakeBroker struct {
	converts  int
	committed decimal.Decimal
	err       error
	executed  map[string]decimal.Decimal
}

func (f *fakeBroker) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (f *fakeBroker) Convert(ctx context.Context, source, target string, quantity decimal.Decimal, clientOrderID string) (decimal.Decimal, error) {
	f.converts++
	if f.err != nil {
		return decimal.Zero, f.err
	}
	if f.executed == nil {
		f.executed = make(map[string]decimal.Decimal)
	}
	f.executed[clientOrderID] = f.committed
	return f.committed, nil
}

func (f *fakeBroker) OrderExecuted(ctx context.Context, clientOrderID string) (bool, decimal.Decimal, error) {
	filled, ok := f.executed[clientOrderID]
	return ok, filled, nil
}

func testIntent() *domain.TradeIntent {
	return &domain.TradeIntent{
		Source:   "ETH",
		Target:   "BTC",
		Quantity: decimal.NewFromFloat(0.25),
		Key:      "eth-btc-1234",
	}
}

func TestExecute_CommitsOnce(t *testing.T) {
	b := &fakeBroker{committed: decimal.NewFromFloat(0.01)}
	e := New(b, zap.NewNop())

	res, err := e.Execute(context.Background(), testIntent(), "")
	require.NoError(t, err)
	assert.False(t, res.Replayed)
	assert.True(t, res.Committed.Equal(decimal.NewFromFloat(0.01)))
	assert.Equal(t, 1, b.converts)
}

func TestExecute_ReplayIssuesNoConversion(t *testing.T) {
	b := &fakeBroker{committed: decimal.NewFromFloat(0.01)}
	e := New(b, zap.NewNop())
	intent := testIntent()

	first, err := e.Execute(context.Background(), intent, "")
	require.NoError(t, err)

	second, err := e.Execute(context.Background(), intent, first.Intent.Key)
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Intent, second.Intent)
	assert.Equal(t, 1, b.converts, "replay must not issue another conversion")
}

func TestExecute_RecognizesOrderCommittedAtExchange(t *testing.T) {
	// Lost state (crash before persisting): lastExecutedKey is stale, but the
	// exchange already holds the order under the deterministic key.
	b := &fakeBroker{committed: decimal.NewFromFloat(0.01)}
	e := New(b, zap.NewNop())
	intent := testIntent()

	first, err := e.Execute(context.Background(), intent, "")
	require.NoError(t, err)
	require.False(t, first.Replayed)

	second, err := e.Execute(context.Background(), intent, "some-older-key")
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.True(t, second.Committed.Equal(decimal.NewFromFloat(0.01)))
	assert.Equal(t, 1, b.converts, "committed order must not be re-issued")
}

func TestExecute_PropagatesFailureClass(t *testing.T) {
	for _, cause := range []error{broker.ErrRateLimited, broker.ErrTransientNetwork, broker.ErrRejected} {
		b := &fakeBroker{err: errors.Wrap(cause, "exchange said no")}
		e := New(b, zap.NewNop())

		_, err := e.Execute(context.Background(), testIntent(), "")
		assert.ErrorIs(t, err, cause)
	}
}
