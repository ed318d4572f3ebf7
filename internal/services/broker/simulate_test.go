package broker

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/seesaw/internal/domain"
	"github.com/vadiminshakov/seesaw/internal/services/rates"
)

type staticRates map[string]decimal.Decimal

func (s staticRates) GetRate(_ context.Context, asset string) (domain.PriceSample, error) {
	rate, ok := s[asset]
	if !ok {
		return domain.PriceSample{}, rates.ErrInvalidAsset
	}
	return domain.PriceSample{Asset: asset, Rate: rate}, nil
}

func TestSimulateBrokerConvertsAtMarketRate(t *testing.T) {
	pair, err := domain.NewPair("ETH", "BTC")
	require.NoError(t, err)

	b, err := NewSimulateBroker(pair, staticRates{
		"ETH": decimal.NewFromInt(3000),
		"BTC": decimal.NewFromInt(60000),
	}, nil)
	require.NoError(t, err)

	ctx := context.Background()

	balance, err := b.GetBalance(ctx, "ETH")
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(1)))

	acquired, err := b.Convert(ctx, "ETH", "BTC", decimal.NewFromFloat(0.5), "ord-1")
	require.NoError(t, err)
	// 0.5 ETH * 3000 / 60000 = 0.025 BTC
	assert.True(t, acquired.Equal(decimal.NewFromFloat(0.025)), "got %s", acquired)

	ethLeft, err := b.GetBalance(ctx, "ETH")
	require.NoError(t, err)
	assert.True(t, ethLeft.Equal(decimal.NewFromFloat(0.5)))

	btc, err := b.GetBalance(ctx, "BTC")
	require.NoError(t, err)
	assert.True(t, btc.Equal(decimal.NewFromFloat(0.025)))
}

func TestSimulateBrokerReplaysByClientOrderID(t *testing.T) {
	pair, err := domain.NewPair("ETH", "BTC")
	require.NoError(t, err)

	b, err := NewSimulateBroker(pair, staticRates{
		"ETH": decimal.NewFromInt(3000),
		"BTC": decimal.NewFromInt(60000),
	}, nil)
	require.NoError(t, err)

	ctx := context.Background()

	first, err := b.Convert(ctx, "ETH", "BTC", decimal.NewFromFloat(0.5), "ord-1")
	require.NoError(t, err)

	// same ID converts nothing the second time
	second, err := b.Convert(ctx, "ETH", "BTC", decimal.NewFromFloat(0.5), "ord-1")
	require.NoError(t, err)
	assert.True(t, second.Equal(first))

	ethLeft, err := b.GetBalance(ctx, "ETH")
	require.NoError(t, err)
	assert.True(t, ethLeft.Equal(decimal.NewFromFloat(0.5)))

	done, filled, err := b.OrderExecuted(ctx, "ord-1")
	require.NoError(t, err)
	assert.True(t, done)
	assert.True(t, filled.Equal(first))

	done, _, err = b.OrderExecuted(ctx, "ord-2")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestSimulateBrokerRejectsOverdraft(t *testing.T) {
	pair, err := domain.NewPair("ETH", "BTC")
	require.NoError(t, err)

	b, err := NewSimulateBroker(pair, staticRates{
		"ETH": decimal.NewFromInt(3000),
		"BTC": decimal.NewFromInt(60000),
	}, nil)
	require.NoError(t, err)

	_, err = b.Convert(context.Background(), "ETH", "BTC", decimal.NewFromInt(2), "ord-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRejected)
	assert.False(t, Retryable(err))
}
