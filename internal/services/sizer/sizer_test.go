package sizer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/seesaw/internal/domain"
)

var triggerAt = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

func decision() *domain.TriggerDecision {
	return &domain.TriggerDecision{
		Source: "ETH",
		Target: "BTC",
		Score:  decimal.NewFromFloat(0.18),
		At:     triggerAt,
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(decimal.Zero, decimal.Zero)
	assert.Error(t, err, "zero fraction")

	_, err = New(decimal.NewFromFloat(1.5), decimal.Zero)
	assert.Error(t, err, "fraction above 1")

	_, err = New(decimal.NewFromFloat(0.25), decimal.NewFromInt(-1))
	assert.Error(t, err, "negative minimum quantity")

	_, err = New(decimal.NewFromInt(1), decimal.Zero)
	assert.NoError(t, err, "full balance fraction is allowed")
}

func TestSize_QuantityIsFractionOfBalance(t *testing.T) {
	s, err := New(decimal.NewFromFloat(0.25), decimal.NewFromFloat(0.001))
	require.NoError(t, err)

	intent, err := s.Size(decision(), decimal.NewFromInt(1))
	require.NoError(t, err)
	require.NotNil(t, intent)

	assert.Equal(t, "ETH", intent.Source)
	assert.Equal(t, "BTC", intent.Target)
	assert.True(t, intent.Quantity.Equal(decimal.NewFromFloat(0.25)), "quantity: %s", intent.Quantity)
}

func TestSize_NeverExceedsFractionOfBalance(t *testing.T) {
	s, err := New(decimal.NewFromFloat(0.25), decimal.NewFromFloat(0.001))
	require.NoError(t, err)

	for _, balance := range []decimal.Decimal{
		decimal.NewFromFloat(0.001),
		decimal.NewFromFloat(0.7),
		decimal.NewFromInt(3),
		decimal.NewFromInt(1000000),
	} {
		intent, err := s.Size(decision(), balance)
		require.NoError(t, err)
		assert.True(t, intent.Quantity.LessThanOrEqual(balance.Mul(decimal.NewFromFloat(0.25))),
			"quantity %s exceeds cap for balance %s", intent.Quantity, balance)
	}
}

func TestSize_InsufficientBalance(t *testing.T) {
	s, err := New(decimal.NewFromFloat(0.25), decimal.NewFromFloat(0.01))
	require.NoError(t, err)

	_, err = s.Size(decision(), decimal.NewFromFloat(0.005))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestSize_IdempotencyKeyIsDeterministic(t *testing.T) {
	s, err := New(decimal.NewFromFloat(0.25), decimal.Zero)
	require.NoError(t, err)

	first, err := s.Size(decision(), decimal.NewFromInt(1))
	require.NoError(t, err)
	second, err := s.Size(decision(), decimal.NewFromInt(2))
	require.NoError(t, err)

	assert.Equal(t, first.Key, second.Key, "same trigger must produce the same key")

	later := decision()
	later.At = triggerAt.Add(time.Minute)
	third, err := s.Size(later, decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.NotEqual(t, first.Key, third.Key, "new trigger timestamp must produce a new key")
}

func TestSize_NilDecision(t *testing.T) {
	s, err := New(decimal.NewFromFloat(0.25), decimal.Zero)
	require.NoError(t, err)

	intent, err := s.Size(nil, decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Nil(t, intent)
}
