// Package sizer turns a trigger decision and the current balance into a
// concrete trade intent.
package sizer

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/seesaw/internal/domain"
)

// ErrInsufficientBalance source balance is below the minimum trade quantity.
// Reported, not fatal: the engine logs and skips the tick.
var ErrInsufficientBalance = errors.New("source balance below minimum trade quantity")

// Sizer converts a fraction of the source asset's balance per trigger. Never
// the whole balance, so capacity remains for the reversal trade.
type Sizer struct {
	fraction    decimal.Decimal
	minQuantity decimal.Decimal
}

// New creates a sizer. fraction must be in (0, 1]; minQuantity must not be
// negative.
func New(fraction, minQuantity decimal.Decimal) (*Sizer, error) {
	if !fraction.IsPositive() || fraction.GreaterThan(decimal.NewFromInt(1)) {
		return nil, errors.Errorf("sizing fraction must be in (0, 1], got %s", fraction.String())
	}
	if minQuantity.IsNegative() {
		return nil, errors.Errorf("minimum trade quantity must not be negative, got %s", minQuantity.String())
	}
	return &Sizer{fraction: fraction, minQuantity: minQuantity}, nil
}

// Size returns the trade intent for the decision, or nil for a nil decision.
// The idempotency key is derived from the trigger identity, so re-sizing the
// same trigger after a restart reproduces the same key.
func (s *Sizer) Size(decision *domain.TriggerDecision, balance decimal.Decimal) (*domain.TradeIntent, error) {
	if decision == nil {
		return nil, nil
	}
	if balance.LessThan(s.minQuantity) {
		return nil, errors.Wrapf(ErrInsufficientBalance, "balance %s of %s, minimum %s",
			balance.String(), decision.Source, s.minQuantity.String())
	}

	return &domain.TradeIntent{
		Source:   decision.Source,
		Target:   decision.Target,
		Quantity: balance.Mul(s.fraction),
		Key:      domain.IdempotencyKey(decision.Source, decision.Target, decision.At),
	}, nil
}
