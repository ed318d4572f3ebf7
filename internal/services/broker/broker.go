// Package broker reads account balances and submits conversions between the
// pair's assets, per exchange.
package broker

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Failure taxonomy for conversions. Adapters wrap the exchange error into one
// of these so the engine can decide between retrying and giving up.
var (
	// ErrRateLimited the exchange throttled the request; retryable.
	ErrRateLimited = errors.New("rate limited")
	// ErrTransientNetwork the request did not reach a terminal state; retryable.
	ErrTransientNetwork = errors.New("transient network failure")
	// ErrRejected the exchange declined the order; terminal for this trigger.
	ErrRejected = errors.New("order rejected")
)

// Broker is the account-side collaborator: balance reads and conversions.
// Balances are eventually consistent with recent trades and must be re-read,
// never mirrored locally.
type Broker interface {
	GetBalance(ctx context.Context, asset string) (decimal.Decimal, error)
	// Convert moves quantity of source into target as an atomic, same-account
	// conversion and returns the committed target quantity. clientOrderID is
	// forwarded to the exchange so the conversion stays recognizable.
	Convert(ctx context.Context, source, target string, quantity decimal.Decimal, clientOrderID string) (decimal.Decimal, error)
	// OrderExecuted reports whether a conversion with this clientOrderID has
	// already committed, and the filled target quantity when known.
	OrderExecuted(ctx context.Context, clientOrderID string) (bool, decimal.Decimal, error)
}

// Retryable reports whether err belongs to the retryable failure classes.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransientNetwork)
}
