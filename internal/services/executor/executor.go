// Package executor issues conversions against the account with at-most-once
// effective semantics across retries and restarts.
package executor

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/seesaw/internal/domain"
	"github.com/vadiminshakov/seesaw/internal/services/broker"
	"go.uber.org/zap"
)

// Result is the committed record of an executed intent.
type Result struct {
	Intent domain.TradeIntent
	// Committed quantity of the target asset received, zero on replay when
	// the original fill amount is no longer known.
	Committed decimal.Decimal
	// Replayed is set when the intent was recognized as already executed and
	// no conversion was issued.
	Replayed   bool
	ExecutedAt time.Time
}

// Executor submits trade intents through a broker. It never loops on
// failures itself; retry policy belongs to the caller.
type Executor struct {
	broker broker.Broker
	logger *zap.Logger
}

// New creates an executor.
func New(b broker.Broker, logger *zap.Logger) *Executor {
	return &Executor{broker: b, logger: logger}
}

// Execute submits the intent unless it is recognized as already committed:
// either lastExecutedKey matches, or the exchange reports an order under the
// intent's key. Both paths return the prior outcome without re-issuing, which
// keeps the effect at-most-once across retries and crash replays. Failures
// carry the broker taxonomy (RateLimited, TransientNetwork, Rejected) for the
// caller to classify.
func (e *Executor) Execute(ctx context.Context, intent *domain.TradeIntent, lastExecutedKey string) (*Result, error) {
	if intent.Key != "" && intent.Key == lastExecutedKey {
		e.logger.Info("intent already executed, skipping conversion",
			zap.String("key", intent.Key),
			zap.String("source", intent.Source),
			zap.String("target", intent.Target))
		return &Result{Intent: *intent, Replayed: true, ExecutedAt: time.Now()}, nil
	}

	if intent.Key != "" {
		executed, filled, err := e.broker.OrderExecuted(ctx, intent.Key)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to check order status for %s", intent.Key)
		}
		if executed {
			e.logger.Info("conversion already committed at the exchange",
				zap.String("key", intent.Key),
				zap.String("filled", filled.String()))
			return &Result{Intent: *intent, Committed: filled, Replayed: true, ExecutedAt: time.Now()}, nil
		}
	}

	committed, err := e.broker.Convert(ctx, intent.Source, intent.Target, intent.Quantity, intent.Key)
	if err != nil {
		return nil, errors.Wrapf(err, "conversion %s failed", intent.String())
	}

	e.logger.Info("conversion committed",
		zap.String("key", intent.Key),
		zap.String("source", intent.Source),
		zap.String("target", intent.Target),
		zap.String("quantity", intent.Quantity.String()),
		zap.String("committed", committed.String()))

	return &Result{Intent: *intent, Committed: committed, ExecutedAt: time.Now()}, nil
}
