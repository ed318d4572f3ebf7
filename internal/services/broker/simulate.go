package broker

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/seesaw/internal/domain"
	"github.com/vadiminshakov/seesaw/internal/services/rates"
	"go.uber.org/zap"
)

// SimulateBroker keeps balances in memory and converts at live market rates,
// so simulation runs exercise the full trigger path without touching an
// account. Committed conversions are remembered by client order ID, which
// gives the same replay behavior as a real exchange.
type SimulateBroker struct {
	mu       sync.RWMutex
	logger   *zap.Logger
	source   rates.Source
	balances map[string]decimal.Decimal
	executed map[string]decimal.Decimal
}

// NewSimulateBroker seeds the wallet with one unit of the pair's first asset.
func NewSimulateBroker(pair domain.Pair, source rates.Source, logger *zap.Logger) (*SimulateBroker, error) {
	if source == nil {
		return nil, errors.New("rate source is required for simulation")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	balances := map[string]decimal.Decimal{
		pair.A: decimal.NewFromInt(1),
		pair.B: decimal.Zero,
	}
	logger.Info("simulate init",
		zap.String("pair", pair.String()),
		zap.String(pair.A, balances[pair.A].String()),
		zap.String(pair.B, balances[pair.B].String()))
	return &SimulateBroker{
		logger:   logger,
		source:   source,
		balances: balances,
		executed: make(map[string]decimal.Decimal),
	}, nil
}

func (b *SimulateBroker) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.balances[asset], nil
}

func (b *SimulateBroker) Convert(ctx context.Context, source, target string, quantity decimal.Decimal, clientOrderID string) (decimal.Decimal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if acquired, ok := b.executed[clientOrderID]; ok {
		return acquired, nil
	}

	if b.balances[source].LessThan(quantity) {
		return decimal.Zero, errors.Wrapf(ErrRejected, "simulated balance %s below %s %s",
			b.balances[source].String(), quantity.String(), source)
	}

	sourceSample, err := b.source.GetRate(ctx, source)
	if err != nil {
		return decimal.Zero, errors.Wrapf(ErrTransientNetwork, "rate for %s: %v", source, err)
	}
	targetSample, err := b.source.GetRate(ctx, target)
	if err != nil {
		return decimal.Zero, errors.Wrapf(ErrTransientNetwork, "rate for %s: %v", target, err)
	}
	if !targetSample.Rate.IsPositive() {
		return decimal.Zero, errors.Wrapf(ErrRejected, "no price for %s", target)
	}

	acquired := quantity.Mul(sourceSample.Rate).Div(targetSample.Rate)

	b.balances[source] = b.balances[source].Sub(quantity)
	b.balances[target] = b.balances[target].Add(acquired)
	b.executed[clientOrderID] = acquired

	b.logger.Info("simulated conversion",
		zap.String("source", source),
		zap.String("target", target),
		zap.String("quantity", quantity.String()),
		zap.String("acquired", acquired.String()),
		zap.String("client_order_id", clientOrderID))

	return acquired, nil
}

func (b *SimulateBroker) OrderExecuted(ctx context.Context, clientOrderID string) (bool, decimal.Decimal, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	acquired, ok := b.executed[clientOrderID]
	if !ok {
		return false, decimal.Zero, nil
	}
	return true, acquired, nil
}
