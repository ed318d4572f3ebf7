// Package internal assembles the rebalancing engine from its collaborators
// and drives it on a ticker.
package internal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/seesaw/config"
	"github.com/vadiminshakov/seesaw/internal/services/detector"
	"github.com/vadiminshakov/seesaw/internal/services/engine"
	"github.com/vadiminshakov/seesaw/internal/services/executor"
	"github.com/vadiminshakov/seesaw/internal/services/history"
	"github.com/vadiminshakov/seesaw/internal/services/sizer"
	"github.com/vadiminshakov/seesaw/internal/storage/enginestate"
	"github.com/vadiminshakov/seesaw/pkg/retrier"
)

// Bot runs one rebalancing engine for one pair.
type Bot struct {
	RunID  string
	Engine *engine.Engine

	conf  config.Config
	store *enginestate.Store
}

// NewBot wires the engine for the configured platform.
func NewBot(conf config.Config, client any, logger *zap.Logger) (*Bot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	provider, err := NewServiceProvider(client, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create service provider")
	}

	source, err := provider.Rates(conf.Quote)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create rate source")
	}
	brk, err := provider.Broker(conf.Pair, conf.Quote)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create broker")
	}

	hist, err := history.New(conf.Window, conf.RetentionMultiplier)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create price history")
	}
	det, err := detector.New(conf.Pair, conf.Threshold)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create divergence detector")
	}
	siz, err := sizer.New(conf.SizingFraction, conf.MinTradeQuantity)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create trade sizer")
	}

	store, err := enginestate.NewStore(conf.StateDir, conf.Pair)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open engine state store")
	}

	retr := retrier.New(
		retrier.WithInitialInterval(conf.Retry.BaseDelay),
		retrier.WithMaxInterval(conf.Retry.MaxDelay),
		retrier.WithMaxRetries(conf.Retry.MaxAttempts-1),
		retrier.WithRetryIf(engine.Retryable),
	)

	eng, err := engine.New(engine.Params{
		Pair:     conf.Pair,
		Rates:    source,
		Broker:   brk,
		History:  hist,
		Detector: det,
		Sizer:    siz,
		Executor: executor.New(brk, logger),
		Store:    store,
		Retrier:  retr,
		Logger:   logger,
	})
	if err != nil {
		store.Close()
		return nil, errors.Wrap(err, "failed to create engine")
	}

	return &Bot{
		RunID:  uuid.NewString(),
		Engine: eng,
		conf:   conf,
		store:  store,
	}, nil
}

// Close releases the bot's persistent resources.
func (b *Bot) Close() error {
	return b.store.Close()
}

// Run ticks the engine until ctx is cancelled. Tick errors are logged and
// the loop keeps going: a failed tick leaves state untouched, so the next
// tick starts clean.
func (b *Bot) Run(ctx context.Context, logger *zap.Logger) error {
	ticker := time.NewTicker(b.conf.TickInterval)
	defer ticker.Stop()

	logger.Info("starting rebalancing loop",
		zap.String("run_id", b.RunID),
		zap.String("pair", b.conf.Pair.String()),
		zap.String("platform", b.conf.Platform),
		zap.Duration("tick_interval", b.conf.TickInterval))

	for {
		select {
		case <-ctx.Done():
			logger.Info("context done, stopping rebalancing loop", zap.String("pair", b.conf.Pair.String()))
			return ctx.Err()
		case <-ticker.C:
			rec, err := b.Engine.Tick(ctx)
			if err != nil {
				logger.Error("tick failed",
					zap.String("pair", b.conf.Pair.String()),
					zap.String("status", string(rec.Status)),
					zap.Error(err))
				continue
			}
			logger.Debug("tick finished",
				zap.String("pair", b.conf.Pair.String()),
				zap.String("status", string(rec.Status)))
		}
	}
}
