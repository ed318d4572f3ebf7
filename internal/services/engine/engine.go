// Package engine owns the per-tick control loop: sample, detect, size,
// execute, persist.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/seesaw/internal/domain"
	"github.com/vadiminshakov/seesaw/internal/services/broker"
	"github.com/vadiminshakov/seesaw/internal/services/detector"
	"github.com/vadiminshakov/seesaw/internal/services/executor"
	"github.com/vadiminshakov/seesaw/internal/services/history"
	"github.com/vadiminshakov/seesaw/internal/services/rates"
	"github.com/vadiminshakov/seesaw/internal/services/sizer"
	"github.com/vadiminshakov/seesaw/pkg/retrier"
	"go.uber.org/zap"
)

// TickStatus is the terminal state of one tick.
type TickStatus string

const (
	StatusNoNewSample         TickStatus = "no_new_sample"
	StatusNoSignal            TickStatus = "no_signal"
	StatusTriggerHandled      TickStatus = "trigger_handled"
	StatusInsufficientBalance TickStatus = "insufficient_balance"
	StatusExecuted            TickStatus = "executed"
	StatusReplayed            TickStatus = "replayed"
	StatusRejected            TickStatus = "rejected"
	StatusRetriesExhausted    TickStatus = "retries_exhausted"
	StatusSamplingFailed      TickStatus = "sampling_failed"
)

const (
	defaultCallTimeout = 10 * time.Second
	tickRecordCap      = 256
)

// TickRecord is the observable outcome of one tick.
type TickRecord struct {
	Index     uint64                  `json:"index"`
	At        time.Time               `json:"at"`
	Status    TickStatus              `json:"status"`
	Decision  *domain.TriggerDecision `json:"decision,omitempty"`
	Intent    *domain.TradeIntent     `json:"intent,omitempty"`
	Committed decimal.Decimal         `json:"committed"`
	Error     string                  `json:"error,omitempty"`
}

// Status is a point-in-time snapshot for observers.
type Status struct {
	Pair            domain.Pair
	State           domain.EngineState
	LatestRates     map[string]decimal.Decimal
	RelativeChanges map[string]decimal.Decimal
	RateSeries      map[string][]decimal.Decimal
	LastTick        *TickRecord
}

// StateStore persists engine state across restarts.
type StateStore interface {
	Load() (*domain.EngineState, error)
	Save(*domain.EngineState) error
}

// Params wires the engine's collaborators.
type Params struct {
	Pair     domain.Pair
	Rates    rates.Source
	Broker   broker.Broker
	History  *history.History
	Detector *detector.Detector
	Sizer    *sizer.Sizer
	Executor *executor.Executor
	Store    StateStore
	Retrier  *retrier.Retrier
	Logger   *zap.Logger
	// CallTimeout bounds each external call; defaults to 10s.
	CallTimeout time.Duration
}

// Engine runs the rebalancing state machine. A mutex makes ticks
// single-flight: a new tick never starts while a prior one is mid-execution.
type Engine struct {
	mu sync.Mutex

	pair        domain.Pair
	rates       rates.Source
	broker      broker.Broker
	history     *history.History
	detector    *detector.Detector
	sizer       *sizer.Sizer
	executor    *executor.Executor
	store       StateStore
	retr        *retrier.Retrier
	logger      *zap.Logger
	callTimeout time.Duration

	state *domain.EngineState

	statusMu sync.RWMutex
	status   Status
	records  []TickRecord
	nextIdx  uint64
}

// New loads persisted state and builds the engine. An unreadable state store
// is a refusal to start: running on unknown state costs more than downtime.
func New(p Params) (*Engine, error) {
	if p.Rates == nil || p.Broker == nil || p.History == nil || p.Detector == nil ||
		p.Sizer == nil || p.Executor == nil || p.Store == nil {
		return nil, errors.New("engine is missing a collaborator")
	}
	if p.Retrier == nil {
		p.Retrier = retrier.New(retrier.WithRetryIf(Retryable))
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.CallTimeout <= 0 {
		p.CallTimeout = defaultCallTimeout
	}

	state, err := p.Store.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load engine state")
	}
	if state == nil {
		state = domain.NewEngineState()
	}

	e := &Engine{
		pair:        p.Pair,
		rates:       p.Rates,
		broker:      p.Broker,
		history:     p.History,
		detector:    p.Detector,
		sizer:       p.Sizer,
		executor:    p.Executor,
		store:       p.Store,
		retr:        p.Retrier,
		logger:      p.Logger.With(zap.String("pair", p.Pair.String())),
		callTimeout: p.CallTimeout,
		state:       state,
	}
	e.status = Status{Pair: p.Pair, State: *state.Clone()}
	return e, nil
}

// Retryable reports whether an error belongs to the transient classes the
// engine retries with backoff.
func Retryable(err error) bool {
	return broker.Retryable(err) || errors.Is(err, rates.ErrUnavailable)
}

// Tick runs one pass of the state machine. State is advanced only by a
// terminal executing outcome; every expected absence short-circuits back to
// idle with nothing mutated.
func (e *Engine) Tick(ctx context.Context) (TickRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec := TickRecord{At: time.Now()}

	fresh, err := e.sample(ctx)
	if err != nil {
		rec.Status = StatusSamplingFailed
		rec.Error = err.Error()
		e.logger.Error("sampling failed", zap.Error(err))
		return e.finish(rec), err
	}
	if !fresh {
		rec.Status = StatusNoNewSample
		e.logger.Debug("no new samples this tick")
		return e.finish(rec), nil
	}

	decision, err := e.detector.Evaluate(e.history)
	if err != nil {
		rec.Error = err.Error()
		return e.finish(rec), err
	}
	if decision == nil {
		rec.Status = StatusNoSignal
		e.logger.Debug("no divergence signal")
		return e.finish(rec), nil
	}
	rec.Decision = decision

	if !decision.At.After(e.state.LastTriggerAt) {
		// this trigger already reached a terminal outcome on a prior tick
		rec.Status = StatusTriggerHandled
		e.logger.Debug("trigger already handled",
			zap.Time("trigger_at", decision.At),
			zap.Time("last_trigger_at", e.state.LastTriggerAt))
		return e.finish(rec), nil
	}

	e.logger.Info("rebalancing trigger fired",
		zap.String("source", decision.Source),
		zap.String("target", decision.Target),
		zap.String("score", decision.Score.String()))

	balance, err := retrier.DoWithData(e.retr, ctx, func(ctx context.Context) (decimal.Decimal, error) {
		callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
		defer cancel()
		return e.broker.GetBalance(callCtx, decision.Source)
	})
	if err != nil {
		rec.Status = StatusRetriesExhausted
		rec.Error = err.Error()
		e.logger.Error("balance read failed", zap.Error(err))
		return e.finish(rec), err
	}

	intent, err := e.sizer.Size(decision, balance)
	if err != nil {
		if errors.Is(err, sizer.ErrInsufficientBalance) {
			rec.Status = StatusInsufficientBalance
			e.logger.Info("skipping trigger, balance too small",
				zap.String("source", decision.Source),
				zap.String("balance", balance.String()))
			return e.finish(rec), nil
		}
		rec.Error = err.Error()
		return e.finish(rec), err
	}
	rec.Intent = intent

	res, err := retrier.DoWithData(e.retr, ctx, func(ctx context.Context) (*executor.Result, error) {
		// a submission in flight is never aborted mid-call on shutdown;
		// only the per-call timeout applies
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.callTimeout)
		defer cancel()
		return e.executor.Execute(callCtx, intent, e.state.LastExecutedKey)
	})
	switch {
	case err == nil:
		rec.Committed = res.Committed
		if res.Replayed {
			rec.Status = StatusReplayed
		} else {
			rec.Status = StatusExecuted
		}
		e.advance(intent.Key, decision.At)
	case errors.Is(err, broker.ErrRejected):
		// terminal for this trigger: a rejected order is not retried, a
		// fresh trigger has to fire again
		rec.Status = StatusRejected
		rec.Error = err.Error()
		e.logger.Error("conversion rejected, advancing past trigger", zap.Error(err))
		e.advance(e.state.LastExecutedKey, decision.At)
		err = nil
	default:
		rec.Status = StatusRetriesExhausted
		rec.Error = err.Error()
		e.logger.Error("conversion retries exhausted, trigger will be reconsidered", zap.Error(err))
		return e.finish(rec), err
	}

	if saveErr := e.store.Save(e.state); saveErr != nil {
		// the executed key is lost only until the next successful save; the
		// executor's idempotency check covers the replay window
		e.logger.Error("failed to persist engine state", zap.Error(saveErr))
		rec.Error = saveErr.Error()
		return e.finish(rec), saveErr
	}

	return e.finish(rec), err
}

// sample pulls a quote for both legs and records it. Returns false when
// neither leg produced a sample newer than what is already recorded.
func (e *Engine) sample(ctx context.Context) (bool, error) {
	fresh := false
	for _, asset := range e.pair.Assets() {
		sample, err := retrier.DoWithData(e.retr, ctx, func(ctx context.Context) (domain.PriceSample, error) {
			callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
			defer cancel()
			return e.rates.GetRate(callCtx, asset)
		})
		if err != nil {
			return false, errors.Wrapf(err, "failed to sample %s", asset)
		}

		last, ok := e.history.LastSampleAt(asset)
		if ok && !sample.At.After(last) {
			// the source served nothing newer; not a fault
			e.logger.Debug("no new sample", zap.String("asset", asset), zap.Time("at", sample.At))
			continue
		}

		if err := e.history.Record(sample); err != nil {
			return false, errors.Wrapf(err, "failed to record sample for %s", asset)
		}
		fresh = true
	}
	return fresh, nil
}

// advance mutates in-memory state after a terminal executing outcome.
func (e *Engine) advance(executedKey string, triggerAt time.Time) {
	e.state.LastExecutedKey = executedKey
	e.state.LastTriggerAt = triggerAt
	for _, asset := range e.pair.Assets() {
		if at, ok := e.history.LastSampleAt(asset); ok {
			e.state.LastSampleAt[asset] = at
		}
	}
}

// finish stamps the record, appends it to the ring, and refreshes the
// observer snapshot. Called with e.mu held.
func (e *Engine) finish(rec TickRecord) TickRecord {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()

	e.nextIdx++
	rec.Index = e.nextIdx

	e.records = append(e.records, rec)
	if len(e.records) > tickRecordCap {
		e.records = e.records[len(e.records)-tickRecordCap:]
	}

	latest := make(map[string]decimal.Decimal, 2)
	changes := make(map[string]decimal.Decimal, 2)
	series := make(map[string][]decimal.Decimal, 2)
	for _, asset := range e.pair.Assets() {
		if rate, ok := e.history.LatestRate(asset); ok {
			latest[asset] = rate
		}
		if change, err := e.history.RelativeChange(asset); err == nil {
			changes[asset] = change
		}
		series[asset] = e.history.Rates(asset)
	}

	recCopy := rec
	e.status = Status{
		Pair:            e.pair,
		State:           *e.state.Clone(),
		LatestRates:     latest,
		RelativeChanges: changes,
		RateSeries:      series,
		LastTick:        &recCopy,
	}
	return rec
}

// Status returns the snapshot taken at the end of the most recent tick.
func (e *Engine) Status() Status {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return e.status
}

// TicksAfter returns retained tick records with an index greater than
// after, oldest first. Indices start at 1, so after=0 returns everything.
func (e *Engine) TicksAfter(after uint64) []TickRecord {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()

	out := make([]TickRecord, 0, len(e.records))
	for _, rec := range e.records {
		if rec.Index > after {
			out = append(out, rec)
		}
	}
	return out
}
