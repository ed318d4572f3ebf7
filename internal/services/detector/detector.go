// Package detector decides whether the divergence between the two assets'
// relative changes warrants a rebalancing trade.
package detector

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/seesaw/internal/domain"
	"github.com/vadiminshakov/seesaw/internal/services/history"
)

// Detector evaluates the trigger condition for one asset pair.
type Detector struct {
	pair      domain.Pair
	threshold decimal.Decimal
}

// New creates a detector. The threshold is a fraction (0.02 means a
// 2-percentage-point divergence) and must be positive.
func New(pair domain.Pair, threshold decimal.Decimal) (*Detector, error) {
	if !threshold.IsPositive() {
		return nil, errors.Errorf("threshold must be positive, got %s", threshold.String())
	}
	return &Detector{pair: pair, threshold: threshold}, nil
}

// Evaluate computes both assets' relative changes and returns a trigger when
// their gap exceeds the threshold. Funds move from the asset whose relative
// change is higher into the one whose change is lower. A missing or
// degenerate signal yields a nil decision, not an error.
func (d *Detector) Evaluate(h *history.History) (*domain.TriggerDecision, error) {
	changeA, err := h.RelativeChange(d.pair.A)
	if err != nil {
		return nilIfNoSignal(err)
	}
	changeB, err := h.RelativeChange(d.pair.B)
	if err != nil {
		return nilIfNoSignal(err)
	}

	score := changeA.Sub(changeB)
	if score.IsZero() {
		// exact tie carries no signal
		return nil, nil
	}
	if score.Abs().LessThanOrEqual(d.threshold) {
		return nil, nil
	}

	source, target := d.pair.A, d.pair.B
	if score.IsNegative() {
		source, target = d.pair.B, d.pair.A
	}

	triggerAt, ok := h.LastSampleAt(source)
	if !ok {
		// unreachable once RelativeChange succeeded, kept as a guard
		return nil, errors.Errorf("no samples for source asset %s", source)
	}

	return &domain.TriggerDecision{
		Source: source,
		Target: target,
		Score:  score.Abs(),
		At:     triggerAt,
	}, nil
}

func nilIfNoSignal(err error) (*domain.TriggerDecision, error) {
	if errors.Is(err, history.ErrInsufficientHistory) || errors.Is(err, history.ErrDegenerateBaseline) {
		return nil, nil
	}
	return nil, err
}
