// Package history keeps the append-only record of sampled exchange rates and
// computes relative change over the lookback window.
package history

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/seesaw/internal/domain"
)

var (
	// ErrOutOfOrderSample sample timestamp is not after the last recorded one.
	ErrOutOfOrderSample = errors.New("sample is not newer than the last recorded sample")
	// ErrInsufficientHistory fewer than two samples fall within the window.
	ErrInsufficientHistory = errors.New("fewer than two samples in window")
	// ErrDegenerateBaseline window-start rate is zero, relative change undefined.
	ErrDegenerateBaseline = errors.New("window-start rate is zero")
)

const defaultRetentionMultiplier = 2

// History holds per-asset time-ordered rate samples bounded to a retention
// window. Not safe for concurrent use; the engine serializes access.
type History struct {
	window              time.Duration
	retentionMultiplier int
	samples             map[string][]domain.PriceSample
}

// New creates a history with the given lookback window. A retention
// multiplier below 1 falls back to the default of 2.
func New(window time.Duration, retentionMultiplier int) (*History, error) {
	if window <= 0 {
		return nil, errors.Errorf("window must be positive, got %s", window)
	}
	if retentionMultiplier < 1 {
		retentionMultiplier = defaultRetentionMultiplier
	}
	return &History{
		window:              window,
		retentionMultiplier: retentionMultiplier,
		samples:             make(map[string][]domain.PriceSample),
	}, nil
}

// Record appends a sample for its asset. Timestamps must be strictly
// increasing per asset.
func (h *History) Record(sample domain.PriceSample) error {
	series := h.samples[sample.Asset]
	if len(series) > 0 && !sample.At.After(series[len(series)-1].At) {
		return errors.Wrapf(ErrOutOfOrderSample, "asset %s, last %s, got %s",
			sample.Asset, series[len(series)-1].At.Format(time.RFC3339Nano), sample.At.Format(time.RFC3339Nano))
	}

	series = append(series, sample)
	h.samples[sample.Asset] = h.evict(series)
	return nil
}

// evict lazily drops samples older than window*retentionMultiplier behind the
// latest sample. Eviction never touches samples inside the supported window.
func (h *History) evict(series []domain.PriceSample) []domain.PriceSample {
	latest := series[len(series)-1].At
	cutoff := latest.Add(-h.window * time.Duration(h.retentionMultiplier))

	idx := 0
	for idx < len(series) && series[idx].At.Before(cutoff) {
		idx++
	}
	if idx == 0 {
		return series
	}
	return append(series[:0:0], series[idx:]...)
}

// RelativeChange returns (latest - windowStart) / windowStart for the asset,
// where windowStart is the oldest sample within the lookback window anchored
// at the latest sample.
func (h *History) RelativeChange(asset string) (decimal.Decimal, error) {
	series := h.samples[asset]
	if len(series) < 2 {
		return decimal.Decimal{}, errors.Wrapf(ErrInsufficientHistory, "asset %s has %d samples", asset, len(series))
	}

	latest := series[len(series)-1]
	windowStart := latest.At.Add(-h.window)

	var baseline *domain.PriceSample
	for i := range series {
		if !series[i].At.Before(windowStart) {
			baseline = &series[i]
			break
		}
	}
	if baseline == nil || baseline.At.Equal(latest.At) {
		return decimal.Decimal{}, errors.Wrapf(ErrInsufficientHistory, "asset %s has no baseline in window", asset)
	}
	if baseline.Rate.IsZero() {
		return decimal.Decimal{}, errors.Wrapf(ErrDegenerateBaseline, "asset %s at %s", asset, baseline.At.Format(time.RFC3339Nano))
	}

	return latest.Rate.Sub(baseline.Rate).Div(baseline.Rate), nil
}

// LastSampleAt returns the latest recorded sample timestamp for the asset.
func (h *History) LastSampleAt(asset string) (time.Time, bool) {
	series := h.samples[asset]
	if len(series) == 0 {
		return time.Time{}, false
	}
	return series[len(series)-1].At, true
}

// LatestRate returns the most recent recorded rate for the asset.
func (h *History) LatestRate(asset string) (decimal.Decimal, bool) {
	series := h.samples[asset]
	if len(series) == 0 {
		return decimal.Decimal{}, false
	}
	return series[len(series)-1].Rate, true
}

// Rates returns all retained rates for the asset, oldest first.
func (h *History) Rates(asset string) []decimal.Decimal {
	series := h.samples[asset]
	out := make([]decimal.Decimal, len(series))
	for i, s := range series {
		out[i] = s.Rate
	}
	return out
}

// Window returns the configured lookback window.
func (h *History) Window() time.Duration {
	return h.window
}
