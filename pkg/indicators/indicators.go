// Package indicators computes technical indicators (EMA, RSI) over rate
// series for the status endpoints.
package indicators

import (
	"fmt"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/shopspring/decimal"
)

// CalculateEMA calculates the Exponential Moving Average for the given period.
func CalculateEMA(rates []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	if len(rates) < period {
		return nil, fmt.Errorf("not enough data points: need %d, got %d", period, len(rates))
	}

	ema := trend.NewEmaWithPeriod[float64](period)
	inputChan := helper.SliceToChan(decimalsToFloat64(rates))
	outputChan := ema.Compute(inputChan)

	return float64ToDecimals(helper.ChanToSlice(outputChan)), nil
}

// CalculateRSI calculates the Relative Strength Index for the given period.
func CalculateRSI(rates []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	if len(rates) < period+1 {
		return nil, fmt.Errorf("not enough data points for RSI: need %d, got %d", period+1, len(rates))
	}

	rsi := momentum.NewRsiWithPeriod[float64](period)
	inputChan := helper.SliceToChan(decimalsToFloat64(rates))
	outputChan := rsi.Compute(inputChan)

	return float64ToDecimals(helper.ChanToSlice(outputChan)), nil
}

// Snapshot holds the latest indicator values for one asset's rate series.
type Snapshot struct {
	EMA *decimal.Decimal `json:"ema,omitempty"`
	RSI *decimal.Decimal `json:"rsi,omitempty"`
}

// Compute returns the most recent EMA and RSI over the series. Indicators
// that lack warmup data stay nil instead of failing the whole snapshot.
func Compute(rates []decimal.Decimal, emaPeriod, rsiPeriod int) Snapshot {
	var snap Snapshot
	if ema, err := CalculateEMA(rates, emaPeriod); err == nil && len(ema) > 0 {
		last := ema[len(ema)-1]
		snap.EMA = &last
	}
	if rsi, err := CalculateRSI(rates, rsiPeriod); err == nil && len(rsi) > 0 {
		last := rsi[len(rsi)-1]
		snap.RSI = &last
	}
	return snap
}

func decimalsToFloat64(decimals []decimal.Decimal) []float64 {
	result := make([]float64, len(decimals))
	for i, d := range decimals {
		result[i], _ = d.Float64()
	}
	return result
}

func float64ToDecimals(floats []float64) []decimal.Decimal {
	result := make([]decimal.Decimal, len(floats))
	for i, f := range floats {
		result[i] = decimal.NewFromFloat(f)
	}
	return result
}
