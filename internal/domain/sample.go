package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSample is one observed quote of an asset in the reference currency.
// Samples are immutable once recorded and ordered by timestamp per asset.
type PriceSample struct {
	Asset string
	Rate  decimal.Decimal
	At    time.Time
}
