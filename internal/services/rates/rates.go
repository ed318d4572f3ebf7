// Package rates provides the current quote of an asset in the reference
// currency, per exchange.
package rates

import (
	"context"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/seesaw/internal/domain"
)

var (
	// ErrUnavailable the exchange could not serve a quote right now.
	ErrUnavailable = errors.New("rate source unavailable")
	// ErrInvalidAsset the exchange does not know the asset.
	ErrInvalidAsset = errors.New("invalid asset")
)

// Source supplies the current rate of an asset in the reference currency.
type Source interface {
	GetRate(ctx context.Context, asset string) (domain.PriceSample, error)
}
