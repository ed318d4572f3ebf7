package rates

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	hyperliquid "github.com/sonirico/go-hyperliquid"
	"github.com/vadiminshakov/seesaw/internal/domain"
)

// HyperliquidSource quotes assets via the Hyperliquid public Info API.
// Mids are keyed by base coin and quoted in USD.
type HyperliquidSource struct {
	info *hyperliquid.Info
}

// NewHyperliquidSource creates a source backed by the Info endpoint.
func NewHyperliquidSource(info *hyperliquid.Info) *HyperliquidSource {
	return &HyperliquidSource{info: info}
}

func (s *HyperliquidSource) GetRate(ctx context.Context, asset string) (domain.PriceSample, error) {
	mids, err := s.info.AllMids(ctx)
	if err != nil {
		return domain.PriceSample{}, errors.Wrapf(ErrUnavailable, "hyperliquid mids request: %v", err)
	}

	mid, ok := mids[asset]
	if !ok || mid == "" {
		return domain.PriceSample{}, errors.Wrapf(ErrInvalidAsset, "hyperliquid has no mid for %s", asset)
	}

	rate, err := decimal.NewFromString(mid)
	if err != nil {
		return domain.PriceSample{}, errors.Wrapf(ErrUnavailable, "hyperliquid mid for %s unparsable: %v", asset, err)
	}

	return domain.PriceSample{Asset: asset, Rate: rate, At: time.Now()}, nil
}
