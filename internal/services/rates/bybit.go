package rates

import (
	"context"
	"time"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/seesaw/internal/domain"
)

// BybitSource quotes assets in the reference currency via the Bybit V5
// spot ticker API.
type BybitSource struct {
	client *bybit.Client
	quote  string
}

// NewBybitSource creates a source quoting against quote (e.g. "USDT").
func NewBybitSource(client *bybit.Client, quote string) *BybitSource {
	return &BybitSource{client: client, quote: quote}
}

func (s *BybitSource) GetRate(ctx context.Context, asset string) (domain.PriceSample, error) {
	symbol := bybit.SymbolV5(asset + s.quote)

	result, err := s.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: "spot",
		Symbol:   &symbol,
	})
	if err != nil {
		return domain.PriceSample{}, errors.Wrapf(ErrUnavailable, "bybit ticker request for %s: %v", symbol, err)
	}
	if len(result.Result.Spot.List) == 0 {
		return domain.PriceSample{}, errors.Wrapf(ErrInvalidAsset, "bybit returned no price for %s", symbol)
	}

	rate, err := decimal.NewFromString(result.Result.Spot.List[0].LastPrice)
	if err != nil {
		return domain.PriceSample{}, errors.Wrapf(ErrUnavailable, "bybit price for %s unparsable: %v", symbol, err)
	}

	return domain.PriceSample{Asset: asset, Rate: rate, At: time.Now()}, nil
}
