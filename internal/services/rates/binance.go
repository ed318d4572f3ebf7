package rates

import (
	"context"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/seesaw/internal/domain"
)

// binance API error codes
const binanceInvalidSymbol = -1121

// BinanceSource quotes assets in the reference currency via the Binance
// ticker API.
type BinanceSource struct {
	client *binance.Client
	quote  string
}

// NewBinanceSource creates a source quoting against quote (e.g. "USDT").
func NewBinanceSource(client *binance.Client, quote string) *BinanceSource {
	return &BinanceSource{client: client, quote: quote}
}

func (s *BinanceSource) GetRate(ctx context.Context, asset string) (domain.PriceSample, error) {
	symbol := asset + s.quote

	prices, err := s.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		if apiErr, ok := err.(*common.APIError); ok && apiErr.Code == binanceInvalidSymbol {
			return domain.PriceSample{}, errors.Wrapf(ErrInvalidAsset, "binance does not trade %s", symbol)
		}
		return domain.PriceSample{}, errors.Wrapf(ErrUnavailable, "binance price request for %s: %v", symbol, err)
	}
	if len(prices) == 0 {
		return domain.PriceSample{}, errors.Wrapf(ErrInvalidAsset, "binance returned no price for %s", symbol)
	}

	rate, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return domain.PriceSample{}, errors.Wrapf(ErrUnavailable, "binance price for %s unparsable: %v", symbol, err)
	}

	return domain.PriceSample{Asset: asset, Rate: rate, At: time.Now()}, nil
}
