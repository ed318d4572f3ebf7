package broker

import (
	"context"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/seesaw/internal/domain"
)

// BinanceBroker converts between the pair's assets with two spot market
// orders through the quote currency: sell the source leg, then spend the
// quote proceeds on the target leg. Each leg carries a client order ID
// derived from the conversion's clientOrderID, so a re-run after a crash
// finds already-placed legs instead of placing them twice.
type BinanceBroker struct {
	client *binance.Client
	pair   domain.Pair
	quote  string
}

func NewBinanceBroker(client *binance.Client, pair domain.Pair, quote string) (*BinanceBroker, error) {
	if quote == "" {
		return nil, errors.New("quote currency is required")
	}
	return &BinanceBroker{client: client, pair: pair, quote: quote}, nil
}

func (b *BinanceBroker) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	account, err := b.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return decimal.Zero, classifyBinance(err, "get binance account balance")
	}

	for _, balance := range account.Balances {
		if balance.Asset == asset {
			free, err := decimal.NewFromString(balance.Free)
			if err != nil {
				return decimal.Zero, errors.Wrap(err, "failed to parse balance")
			}
			return free, nil
		}
	}

	return decimal.Zero, nil
}

func (b *BinanceBroker) Convert(ctx context.Context, source, target string, quantity decimal.Decimal, clientOrderID string) (decimal.Decimal, error) {
	sellSymbol := source + b.quote
	buySymbol := target + b.quote
	sellID := clientOrderID + "-s"
	buyID := clientOrderID + "-b"

	sellOrder, err := b.findOrder(ctx, sellSymbol, sellID)
	if err != nil {
		return decimal.Zero, err
	}

	var proceeds decimal.Decimal
	if sellOrder != nil {
		proceeds, err = decimal.NewFromString(sellOrder.CummulativeQuoteQuantity)
		if err != nil {
			return decimal.Zero, errors.Wrap(err, "failed to parse sell leg proceeds")
		}
	} else {
		res, err := b.client.NewCreateOrderService().Symbol(sellSymbol).
			Side(binance.SideTypeSell).Type(binance.OrderTypeMarket).
			Quantity(quantity.RoundFloor(4).String()).
			NewClientOrderID(sellID).
			Do(ctx)
		if err != nil {
			return decimal.Zero, classifyBinance(err, "sell leg")
		}
		proceeds, err = decimal.NewFromString(res.CummulativeQuoteQuantity)
		if err != nil {
			return decimal.Zero, errors.Wrap(err, "failed to parse sell leg proceeds")
		}
	}

	if !proceeds.IsPositive() {
		return decimal.Zero, errors.Wrapf(ErrRejected, "sell leg %s produced no proceeds", sellID)
	}

	buyOrder, err := b.findOrder(ctx, buySymbol, buyID)
	if err != nil {
		return decimal.Zero, err
	}
	if buyOrder != nil {
		acquired, err := decimal.NewFromString(buyOrder.ExecutedQuantity)
		if err != nil {
			return decimal.Zero, errors.Wrap(err, "failed to parse buy leg quantity")
		}
		return acquired, nil
	}

	res, err := b.client.NewCreateOrderService().Symbol(buySymbol).
		Side(binance.SideTypeBuy).Type(binance.OrderTypeMarket).
		QuoteOrderQty(proceeds.RoundFloor(8).String()).
		NewClientOrderID(buyID).
		Do(ctx)
	if err != nil {
		return decimal.Zero, classifyBinance(err, "buy leg")
	}

	acquired, err := decimal.NewFromString(res.ExecutedQuantity)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "failed to parse buy leg quantity")
	}
	return acquired, nil
}

// OrderExecuted checks the final (buy) leg at the exchange. A conversion
// counts as committed once the buy leg is filled. The buy symbol depends on
// the conversion direction, which the ID alone doesn't tell, so both legs of
// the pair are probed.
func (b *BinanceBroker) OrderExecuted(ctx context.Context, clientOrderID string) (bool, decimal.Decimal, error) {
	if clientOrderID == "" {
		return false, decimal.Zero, nil
	}

	buyID := clientOrderID + "-b"
	for _, asset := range b.pair.Assets() {
		order, err := b.findOrder(ctx, asset+b.quote, buyID)
		if err != nil {
			return false, decimal.Zero, err
		}
		if order == nil {
			continue
		}

		executedQty, parseErr := decimal.NewFromString(order.ExecutedQuantity)
		if parseErr != nil {
			return false, decimal.Zero, errors.Wrap(parseErr, "failed to parse executed quantity")
		}

		switch order.Status {
		case binance.OrderStatusTypeFilled:
			return true, executedQty, nil
		case binance.OrderStatusTypeCanceled, binance.OrderStatusTypeRejected, binance.OrderStatusTypeExpired:
			return executedQty.GreaterThan(decimal.Zero), executedQty, nil
		default:
			return false, decimal.Zero, nil
		}
	}

	return false, decimal.Zero, nil
}

// findOrder returns nil without error when the exchange has no order with
// this client ID on the symbol.
func (b *BinanceBroker) findOrder(ctx context.Context, symbol, clientID string) (*binance.Order, error) {
	order, err := b.client.NewGetOrderService().
		Symbol(symbol).
		OrigClientOrderID(clientID).
		Do(ctx)
	if err != nil {
		if apiErr, ok := err.(*common.APIError); ok && apiErr.Code == -2013 {
			return nil, nil
		}
		return nil, classifyBinance(err, "query binance order status")
	}
	return order, nil
}

// classifyBinance folds a binance error into the failure taxonomy.
func classifyBinance(err error, op string) error {
	apiErr, ok := err.(*common.APIError)
	if !ok {
		return errors.Wrapf(ErrTransientNetwork, "%s: %v", op, err)
	}

	switch apiErr.Code {
	case -1003, -1015:
		return errors.Wrapf(ErrRateLimited, "%s: %v", op, err)
	case -1000, -1001, -1021:
		return errors.Wrapf(ErrTransientNetwork, "%s: %v", op, err)
	default:
		return errors.Wrapf(ErrRejected, "%s: %v", op, err)
	}
}
