package broker

import (
	"context"
	"strings"
	"time"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/seesaw/internal/domain"
)

// BybitBroker converts through the quote currency on the unified spot
// account. Market buys on bybit spot are sized in the quote coin, which
// matches the two-leg flow: the sell leg's proceeds become the buy leg's
// quantity directly. Legs are tagged with OrderLinkIDs derived from the
// conversion ID so re-runs find them instead of re-placing.
type BybitBroker struct {
	client *bybit.Client
	pair   domain.Pair
	quote  string
}

func NewBybitBroker(client *bybit.Client, pair domain.Pair, quote string) (*BybitBroker, error) {
	if quote == "" {
		return nil, errors.New("quote currency is required")
	}
	return &BybitBroker{client: client, pair: pair, quote: quote}, nil
}

func (b *BybitBroker) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	res, err := b.client.V5().Account().GetWalletBalance(bybit.AccountTypeV5("UNIFIED"), nil)
	if err != nil {
		return decimal.Zero, classifyBybit(err, "get bybit wallet balance")
	}

	if len(res.Result.List) == 0 {
		return decimal.Zero, nil
	}
	for _, coin := range res.Result.List[0].Coin {
		if string(coin.Coin) == asset {
			balance, err := decimal.NewFromString(coin.WalletBalance)
			if err != nil {
				return decimal.Zero, errors.Wrap(err, "failed to parse balance")
			}
			return balance, nil
		}
	}

	return decimal.Zero, nil
}

func (b *BybitBroker) Convert(ctx context.Context, source, target string, quantity decimal.Decimal, clientOrderID string) (decimal.Decimal, error) {
	sellID := clientOrderID + "-s"
	buyID := clientOrderID + "-b"

	sellLeg, err := b.findLeg(sellID)
	if err != nil {
		return decimal.Zero, err
	}
	if sellLeg == nil {
		sellSymbol := bybit.SymbolV5(source + b.quote)
		_, err := b.client.V5().Order().CreateOrder(bybit.V5CreateOrderParam{
			Category:    bybit.CategoryV5Spot,
			Symbol:      sellSymbol,
			Side:        bybit.SideSell,
			OrderType:   bybit.OrderTypeMarket,
			Qty:         quantity.RoundFloor(4).String(),
			OrderLinkID: &sellID,
		})
		if err != nil {
			return decimal.Zero, classifyBybit(err, "sell leg")
		}
		sellLeg, err = b.waitFilled(ctx, sellID)
		if err != nil {
			return decimal.Zero, err
		}
	}

	proceeds, err := decimal.NewFromString(sellLeg.CumExecValue)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "failed to parse sell leg proceeds")
	}
	if !proceeds.IsPositive() {
		return decimal.Zero, errors.Wrapf(ErrRejected, "sell leg %s produced no proceeds", sellID)
	}

	buyLeg, err := b.findLeg(buyID)
	if err != nil {
		return decimal.Zero, err
	}
	if buyLeg == nil {
		buySymbol := bybit.SymbolV5(target + b.quote)
		// spot market buys are sized in the quote coin
		_, err := b.client.V5().Order().CreateOrder(bybit.V5CreateOrderParam{
			Category:    bybit.CategoryV5Spot,
			Symbol:      buySymbol,
			Side:        bybit.SideBuy,
			OrderType:   bybit.OrderTypeMarket,
			Qty:         proceeds.RoundFloor(8).String(),
			OrderLinkID: &buyID,
		})
		if err != nil {
			return decimal.Zero, classifyBybit(err, "buy leg")
		}
		buyLeg, err = b.waitFilled(ctx, buyID)
		if err != nil {
			return decimal.Zero, err
		}
	}

	acquired, err := decimal.NewFromString(buyLeg.CumExecQty)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "failed to parse buy leg quantity")
	}
	return acquired, nil
}

func (b *BybitBroker) OrderExecuted(ctx context.Context, clientOrderID string) (bool, decimal.Decimal, error) {
	if clientOrderID == "" {
		return false, decimal.Zero, nil
	}

	leg, err := b.findLeg(clientOrderID + "-b")
	if err != nil {
		return false, decimal.Zero, err
	}
	if leg == nil {
		return false, decimal.Zero, nil
	}

	executedQty, parseErr := decimal.NewFromString(leg.CumExecQty)
	if parseErr != nil {
		return false, decimal.Zero, errors.Wrap(parseErr, "failed to parse executed quantity")
	}

	switch leg.OrderStatus {
	case bybit.OrderStatusFilled:
		return true, executedQty, nil
	case bybit.OrderStatusCancelled, bybit.OrderStatusRejected:
		return executedQty.GreaterThan(decimal.Zero), executedQty, nil
	default:
		return false, decimal.Zero, nil
	}
}

// findLeg looks an order up by its OrderLinkID, nil without error when the
// exchange has never seen it.
func (b *BybitBroker) findLeg(orderLinkID string) (*bybit.V5GetOrder, error) {
	res, err := b.client.V5().Order().GetHistoryOrders(bybit.V5GetHistoryOrdersParam{
		Category:    bybit.CategoryV5Spot,
		OrderLinkID: &orderLinkID,
	})
	if err != nil {
		return nil, classifyBybit(err, "query bybit order status")
	}
	if len(res.Result.List) == 0 {
		return nil, nil
	}
	return &res.Result.List[0], nil
}

// waitFilled polls a freshly placed market order until it reaches a terminal
// status. Spot market orders fill within a request round-trip almost always;
// the loop covers matching-engine lag.
func (b *BybitBroker) waitFilled(ctx context.Context, orderLinkID string) (*bybit.V5GetOrder, error) {
	for attempt := 0; attempt < 5; attempt++ {
		leg, err := b.findLeg(orderLinkID)
		if err != nil {
			return nil, err
		}
		if leg != nil {
			switch leg.OrderStatus {
			case bybit.OrderStatusFilled:
				return leg, nil
			case bybit.OrderStatusCancelled, bybit.OrderStatusRejected:
				return nil, errors.Wrapf(ErrRejected, "order %s ended %s", orderLinkID, leg.OrderStatus)
			}
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ErrTransientNetwork, "waiting for order %s: %v", orderLinkID, ctx.Err())
		case <-time.After(300 * time.Millisecond):
		}
	}
	return nil, errors.Wrapf(ErrTransientNetwork, "order %s did not reach terminal status", orderLinkID)
}

// classifyBybit folds a bybit error into the failure taxonomy. The client
// surfaces API ret codes inside the error text.
func classifyBybit(err error, op string) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "10006") || strings.Contains(strings.ToLower(msg), "rate limit"):
		return errors.Wrapf(ErrRateLimited, "%s: %v", op, err)
	case strings.Contains(msg, "170131") || strings.Contains(msg, "170213") || strings.Contains(msg, "170140"):
		return errors.Wrapf(ErrRejected, "%s: %v", op, err)
	default:
		return errors.Wrapf(ErrTransientNetwork, "%s: %v", op, err)
	}
}
