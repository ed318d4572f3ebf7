package broker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	hyperliquid "github.com/sonirico/go-hyperliquid"
	"github.com/vadiminshakov/seesaw/internal/domain"
)

// HyperliquidBroker converts through USD on hyperliquid spot. Market orders
// don't exist on hyperliquid, so each leg is an IOC limit order priced with
// a small slippage allowance off the current mid. Cloids are derived
// deterministically from the conversion ID, so a re-run finds the legs it
// already placed.
type HyperliquidBroker struct {
	ex          *hyperliquid.Exchange
	info        *hyperliquid.Info
	accountAddr string
	pair        domain.Pair
}

const hyperliquidSlippage = 0.005

func NewHyperliquidBroker(ex *hyperliquid.Exchange, accountAddr string, pair domain.Pair) (*HyperliquidBroker, error) {
	if ex == nil {
		return nil, errors.New("hyperliquid exchange is nil")
	}
	return &HyperliquidBroker{ex: ex, info: ex.Info(), accountAddr: accountAddr, pair: pair}, nil
}

func (b *HyperliquidBroker) GetBalance(ctx context.Context, asset string) (decimal.Decimal, error) {
	st, err := b.info.SpotUserState(ctx, b.accountAddr)
	if err != nil {
		return decimal.Zero, errors.Wrapf(ErrTransientNetwork, "get spot user state: %v", err)
	}

	for _, balance := range st.Balances {
		if strings.EqualFold(balance.Coin, asset) {
			total, err := decimal.NewFromString(balance.Total)
			if err != nil {
				return decimal.Zero, errors.Wrap(err, "failed to parse balance")
			}
			return total, nil
		}
	}
	return decimal.Zero, nil
}

func (b *HyperliquidBroker) Convert(ctx context.Context, source, target string, quantity decimal.Decimal, clientOrderID string) (decimal.Decimal, error) {
	sellCloid := cloidFromID(clientOrderID + "-s")
	buyCloid := cloidFromID(clientOrderID + "-b")

	sellPx, err := b.ex.SlippagePrice(ctx, source, false, hyperliquidSlippage, nil)
	if err != nil {
		return decimal.Zero, errors.Wrapf(ErrTransientNetwork, "sell leg slippage price: %v", err)
	}

	done, sold, err := b.legExecuted(ctx, sellCloid)
	if err != nil {
		return decimal.Zero, err
	}
	if !done {
		if err := b.placeLeg(ctx, source, false, quantity, sellPx, sellCloid); err != nil {
			return decimal.Zero, err
		}
		sold = quantity
	}

	// IOC legs fill at the limit or better, so the sell price bounds the
	// proceeds from below.
	proceeds := sold.Mul(decimal.NewFromFloat(sellPx))
	if !proceeds.IsPositive() {
		return decimal.Zero, errors.Wrapf(ErrRejected, "sell leg for %s produced no proceeds", source)
	}

	buyPx, err := b.ex.SlippagePrice(ctx, target, true, hyperliquidSlippage, nil)
	if err != nil {
		return decimal.Zero, errors.Wrapf(ErrTransientNetwork, "buy leg slippage price: %v", err)
	}
	if buyPx <= 0 {
		return decimal.Zero, errors.Wrapf(ErrRejected, "no price for %s", target)
	}

	buySize := proceeds.Div(decimal.NewFromFloat(buyPx))

	done, bought, err := b.legExecuted(ctx, buyCloid)
	if err != nil {
		return decimal.Zero, err
	}
	if done {
		return bought, nil
	}

	if err := b.placeLeg(ctx, target, true, buySize, buyPx, buyCloid); err != nil {
		return decimal.Zero, err
	}
	return buySize, nil
}

func (b *HyperliquidBroker) OrderExecuted(ctx context.Context, clientOrderID string) (bool, decimal.Decimal, error) {
	if clientOrderID == "" {
		return false, decimal.Zero, nil
	}
	return b.legExecuted(ctx, cloidFromID(clientOrderID+"-b"))
}

func (b *HyperliquidBroker) legExecuted(ctx context.Context, cloid string) (bool, decimal.Decimal, error) {
	res, err := b.info.QueryOrderByCloid(ctx, b.accountAddr, cloid)
	if err != nil {
		return false, decimal.Zero, errors.Wrapf(ErrTransientNetwork, "query order by cloid: %v", err)
	}
	if res == nil || res.Status != hyperliquid.OrderQueryStatusSuccess {
		return false, decimal.Zero, nil
	}

	if res.Order.Status != hyperliquid.OrderStatusValueFilled {
		return false, decimal.Zero, nil
	}
	if res.Order.Order.OrigSz != "" {
		if filled, err := decimal.NewFromString(res.Order.Order.OrigSz); err == nil {
			return true, filled, nil
		}
	}
	return true, decimal.Zero, nil
}

func (b *HyperliquidBroker) placeLeg(ctx context.Context, coin string, isBuy bool, size decimal.Decimal, price float64, cloid string) error {
	sizeF, _ := size.Round(8).Float64()
	req := hyperliquid.CreateOrderRequest{
		Coin:          coin,
		IsBuy:         isBuy,
		Price:         price,
		Size:          sizeF,
		ClientOrderID: &cloid,
		OrderType: hyperliquid.OrderType{
			Limit: &hyperliquid.LimitOrderType{Tif: hyperliquid.TifIoc},
		},
	}
	if _, err := b.ex.Order(ctx, req, nil); err != nil {
		return classifyHyperliquid(err, coin)
	}
	return nil
}

// cloidFromID turns a free-form conversion ID into a hyperliquid cloid
// (0x + 32 hex chars), deterministically.
func cloidFromID(id string) string {
	sum := sha256.Sum256([]byte(id))
	return "0x" + hex.EncodeToString(sum[:16])
}

func classifyHyperliquid(err error, coin string) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many"):
		return errors.Wrapf(ErrRateLimited, "order for %s: %v", coin, err)
	case strings.Contains(msg, "insufficient") || strings.Contains(msg, "rejected") || strings.Contains(msg, "invalid"):
		return errors.Wrapf(ErrRejected, "order for %s: %v", coin, err)
	default:
		return errors.Wrapf(ErrTransientNetwork, "order for %s: %v", coin, err)
	}
}
