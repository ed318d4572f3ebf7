package internal

import (
	"fmt"

	binance "github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"
	"go.uber.org/zap"

	"github.com/vadiminshakov/seesaw/internal/clients"
	"github.com/vadiminshakov/seesaw/internal/domain"
	"github.com/vadiminshakov/seesaw/internal/services/broker"
	"github.com/vadiminshakov/seesaw/internal/services/rates"
)

// ServiceProvider builds platform-specific brokers and rate sources.
type ServiceProvider interface {
	Broker(pair domain.Pair, quote string) (broker.Broker, error)
	Rates(quote string) (rates.Source, error)
}

// NewServiceProvider dispatches on the client type. This is the single point
// of truth for platform-specific wiring.
func NewServiceProvider(client any, logger *zap.Logger) (ServiceProvider, error) {
	switch c := client.(type) {
	case *binance.Client:
		return &binanceProvider{client: c}, nil
	case *bybit.Client:
		return &bybitProvider{client: c}, nil
	case *clients.HyperliquidClient:
		return &hyperliquidProvider{client: c}, nil
	case *clients.SimulateClient:
		return &simulateProvider{client: c, logger: logger}, nil
	default:
		return nil, fmt.Errorf("unsupported client type: %T", client)
	}
}

type binanceProvider struct {
	client *binance.Client
}

func (p *binanceProvider) Broker(pair domain.Pair, quote string) (broker.Broker, error) {
	return broker.NewBinanceBroker(p.client, pair, quote)
}

func (p *binanceProvider) Rates(quote string) (rates.Source, error) {
	return rates.NewBinanceSource(p.client, quote), nil
}

type bybitProvider struct {
	client *bybit.Client
}

func (p *bybitProvider) Broker(pair domain.Pair, quote string) (broker.Broker, error) {
	return broker.NewBybitBroker(p.client, pair, quote)
}

func (p *bybitProvider) Rates(quote string) (rates.Source, error) {
	return rates.NewBybitSource(p.client, quote), nil
}

type hyperliquidProvider struct {
	client *clients.HyperliquidClient
}

func (p *hyperliquidProvider) Broker(pair domain.Pair, _ string) (broker.Broker, error) {
	return broker.NewHyperliquidBroker(p.client.Exchange(), p.client.AccountAddress(), pair)
}

func (p *hyperliquidProvider) Rates(_ string) (rates.Source, error) {
	// hyperliquid mids are USD-quoted by coin; no quote symbol needed
	return rates.NewHyperliquidSource(p.client.Exchange().Info()), nil
}

type simulateProvider struct {
	client *clients.SimulateClient
	logger *zap.Logger
}

func (p *simulateProvider) Broker(pair domain.Pair, quote string) (broker.Broker, error) {
	source, err := p.Rates(quote)
	if err != nil {
		return nil, err
	}
	return broker.NewSimulateBroker(pair, source, p.logger)
}

func (p *simulateProvider) Rates(quote string) (rates.Source, error) {
	return rates.NewSimulateSource(rates.NewBinanceSource(p.client.GetBinanceClient(), quote)), nil
}
