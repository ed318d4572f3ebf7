package clients

import (
	"github.com/adshao/go-binance/v2"
)

// SimulateClient wraps a keyless Binance client: real public market data,
// no account access.
type SimulateClient struct {
	binanceClient *binance.Client
}

// NewSimulateClient creates a client for dry runs.
func NewSimulateClient() *SimulateClient {
	return &SimulateClient{
		binanceClient: binance.NewClient("", ""),
	}
}

// GetBinanceClient returns the underlying Binance client.
func (c *SimulateClient) GetBinanceClient() *binance.Client {
	return c.binanceClient
}
