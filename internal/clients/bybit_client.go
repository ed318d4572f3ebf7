package clients

import (
	"github.com/hirokisan/bybit/v2"
)

// NewBybitClient builds an authenticated Bybit client.
func NewBybitClient(apiKey, apiSecret string) *bybit.Client {
	return bybit.NewClient().WithAuth(apiKey, apiSecret)
}
