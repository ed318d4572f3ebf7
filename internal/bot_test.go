package internal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/seesaw/config"
	"github.com/vadiminshakov/seesaw/internal/clients"
	"github.com/vadiminshakov/seesaw/internal/domain"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	pair, err := domain.NewPair("ETH", "BTC")
	require.NoError(t, err)
	return config.Config{
		Platform:            "simulate",
		Pair:                pair,
		Quote:               "USDT",
		Window:              time.Hour,
		Threshold:           decimal.NewFromFloat(0.05),
		SizingFraction:      decimal.NewFromFloat(0.25),
		MinTradeQuantity:    decimal.Zero,
		TickInterval:        time.Minute,
		RetentionMultiplier: 2,
		StateDir:            t.TempDir(),
		Retry: config.RetryConfig{
			BaseDelay:   time.Second,
			MaxDelay:    time.Minute,
			MaxAttempts: 5,
		},
	}
}

func TestNewBotSimulate(t *testing.T) {
	bot, err := NewBot(testConfig(t), clients.NewSimulateClient(), zap.NewNop())
	require.NoError(t, err)
	defer bot.Close()

	assert.NotEmpty(t, bot.RunID)
	require.NotNil(t, bot.Engine)

	status := bot.Engine.Status()
	assert.Equal(t, "ETH_BTC", status.Pair.String())
	assert.Empty(t, status.State.LastExecutedKey)
}

func TestNewBotRejectsUnknownClient(t *testing.T) {
	_, err := NewBot(testConfig(t), struct{}{}, zap.NewNop())
	require.Error(t, err)
}
