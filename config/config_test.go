package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYaml(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestGetYaml(t *testing.T) {
	path := writeYaml(t, `
- platform: binance
  pair: ETH_BTC
  quote: USDT
  window: 1h
  threshold: "0.05"
  sizing_fraction: "0.25"
  min_trade_quantity: "0.01"
  tick_interval: 5m
  state_dir: /tmp/seesaw-wal
  web_addr: :8080
  retry:
    base_delay: 2s
    max_delay: 30s
    max_attempts: 4
`)

	configs, err := getYaml(path)
	require.NoError(t, err)
	require.Len(t, configs, 1)

	conf := configs[0]
	assert.Equal(t, "binance", conf.Platform)
	assert.Equal(t, "ETH", conf.Pair.A)
	assert.Equal(t, "BTC", conf.Pair.B)
	assert.Equal(t, "USDT", conf.Quote)
	assert.Equal(t, time.Hour, conf.Window)
	assert.Equal(t, "0.05", conf.Threshold.String())
	assert.Equal(t, "0.25", conf.SizingFraction.String())
	assert.Equal(t, "0.01", conf.MinTradeQuantity.String())
	assert.Equal(t, 5*time.Minute, conf.TickInterval)
	assert.Equal(t, 2, conf.RetentionMultiplier)
	assert.Equal(t, "/tmp/seesaw-wal", conf.StateDir)
	assert.Equal(t, ":8080", conf.WebAddr)
	assert.Equal(t, 2*time.Second, conf.Retry.BaseDelay)
	assert.Equal(t, 30*time.Second, conf.Retry.MaxDelay)
	assert.Equal(t, 4, conf.Retry.MaxAttempts)
}

func TestGetYamlDefaults(t *testing.T) {
	path := writeYaml(t, `
- platform: simulate
  pair: ETH_BTC
  window: 2h
  threshold: "0.1"
  sizing_fraction: "0.5"
  tick_interval: 1m
`)

	configs, err := getYaml(path)
	require.NoError(t, err)
	require.Len(t, configs, 1)

	conf := configs[0]
	assert.Equal(t, "USDT", conf.Quote)
	assert.True(t, conf.MinTradeQuantity.IsZero())
	assert.Equal(t, 2, conf.RetentionMultiplier)
	assert.Equal(t, "wal", conf.StateDir)
	assert.Equal(t, time.Second, conf.Retry.BaseDelay)
	assert.Equal(t, time.Minute, conf.Retry.MaxDelay)
	assert.Equal(t, 5, conf.Retry.MaxAttempts)
}

func TestGetYamlRejectsBadConfigs(t *testing.T) {
	for name, body := range map[string]string{
		"bad pair": `
- platform: simulate
  pair: ETHBTC
  window: 1h
  threshold: "0.05"
  sizing_fraction: "0.25"
  tick_interval: 5m
`,
		"same asset twice": `
- platform: simulate
  pair: ETH_ETH
  window: 1h
  threshold: "0.05"
  sizing_fraction: "0.25"
  tick_interval: 5m
`,
		"unknown platform": `
- platform: kraken
  pair: ETH_BTC
  window: 1h
  threshold: "0.05"
  sizing_fraction: "0.25"
  tick_interval: 5m
`,
		"zero threshold": `
- platform: simulate
  pair: ETH_BTC
  window: 1h
  threshold: "0"
  sizing_fraction: "0.25"
  tick_interval: 5m
`,
		"fraction above one": `
- platform: simulate
  pair: ETH_BTC
  window: 1h
  threshold: "0.05"
  sizing_fraction: "1.5"
  tick_interval: 5m
`,
		"quote inside pair": `
- platform: simulate
  pair: ETH_USDT
  quote: USDT
  window: 1h
  threshold: "0.05"
  sizing_fraction: "0.25"
  tick_interval: 5m
`,
		"missing window": `
- platform: simulate
  pair: ETH_BTC
  threshold: "0.05"
  sizing_fraction: "0.25"
  tick_interval: 5m
`,
		"empty file": ``,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := getYaml(writeYaml(t, body))
			require.Error(t, err)
		})
	}
}

func TestGetYamlMultipleEngines(t *testing.T) {
	path := writeYaml(t, `
- platform: simulate
  pair: ETH_BTC
  window: 1h
  threshold: "0.05"
  sizing_fraction: "0.25"
  tick_interval: 5m
- platform: simulate
  pair: SOL_ETH
  window: 30m
  threshold: "0.08"
  sizing_fraction: "0.1"
  tick_interval: 1m
`)

	configs, err := getYaml(path)
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, "SOL_ETH", configs[1].Pair.String())
}
