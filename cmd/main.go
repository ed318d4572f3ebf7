// Command seesaw runs the two-asset relative-value rebalancer.
// It supports multiple exchanges (Binance, Bybit, Hyperliquid) plus a
// simulation mode, and is configured via a YAML file or CLI flags.
//
// Usage:
//
//	seesaw setup                 (interactive configuration wizard)
//	seesaw --config config.yaml
//	seesaw (uses CLI arguments)
//
// Required environment variables:
//
//	For Binance: BINANCE_API_KEY, BINANCE_API_SECRET
//	For Bybit: BYBIT_API_KEY, BYBIT_API_SECRET
//	For Hyperliquid: HYPERLIQUID_PRIVATE_KEY
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vadiminshakov/seesaw/config"
	"github.com/vadiminshakov/seesaw/internal"
	"github.com/vadiminshakov/seesaw/internal/clients"
	"github.com/vadiminshakov/seesaw/internal/setup"
	"github.com/vadiminshakov/seesaw/internal/web"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		os.Args = append(os.Args[:1], "--config", "config.gen.yaml")
	}

	configs, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for _, conf := range configs {
		client, err := newClient(conf.Platform)
		if err != nil {
			log.Fatal(err)
		}

		bot, err := internal.NewBot(conf, client, logger)
		if err != nil {
			log.Fatal(err)
		}
		defer bot.Close()

		if conf.WebAddr != "" {
			srv := web.NewServer(conf.WebAddr, bot.Engine, bot.RunID)
			go func(conf config.Config) {
				var err error
				if len(conf.WebTLSHosts) > 0 {
					err = srv.StartWithAutoTLS(ctx, conf.WebTLSHosts, "")
				} else {
					err = srv.Start(ctx)
				}
				if err != nil {
					logger.Error("status server stopped", zap.Error(err))
				}
			}(conf)
		}

		go func() {
			if err := bot.Run(ctx, logger); err != nil && ctx.Err() == nil {
				logger.Fatal("rebalancing loop failed", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")
}

func newClient(platform string) (any, error) {
	switch platform {
	case "binance":
		apiKey := os.Getenv("BINANCE_API_KEY")
		apiSecret := os.Getenv("BINANCE_API_SECRET")
		if apiKey == "" || apiSecret == "" {
			log.Fatal("BINANCE_API_KEY and BINANCE_API_SECRET environment variables must be set")
		}
		return clients.NewBinanceClient(apiKey, apiSecret), nil
	case "bybit":
		apiKey := os.Getenv("BYBIT_API_KEY")
		apiSecret := os.Getenv("BYBIT_API_SECRET")
		if apiKey == "" || apiSecret == "" {
			log.Fatal("BYBIT_API_KEY and BYBIT_API_SECRET environment variables must be set")
		}
		return clients.NewBybitClient(apiKey, apiSecret), nil
	case "hyperliquid":
		privateKey := os.Getenv("HYPERLIQUID_PRIVATE_KEY")
		if privateKey == "" {
			log.Fatal("HYPERLIQUID_PRIVATE_KEY environment variable must be set")
		}
		return clients.NewHyperliquidClient(privateKey, os.Getenv("HYPERLIQUID_BASE_URL"))
	case "simulate":
		return clients.NewSimulateClient(), nil
	default:
		log.Fatalf("unsupported platform %q", platform)
		return nil, nil
	}
}
