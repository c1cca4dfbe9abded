// tickerstream connects to the Kalshi WebSocket ticker channel and prints
// messages to the console. It is a diagnostic tool for checking credentials
// and observing live quote updates for a handful of tickers.
//
// Usage: go run ./cmd/tickerstream --config configs/fetcher.local.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tidwall/gjson"

	"github.com/epunzal2/kalshi-dashboard/internal/config"
	"github.com/epunzal2/kalshi-dashboard/internal/secrets"
	"github.com/epunzal2/kalshi-dashboard/internal/stream"
	"github.com/epunzal2/kalshi-dashboard/internal/tickers"
)

func main() {
	configPath := flag.String("config", "configs/fetcher.local.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "print full message JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	creds, err := secrets.Load(ctx, cfg.Credentials, logger)
	if err != nil {
		logger.Error("failed to load credentials", "error", err)
		os.Exit(1)
	}

	list, err := tickers.Load(cfg.Fetch.TickerFile)
	if err != nil {
		logger.Error("failed to load ticker list", "error", err)
		os.Exit(1)
	}

	client := stream.NewClient(stream.Config{
		URL:              cfg.API.WSURL,
		Tickers:          list,
		BufferSize:       cfg.Stream.BufferSize,
		HandshakeTimeout: cfg.Stream.HandshakeTimeout,
		PingInterval:     cfg.Stream.PingInterval,
	}, creds, logger)

	if err := client.Connect(ctx); err != nil {
		logger.Error("failed to connect", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	logger.Info("streaming ticker updates, ctrl-c to stop", "tickers", len(list))

	count := 0
	for {
		select {
		case <-ctx.Done():
			logger.Info("done", "messages", count)
			return
		case err := <-client.Errors():
			logger.Error("stream error", "error", err)
			return
		case msg := <-client.Messages():
			count++
			if *verbose {
				fmt.Printf("%s %s\n", msg.ReceivedAt.Format("15:04:05.000"), msg.Data)
				continue
			}
			msgType := gjson.GetBytes(msg.Data, "type").String()
			ticker := gjson.GetBytes(msg.Data, "msg.market_ticker").String()
			price := gjson.GetBytes(msg.Data, "msg.price").Int()
			fmt.Printf("%s type=%s ticker=%s price=%d\n",
				msg.ReceivedAt.Format("15:04:05.000"), msgType, ticker, price)
		}
	}
}
