package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/epunzal2/kalshi-dashboard/internal/api"
	"github.com/epunzal2/kalshi-dashboard/internal/config"
	"github.com/epunzal2/kalshi-dashboard/internal/fetcher"
	"github.com/epunzal2/kalshi-dashboard/internal/secrets"
	"github.com/epunzal2/kalshi-dashboard/internal/storage"
	"github.com/epunzal2/kalshi-dashboard/internal/tickers"
	"github.com/epunzal2/kalshi-dashboard/internal/trigger"
	"github.com/epunzal2/kalshi-dashboard/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/fetcher.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting fetcher",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"api_url", cfg.API.RestURL,
		"storage_backend", cfg.Storage.Backend,
		"credentials_mode", cfg.Credentials.Mode,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Resolve credentials
	creds, err := secrets.Load(ctx, cfg.Credentials, logger)
	if err != nil {
		logger.Error("failed to load credentials", "error", err)
		os.Exit(1)
	}
	logger.Info("credentials loaded", "key_id_set", creds.KeyID != "")

	// Open history store
	store, err := openStore(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error("failed to open storage backend", "error", err)
		os.Exit(1)
	}
	if pg, ok := store.(*storage.PGStore); ok {
		defer pg.Close()
	}

	// Load ticker list
	list, err := tickers.Load(cfg.Fetch.TickerFile)
	if err != nil {
		logger.Error("failed to load ticker list", "error", err, "path", cfg.Fetch.TickerFile)
		os.Exit(1)
	}
	logger.Info("ticker list loaded", "tickers", len(list))

	// Create API client
	apiClient := api.NewClient(
		cfg.API.RestURL,
		creds,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, cfg.API.RetryBackoff),
		api.WithRequestSpacing(cfg.API.RequestSpacing),
	)

	f := fetcher.New(fetcher.Config{
		Tickers:           list,
		Prefix:            cfg.Storage.Prefix,
		Concurrency:       cfg.Fetch.Concurrency,
		StorageRetryDelay: cfg.Fetch.StorageRetryDelay,
	}, apiClient, store, logger)

	srv := trigger.New(trigger.Config{
		Port:        cfg.Trigger.Port,
		Token:       cfg.Trigger.Token,
		RunDeadline: cfg.Fetch.RunDeadline,
	}, f, logger)

	logger.Info("trigger endpoint listening", "port", cfg.Trigger.Port)
	if err := srv.Start(ctx); err != nil {
		logger.Error("trigger server error", "error", err)
		os.Exit(1)
	}

	logger.Info("fetcher stopped")
}

// openStore builds the history store selected by configuration.
func openStore(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Backend {
	case "s3":
		logger.Info("using s3 storage", "bucket", cfg.Bucket, "region", cfg.Region)
		return storage.NewS3Store(ctx, cfg.Bucket, cfg.Region)
	case "postgres":
		logger.Info("using postgres storage", "host", cfg.Postgres.Host, "database", cfg.Postgres.Name)
		return storage.NewPGStore(ctx, cfg.Postgres)
	default:
		logger.Info("using filesystem storage", "root", cfg.Root)
		return storage.NewFSStore(cfg.Root)
	}
}
