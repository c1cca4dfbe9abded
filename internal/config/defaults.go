package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultRestURL           = "https://api.elections.kalshi.com/trade-api/v2"
	DefaultWSURL             = "wss://api.elections.kalshi.com"
	DefaultAPITimeout        = 30 * time.Second
	DefaultMaxRetries        = 3
	DefaultRetryBackoff      = 1 * time.Second
	DefaultRequestSpacing    = 100 * time.Millisecond
	DefaultCredentialsMode   = "local"
	DefaultStorageBackend    = "fs"
	DefaultStoragePrefix     = "market_data"
	DefaultStorageRoot       = "market_data"
	DefaultDBPort            = 5432
	DefaultDBSSLMode         = "prefer"
	DefaultMaxConns          = 10
	DefaultMinConns          = 2
	DefaultTickerFile        = "tickers.txt"
	DefaultConcurrency       = 4
	DefaultRunDeadline       = 10 * time.Minute
	DefaultStorageRetryDelay = 500 * time.Millisecond
	DefaultTriggerPort       = 8080
	DefaultStreamBufferSize  = 1024
	DefaultHandshakeTimeout  = 10 * time.Second
	DefaultPingInterval      = 15 * time.Second
)

func (c *FetcherConfig) applyDefaults() {
	// API defaults
	if c.API.RestURL == "" {
		c.API.RestURL = DefaultRestURL
	}
	if c.API.WSURL == "" {
		c.API.WSURL = DefaultWSURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}
	if c.API.RetryBackoff == 0 {
		c.API.RetryBackoff = DefaultRetryBackoff
	}
	if c.API.RequestSpacing == 0 {
		c.API.RequestSpacing = DefaultRequestSpacing
	}

	// Credentials defaults
	if c.Credentials.Mode == "" {
		c.Credentials.Mode = DefaultCredentialsMode
	}

	// Storage defaults
	if c.Storage.Backend == "" {
		c.Storage.Backend = DefaultStorageBackend
	}
	if c.Storage.Prefix == "" {
		c.Storage.Prefix = DefaultStoragePrefix
	}
	if c.Storage.Root == "" {
		c.Storage.Root = DefaultStorageRoot
	}
	if c.Storage.Postgres.Port == 0 {
		c.Storage.Postgres.Port = DefaultDBPort
	}
	if c.Storage.Postgres.SSLMode == "" {
		c.Storage.Postgres.SSLMode = DefaultDBSSLMode
	}
	if c.Storage.Postgres.MaxConns == 0 {
		c.Storage.Postgres.MaxConns = DefaultMaxConns
	}
	if c.Storage.Postgres.MinConns == 0 {
		c.Storage.Postgres.MinConns = DefaultMinConns
	}

	// Fetch defaults
	if c.Fetch.TickerFile == "" {
		c.Fetch.TickerFile = DefaultTickerFile
	}
	if c.Fetch.Concurrency == 0 {
		c.Fetch.Concurrency = DefaultConcurrency
	}
	if c.Fetch.RunDeadline == 0 {
		c.Fetch.RunDeadline = DefaultRunDeadline
	}
	if c.Fetch.StorageRetryDelay == 0 {
		c.Fetch.StorageRetryDelay = DefaultStorageRetryDelay
	}

	// Trigger defaults
	if c.Trigger.Port == 0 {
		c.Trigger.Port = DefaultTriggerPort
	}

	// Stream defaults
	if c.Stream.BufferSize == 0 {
		c.Stream.BufferSize = DefaultStreamBufferSize
	}
	if c.Stream.HandshakeTimeout == 0 {
		c.Stream.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Stream.PingInterval == 0 {
		c.Stream.PingInterval = DefaultPingInterval
	}
}
