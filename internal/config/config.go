package config

import (
	"time"

	"github.com/epunzal2/kalshi-dashboard/internal/storage"
)

// FetcherConfig is the root configuration for a fetcher instance.
type FetcherConfig struct {
	API         APIConfig         `yaml:"api"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Storage     StorageConfig     `yaml:"storage"`
	Fetch       FetchConfig       `yaml:"fetch"`
	Trigger     TriggerConfig     `yaml:"trigger"`
	Stream      StreamConfig      `yaml:"stream"`
}

// APIConfig holds Kalshi API settings.
type APIConfig struct {
	RestURL        string        `yaml:"rest_url"`
	WSURL          string        `yaml:"ws_url"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryBackoff   time.Duration `yaml:"retry_backoff"`
	RequestSpacing time.Duration `yaml:"request_spacing"`
}

// CredentialsConfig selects where the key ID and private key come from.
//
// Mode "local" reads the key ID directly and the PEM key from a file.
// Mode "ssm" resolves both from AWS SSM Parameter Store with decryption.
type CredentialsConfig struct {
	Mode            string `yaml:"mode"`
	KeyID           string `yaml:"key_id"`
	PrivateKeyPath  string `yaml:"private_key_path"`
	KeyIDParam      string `yaml:"key_id_param"`
	PrivateKeyParam string `yaml:"private_key_param"`
}

// StorageConfig selects and configures the history store backend.
type StorageConfig struct {
	Backend  string           `yaml:"backend"` // "fs", "s3" or "postgres"
	Prefix   string           `yaml:"prefix"`
	Root     string           `yaml:"root"`   // fs backend
	Bucket   string           `yaml:"bucket"` // s3 backend
	Region   string           `yaml:"region"` // s3 backend
	Postgres storage.PGConfig `yaml:"postgres"`
}

// FetchConfig holds orchestrator settings.
type FetchConfig struct {
	TickerFile        string        `yaml:"ticker_file"`
	Concurrency       int           `yaml:"concurrency"`
	RunDeadline       time.Duration `yaml:"run_deadline"`
	StorageRetryDelay time.Duration `yaml:"storage_retry_delay"`
}

// TriggerConfig holds the HTTP trigger endpoint settings.
type TriggerConfig struct {
	Port  int    `yaml:"port"`
	Token string `yaml:"token"`
}

// StreamConfig holds WebSocket ticker stream settings.
type StreamConfig struct {
	BufferSize       int           `yaml:"buffer_size"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	PingInterval     time.Duration `yaml:"ping_interval"`
}
