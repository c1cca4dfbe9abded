package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *FetcherConfig) Validate() error {
	switch c.Credentials.Mode {
	case "local":
		if c.Credentials.KeyID == "" {
			return errors.New("credentials.key_id is required in local mode")
		}
		if c.Credentials.PrivateKeyPath == "" {
			return errors.New("credentials.private_key_path is required in local mode")
		}
	case "ssm":
		if c.Credentials.KeyIDParam == "" {
			return errors.New("credentials.key_id_param is required in ssm mode")
		}
		if c.Credentials.PrivateKeyParam == "" {
			return errors.New("credentials.private_key_param is required in ssm mode")
		}
	default:
		return fmt.Errorf("credentials.mode must be \"local\" or \"ssm\", got %q", c.Credentials.Mode)
	}

	switch c.Storage.Backend {
	case "fs":
		if c.Storage.Root == "" {
			return errors.New("storage.root is required for fs backend")
		}
	case "s3":
		if c.Storage.Bucket == "" {
			return errors.New("storage.bucket is required for s3 backend")
		}
	case "postgres":
		if err := validateDB(c); err != nil {
			return err
		}
	default:
		return fmt.Errorf("storage.backend must be \"fs\", \"s3\" or \"postgres\", got %q", c.Storage.Backend)
	}

	if c.Fetch.Concurrency < 1 {
		return errors.New("fetch.concurrency must be >= 1")
	}

	if c.Trigger.Port < 1 || c.Trigger.Port > 65535 {
		return fmt.Errorf("trigger.port must be between 1 and 65535, got %d", c.Trigger.Port)
	}
	if c.Trigger.Token == "" {
		return errors.New("trigger.token is required")
	}

	return nil
}

func validateDB(c *FetcherConfig) error {
	db := &c.Storage.Postgres
	if db.Host == "" {
		return errors.New("storage.postgres.host is required")
	}
	if db.Name == "" {
		return errors.New("storage.postgres.name is required")
	}
	if db.User == "" {
		return errors.New("storage.postgres.user is required")
	}
	if db.Password == "" {
		return errors.New("storage.postgres.password is required")
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("storage.postgres.min_conns (%d) cannot exceed max_conns (%d)", db.MinConns, db.MaxConns)
	}
	return nil
}
