package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fetcher.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
credentials:
  mode: local
  key_id: my-key
  private_key_path: /keys/kalshi.pem
trigger:
  token: secret-token
`

func TestLoadAndValidate_Minimal(t *testing.T) {
	cfg, err := LoadAndValidate(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}

	if cfg.API.RestURL != DefaultRestURL {
		t.Errorf("RestURL = %q, want default", cfg.API.RestURL)
	}
	if cfg.API.MaxRetries != DefaultMaxRetries {
		t.Errorf("MaxRetries = %d, want %d", cfg.API.MaxRetries, DefaultMaxRetries)
	}
	if cfg.Storage.Backend != "fs" {
		t.Errorf("Backend = %q, want fs", cfg.Storage.Backend)
	}
	if cfg.Fetch.Concurrency != DefaultConcurrency {
		t.Errorf("Concurrency = %d, want %d", cfg.Fetch.Concurrency, DefaultConcurrency)
	}
	if cfg.Fetch.RunDeadline != DefaultRunDeadline {
		t.Errorf("RunDeadline = %v, want %v", cfg.Fetch.RunDeadline, DefaultRunDeadline)
	}
	if cfg.Trigger.Port != DefaultTriggerPort {
		t.Errorf("Port = %d, want %d", cfg.Trigger.Port, DefaultTriggerPort)
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_KALSHI_TOKEN", "expanded-token")

	cfg, err := LoadAndValidate(writeConfig(t, `
credentials:
  mode: local
  key_id: my-key
  private_key_path: /keys/kalshi.pem
trigger:
  token: ${TEST_KALSHI_TOKEN}
`))
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}

	if cfg.Trigger.Token != "expanded-token" {
		t.Errorf("Token = %q, want %q", cfg.Trigger.Token, "expanded-token")
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := LoadAndValidate(writeConfig(t, `
api:
  timeout: 5s
  max_retries: 7
credentials:
  mode: local
  key_id: my-key
  private_key_path: /keys/kalshi.pem
storage:
  backend: s3
  bucket: my-bucket
  region: us-east-2
fetch:
  concurrency: 2
  run_deadline: 90s
trigger:
  port: 9000
  token: tok
`))
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}

	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.API.Timeout)
	}
	if cfg.API.MaxRetries != 7 {
		t.Errorf("MaxRetries = %d, want 7", cfg.API.MaxRetries)
	}
	if cfg.Storage.Backend != "s3" || cfg.Storage.Bucket != "my-bucket" {
		t.Errorf("Storage = %+v, want s3/my-bucket", cfg.Storage)
	}
	if cfg.Fetch.RunDeadline != 90*time.Second {
		t.Errorf("RunDeadline = %v, want 90s", cfg.Fetch.RunDeadline)
	}
	if cfg.Trigger.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Trigger.Port)
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing trigger token",
			content: `
credentials:
  mode: local
  key_id: k
  private_key_path: /p
`,
			wantErr: "trigger.token",
		},
		{
			name: "missing key id in local mode",
			content: `
credentials:
  mode: local
  private_key_path: /p
trigger:
  token: t
`,
			wantErr: "credentials.key_id",
		},
		{
			name: "missing ssm params",
			content: `
credentials:
  mode: ssm
trigger:
  token: t
`,
			wantErr: "key_id_param",
		},
		{
			name: "unknown storage backend",
			content: `
credentials:
  mode: local
  key_id: k
  private_key_path: /p
storage:
  backend: tape
trigger:
  token: t
`,
			wantErr: "storage.backend",
		},
		{
			name: "s3 without bucket",
			content: `
credentials:
  mode: local
  key_id: k
  private_key_path: /p
storage:
  backend: s3
trigger:
  token: t
`,
			wantErr: "storage.bucket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadAndValidate(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}
