// Package secrets resolves the Kalshi API credential from its configured
// provider, once at process start.
package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/epunzal2/kalshi-dashboard/internal/auth"
	"github.com/epunzal2/kalshi-dashboard/internal/config"
)

const ssmTimeout = 5 * time.Second

// ParameterClient fetches SSM parameters. Satisfied by *ssm.Client.
type ParameterClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Load resolves credentials according to the configured mode. The key
// material is never logged; only the key ID's presence is reported.
func Load(ctx context.Context, cfg config.CredentialsConfig, logger *slog.Logger) (*auth.Credentials, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Mode {
	case "local":
		logger.Info("loading credentials from local key file", "key_file", cfg.PrivateKeyPath)
		return auth.LoadCredentials(cfg.KeyID, cfg.PrivateKeyPath)

	case "ssm":
		logger.Info("loading credentials from SSM parameter store",
			"key_id_param", cfg.KeyIDParam,
			"private_key_param", cfg.PrivateKeyParam,
		)

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, &auth.CredentialError{Err: fmt.Errorf("load aws config: %w", err)}
		}

		return LoadFromSSM(ctx, ssm.NewFromConfig(awsCfg), cfg)

	default:
		return nil, &auth.CredentialError{Err: fmt.Errorf("unknown credentials mode %q", cfg.Mode)}
	}
}

// LoadFromSSM resolves the key ID and PEM key from two SSM parameters.
func LoadFromSSM(ctx context.Context, client ParameterClient, cfg config.CredentialsConfig) (*auth.Credentials, error) {
	keyID, err := getParameter(ctx, client, cfg.KeyIDParam)
	if err != nil {
		return nil, &auth.CredentialError{Err: fmt.Errorf("resolve key id: %w", err)}
	}

	pemData, err := getParameter(ctx, client, cfg.PrivateKeyParam)
	if err != nil {
		return nil, &auth.CredentialError{Err: fmt.Errorf("resolve private key: %w", err)}
	}

	return auth.NewCredentials(keyID, []byte(pemData))
}

func getParameter(ctx context.Context, client ParameterClient, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, ssmTimeout)
	defer cancel()

	decrypt := true
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &decrypt,
	})
	if err != nil {
		return "", fmt.Errorf("get parameter %s: %w", name, err)
	}

	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s has no value", name)
	}

	return *out.Parameter.Value, nil
}
