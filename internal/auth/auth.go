// Package auth provides Kalshi API authentication using RSA-PSS signatures.
package auth

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

// Header names attached to every authenticated request.
const (
	HeaderKey       = "KALSHI-ACCESS-KEY"
	HeaderTimestamp = "KALSHI-ACCESS-TIMESTAMP"
	HeaderSignature = "KALSHI-ACCESS-SIGNATURE"
)

// CredentialError indicates key material could not be loaded or parsed.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() string { return "credentials: " + e.Err.Error() }
func (e *CredentialError) Unwrap() error { return e.Err }

// SigningError indicates the cryptographic signing operation failed.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string { return "signing: " + e.Err.Error() }
func (e *SigningError) Unwrap() error { return e.Err }

// Credentials holds the API key and private key for signing requests.
// Built once at startup and shared read-only across all fetches.
type Credentials struct {
	KeyID      string          // API key ID from the Kalshi dashboard
	PrivateKey *rsa.PrivateKey // RSA private key for signing
}

// NewCredentials builds credentials from a key ID and PEM-encoded key material.
func NewCredentials(keyID string, pemData []byte) (*Credentials, error) {
	if keyID == "" {
		return nil, &CredentialError{Err: fmt.Errorf("API key ID is required")}
	}

	privateKey, err := ParsePrivateKey(pemData)
	if err != nil {
		return nil, err
	}

	return &Credentials{
		KeyID:      keyID,
		PrivateKey: privateKey,
	}, nil
}

// LoadCredentials loads credentials from a key ID and private key file path.
func LoadCredentials(keyID, privateKeyPath string) (*Credentials, error) {
	if keyID == "" {
		return nil, &CredentialError{Err: fmt.Errorf("API key ID is required")}
	}
	if privateKeyPath == "" {
		return nil, &CredentialError{Err: fmt.Errorf("private key path is required")}
	}

	data, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, &CredentialError{Err: fmt.Errorf("read key file: %w", err)}
	}

	return NewCredentials(keyID, data)
}

// ParsePrivateKey parses a PEM-encoded RSA private key.
func ParsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, &CredentialError{Err: fmt.Errorf("failed to decode PEM block")}
	}

	// Try PKCS#8 first (newer format)
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, &CredentialError{Err: fmt.Errorf("key is not an RSA private key")}
		}
		return rsaKey, nil
	}

	// Fall back to PKCS#1 (older format)
	rsaKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, &CredentialError{Err: fmt.Errorf("parse private key: %w", err)}
	}

	return rsaKey, nil
}

// SignRequest generates authentication headers for a Kalshi API request.
// The path must be the request path as sent, without the query string.
func (c *Credentials) SignRequest(method, path string) (headers map[string]string, err error) {
	timestampMs := timestamp()

	signature, err := c.Sign(timestampMs, method, path)
	if err != nil {
		return nil, err
	}

	return map[string]string{
		HeaderKey:       c.KeyID,
		HeaderTimestamp: fmt.Sprintf("%d", timestampMs),
		HeaderSignature: signature,
	}, nil
}

// Sign creates an RSA-PSS signature over the canonical request string.
// Message format: timestamp_ms + method + path
func (c *Credentials) Sign(timestampMs int64, method, path string) (string, error) {
	if c.PrivateKey == nil {
		return "", &CredentialError{Err: fmt.Errorf("no private key loaded")}
	}

	message := fmt.Sprintf("%d%s%s", timestampMs, method, path)
	hashed := sha256.Sum256([]byte(message))

	signature, err := rsa.SignPSS(
		rand.Reader,
		c.PrivateKey,
		crypto.SHA256,
		hashed[:],
		&rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash},
	)
	if err != nil {
		return "", &SigningError{Err: fmt.Errorf("sign message: %w", err)}
	}

	return base64.StdEncoding.EncodeToString(signature), nil
}

// Verify checks a signature against the canonical request string. Used in
// tests and diagnostics; the venue performs the real verification.
func (c *Credentials) Verify(timestampMs int64, method, path, signature string) error {
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}

	message := fmt.Sprintf("%d%s%s", timestampMs, method, path)
	hashed := sha256.Sum256([]byte(message))

	return rsa.VerifyPSS(
		&c.PrivateKey.PublicKey,
		crypto.SHA256,
		hashed[:],
		sig,
		&rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash},
	)
}

// WebSocketPath is the path used for WebSocket signature generation.
const WebSocketPath = "/trade-api/ws/v2"

// SignWebSocket generates authentication headers for WebSocket connections.
func (c *Credentials) SignWebSocket() (headers map[string]string, err error) {
	return c.SignRequest("GET", WebSocketPath)
}

var lastTimestamp atomic.Int64

// timestamp returns the current time in milliseconds, strictly increasing
// across calls within the process.
func timestamp() int64 {
	for {
		now := time.Now().UnixMilli()
		last := lastTimestamp.Load()
		if now <= last {
			now = last + 1
		}
		if lastTimestamp.CompareAndSwap(last, now) {
			return now
		}
	}
}
