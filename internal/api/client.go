package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/epunzal2/kalshi-dashboard/internal/auth"
)

// Client provides authenticated access to the Kalshi REST API.
type Client struct {
	baseURL    string
	basePath   string // path component of baseURL, part of the signed string
	creds      *auth.Credentials
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration

	// Client-side request spacing.
	spacing  time.Duration
	callMu   sync.Mutex
	lastCall time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST API client. Credentials may be nil for
// unauthenticated endpoints.
func NewClient(baseURL string, creds *auth.Credentials, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:       slog.Default(),
		maxRetries:   3,
		retryBackoff: time.Second,
		spacing:      100 * time.Millisecond,
	}

	if u, err := url.Parse(c.baseURL); err == nil {
		c.basePath = strings.TrimRight(u.Path, "/")
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithRequestSpacing sets the minimum interval between outgoing requests.
// Zero disables spacing.
func WithRequestSpacing(d time.Duration) ClientOption {
	return func(c *Client) {
		c.spacing = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// rateLimit sleeps until the configured spacing since the previous call has
// elapsed. The venue throttles aggressive clients, so requests are paced
// even before the retry layer sees a 429.
func (c *Client) rateLimit() {
	if c.spacing <= 0 {
		return
	}

	c.callMu.Lock()
	defer c.callMu.Unlock()

	if wait := c.spacing - time.Since(c.lastCall); wait > 0 {
		time.Sleep(wait)
	}
	c.lastCall = time.Now()
}
