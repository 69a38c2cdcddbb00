package azure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/skylift/region-advisor/internal/core/ports"
)

const (
	DefaultEndpoint = "https://management.azure.com"

	defaultRequestTimeout = 30 * time.Second
)

type Config struct {
	SubscriptionID string `mapstructure:"subscription_id" validate:"required"`
	Endpoint       string `mapstructure:"endpoint"`
	APIRPS         int    `mapstructure:"api_rps" validate:"gte=0"`
}

// HTTPClient allows substituting http.Client in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource supplies the bearer token for each request. Credential
// acquisition lives outside this module; callers inject whatever
// session mechanism they already have.
type TokenSource func(ctx context.Context) (string, error)

// APIClient is the narrow surface the fetcher depends on: one
// rate-limited GET returning raw payload bytes. A nil payload with a
// nil error means the path exposes no listing for this provider.
type APIClient interface {
	GetRaw(ctx context.Context, path string, query url.Values) ([]byte, error)
}

// Client issues management-API requests for one subscription.
type Client struct {
	cfg        Config
	httpClient HTTPClient
	limiter    ports.RateLimiter
	tokens     TokenSource
	logger     ports.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(c HTTPClient) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithRateLimiter(l ports.RateLimiter) ClientOption {
	return func(cl *Client) {
		cl.limiter = l
	}
}

func WithTokenSource(ts TokenSource) ClientOption {
	return func(cl *Client) {
		cl.tokens = ts
	}
}

func NewClient(cfg Config, logger ports.Logger, opts ...ClientOption) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}

	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.limiter == nil {
		client.limiter = newAPILimiter(cfg.APIRPS, logger)
	}
	return client
}

// GetRaw performs one GET under the subscription scope. Paths are
// relative to /subscriptions/{id}. A 404 comes back as (nil, nil):
// absence of a listing is a normal outcome for providers without a SKU
// endpoint, not a failure.
func (c *Client) GetRaw(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/subscriptions/%s/%s", c.cfg.Endpoint, url.PathEscape(c.cfg.SubscriptionID), path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, classifyTransportError(ctx, err, path, "build-request")
	}
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		token, err := c.tokens(ctx)
		if err != nil {
			return nil, classifyTransportError(ctx, err, path, "token")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err, path, "get")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(ctx, err, path, "read-body")
	}

	if statusErr := classifyHTTPStatus(resp.StatusCode, path, "get", string(body)); statusErr != nil {
		if isNoEndpoint(statusErr) {
			c.logger.Debugf(ctx, "No listing at %s, treating as empty inventory", path)
			return nil, nil
		}
		return nil, statusErr
	}

	return body, nil
}
