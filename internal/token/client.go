// Package token performs the two OAuth grants against the provider's token
// endpoint and normalizes responses into the canonical Record.
package token

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/config"
	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/log"
)

// maxResponseBody bounds how much of a provider response is read.
const maxResponseBody = 1 << 20

// Client calls the provider token endpoint with the confidential client
// credentials attached as Basic auth. It never retries: the authorization
// code grant is single-use at the provider, and retry decisions for refresh
// belong to the caller.
type Client struct {
	tokenURL     string
	clientID     string
	clientSecret config.Secret
	httpClient   *http.Client
	now          func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithClock sets a custom clock function (for testing).
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a token client with a bounded per-call timeout.
func NewClient(tokenURL, clientID string, clientSecret config.Secret, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: timeout},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExchangeCode redeems an authorization code. The redirect URI must be the
// same one the authorization URL was built with; the provider rejects a
// mismatch.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*Record, error) {
	params := url.Values{}
	params.Set("grant_type", "authorization_code")
	params.Set("code", code)
	params.Set("redirect_uri", redirectURI)
	return c.grant(ctx, params)
}

// Refresh performs the refresh_token grant. Some providers rotate the
// refresh token on every use; the returned Record carries whatever refresh
// token the provider supplied, and the input token must not be assumed
// valid afterward.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Record, error) {
	params := url.Values{}
	params.Set("grant_type", "refresh_token")
	params.Set("refresh_token", refreshToken)
	return c.grant(ctx, params)
}

// grant is the shared primitive behind both grants: form-encoded POST with
// Basic credentials, normalized into a Record on success.
func (c *Client) grant(ctx context.Context, params url.Values) (*Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.clientID, string(c.clientSecret))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	receivedAt := c.now()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.LogWarnWithFields("token", "Provider rejected grant", map[string]any{
			"status":     resp.StatusCode,
			"grant_type": params.Get("grant_type"),
		})
		return nil, &ProviderError{Status: resp.StatusCode, Body: body}
	}

	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, ErrMalformedResponse
	}
	if parsed.AccessToken == "" {
		return nil, ErrMalformedResponse
	}

	return newRecord(parsed, receivedAt), nil
}
