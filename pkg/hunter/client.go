// Package hunter wraps the Hunter.io domain-search API used to resolve a
// contact email for a qualified prospect.
package hunter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.hunter.io/v2"

// Client resolves contact emails for a domain. An empty result is not an
// error; it means no verified address was found.
type Client interface {
	Find(ctx context.Context, domain, displayName string) (string, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithSimulation switches the client into deterministic offline mode.
func WithSimulation() Option {
	return func(c *httpClient) {
		c.simulation = true
	}
}

type httpClient struct {
	apiKey     string
	baseURL    string
	http       *http.Client
	simulation bool
}

// NewClient creates a Hunter.io client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type domainSearchResponse struct {
	Data struct {
		Emails []struct {
			Value string `json:"value"`
		} `json:"emails"`
	} `json:"data"`
}

// Find returns the best email for a domain, or "" when none is known.
// Lookup failures are logged and reported as absence rather than errors:
// a missing contact is a per-candidate condition, not a run failure.
func (c *httpClient) Find(ctx context.Context, domain, displayName string) (string, error) {
	if c.simulation {
		if domain == "" {
			domain = "example.com"
		}
		return "contact@" + domain, nil
	}

	if domain == "" || c.apiKey == "" {
		return "", nil
	}

	q := url.Values{}
	q.Set("domain", domain)
	q.Set("api_key", c.apiKey)
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/domain-search?"+q.Encode(), nil)
	if err != nil {
		return "", eris.Wrap(err, "hunter: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		zap.L().Warn("hunter: request failed", zap.String("domain", domain), zap.Error(err))
		return "", nil
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		zap.L().Warn("hunter: read response failed", zap.String("domain", domain), zap.Error(err))
		return "", nil
	}

	if resp.StatusCode != http.StatusOK {
		zap.L().Warn("hunter: unexpected status",
			zap.String("domain", domain),
			zap.Int("status", resp.StatusCode),
		)
		return "", nil
	}

	var result domainSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", eris.Wrap(err, "hunter: unmarshal response")
	}

	if len(result.Data.Emails) == 0 {
		return "", nil
	}
	return result.Data.Emails[0].Value, nil
}
