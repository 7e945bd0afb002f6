package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rhuss/pinpoint/pkg/api"
	"github.com/rhuss/pinpoint/pkg/debug"
)

// maxResponseSize bounds how much of a backend reply is read.
const maxResponseSize = 32 << 20

// Client posts JSON payloads to a single provider's backend.
type Client struct {
	provider   string
	httpClient *http.Client
}

// NewClient creates a Client for the named provider. A zero timeout leaves
// the request bounded only by its context and the transport defaults.
func NewClient(provider string, timeout time.Duration) *Client {
	return &Client{
		provider:   provider,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient replaces the underlying HTTP client. Used by tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// PostJSON marshals payload, posts it to endpoint with the given query
// parameters, and returns the reply body. Any failure is an *api.APIError.
func (c *Client) PostJSON(ctx context.Context, endpoint string, query url.Values, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}

	target := endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to create HTTP request: %s", RedactError(err).Error()))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	debug.Log("providers", "request", "provider", c.provider, "method", http.MethodPost, "url", RedactURL(target), "bytes", len(body))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, MapNetworkError(c.provider, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, MapHTTPError(c.provider, httpResp)
	}

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, MapNetworkError(c.provider, err)
	}

	debug.Log("providers", "response", "provider", c.provider, "status", httpResp.StatusCode, "bytes", len(data))
	return data, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
