// Package store implements the HTTP client for the remote graph store.
// The store is opaque to the pipeline: it is identified only by host and
// port, and every operation is a JSON POST to a named endpoint.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/ehcaw/codegraph/internal/config"
)

// Client is a pooled, rate-limited JSON client for the graph store.
// It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// New creates a store client for the given port. The connection pool and the
// token bucket are sized from the configuration (defaults: 500 idle
// connections per host, 90 s timeout, 100 requests/second).
func New(cfg config.StoreConfig, port int) *Client {
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConns,
		IdleConnTimeout:     cfg.Timeout,
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.RequestsPerSec),
		baseURL: fmt.Sprintf("http://%s:%d", cfg.Host, port),
	}
}

// Post sends a JSON payload to the named endpoint and decodes the JSON
// response. It blocks until the rate limiter grants a token; no request is
// dropped. Transport failures, non-2xx statuses and undecodable bodies are
// returned as distinct error types.
func (c *Client) Post(ctx context.Context, endpoint string, payload any) (map[string]any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request for %s: %w", endpoint, err)
	}

	url := c.baseURL + "/" + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{Endpoint: endpoint, Status: resp.StatusCode, Body: string(raw)}
	}

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	return decoded, nil
}

// classifyTransportError maps a transport failure to a RequestError with the
// timeout/connect distinction the caller logs on.
func classifyTransportError(url string, err error) error {
	re := &RequestError{URL: url, Err: err}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		re.Timeout = true
		return re
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		re.ConnectFailed = true
	}
	return re
}
