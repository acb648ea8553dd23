// Package collector speaks JSON-over-HTTP to the remote run collector.
package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"runtrail/caller"
	loggerv2 "runtrail/logger/v2"
)

// DefaultEndpoint is used when no collector endpoint is configured.
const DefaultEndpoint = "http://localhost:1984"

// Client is the collector API client. All calls go through the shared
// caller, so they inherit its retry and concurrency policy.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	caller     *caller.Caller
	logger     loggerv2.Logger
}

// NewClient creates a collector client.
func NewClient(endpoint, apiKey string, c *caller.Caller, logger loggerv2.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if c == nil {
		c = caller.New(caller.DefaultConcurrency, caller.DefaultMaxRetries, logger)
	}
	if logger == nil {
		logger = loggerv2.NewDefault()
	}
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		caller:     c,
		logger:     logger,
	}
}

// ListTenants fetches the tenants visible to the configured credentials.
// An empty listing is not an error at this layer.
func (c *Client) ListTenants(ctx context.Context) ([]Tenant, error) {
	var tenants []Tenant
	if err := c.do(ctx, http.MethodGet, "/tenants", "list tenants", nil, &tenants); err != nil {
		return nil, err
	}
	return tenants, nil
}

// UpsertSession creates or fetches a session by name within its tenant.
func (c *Client) UpsertSession(ctx context.Context, req SessionCreate) (*TracerSession, error) {
	var session TracerSession
	if err := c.do(ctx, http.MethodPost, "/sessions?upsert=true", "create session", req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// CreateRun submits one finalized run tree. The response body is not
// interpreted beyond the status code.
func (c *Client) CreateRun(ctx context.Context, rec *RunCreate) error {
	return c.do(ctx, http.MethodPost, "/runs", "create run", rec, nil)
}

// do issues one request through the caller, decoding a 2xx response into
// out when given. Non-2xx responses become APIError carrying status and
// body; client errors short-circuit the retry loop.
func (c *Client) do(ctx context.Context, method, path, op string, body interface{}, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
	}

	return c.caller.Call(ctx, func(ctx context.Context) error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
		if err != nil {
			return caller.Permanent(fmt.Errorf("%s: build request: %w", op, err))
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("x-api-key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		defer func() { _ = resp.Body.Close() }()

		respBody, _ := io.ReadAll(resp.Body)

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := &APIError{Op: op, StatusCode: resp.StatusCode, Body: string(respBody)}
			if !apiErr.Retryable() {
				return caller.Permanent(apiErr)
			}
			return apiErr
		}

		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return caller.Permanent(fmt.Errorf("%s: decode response: %w", op, err))
			}
		}

		c.logger.Debug("collector call succeeded",
			loggerv2.String("op", op),
			loggerv2.Int("status", resp.StatusCode))
		return nil
	})
}
