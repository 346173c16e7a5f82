package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/anyx-app/secudash-43b2ee93/pkg/config"
	"github.com/anyx-app/secudash-43b2ee93/pkg/logger"
)

// EndpointFunc resolves the backend endpoint. It runs once per request.
type EndpointFunc func() (config.Endpoint, error)

// Client sends query payloads to the backend's project query endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   EndpointFunc
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the transport. Its Timeout bounds every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithEndpoint pins the backend URL and project id instead of reading the
// environment.
func WithEndpoint(serverURL, projectID string) Option {
	e := config.NewEndpoint(serverURL, projectID)
	return WithEndpointFunc(func() (config.Endpoint, error) { return e, nil })
}

// WithEndpointFunc sets a custom endpoint resolver.
func WithEndpointFunc(fn EndpointFunc) Option {
	return func(c *Client) {
		c.endpoint = fn
	}
}

// NewClient creates a client. Without options the endpoint comes from
// ANYX_SERVER_URL and ANYX_PROJECT_ID, read on every request.
func NewClient(opts ...Option) *Client {
	c := &Client{endpoint: config.LoadEndpoint}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultClient = NewClient()

// From starts a query on table using the environment-configured client.
func From(table string) *Builder {
	return defaultClient.From(table)
}

// From starts a query on table.
func (c *Client) From(table string) *Builder {
	return newBuilder(c, table)
}

// URL returns the query endpoint for e.
func URL(e config.Endpoint) string {
	return e.ServerURL() + "/api/projects/" + url.PathEscape(e.ProjectID()) + "/query"
}

// send posts p once and decodes a successful body into dst.
func (c *Client) send(ctx context.Context, p Payload, dst any) error {
	ep, err := c.endpoint()
	if err != nil {
		return err
	}
	if ep.ServerURL() == "" || ep.ProjectID() == "" {
		return ErrMissingEndpoint
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("query: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, URL(ep), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	hc := c.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: ep.Timeout}
	}

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	logger.Debug("query sent",
		"table", p.Table,
		"operation", p.Operation,
		"status", resp.StatusCode,
		"bytes", len(data),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newQueryFailed(resp.StatusCode, data)
	}

	if dst == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("query: decode response: %w", err)
	}
	return nil
}
