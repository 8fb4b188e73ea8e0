package lxd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/lxstack/lxstack/pkg/telemetry"
)

// DefaultSocketPath is where the snap-packaged LXD daemon listens.
const DefaultSocketPath = "/var/snap/lxd/common/lxd/unix.socket"

// apiRoot is the versioned API prefix all paths hang off.
const apiRoot = "/1.0"

// baseURL is a placeholder host; the transport dials the unix socket
// regardless of it.
const baseURL = "http://lxd"

// Collection identifies one kind of LXD resource and its collection path.
type Collection string

const (
	StoragePools Collection = "storage-pools"
	Networks     Collection = "networks"
	Profiles     Collection = "profiles"
	Containers   Collection = "containers"
)

// Path returns the collection path, e.g. "/1.0/containers".
func (c Collection) Path() string {
	return apiRoot + "/" + string(c)
}

// Response is the envelope LXD wraps every API answer in.
type Response struct {
	// Type is one of "sync", "async" or "error".
	Type string `json:"type"`

	// Metadata is the payload; its shape depends on the endpoint.
	Metadata json.RawMessage `json:"metadata"`

	// Operation is the handle of the queued background operation, set only
	// on async responses.
	Operation string `json:"operation,omitempty"`
}

// ClientConfig holds the settings for a hypervisor session.
type ClientConfig struct {
	// SocketPath is the LXD unix socket to dial.
	SocketPath string

	// Logger receives a debug entry for every response plus transport
	// diagnostics. Optional.
	Logger *telemetry.Logger

	// Metrics counts requests and async waits. Optional.
	Metrics *telemetry.Metrics

	// Tracer creates a span per request. Optional.
	Tracer *telemetry.Tracer
}

// Client is a session against the local LXD daemon. Every response passes
// through one classification step before it reaches the caller: API errors
// abort the request, and async responses block until the underlying
// operation has finished.
//
// The client is synchronous and carries no retry logic; a failed request is
// fatal to the lifecycle operation that issued it.
type Client struct {
	http    *http.Client
	log     *telemetry.Logger
	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer
}

// NewClient opens a session against the LXD unix socket. The socket is not
// dialed until the first request.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.SocketPath == "" {
		return nil, fmt.Errorf("lxd: socket path is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.NopLogger()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = telemetry.NopTracer()
	}

	socketPath := cfg.SocketPath
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
		// One caller, one request in flight.
		MaxIdleConns:    1,
		MaxConnsPerHost: 1,
	}

	return &Client{
		http:    &http.Client{Transport: transport},
		log:     cfg.Logger.NewComponentLogger("session"),
		metrics: cfg.Metrics,
		tracer:  cfg.Tracer,
	}, nil
}

// Get issues a GET request against path.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST request with body JSON-encoded.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

// Put issues a PUT request with body JSON-encoded.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

// Delete issues a DELETE request against path.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

// do performs one request/response exchange and classifies the response.
// Error envelopes fail the call with the decoded body; async envelopes block
// on the queued operation before returning.
func (c *Client) do(ctx context.Context, method, path string, body any) (*Response, error) {
	ctx, span := c.tracer.StartRequestSpan(ctx, method, path)
	defer span.End()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("lxd: encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("lxd: build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(method, "transport_error")
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("lxd: %s %s: %w", method, path, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.metrics.ObserveRequest(method, "transport_error")
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("lxd: read %s %s response: %w", method, path, err)
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.metrics.ObserveRequest(method, "decode_error")
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("lxd: decode %s %s response: %w", method, path, err)
	}

	c.log.WithField("method", method).WithField("path", path).
		Debugf("%s", raw)
	c.metrics.ObserveRequest(method, resp.Type)
	span.SetAttributes(attribute.String("lxd.response_type", resp.Type))

	switch resp.Type {
	case "error":
		err := &Error{Kind: ErrorKindHypervisor, Path: path, Body: raw}
		telemetry.RecordError(span, err)
		return nil, err
	case "async":
		if err := c.waitOperation(ctx, resp.Operation); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	return &resp, nil
}

// waitOperation blocks until the background operation behind handle has
// finished. LXD's wait endpoint blocks server-side, so a single GET suffices;
// there is no client-side polling.
func (c *Client) waitOperation(ctx context.Context, handle string) error {
	c.log.WithField("operation", handle).Debug("waiting for operation")

	resp, err := c.do(ctx, http.MethodGet, handle+"/wait", nil)
	if err != nil {
		c.metrics.ObserveWait("error")
		return err
	}

	var status struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(resp.Metadata, &status); err != nil {
		c.metrics.ObserveWait("error")
		return fmt.Errorf("lxd: decode operation %s status: %w", handle, err)
	}

	if status.StatusCode != 200 {
		c.metrics.ObserveWait("failed")
		return &Error{Kind: ErrorKindOperation, Path: handle, Body: resp.Metadata}
	}

	c.metrics.ObserveWait("succeeded")
	return nil
}
