// Package client submits render requests to a running imprint server.
//
// Client implements the same Assemble method as the local assembler, so a
// batch can be run against either. A server that cannot be reached yields a
// TRANSPORT_ERROR, which aborts a batch; a request that times out or that the
// server rejects fails only that item.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/imprint/pkg/buildinfo"
	"github.com/matzehuels/imprint/pkg/errors"
	"github.com/matzehuels/imprint/pkg/httputil"
	"github.com/matzehuels/imprint/pkg/observability"
	"github.com/matzehuels/imprint/pkg/pipeline"
	"github.com/matzehuels/imprint/pkg/request"
)

// DefaultTimeout bounds a single render call.
const DefaultTimeout = 20 * time.Second

// Client talks to one server.
type Client struct {
	base       *url.URL
	http       *http.Client
	attempts   int
	retryDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.http.Timeout = d } }

// WithRetry sets how often 502/503 responses are retried and the initial delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) { c.attempts, c.retryDelay = attempts, delay }
}

// New returns a client for the server at baseURL (e.g. "http://127.0.0.1:8000").
func New(baseURL string, opts ...Option) (*Client, error) {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil, errors.New(errors.ErrCodeConfiguration, "invalid server address %q", baseURL)
	}
	c := &Client{
		base:       u,
		http:       &http.Client{Timeout: DefaultTimeout},
		attempts:   3,
		retryDelay: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// Assemble implements batch.Assembler by posting req to /render.
func (c *Client) Assemble(ctx context.Context, req request.Request) (*pipeline.Result, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, err, "encode request")
	}
	endpoint := c.base.JoinPath("render")

	var res pipeline.Result
	err = httputil.Retry(ctx, c.attempts, c.retryDelay, func() error {
		return c.post(ctx, endpoint, payload, &res)
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) post(ctx context.Context, endpoint *url.URL, payload []byte, out *pipeline.Result) error {
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfiguration, err, "build request")
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("User-Agent", buildinfo.UserAgent())

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, hreq.Method, endpoint.Host, endpoint.Path)
	start := time.Now()
	resp, err := c.http.Do(hreq)
	if err != nil {
		hooks.OnError(ctx, hreq.Method, endpoint.Host, endpoint.Path, err)
		return classify(err, endpoint.Host)
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, hreq.Method, endpoint.Host, endpoint.Path, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return classify(err, endpoint.Host)
	}
	if resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(body, out); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "decode server response")
		}
		return nil
	}

	var eb errorBody
	if json.Unmarshal(body, &eb) != nil || eb.Code == "" {
		eb = errorBody{Code: errors.ErrCodeInternal, Message: fmt.Sprintf("server returned %s", resp.Status)}
	}
	err = errors.New(eb.Code, "%s", eb.Message)
	if httputil.RetryableStatus(resp.StatusCode) && eb.Code != errors.ErrCodeConfiguration {
		return httputil.Retryable(err)
	}
	return err
}

// classify maps a failed round trip to TIMEOUT (per item) or TRANSPORT_ERROR
// (server unreachable, aborts the batch).
func classify(err error, host string) error {
	var nerr net.Error
	if stderrors.As(err, &nerr) && nerr.Timeout() {
		return errors.Wrap(errors.ErrCodeTimeout, err, "render request to %s timed out", host)
	}
	if stderrors.Is(err, context.Canceled) {
		return err
	}
	return errors.Wrap(errors.ErrCodeTransport, err, "render server at %s unreachable", host)
}
