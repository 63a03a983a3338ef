package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/subtrack/internal/logging"
)

// maxErrorBody bounds how much of an error response is read for its message.
const maxErrorBody = 1 << 20

// API is the verb-level surface services depend on.
type API interface {
	Get(ctx context.Context, endpoint string, out any) error
	Post(ctx context.Context, endpoint string, body, out any) error
	Put(ctx context.Context, endpoint string, body, out any) error
	Delete(ctx context.Context, endpoint string, out any) error
}

type HTTPClient struct {
	baseURL string
	http    *http.Client
	log     logging.Logger
}

type Option func(*options)

type options struct {
	timeout   time.Duration
	transport http.RoundTripper
	log       logging.Logger
}

// WithTimeout bounds each request, including reading the response body.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithTransport replaces the base transport under the interceptors.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.log = l }
}

// New builds the client for the API rooted at baseURL, e.g.
// "http://localhost:5500/api". store supplies the bearer token and is purged
// on any 401 answer.
func New(baseURL string, store TokenStore, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	log := logging.OrNop(o.log).With("component", "http")

	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   o.timeout,
			Transport: chain(o.transport, store, log),
		},
		log: log,
	}, nil
}

// BaseURL returns the API root without a trailing slash.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

func (c *HTTPClient) Get(ctx context.Context, endpoint string, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, nil, out)
}

func (c *HTTPClient) Post(ctx context.Context, endpoint string, body, out any) error {
	return c.do(ctx, http.MethodPost, endpoint, body, out)
}

func (c *HTTPClient) Put(ctx context.Context, endpoint string, body, out any) error {
	return c.do(ctx, http.MethodPut, endpoint, body, out)
}

func (c *HTTPClient) Delete(ctx context.Context, endpoint string, out any) error {
	return c.do(ctx, http.MethodDelete, endpoint, nil, out)
}

// do performs one round-trip. On a 2xx answer the body is decoded into out
// (when out is non-nil and the body is not empty). Every failure comes back
// as *Error.
func (c *HTTPClient) do(ctx context.Context, method, endpoint string, body, out any) error {
	req, err := c.newRequest(ctx, method, endpoint, body)
	if err != nil {
		return &Error{Message: rawMessage(err), Kind: ErrRequest, Cause: err}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn(ctx, "request failed", "method", method, "endpoint", endpoint, "error", err)
		return &Error{Message: MsgNetworkError, Kind: ErrNetwork, Cause: err}
	}
	defer resp.Body.Close()

	c.log.Debug(ctx, "request done",
		"method", method,
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{
			Status:  resp.StatusCode,
			Message: serverMessage(b),
			Kind:    kindForStatus(resp.StatusCode),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Status: resp.StatusCode, Message: MsgNetworkError, Kind: ErrNetwork, Cause: err}
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return &Error{Status: resp.StatusCode, Message: "Malformed response from server", Kind: ErrDecode, Cause: err}
	}
	return nil
}

func (c *HTTPClient) newRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(endpoint, "/"), r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// serverMessage picks the user-facing message out of an error body:
// "message", then "error" (when it is a string), then a generic fallback.
func serverMessage(body []byte) string {
	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return MsgServerError
	}
	if payload.Message != "" {
		return payload.Message
	}
	var s string
	if err := json.Unmarshal(payload.Error, &s); err == nil && s != "" {
		return s
	}
	return MsgServerError
}

func rawMessage(err error) string {
	if err == nil || err.Error() == "" {
		return MsgUnexpected
	}
	return err.Error()
}

// IsNetwork reports whether err means no response was received.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}
