// Package api is the client for the Evenly REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/http2"

	"github.com/mmynk/evenly/internal/metrics"
	"github.com/mmynk/evenly/internal/middleware"
)

const maxErrorBody = 64 << 10

var (
	// ErrUnauthorized matches an *Error with status 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound matches an *Error with status 404.
	ErrNotFound = errors.New("not found")
)

// Error is a non-2xx response from the API.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
}

// Is lets errors.Is match ErrUnauthorized and ErrNotFound by status.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// Options configures a Client. The zero value is usable.
type Options struct {
	Timeout time.Duration
	// Tokens supplies the bearer token for every request.
	Tokens middleware.TokenSource
	Logger *slog.Logger
	// Metrics instruments requests when set.
	Metrics *metrics.Metrics
	// Transport replaces the default HTTP transport.
	Transport http.RoundTripper
}

// Client calls the API at <base>/api.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// New creates a Client for baseURL, e.g. "http://localhost:5000".
func New(baseURL string, opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/api")
	if err != nil {
		return nil, fmt.Errorf("invalid API URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL %q: scheme must be http or https", baseURL)
	}

	base := opts.Transport
	if base == nil {
		if base, err = defaultTransport(); err != nil {
			return nil, err
		}
	}

	mws := []middleware.Middleware{
		middleware.BearerAuth(opts.Tokens),
		middleware.Logging(opts.Logger),
	}
	if opts.Metrics != nil {
		mws = append(mws, opts.Metrics.RoundTripper)
	}

	return &Client{
		baseURL: u,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: middleware.Chain(base, mws...),
		},
	}, nil
}

// defaultTransport clones http.DefaultTransport and enables HTTP/2 health
// checks so a dead connection is noticed before the request timeout.
func defaultTransport() (*http.Transport, error) {
	t := http.DefaultTransport.(*http.Transport).Clone()
	h2, err := http2.ConfigureTransports(t)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP/2: %w", err)
	}
	h2.ReadIdleTimeout = 30 * time.Second
	h2.PingTimeout = 15 * time.Second
	return t, nil
}

// request describes one API call.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	header http.Header
	// raw is sent as is with contentType instead of encoding body.
	raw         io.Reader
	contentType string
}

// do sends req and decodes a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, req request, out any) error {
	u := c.baseURL.JoinPath(req.path)
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.raw != nil:
		body, contentType = req.raw, req.contentType
	case req.body != nil:
		b, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body, contentType = bytes.NewReader(b), "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	for k, vs := range req.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode %s %s response: %w", req.method, req.path, err)
	}
	return nil
}

// decodeError reads the {"msg": "..."} body the API sends with failures.
func decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(b, &body) == nil {
		switch {
		case body.Msg != "":
			apiErr.Message = body.Msg
		case body.Message != "":
			apiErr.Message = body.Message
		default:
			apiErr.Message = body.Error
		}
	}
	return apiErr
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, query: query}, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, request{method: http.MethodPost, path: path, body: body}, out)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, request{method: http.MethodPut, path: path, body: body}, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: path}, nil)
}

func resource(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return strings.Join(escaped, "/")
}
