// Package api is the HTTP/JSON client for the finance API server.
//
// Every endpoint the UI tier consumes lives here. Transport failures and
// non-2xx replies are returned as errors; a 401 is always ErrUnauthorized so
// callers can tell an auth failure from any other failure.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/log"
)

var (
	// ErrUnauthorized is returned for any 401 reply.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnexpectedResponse is returned when a 2xx body does not have the expected shape.
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// StatusError is a non-2xx, non-401 reply.
type StatusError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Endpoint, e.StatusCode)
}

// RejectedError is a 2xx reply whose body reports {"success": false}.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return "request rejected"
	}
	return "request rejected: " + e.Message
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	cookies    []*http.Cookie
	logger     *log.Logger
	calls      *log.StructuredLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithSessionCookie attaches the user's session cookie to every request.
func WithSessionCookie(name, value string) Option {
	return func(c *Client) {
		if name != "" && value != "" {
			c.cookies = append(c.cookies, &http.Cookie{Name: name, Value: value})
		}
	}
}

// WithLogger sets the logger used for call diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l.WithComponent(log.ComponentAPI)
		}
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.OrDefault(nil, log.ComponentAPI)
	}
	c.calls = log.NewStructuredLogger(c.logger)
	return c
}

// errorBody is the error envelope the server uses.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// successBody is the acknowledgement envelope of write endpoints.
type successBody struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (b successBody) check() error {
	if b.Success != nil && !*b.Success {
		msg := b.Message
		if msg == "" {
			msg = b.Error
		}
		return &RejectedError{Message: msg}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.calls.LogUpstreamCall(ctx, method, path, 0, time.Since(start).Milliseconds(), err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	c.calls.LogUpstreamCall(ctx, method, path, resp.StatusCode, time.Since(start).Milliseconds(), err)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		msg := eb.Error
		if msg == "" {
			msg = eb.Message
		}
		return nil, &StatusError{Method: method, Endpoint: path, StatusCode: resp.StatusCode, Message: msg}
	}
	return raw, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	raw, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return err
	}
	return decode(path, raw, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode %s body: %w", path, err)
	}
	raw, err := c.do(ctx, method, path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return decode(path, raw, out)
}

func decode(path string, raw []byte, out any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w: %v", path, ErrUnexpectedResponse, err)
	}
	return nil
}
