// Package rpc provides a minimal JSON-RPC 2.0 client for wallet providers.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/mrz1836/brewbar/internal/chain"
	brewerr "github.com/mrz1836/brewbar/pkg/errors"
)

var (
	// ErrRPCRequest indicates an RPC request could not be built or sent.
	ErrRPCRequest = &brewerr.BrewError{
		Code:     "RPC_REQUEST_FAILED",
		Message:  "RPC request failed",
		ExitCode: brewerr.ExitGeneral,
	}

	// ErrRPCResponse indicates an invalid RPC response.
	ErrRPCResponse = &brewerr.BrewError{
		Code:     "RPC_INVALID_RESPONSE",
		Message:  "invalid RPC response",
		ExitCode: brewerr.ExitGeneral,
	}

	// ErrNoEndpoint indicates the client has no URL to talk to.
	ErrNoEndpoint = &brewerr.BrewError{
		Code:     "RPC_NO_ENDPOINT",
		Message:  "no RPC endpoint configured",
		ExitCode: brewerr.ExitUnavailable,
	}
)

// limitExceededCode is the JSON-RPC code providers use for throttled requests.
const limitExceededCode = -32005

// Recorder receives one observation per call.
type Recorder interface {
	RecordRPCCall(method string, duration time.Duration, err error)
}

// Client is a JSON-RPC client bound to one provider endpoint.
type Client struct {
	url        string
	httpClient *http.Client
	limiter    *chain.RateLimiter
	recorder   Recorder
	idCounter  atomic.Uint64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimiter throttles calls through the given limiter, keyed by URL.
func WithRateLimiter(l *chain.RateLimiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithRecorder reports every call to r.
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

// NewClient creates a new RPC client.
// The HTTP client has no timeout: wallets hold requests open while the user decides.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:        url,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the endpoint the client talks to.
func (c *Client) URL() string {
	return c.url
}

// request represents a JSON-RPC 2.0 request.
type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      uint64 `json:"id"`
}

// response represents a JSON-RPC 2.0 response.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC error object returned by the provider.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// TransportError means the endpoint could not be reached at all.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sending request to %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPError is a non-2xx HTTP status without a JSON-RPC error body.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("provider returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("provider returned HTTP %d: %s", e.StatusCode, e.Body)
}

// Call performs a JSON-RPC call and returns the raw result.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	start := time.Now()
	result, err := c.call(ctx, method, params)
	if c.recorder != nil {
		c.recorder.RecordRPCCall(method, time.Since(start), err)
	}
	return result, err
}

// CallResult performs a JSON-RPC call and decodes the result into out.
func (c *Client) CallResult(ctx context.Context, out any, method string, params ...any) error {
	raw, err := c.Call(ctx, method, params...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return brewerr.WithCause(brewerr.WithDetails(ErrRPCResponse, map[string]string{"method": method}), err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	if c.url == "" {
		return nil, ErrNoEndpoint
	}
	if params == nil {
		params = []any{}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.url); err != nil {
			return nil, err
		}
	}

	req := request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.idCounter.Add(1),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, brewerr.WithCause(ErrRPCRequest, fmt.Errorf("marshaling request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, brewerr.WithCause(ErrRPCRequest, fmt.Errorf("creating HTTP request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &TransportError{URL: c.url, Err: err}
	}
	// Body.Close error is intentionally ignored as it only fails if the
	// connection is already broken, and there's no recovery action.
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{URL: c.url, Err: fmt.Errorf("reading response body: %w", err)}
	}

	var resp response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
			return nil, statusError(httpResp.StatusCode, respBody)
		}
		return nil, brewerr.WithCause(ErrRPCResponse, fmt.Errorf("unmarshaling response: %w", err))
	}

	if resp.Error != nil {
		if resp.Error.Code == limitExceededCode {
			return nil, chain.WrapRetryable(resp.Error)
		}
		return nil, resp.Error
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, statusError(httpResp.StatusCode, respBody)
	}

	return resp.Result, nil
}

// maxErrorBody caps the response body kept in an HTTPError, in bytes.
const maxErrorBody = 200

// statusError builds an HTTPError, marking throttling and server faults as retryable.
func statusError(code int, body []byte) error {
	text := string(bytes.TrimSpace(body))
	if len(text) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	herr := &HTTPError{StatusCode: code, Body: text}
	if code == http.StatusTooManyRequests || code >= http.StatusInternalServerError {
		return chain.WrapRetryable(herr)
	}
	return herr
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
