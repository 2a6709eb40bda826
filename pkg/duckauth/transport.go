package duckauth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

// Request is a single call to the auth service.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// Response is the status and body of a completed call. Non-2xx statuses are
// returned as a Response, not an error.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport sends requests to the auth service. An error means no response
// was received.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

func (f TransportFunc) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// HTTPTransport sends requests over HTTP relative to BaseURL.
type HTTPTransport struct {
	BaseURL    string
	HTTPClient *http.Client
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport returns a transport for baseURL. A nil client gets a
// client with a 10 second timeout.
func NewHTTPTransport(baseURL string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPTransport{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: client,
	}
}

func (t *HTTPTransport) Send(ctx context.Context, r *Request) (*Response, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, t.BaseURL+r.Path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range r.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", ErrNetwork, err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// send performs req. Transport failures come back wrapped in ErrNetwork and
// non-2xx statuses as *StatusError.
func send(ctx context.Context, t Transport, req *Request) ([]byte, error) {
	resp, err := t.Send(ctx, req)
	if err != nil {
		if !errors.Is(err, ErrNetwork) {
			err = fmt.Errorf("%w: %w", ErrNetwork, err)
		}
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseErrorResponse(resp.StatusCode, resp.Body)
	}
	return resp.Body, nil
}
