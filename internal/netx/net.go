// Package netx is the outbound HTTP plumbing shared by every upstream data
// source: a fixed User-Agent, a per-call timeout, no retries and typed errors.
package netx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/fplassistant/internal/common"
)

// maxBodySize caps how much of a response is read into memory. Larger
// bodies fail with ErrResponseTooLarge.
var maxBodySize int64 = 32 << 20

// ErrResponseTooLarge is returned when a body exceeds maxBodySize.
var ErrResponseTooLarge = errors.New("response too large")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Error wraps any failure talking to a named upstream source. It matches
// common.ErrUpstreamUnavailable with errors.Is.
type Error struct {
	Source string
	Err    error
}

func (e *Error) Error() string {
	return e.Source + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target == common.ErrUpstreamUnavailable
}

// IsNotFound reports whether err carries a 404 from an upstream.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Client performs GET requests against upstream sources.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient returns a Client sending userAgent. A nil hc means a fresh
// http.Client; timeouts are applied per call, not on the client.
func NewClient(hc *http.Client, userAgent string) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{http: hc, userAgent: userAgent}
}

// GetBytes fetches url within timeout and returns the body.
// Failures are wrapped in *Error tagged with source.
func (c *Client) GetBytes(ctx context.Context, source, url string, timeout time.Duration) ([]byte, error) {
	body, err := c.get(ctx, url, timeout)
	if err != nil {
		return nil, &Error{Source: source, Err: err}
	}
	return body, nil
}

// GetJSON fetches url and decodes the body into v.
func (c *Client) GetJSON(ctx context.Context, source, url string, timeout time.Duration, v any) error {
	body, err := c.GetBytes(ctx, source, url, timeout)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &Error{Source: source, Err: fmt.Errorf("decode %s: %w", url, err)}
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > maxBodySize {
		return nil, fmt.Errorf("GET %s: %w (limit %d bytes)", url, ErrResponseTooLarge, maxBodySize)
	}
	return body, nil
}
