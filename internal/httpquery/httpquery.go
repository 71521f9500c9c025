// Package httpquery issues single HTTPS requests against plain-text IP echo
// services. One GET to one URL, the trimmed body back. Callers own racing
// and fallback; no third-party HTTP framework is used, just net/http,
// keeping the binary small, which matches Uber's "start minimal" guidance.
package httpquery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrBadStatus is returned when a service answers with a non-2xx status.
var ErrBadStatus = fmt.Errorf("unexpected response status")

// Limit on echoed bodies. A well-behaved service returns one short line;
// anything larger is garbage and gets truncated before validation rejects it.
const _maxBodySize = 512

var _ Querier = (*Client)(nil)

// Querier defines the interface for plain-text HTTPS queries.
type Querier interface {
	// Query GETs url and returns the response body with surrounding
	// whitespace trimmed.
	Query(ctx context.Context, url string) (string, error)
}

// Doer abstracts the HTTP round-trip for testing.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements Querier using net/http.
type Client struct {
	HTTP Doer
}

// New creates a Client ready for use. Deadlines come from the caller's
// context, so no client-level timeout is configured here.
func New() *Client {
	return &Client{
		HTTP: &http.Client{},
	}
}

// Query GETs url and returns the trimmed response body.
func (c *Client) Query(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", url, err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("get %s: %w: %s", url, ErrBadStatus, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, _maxBodySize))
	if err != nil {
		return "", fmt.Errorf("reading response from %s: %w", url, err)
	}

	return strings.TrimSpace(string(body)), nil
}
