// Package client is a thin convenience wrapper for CLI tools to call the
// pubipd daemon's JSON API over a Unix‑domain socket. It re‑exports the DTOs
// from pkg/api so callers get strongly‑typed results instead of generic maps.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/lc/pubip/internal/socket"
	"github.com/lc/pubip/pkg/api"
)

// Client holds an http.Client wired to a Unix socket.
type Client struct {
	hc   *http.Client
	base string // dummy scheme+host for Request.URL (http://unix)
}

// New returns a Client that dials the given Unix‑domain socket path.
// Dialing goes through socket.ConnectContext, which retries while the
// daemon is still starting up.
func New(socketPath string) *Client {
	dial := func(ctx context.Context, _, _ string) (net.Conn, error) {
		return socket.ConnectContext(ctx, socketPath)
	}
	tr := &http.Transport{DialContext: dial}
	return &Client{hc: &http.Client{Transport: tr}, base: "http://unix"}
}

// --------------------------- commands ------------------------------

// IP asks the daemon for the public IP of the given family
// ("v4", "v6" or "any").
func (c *Client) IP(ctx context.Context, family string) (string, error) {
	var out api.IPResponse
	path := "/v1/ip?family=" + url.QueryEscape(family)
	if err := c.get(ctx, path, &out); err != nil {
		return "", err
	}
	return out.IP, nil
}

// Both asks the daemon for both family addresses in one call.
// A family the daemon could not resolve comes back empty.
func (c *Client) Both(ctx context.Context) (v4, v6 string, err error) {
	var out api.BothResponse
	if err := c.get(ctx, "/v1/ip?family=both", &out); err != nil {
		return "", "", err
	}
	return out.IPv4, out.IPv6, nil
}

// Status retrieves the current status of the daemon.
// It returns lookup counters, uptime, and version information.
func (c *Client) Status(ctx context.Context) (api.StatusResponse, error) {
	var out api.StatusResponse
	err := c.get(ctx, "/v1/status", &out)
	return out, err
}

// --------------------------- HTTP helpers --------------------------

func (c *Client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.base+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
