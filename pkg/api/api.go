// Package api exposes a tiny JSON‑over‑HTTP API for the pubipd daemon.
// It listens on a Unix domain socket (path comes from config) and delegates
// every lookup to pkg/pubip. No third‑party HTTP framework is used—just
// net/http + encoding/json—keeping the binary small and dependency‑free,
// which matches Uber's "start minimal" guidance.
//
// Every request performs a fresh lookup; the daemon never caches addresses.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/lc/pubip/internal/buildinfo"
	"github.com/lc/pubip/internal/log"
	"github.com/lc/pubip/internal/socket"
	"github.com/lc/pubip/pkg/pubip"
)

// Lookuper is the slice of pkg/pubip the server needs.
type Lookuper interface {
	LookupV4(ctx context.Context, opts pubip.Options) (string, error)
	LookupV6(ctx context.Context, opts pubip.Options) (string, error)
	LookupAny(ctx context.Context, opts pubip.Options) (string, error)
	LookupBoth(ctx context.Context, opts pubip.Options) (v4, v6 string, err error)
}

// IPResponse is the answer to a single-address lookup.
type IPResponse struct {
	IP string `json:"ip"`
}

// BothResponse is the answer to a family=both lookup. A family that could
// not be resolved is omitted.
type BothResponse struct {
	IPv4 string `json:"ipv4,omitempty"`
	IPv6 string `json:"ipv6,omitempty"`
}

// StatusResponse represents the server status response.
type StatusResponse struct {
	Lookups  int64         `json:"lookups"`
	Failures int64         `json:"failures"`
	Uptime   time.Duration `json:"uptime"`
	Version  string        `json:"version"`
	Commit   string        `json:"commit"`
}

// -------- server -----------------------------------------------------

// Server handles HTTP API requests over a Unix domain socket.
type Server struct {
	lookups Lookuper
	start   time.Time
	mux     *http.ServeMux
	srv     *http.Server
	served  *atomic.Int64
	failed  *atomic.Int64
}

// New creates a new API server backed by the given lookuper.
// It sets up the HTTP routes and returns a server ready to listen.
func New(lookups Lookuper) *Server {
	s := &Server{
		lookups: lookups,
		start:   time.Now(),
		mux:     http.NewServeMux(),
		served:  atomic.NewInt64(0),
		failed:  atomic.NewInt64(0),
	}

	s.mux.HandleFunc("/v1/ip", s.handleIP)
	s.mux.HandleFunc("/v1/status", s.handleStatus)

	s.srv = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe starts the Unix‑socket HTTP server.
func (s *Server) ListenAndServe(path string) error {
	ln, err := socket.Listen(path)
	if err != nil {
		return err
	}
	return s.srv.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }

// handleIP performs one lookup per request. The family query parameter
// selects the pipeline: v4, v6, any (default) or both.
func (s *Server) handleIP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := uuid.NewString()
	family := r.URL.Query().Get("family")
	if family == "" {
		family = "any"
	}

	opts, err := optionsFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	log.Debug("api: lookup request", "id", id, "family", family)
	s.served.Inc()

	var resp any
	switch family {
	case "v4":
		var ip string
		if ip, err = s.lookups.LookupV4(r.Context(), opts); err == nil {
			resp = IPResponse{IP: ip}
		}
	case "v6":
		var ip string
		if ip, err = s.lookups.LookupV6(r.Context(), opts); err == nil {
			resp = IPResponse{IP: ip}
		}
	case "any":
		var ip string
		if ip, err = s.lookups.LookupAny(r.Context(), opts); err == nil {
			resp = IPResponse{IP: ip}
		}
	case "both":
		var v4, v6 string
		if v4, v6, err = s.lookups.LookupBoth(r.Context(), opts); err == nil {
			resp = BothResponse{IPv4: v4, IPv6: v6}
		}
	default:
		http.Error(w, fmt.Sprintf("unknown family %q", family), http.StatusBadRequest)
		return
	}

	if err != nil {
		s.failed.Inc()
		log.Warnf("api: lookup %s (family %s) failed: %v", id, family, err)
		http.Error(w, err.Error(), lookupErrorStatus(err))
		return
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, fmt.Sprintf("Error encoding response: %v", err), http.StatusInternalServerError)
		return
	}
}

// handleStatus returns the server status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	resp := StatusResponse{
		Lookups:  s.served.Load(),
		Failures: s.failed.Load(),
		Uptime:   time.Since(s.start),
		Version:  buildinfo.Version,
		Commit:   buildinfo.Commit,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, fmt.Sprintf("Error encoding response: %v", err), http.StatusInternalServerError)
		return
	}
}

// optionsFromQuery maps query parameters onto lookup options.
func optionsFromQuery(r *http.Request) (pubip.Options, error) {
	var opts pubip.Options

	q := r.URL.Query()
	if raw := q.Get("timeout"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return opts, fmt.Errorf("invalid timeout %q", raw)
		}
		opts.Timeout = d
	}
	if raw := q.Get("only_https"); raw != "" {
		opts.OnlyHTTPS = raw == "true" || raw == "1"
	}
	opts.FallbackURLs = q["fallback_url"]

	return opts, nil
}

// lookupErrorStatus maps lookup failures onto HTTP statuses: exhausted
// candidates are 404, a fired deadline is 504, anything else is a 500.
func lookupErrorStatus(err error) int {
	var nf *pubip.NotFoundError
	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
