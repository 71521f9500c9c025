// Package pubip discovers the caller's public-facing IP address by racing
// independent lookup strategies: DNS queries against resolvers that echo the
// asker's address (OpenDNS, Google) and HTTPS requests against plain-text
// echo services (icanhazip, ipify).
//
// Per address family the pipeline fans out all DNS candidates concurrently,
// accepts the first answer that validates as an IP literal of that family,
// and silently falls back to the HTTPS candidates when the DNS race is
// exhausted. The caller's context plus an optional per-call timeout form a
// single cancellation envelope over the whole pipeline.
//
// Nothing is cached and no candidate is retried: every call starts fresh and
// a failed candidate simply drops out of its race.
package pubip

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/lc/pubip/internal/dnsquery"
	"github.com/lc/pubip/internal/httpquery"
	"github.com/lc/pubip/internal/ipcheck"
	"github.com/lc/pubip/internal/log"
)

// Family selects which IP protocol version to look up.
type Family = ipcheck.Family

// Supported address families.
const (
	V4 = ipcheck.V4
	V6 = ipcheck.V6
)

// IsValid reports whether s is a well-formed IP literal of the given family.
func IsValid(s string, f Family) bool {
	return ipcheck.Valid(s, f)
}

// Options control a single lookup call. The zero value asks for the default
// behavior: DNS first with HTTPS fallback and no proactive timeout beyond
// whatever deadline the caller's context already carries.
type Options struct {
	// Timeout bounds the whole lookup, all strategies included.
	// Zero means no proactive timeout.
	Timeout time.Duration
	// OnlyHTTPS skips the DNS strategy entirely.
	OnlyHTTPS bool
	// FallbackURLs are extra HTTPS echo services raced after the built-in
	// list. Each must answer with a bare IP literal.
	FallbackURLs []string
}

// Client performs public IP lookups. The zero-dependency construction via
// New is ready for production use; the functional options exist so tests
// and embedders can swap transports or target sets.
//
// A Client holds no mutable state and is safe for concurrent use.
type Client struct {
	dns      dnsquery.Querier
	https    httpquery.Querier
	sources  Sources
	defaults Options
}

// Opt is a function option for configuring the Client.
type Opt func(c *Client)

// New creates a Client with the built-in lookup targets and real transports.
func New(opts ...Opt) *Client {
	c := &Client{
		dns:     dnsquery.New(),
		https:   httpquery.New(),
		sources: DefaultSources(),
	}

	for _, o := range opts {
		o(c)
	}

	return c
}

// WithDNSQuerier returns an option to replace the DNS transport.
func WithDNSQuerier(q dnsquery.Querier) Opt {
	return func(c *Client) {
		c.dns = q
	}
}

// WithHTTPQuerier returns an option to replace the HTTPS transport.
func WithHTTPQuerier(q httpquery.Querier) Opt {
	return func(c *Client) {
		c.https = q
	}
}

// WithSources returns an option to replace the built-in lookup targets.
func WithSources(s Sources) Opt {
	return func(c *Client) {
		c.sources = s
	}
}

// WithDefaults returns an option to set default Options merged under every
// call's own Options. A call's value wins wherever it is set.
func WithDefaults(o Options) Opt {
	return func(c *Client) {
		c.defaults = o
	}
}

// LookupV4 returns the caller's public IPv4 address.
func (c *Client) LookupV4(ctx context.Context, opts Options) (string, error) {
	return c.lookupOne(ctx, ipcheck.V4, opts)
}

// LookupV6 returns the caller's public IPv6 address.
func (c *Client) LookupV6(ctx context.Context, opts Options) (string, error) {
	return c.lookupOne(ctx, ipcheck.V6, opts)
}

// LookupAny returns the caller's public IP of whichever family resolves
// first. Both family pipelines run concurrently under one shared
// cancellation envelope; if both fail, the first failure observed is
// reported.
func (c *Client) LookupAny(ctx context.Context, opts Options) (string, error) {
	opts = c.merge(opts)
	ctx, cancel, err := envelope(ctx, opts)
	if err != nil {
		return "", err
	}
	defer cancel()

	raceCtx, stop := context.WithCancel(ctx)
	defer stop()

	type famOutcome struct {
		ip  string
		err error
	}
	results := make(chan famOutcome, 2)
	for _, fam := range [...]ipcheck.Family{ipcheck.V4, ipcheck.V6} {
		fam := fam
		go func() {
			ip, err := c.lookupFamily(raceCtx, fam, opts)
			results <- famOutcome{ip: ip, err: err}
		}()
	}

	var firstErr error
	for i := 0; i < 2; i++ {
		select {
		case res := <-results:
			if res.err == nil {
				return res.ip, nil
			}
			if firstErr == nil {
				firstErr = res.err
			}
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return "", firstErr
}

// LookupBoth resolves the IPv4 and IPv6 addresses concurrently and returns
// every family that succeeded. An empty string marks a family that could
// not be resolved; the error is non-nil only when *both* pipelines fail.
func (c *Client) LookupBoth(ctx context.Context, opts Options) (v4, v6 string, err error) {
	opts = c.merge(opts)
	ctx, cancel, err := envelope(ctx, opts)
	if err != nil {
		return "", "", err
	}
	defer cancel()

	grp, grpCtx := errgroup.WithContext(ctx)

	var (
		mu   sync.Mutex
		errs error
	)
	run := func(fam ipcheck.Family, out *string) func() error {
		return func() error {
			ip, lerr := c.lookupFamily(grpCtx, fam, opts)
			mu.Lock()
			defer mu.Unlock()

			if lerr != nil {
				// Collect the failure without cancelling the peer family.
				errs = multierr.Append(errs, lerr)
				return nil
			}
			*out = ip
			return nil
		}
	}
	grp.Go(run(ipcheck.V4, &v4))
	grp.Go(run(ipcheck.V6, &v6))

	if werr := grp.Wait(); werr != nil {
		errs = multierr.Append(errs, werr)
	}

	if v4 == "" && v6 == "" {
		if cerr := ctx.Err(); cerr != nil {
			return "", "", cerr
		}
		return "", "", &NotFoundError{Cause: errs}
	}
	return v4, v6, nil
}

// lookupOne runs the single-family pipeline under its own envelope.
func (c *Client) lookupOne(ctx context.Context, fam ipcheck.Family, opts Options) (string, error) {
	opts = c.merge(opts)
	ctx, cancel, err := envelope(ctx, opts)
	if err != nil {
		return "", err
	}
	defer cancel()

	return c.lookupFamily(ctx, fam, opts)
}

// lookupFamily is the strategy fallback: DNS race first, HTTPS race second,
// HTTPS only when asked. Fallback is silent: DNS failures never reach the
// caller when HTTPS subsequently delivers, and a terminal NotFoundError
// carries only the final race's causes. Expects merged options and an
// already-enveloped context.
func (c *Client) lookupFamily(ctx context.Context, fam ipcheck.Family, opts Options) (string, error) {
	if !opts.OnlyHTTPS {
		ip, err := c.race(ctx, fam, c.dnsCandidates(fam))
		if err == nil {
			return ip, nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return "", cerr
		}
		log.Debugf("pubip: dns lookup for %s exhausted, falling back to https: %v", fam, err)
	}

	ip, err := c.race(ctx, fam, c.httpsCandidates(fam, opts.FallbackURLs))
	if err == nil {
		return ip, nil
	}
	if cerr := ctx.Err(); cerr != nil {
		return "", cerr
	}
	return "", &NotFoundError{Cause: err}
}

// merge layers the call's options over the client defaults.
// Shallow override: the call's value wins wherever it is set.
func (c *Client) merge(opts Options) Options {
	if opts.Timeout == 0 {
		opts.Timeout = c.defaults.Timeout
	}
	if !opts.OnlyHTTPS {
		opts.OnlyHTTPS = c.defaults.OnlyHTTPS
	}
	if len(opts.FallbackURLs) == 0 {
		opts.FallbackURLs = c.defaults.FallbackURLs
	}
	return opts
}

// envelope layers the optional timeout onto the caller's context, forming
// the one cancellation signal every concurrent sub-operation observes.
// A context that is already cancelled fails the call here, before any
// transport request is issued.
func envelope(ctx context.Context, opts Options) (context.Context, context.CancelFunc, error) {
	cancel := context.CancelFunc(func() {})
	if opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}

	if err := ctx.Err(); err != nil {
		cancel()
		return nil, nil, err
	}
	return ctx, cancel, nil
}

// Default client backing the package-level lookup functions.
var _default = New()

// LookupV4 returns the caller's public IPv4 address using the default client.
func LookupV4(ctx context.Context, opts Options) (string, error) {
	return _default.LookupV4(ctx, opts)
}

// LookupV6 returns the caller's public IPv6 address using the default client.
func LookupV6(ctx context.Context, opts Options) (string, error) {
	return _default.LookupV6(ctx, opts)
}

// LookupAny returns the caller's public IP of whichever family resolves
// first, using the default client.
func LookupAny(ctx context.Context, opts Options) (string, error) {
	return _default.LookupAny(ctx, opts)
}
