package pubip

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/lc/pubip/internal/ipcheck"
	"github.com/lc/pubip/internal/log"
)

// candidate is one concrete lookup attempt inside a race.
type candidate struct {
	label string
	run   func(ctx context.Context) (string, error)
}

// outcome is what a candidate's goroutine reports back to the race.
type outcome struct {
	label string
	raw   string
	err   error
}

// race runs all candidates concurrently and settles on the first one whose
// answer validates as a literal of the requested family. Raw successes are
// re-checked with the validator before being accepted: a transport-level
// success that is not an IP literal counts as a failure. Losers are
// abandoned through context cancellation and their eventual results are
// discarded; the buffered channel keeps their goroutines from leaking.
//
// If every candidate fails or invalidates, race returns the aggregated
// failures with the most recently observed cause appended last.
func (c *Client) race(ctx context.Context, fam ipcheck.Family, cands []candidate) (string, error) {
	if len(cands) == 0 {
		return "", ErrNoCandidates
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan outcome, len(cands))
	for _, cand := range cands {
		cand := cand
		go func() {
			raw, err := cand.run(ctx)
			results <- outcome{label: cand.label, raw: raw, err: err}
		}()
	}

	var errs error
	for range cands {
		select {
		case res := <-results:
			if res.err != nil {
				log.Debugf("pubip: candidate %s failed: %v", res.label, res.err)
				errs = multierr.Append(errs, res.err)
				continue
			}
			if !ipcheck.Valid(res.raw, fam) {
				log.Debugf("pubip: candidate %s answered garbage %q", res.label, res.raw)
				errs = multierr.Append(errs, fmt.Errorf("%s answered %q: %w", res.label, res.raw, ErrMalformedAnswer))
				continue
			}
			log.Debugf("pubip: candidate %s won with %s", res.label, res.raw)
			return res.raw, nil
		case <-ctx.Done():
			// The envelope fired: abandon everything still pending and
			// surface the cancellation itself, not an aggregate.
			return "", ctx.Err()
		}
	}

	return "", errs
}

// dnsCandidates binds the family's DNS targets to the DNS transport.
func (c *Client) dnsCandidates(fam ipcheck.Family) []candidate {
	targets := c.sources.DNS[fam]
	cands := make([]candidate, 0, len(targets))
	for _, t := range targets {
		t := t
		cands = append(cands, candidate{
			label: fmt.Sprintf("dns %s %s", t.Resolver, t.Name),
			run: func(ctx context.Context) (string, error) {
				raw, err := c.dns.Query(ctx, t.Resolver, t.Name, t.Qtype)
				if err != nil {
					return "", err
				}
				if t.Transform != nil {
					raw = t.Transform(raw)
				}
				return raw, nil
			},
		})
	}
	return cands
}

// httpsCandidates binds the family's HTTPS targets to the HTTPS transport.
// Caller-supplied fallback URLs race alongside the built-ins, appended
// after them in order.
func (c *Client) httpsCandidates(fam ipcheck.Family, fallbackURLs []string) []candidate {
	targets := c.sources.HTTPS[fam]
	urls := make([]string, 0, len(targets)+len(fallbackURLs))
	for _, t := range targets {
		urls = append(urls, t.URL)
	}
	urls = append(urls, fallbackURLs...)

	cands := make([]candidate, 0, len(urls))
	for _, url := range urls {
		url := url
		cands = append(cands, candidate{
			label: fmt.Sprintf("https %s", url),
			run: func(ctx context.Context) (string, error) {
				return c.https.Query(ctx, url)
			},
		})
	}
	return cands
}
