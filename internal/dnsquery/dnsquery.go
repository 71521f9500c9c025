// Package dnsquery issues single DNS queries against explicit resolvers.
// It is the DNS transport used for public IP discovery: one question to one
// resolver, one answer string back. Callers own retries and racing.
package dnsquery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
)

var (
	// ErrNoAnswer is returned when the response carries no usable record.
	ErrNoAnswer = fmt.Errorf("no answer records")
	// ErrEmptyMsg is returned when the DNS response message is empty.
	ErrEmptyMsg = fmt.Errorf("empty message")
)

var _ Querier = (*Client)(nil)

// Querier defines the interface for single-answer DNS queries.
type Querier interface {
	// Query sends one question of the given type to the given resolver and
	// returns the first matching answer as a string.
	Query(ctx context.Context, resolver, name string, qtype uint16) (string, error)
}

// Exchanger defines the interface for DNS message exchange.
type Exchanger interface {
	ExchangeContext(ctx context.Context, m *dns.Msg, a string) (r *dns.Msg, rtt time.Duration, err error)
}

// Client implements Querier on top of a miekg/dns exchanger.
type Client struct {
	Exchange Exchanger
}

// New creates a Client ready for use. Deadlines come from the caller's
// context, so no per-exchange timeout is configured here.
func New() *Client {
	return &Client{
		Exchange: &dns.Client{},
	}
}

// Query sends one question to resolver and extracts the answer.
// A and AAAA answers are returned as the address literal, TXT answers as the
// concatenation of their character strings. The first record of the
// requested type wins; anything else in the answer section is ignored.
func (c *Client) Query(ctx context.Context, resolver, name string, qtype uint16) (string, error) {
	req := &dns.Msg{}
	req.SetQuestion(dns.Fqdn(name), qtype)

	resp, _, err := c.Exchange.ExchangeContext(ctx, req, resolver)
	if err != nil {
		return "", fmt.Errorf("dns exchange with %s: %w", resolver, err)
	}
	if resp == nil {
		return "", ErrEmptyMsg
	}
	if resp.Rcode != dns.RcodeSuccess {
		return "", fmt.Errorf("dns query %q against %s: %s", name, resolver, dns.RcodeToString[resp.Rcode])
	}

	answer, err := firstAnswer(resp, qtype)
	if err != nil {
		return "", fmt.Errorf("dns query %q against %s: %w", name, resolver, err)
	}
	return answer, nil
}

// firstAnswer extracts the first record of the requested type.
func firstAnswer(resp *dns.Msg, qtype uint16) (string, error) {
	for _, rr := range resp.Answer {
		switch record := rr.(type) {
		case *dns.A:
			if qtype == dns.TypeA {
				return record.A.String(), nil
			}
		case *dns.AAAA:
			if qtype == dns.TypeAAAA {
				return record.AAAA.String(), nil
			}
		case *dns.TXT:
			if qtype == dns.TypeTXT {
				return strings.Join(record.Txt, ""), nil
			}
		}
	}
	return "", ErrNoAnswer
}
