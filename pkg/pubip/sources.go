package pubip

import (
	"strings"

	"github.com/miekg/dns"

	"github.com/lc/pubip/internal/ipcheck"
)

// DNSTarget describes one DNS candidate: a single question to a single
// resolver whose answer is the asker's own public address. Targets are
// read-only configuration and must not be mutated after construction.
type DNSTarget struct {
	Resolver  string              // host:port of the resolver to ask
	Name      string              // record name that echoes the asker's address
	Qtype     uint16              // dns.TypeA, dns.TypeAAAA or dns.TypeTXT
	Transform func(string) string // optional answer cleanup, e.g. unquoting TXT
}

// HTTPTarget describes one HTTPS candidate: a plain-text echo service.
type HTTPTarget struct {
	URL string
}

// Sources holds the per-family candidate sets for both strategies.
type Sources struct {
	DNS   map[Family][]DNSTarget
	HTTPS map[Family][]HTTPTarget
}

// stripQuotes removes the quoting some resolvers keep around TXT answers.
func stripQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// DefaultSources returns the built-in lookup targets: OpenDNS and Google
// special-case records for the DNS strategy, icanhazip and ipify for HTTPS.
// Resolver addresses are pinned to IPs so no bootstrap resolution is needed,
// and the address family of the resolver itself selects which network path
// is exercised.
func DefaultSources() Sources {
	return Sources{
		DNS: map[Family][]DNSTarget{
			ipcheck.V4: {
				{Resolver: "208.67.222.222:53", Name: "myip.opendns.com", Qtype: dns.TypeA},
				{Resolver: "208.67.220.220:53", Name: "myip.opendns.com", Qtype: dns.TypeA},
				{Resolver: "216.239.32.10:53", Name: "o-o.myaddr.l.google.com", Qtype: dns.TypeTXT, Transform: stripQuotes},
			},
			ipcheck.V6: {
				{Resolver: "[2620:0:ccc::2]:53", Name: "myip.opendns.com", Qtype: dns.TypeAAAA},
				{Resolver: "[2620:0:ccd::2]:53", Name: "myip.opendns.com", Qtype: dns.TypeAAAA},
				{Resolver: "[2001:4860:4802:32::a]:53", Name: "o-o.myaddr.l.google.com", Qtype: dns.TypeTXT, Transform: stripQuotes},
			},
		},
		HTTPS: map[Family][]HTTPTarget{
			ipcheck.V4: {
				{URL: "https://ipv4.icanhazip.com/"},
				{URL: "https://api.ipify.org/"},
			},
			ipcheck.V6: {
				{URL: "https://ipv6.icanhazip.com/"},
				{URL: "https://api6.ipify.org/"},
			},
		},
	}
}
