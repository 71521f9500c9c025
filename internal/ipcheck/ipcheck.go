// Package ipcheck provides syntactic validation of IP address literals.
// It is a pure predicate layer: no DNS resolution, no normalization, and no
// tolerance for surrounding whitespace; callers trim before validating.
package ipcheck

import "net/netip"

// Family selects which IP protocol version a literal must belong to.
type Family int

const (
	// V4 requires an IPv4 literal.
	V4 Family = iota + 1
	// V6 requires an IPv6 literal.
	V6
)

// String returns a short human-readable name for the family.
func (f Family) String() string {
	switch f {
	case V4:
		return "IPv4"
	case V6:
		return "IPv6"
	default:
		return "unknown"
	}
}

// Valid reports whether s is a well-formed IP literal of the given family.
// Zoned addresses (fe80::1%eth0) are rejected: a public address never
// carries a zone.
func Valid(s string, f Family) bool {
	if s == "" {
		return false
	}

	addr, err := netip.ParseAddr(s)
	if err != nil || addr.Zone() != "" {
		return false
	}

	switch f {
	case V4:
		return addr.Is4()
	case V6:
		return addr.Is6() && !addr.Is4()
	default:
		return false
	}
}
