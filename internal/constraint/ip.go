package constraint

import (
	"net"
	"strings"
)

// IPMatcher is one parsed entry from a remoteAddress constraint or
// strategy parameter: either a single address or a CIDR range.
type IPMatcher struct {
	ip    net.IP
	ipNet *net.IPNet
}

// Contains reports whether ip falls within this matcher.
func (m IPMatcher) Contains(ip net.IP) bool {
	if ip == nil {
		return false
	}
	if m.ipNet != nil {
		return m.ipNet.Contains(ip)
	}
	return m.ip.Equal(ip)
}

// ParseIPMatchers parses a comma-split list of IPs and CIDR ranges,
// silently discarding entries that parse as neither.
func ParseIPMatchers(values []string) []IPMatcher {
	matchers := make([]IPMatcher, 0, len(values))
	for _, raw := range values {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		if _, ipNet, err := net.ParseCIDR(v); err == nil {
			matchers = append(matchers, IPMatcher{ipNet: ipNet})
			continue
		}
		if ip := net.ParseIP(v); ip != nil {
			matchers = append(matchers, IPMatcher{ip: ip})
		}
	}
	return matchers
}

// MatchesAny reports whether ip is contained by any of matchers.
func MatchesAny(matchers []IPMatcher, ip net.IP) bool {
	for _, m := range matchers {
		if m.Contains(ip) {
			return true
		}
	}
	return false
}
