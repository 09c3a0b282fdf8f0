package server

import (
	"net"
	"net/url"
	"strings"
)

// Allowlist controls which hosts download redirects may target. It supports
// exact hostnames (with subdomain matching) and wildcard DNS patterns
// (*.githubusercontent.com).
//
// A nil Allowlist permits all hosts.
type Allowlist struct {
	wildcards []string // stored as ".suffix" (e.g. ".example.com" from "*.example.com")
	exact     []string // lowercased hostnames
}

// ParseAllowlist parses a comma-separated allowlist string. Entries starting
// with "*." are wildcards, everything else is an exact hostname.
//
// Returns nil for an empty string (nil = allow all).
func ParseAllowlist(raw string) *Allowlist {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	a := &Allowlist{}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if strings.HasPrefix(entry, "*.") {
			a.wildcards = append(a.wildcards, strings.ToLower(entry[1:]))
		} else {
			a.exact = append(a.exact, strings.ToLower(entry))
		}
	}

	return a
}

// Allows reports whether the given host (which may include a port) is
// permitted by this allowlist. A nil Allowlist permits all hosts.
func (a *Allowlist) Allows(host string) bool {
	if a == nil {
		return true
	}

	hostname := strings.ToLower(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostname = strings.ToLower(h)
	}

	for _, entry := range a.exact {
		if hostname == entry || strings.HasSuffix(hostname, "."+entry) {
			return true
		}
	}

	for _, suffix := range a.wildcards {
		if strings.HasSuffix(hostname, suffix) && hostname != suffix[1:] {
			return true
		}
	}

	return false
}

// AllowsURL reports whether rawURL is an absolute http(s) URL whose host is
// permitted.
func (a *Allowlist) AllowsURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return false
	}
	return a.Allows(u.Host)
}
