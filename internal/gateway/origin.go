package gateway

import (
	"fmt"
	"net/url"
	"strings"
)

// ─── Origin Guard ───────────────────────────────────────────────────────────
// The allow-list is built once per process from fixed development origins,
// fixed external-agent origins, one configured frontend origin, and a
// comma-separated configured list. Membership is exact-string on the
// normalized form scheme://host[:port] — never prefix or substring.
// Rebuilding requires a new process; origins are deployment-time config.

// OriginGuard holds the immutable allowed-origin set.
type OriginGuard struct {
	allowed map[string]struct{}
}

// NewOriginGuard builds the allow-list. siteURL is the configured frontend
// origin; extra is the configured comma-separated list, already split.
// Invalid entries in either are discarded.
func NewOriginGuard(httpPort, httpsPort int, siteURL string, extra []string) *OriginGuard {
	allowed := make(map[string]struct{})
	add := func(origin string) {
		if n, ok := NormalizeOrigin(origin); ok {
			allowed[n] = struct{}{}
		}
	}

	// Localhost variants for both listeners.
	add(fmt.Sprintf("http://localhost:%d", httpPort))
	add(fmt.Sprintf("https://localhost:%d", httpsPort))
	add(fmt.Sprintf("http://127.0.0.1:%d", httpPort))
	add(fmt.Sprintf("https://127.0.0.1:%d", httpsPort))

	// Known external-agent origins.
	add("https://chat.openai.com")
	add("https://chatgpt.com")

	// Frontend dev default.
	add("http://localhost:3000")

	if siteURL != "" {
		add(siteURL)
	}
	for _, o := range extra {
		if o = strings.TrimSpace(o); o != "" {
			add(o)
		}
	}

	return &OriginGuard{allowed: allowed}
}

// NormalizeOrigin reduces an origin value to scheme://host[:port].
// Returns ok=false for values that do not parse as an absolute URL.
func NormalizeOrigin(origin string) (string, bool) {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), true
}

// IsAllowed reports whether origin passes the allow-list. An absent origin
// (same-origin or non-browser caller) is always allowed; unparsable origins
// are not.
func (g *OriginGuard) IsAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	n, ok := NormalizeOrigin(origin)
	if !ok {
		return false
	}
	_, member := g.allowed[n]
	return member
}

// Origins returns the allow-list entries (for startup logging).
func (g *OriginGuard) Origins() []string {
	out := make([]string, 0, len(g.allowed))
	for o := range g.allowed {
		out = append(out, o)
	}
	return out
}
