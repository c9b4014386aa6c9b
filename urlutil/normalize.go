// Package urlutil turns raw hrefs into canonical frontier keys and decides
// whether a key belongs to the site being crawled.
package urlutil

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrRejected is returned for hrefs that never become frontier entries:
// empty strings, fragment-only references and references without a host.
var ErrRejected = errors.New("url rejected")

// Normalize converts a raw, possibly relative href into a canonical absolute
// URL. Root-relative references are resolved against rootAuthority, which is
// the scheme and host of the starting URL (see Authority).
//
// Normalization steps:
// - Trimming surrounding whitespace
// - Rejecting empty, fragment-only ("#top") and host-less references
// - Prefixing protocol-relative references ("//host/x") with "https:"
// - Prefixing root-relative references ("/x") with rootAuthority
// - Prefixing anything still lacking an http(s) scheme with "https://"
// - Trimming trailing slashes, keeping the single "/" of a root path
//
// The "https://" fallback is best-effort absolutization, not RFC 3986
// resolution: "contact.html" becomes "https://contact.html/", since a result
// without a path is treated as a bare authority.
func Normalize(raw, rootAuthority string) (string, error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return "", fmt.Errorf("normalize %q: empty reference: %w", raw, ErrRejected)
	}
	if strings.HasPrefix(u, "#") {
		return "", fmt.Errorf("normalize %q: fragment-only reference: %w", raw, ErrRejected)
	}

	switch {
	case strings.HasPrefix(u, "//"):
		u = "https:" + u
	case strings.HasPrefix(u, "/"):
		u = rootAuthority + u
	}

	if !hasHTTPScheme(u) {
		u = "https://" + u
	}

	u = strings.TrimRightFunc(u, func(r rune) bool { return r == '/' || unicode.IsSpace(r) })

	authority, err := Authority(u)
	if err != nil {
		return "", fmt.Errorf("normalize %q: %w: %w", raw, err, ErrRejected)
	}

	// A bare authority gets its root path back so "https://h" and
	// "https://h/" share one key.
	if u == authority {
		u += "/"
	}

	return u, nil
}

// Authority returns the scheme, host and port of a normalized URL as the
// literal prefix of u, e.g. "https://example.com:8080" for
// "https://example.com:8080/docs?q=1".
func Authority(u string) (string, error) {
	idx := strings.Index(u, "://")
	if idx <= 0 {
		return "", fmt.Errorf("authority of %q: missing scheme", u)
	}
	rest := u[idx+3:]
	if end := strings.IndexAny(rest, "/?#"); end >= 0 {
		rest = rest[:end]
	}
	if rest == "" {
		return "", fmt.Errorf("authority of %q: missing host", u)
	}
	return u[:idx+3] + rest, nil
}

// hasHTTPScheme reports whether u begins with "http://" or "https://",
// ignoring case.
func hasHTTPScheme(u string) bool {
	lower := strings.ToLower(u)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
