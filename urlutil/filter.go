package urlutil

import (
	"net/url"
	"strings"
)

// IsInternal reports whether u belongs to the crawled site. It is a plain
// string-prefix test against rootAuthority, so "https://example.com.evil.com"
// counts as internal to "https://example.com". Use SameOrigin for a
// structural comparison.
func IsInternal(u, rootAuthority string) bool {
	return rootAuthority != "" && strings.HasPrefix(u, rootAuthority)
}

// SameOrigin reports whether targetURL has the same scheme, host and port as
// rootAuthority. Scheme and host compare case-insensitively and a missing
// port is treated as the scheme's default port.
func SameOrigin(targetURL, rootAuthority string) bool {
	target, err := url.Parse(targetURL)
	if err != nil {
		return false
	}
	root, err := url.Parse(rootAuthority)
	if err != nil {
		return false
	}

	if !strings.EqualFold(target.Scheme, root.Scheme) {
		return false
	}
	if !strings.EqualFold(target.Hostname(), root.Hostname()) {
		return false
	}
	return effectivePort(target) == effectivePort(root)
}

func effectivePort(u *url.URL) string {
	if port := u.Port(); port != "" {
		return port
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		return "80"
	case "https":
		return "443"
	}
	return ""
}
