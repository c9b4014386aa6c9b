package result

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"syscall"
)

// ErrorCategory represents the classification of a broken link.
type ErrorCategory string

const (
	CategoryTimeout           ErrorCategory = "timeout"
	CategoryDNSFailure        ErrorCategory = "dns_failure"
	CategoryConnectionRefused ErrorCategory = "connection_refused"
	CategoryTLS               ErrorCategory = "tls"
	Category4xx               ErrorCategory = "4xx"
	Category5xx               ErrorCategory = "5xx"
	CategoryUnexpectedStatus  ErrorCategory = "unexpected_status"
	CategoryRedirectLoop      ErrorCategory = "redirect_loop"
	CategoryUnknown           ErrorCategory = "unknown"
)

// ClassifyError determines the category of a broken link from the transport
// error (nil when a response arrived), the HTTP status code (0 when none) and
// whether a redirect loop was detected.
func ClassifyError(err error, statusCode int, isRedirectLoop bool) ErrorCategory {
	if isRedirectLoop {
		return CategoryRedirectLoop
	}

	if statusCode > 0 {
		switch {
		case statusCode >= 400 && statusCode <= 499:
			return Category4xx
		case statusCode >= 500:
			return Category5xx
		case statusCode < 200 || statusCode > 299:
			return CategoryUnexpectedStatus
		}
	}

	if err == nil {
		return CategoryUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return CategoryDNSFailure
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return CategoryConnectionRefused
	}

	var certErr *tls.CertificateVerificationError
	var authorityErr x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	if errors.As(err, &certErr) || errors.As(err, &authorityErr) || errors.As(err, &hostnameErr) {
		return CategoryTLS
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTimeout
	}

	return CategoryUnknown
}

// FormatCategory returns a human-readable label for an error category.
func FormatCategory(cat ErrorCategory) string {
	switch cat {
	case CategoryTimeout:
		return "Timeouts"
	case CategoryDNSFailure:
		return "DNS Failures"
	case CategoryConnectionRefused:
		return "Connection Refused"
	case CategoryTLS:
		return "TLS Errors"
	case Category4xx:
		return "Client Errors (4xx)"
	case Category5xx:
		return "Server Errors (5xx)"
	case CategoryUnexpectedStatus:
		return "Unexpected Status"
	case CategoryRedirectLoop:
		return "Redirect Loops"
	default:
		return "Other Errors"
	}
}

// CategoryOrder lists categories from most to least actionable.
var CategoryOrder = []ErrorCategory{
	Category4xx,
	Category5xx,
	CategoryUnexpectedStatus,
	CategoryTimeout,
	CategoryDNSFailure,
	CategoryConnectionRefused,
	CategoryTLS,
	CategoryRedirectLoop,
	CategoryUnknown,
}

// GroupByCategory buckets links by category; links without one land in
// CategoryUnknown.
func GroupByCategory(links []LinkResult) map[ErrorCategory][]LinkResult {
	grouped := make(map[ErrorCategory][]LinkResult)
	for _, link := range links {
		cat := link.ErrorCategory
		if cat == "" {
			cat = CategoryUnknown
		}
		grouped[cat] = append(grouped[cat], link)
	}
	return grouped
}
