package crawler

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"
)

// RetryPolicy configures retry behavior for failed requests.
type RetryPolicy struct {
	MaxRetries int           // Maximum number of retries (0 = single attempt)
	BaseDelay  time.Duration // Initial backoff delay
	MaxDelay   time.Duration // Maximum backoff cap
}

// DefaultRetryPolicy returns a policy that never retries, with 1s base delay
// and 30s max delay should retries be enabled.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 0,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// retryFetcher wraps a Fetcher with exponential backoff.
type retryFetcher struct {
	next   Fetcher
	policy RetryPolicy
}

// WithRetry wraps next so that transient failures (network errors, 5xx, 429)
// are retried according to policy. Permanent failures (4xx except 429) are
// returned immediately. A policy without retries returns next unchanged.
func WithRetry(next Fetcher, policy RetryPolicy) Fetcher {
	if policy.MaxRetries <= 0 {
		return next
	}
	return &retryFetcher{next: next, policy: policy}
}

func (r *retryFetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	backoff := r.policy.BaseDelay
	var resp *Response
	var err error
	attempts := 0

	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		attempts = attempt + 1

		if attempt > 0 {
			select {
			case <-ctx.Done():
				if resp != nil {
					return resp, nil
				}
				return nil, &TransportError{URL: rawURL, Err: ctx.Err()}
			case <-time.After(backoff):
				backoff = min(backoff*2, r.policy.MaxDelay)
			}
			if resp != nil {
				discard(resp)
			}
		}

		resp, err = r.next.Fetch(ctx, rawURL)
		if !shouldRetry(resp, err) {
			return resp, err
		}
	}

	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: unwrapTransport(err), Attempts: attempts}
	}
	return resp, nil
}

// shouldRetry returns true for:
// - Network errors (timeout, connection refused, DNS failure)
// - HTTP 429 (rate limited)
// - HTTP 5xx (server errors)
func shouldRetry(resp *Response, err error) bool {
	if err != nil {
		return isRetryableError(err)
	}
	if resp == nil {
		return false
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
}

// isRetryableError checks if an error type is retryable.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrRedirectLoop) {
		return false
	}

	// Context deadline exceeded
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// Network operation errors (covers timeout, connection refused)
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	// DNS errors
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func unwrapTransport(err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Err
	}
	return err
}

// discard drains and closes a response that is being replaced by a retry.
func discard(resp *Response) {
	if resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
