package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// maxRedirects matches the net/http default redirect limit.
const maxRedirects = 10

// ErrRedirectLoop is returned when a redirect chain revisits a URL.
var ErrRedirectLoop = errors.New("redirect loop")

// Response is the part of an HTTP response the crawler looks at. Body is
// read lazily and must be closed by the caller.
type Response struct {
	StatusCode  int
	ContentType string
	Body        io.ReadCloser
}

// Fetcher retrieves a URL. Implementations return a *TransportError when no
// HTTP response was received.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Response, error)
}

// TransportError is a DNS, connect, TLS, timeout or redirect failure.
type TransportError struct {
	URL      string
	Err      error
	Attempts int // Set by the retry wrapper when more than one attempt was made
}

// Error returns the underlying message without the request prefix net/http
// adds, e.g. "dial tcp: lookup example.invalid: no such host".
func (e *TransportError) Error() string {
	msg := e.Err.Error()
	var urlErr *url.Error
	if errors.As(e.Err, &urlErr) {
		msg = urlErr.Err.Error()
	}
	if e.Attempts > 1 {
		msg = fmt.Sprintf("%s (after %d attempts)", msg, e.Attempts)
	}
	return msg
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPFetcher fetches URLs with GET requests.
type HTTPFetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// NewHTTPFetcher creates a fetcher with a per-request timeout and user agent.
// Redirects are followed up to maxRedirects; a chain that comes back to a URL
// it already visited fails with ErrRedirectLoop.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			for _, prev := range via {
				if prev.URL.String() == req.URL.String() {
					return fmt.Errorf("%w: %s", ErrRedirectLoop, req.URL)
				}
			}
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
	return &HTTPFetcher{client: client, timeout: timeout, userAgent: userAgent}
}

// Fetch performs a GET request. The request timeout covers reading the body,
// so the timer is released when the body is closed.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	reqCtx, cancel := ctx, context.CancelFunc(func() {})
	if f.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, f.timeout)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		cancel()
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		cancel()
		return nil, &TransportError{URL: rawURL, Err: err}
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        &cancelOnClose{ReadCloser: resp.Body, cancel: cancel},
	}, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	defer c.cancel()
	if err := c.ReadCloser.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}
	return nil
}

// IsSuccess reports whether code is a 2xx status.
func IsSuccess(code int) bool {
	return code >= 200 && code <= 299
}
