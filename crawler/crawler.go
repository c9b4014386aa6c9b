// Package crawler checks every link reachable from a starting URL. It keeps a
// frontier of discovered URLs, fetches them round by round (breadth-first),
// expands internal HTML pages and streams outcome events to a display layer.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/lukemcguire/linky/result"
	"github.com/lukemcguire/linky/urlutil"
)

// DefaultUserAgent identifies linky to the sites it checks.
const DefaultUserAgent = "linky/1.0 (+https://github.com/lukemcguire/linky)"

// Config holds crawler configuration.
type Config struct {
	StartURL       string             // The starting URL for the crawl
	Recurse        bool               // Expand internal pages beyond the starting URL
	Verbose        bool               // Report successful checks, not only failures
	Concurrency    int                // Fetches in flight within one round (default 1)
	RequestTimeout time.Duration      // Per-request timeout (default 10s)
	UserAgent      string             // User-Agent header value
	RetryPolicy    RetryPolicy        // Retries for transient failures (default none)
	StrictOrigin   bool               // Compare scheme/host/port instead of a string prefix
	Fetcher        Fetcher            // Transport; defaults to an HTTPFetcher
	Logger         logrus.FieldLogger // Diagnostic log; discarded when nil
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(startURL string) Config {
	return Config{
		StartURL:       startURL,
		Concurrency:    1,
		RequestTimeout: 10 * time.Second,
		UserAgent:      DefaultUserAgent,
		RetryPolicy:    DefaultRetryPolicy(),
	}
}

// Crawler drives the round-based traversal of one site.
type Crawler struct {
	cfg     Config
	fetcher Fetcher
	log     logrus.FieldLogger
	events  chan<- CrawlEvent

	frontier *Frontier
	start    string // normalized starting URL
	root     string // authority of start

	mu            sync.Mutex
	broken        []result.LinkResult
	checked       int
	parseWarnings int
	rounds        int
}

// New creates a Crawler with the given configuration.
// The events parameter is optional; pass nil to disable progress events.
// Run closes events when it returns.
func New(cfg Config, events chan<- CrawlEvent) *Crawler {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	defaults := DefaultRetryPolicy()
	if cfg.RetryPolicy.BaseDelay <= 0 {
		cfg.RetryPolicy.BaseDelay = defaults.BaseDelay
	}
	if cfg.RetryPolicy.MaxDelay <= 0 {
		cfg.RetryPolicy.MaxDelay = defaults.MaxDelay
	}
	if cfg.Logger == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		cfg.Logger = logger
	}

	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = NewHTTPFetcher(cfg.RequestTimeout, cfg.UserAgent)
	}

	return &Crawler{
		cfg:     cfg,
		fetcher: WithRetry(fetcher, cfg.RetryPolicy),
		log:     cfg.Logger,
		events:  events,
	}
}

// Frontier returns the frontier of the current or last run, nil before Run.
func (c *Crawler) Frontier() *Frontier {
	return c.frontier
}

// Run crawls from cfg.StartURL until no unvisited URL remains and returns the
// broken links found. Per-URL failures never abort the run. When ctx is
// cancelled Run stops between fetches and returns the partial result along
// with an error wrapping ctx.Err().
func (c *Crawler) Run(ctx context.Context) (*result.Result, error) {
	if c.events != nil {
		defer close(c.events)
	}
	started := time.Now()

	start, err := urlutil.Normalize(c.cfg.StartURL, "")
	if err != nil {
		return nil, fmt.Errorf("normalize start URL: %w", err)
	}
	root, err := urlutil.Authority(start)
	if err != nil {
		return nil, fmt.Errorf("start URL: %w", err)
	}

	c.start, c.root = start, root
	c.frontier = NewFrontier(start)

	c.log.WithFields(logrus.Fields{
		"start":     start,
		"authority": root,
		"recurse":   c.cfg.Recurse,
	}).Info("crawl starting")

	for round := 1; ctx.Err() == nil; round++ {
		batch := c.frontier.Unvisited()
		if len(batch) == 0 {
			break
		}

		c.mu.Lock()
		c.rounds = round
		c.mu.Unlock()

		c.log.WithFields(logrus.Fields{"round": round, "urls": len(batch)}).Debug("round started")
		c.runRound(ctx, round, batch)
	}

	res := c.result(time.Since(started))
	c.log.WithFields(logrus.Fields{
		"checked":  res.Stats.TotalChecked,
		"broken":   res.Stats.BrokenCount,
		"rounds":   res.Stats.Rounds,
		"duration": res.Stats.Duration,
	}).Info("crawl finished")

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("crawl interrupted: %w", ctxErr)
	}
	return res, nil
}

// runRound visits every URL of a snapshot, sequentially or with up to
// cfg.Concurrency fetches in flight.
func (c *Crawler) runRound(ctx context.Context, round int, batch []string) {
	if c.cfg.Concurrency <= 1 {
		for _, u := range batch {
			if ctx.Err() != nil {
				return
			}
			c.visit(ctx, round, u)
		}
		return
	}

	var group errgroup.Group
	group.SetLimit(c.cfg.Concurrency)
	for _, u := range batch {
		if ctx.Err() != nil {
			break
		}
		group.Go(func() error {
			c.visit(ctx, round, u)
			return nil
		})
	}
	_ = group.Wait()
}

// visit fetches one URL, records its state and, when policy allows, adds the
// links of the page to the frontier.
func (c *Crawler) visit(ctx context.Context, round int, u string) {
	if !c.frontier.Claim(u) {
		return
	}
	internal := c.isInternal(u)

	checked, broken := c.counts()
	c.emit(ctx, CrawlEvent{
		URL:        u,
		Kind:       EventChecking,
		IsExternal: !internal,
		Round:      round,
		Checked:    checked,
		Broken:     broken,
	})

	resp, err := c.fetcher.Fetch(ctx, u)
	if err != nil {
		if ctx.Err() != nil {
			c.frontier.Release(u)
			return
		}
		c.recordFailure(ctx, round, u, internal, err)
		return
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.WithField("url", u).WithError(closeErr).Debug("close body")
		}
	}()

	if markErr := c.frontier.MarkVisited(u, resp.StatusCode); markErr != nil {
		c.log.WithError(markErr).Warn("frontier")
	}

	if !IsSuccess(resp.StatusCode) {
		c.recordStatus(ctx, round, u, internal, resp.StatusCode)
		return
	}
	c.recordOK(ctx, round, u, internal, resp.StatusCode)

	// The starting URL is always expanded so a non-recursive run still
	// checks its direct links.
	if !c.cfg.Recurse && u != c.start {
		return
	}
	if !internal || !IsHTML(resp.ContentType) {
		return
	}

	page, err := ParseHTML(resp.Body, resp.ContentType)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.recordParseWarning(ctx, round, u, internal, err)
		return
	}

	added := c.enqueue(u, page)
	c.log.WithFields(logrus.Fields{"url": u, "added": added}).Debug("page expanded")
}

// enqueue adds the follow-up links of page to the frontier and returns how
// many were new. An immediate meta refresh replaces the anchors entirely.
func (c *Crawler) enqueue(pageURL string, page *Page) int {
	var candidates []string
	if target, ok := page.MetaRefresh(); ok {
		candidates = []string{target}
	} else {
		candidates = page.Links()
	}

	added := 0
	for _, raw := range candidates {
		normalized, err := urlutil.Normalize(raw, c.root)
		if err != nil {
			continue
		}
		if c.frontier.Add(normalized, pageURL) {
			added++
		}
	}
	return added
}

func (c *Crawler) isInternal(u string) bool {
	if c.cfg.StrictOrigin {
		return urlutil.SameOrigin(u, c.root)
	}
	return urlutil.IsInternal(u, c.root)
}

func (c *Crawler) recordFailure(ctx context.Context, round int, u string, internal bool, fetchErr error) {
	reason := fetchErr.Error()
	if markErr := c.frontier.MarkFailed(u, reason); markErr != nil {
		c.log.WithError(markErr).Warn("frontier")
	}

	link := result.LinkResult{
		URL:           u,
		Error:         reason,
		ErrorCategory: result.ClassifyError(fetchErr, 0, errors.Is(fetchErr, ErrRedirectLoop)),
		SourcePage:    c.frontier.Source(u),
		IsExternal:    !internal,
	}
	c.log.WithFields(logrus.Fields{"url": u, "category": link.ErrorCategory}).WithError(fetchErr).Debug("transport failure")

	evt := c.record(CrawlEvent{
		URL:           u,
		Kind:          EventError,
		Detail:        reason,
		ErrorCategory: link.ErrorCategory,
		IsExternal:    !internal,
		Round:         round,
	}, &link)
	c.emit(ctx, evt)
}

func (c *Crawler) recordStatus(ctx context.Context, round int, u string, internal bool, code int) {
	link := result.LinkResult{
		URL:           u,
		StatusCode:    code,
		ErrorCategory: result.ClassifyError(nil, code, false),
		SourcePage:    c.frontier.Source(u),
		IsExternal:    !internal,
	}
	c.log.WithFields(logrus.Fields{"url": u, "status": code}).Debug("error status")

	evt := c.record(CrawlEvent{
		URL:           u,
		Kind:          EventError,
		StatusCode:    code,
		ErrorCategory: link.ErrorCategory,
		IsExternal:    !internal,
		Round:         round,
	}, &link)
	c.emit(ctx, evt)
}

func (c *Crawler) recordOK(ctx context.Context, round int, u string, internal bool, code int) {
	evt := c.record(CrawlEvent{
		URL:        u,
		Kind:       EventOK,
		StatusCode: code,
		IsExternal: !internal,
		Round:      round,
	}, nil)
	if c.cfg.Verbose {
		c.emit(ctx, evt)
	}
}

func (c *Crawler) recordParseWarning(ctx context.Context, round int, u string, internal bool, parseErr error) {
	c.mu.Lock()
	c.parseWarnings++
	checked, broken := c.checked, len(c.broken)
	c.mu.Unlock()

	c.log.WithField("url", u).WithError(parseErr).Warn("could not parse HTML")
	c.emit(ctx, CrawlEvent{
		URL:        u,
		Kind:       EventParseWarning,
		Detail:     parseErr.Error(),
		IsExternal: !internal,
		Round:      round,
		Checked:    checked,
		Broken:     broken,
	})
}

// record counts a resolved URL, keeps its broken-link entry if any and
// stamps evt with the running totals.
func (c *Crawler) record(evt CrawlEvent, link *result.LinkResult) CrawlEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.checked++
	if link != nil {
		c.broken = append(c.broken, *link)
	}
	evt.Checked = c.checked
	evt.Broken = len(c.broken)
	return evt
}

func (c *Crawler) counts() (checked, broken int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checked, len(c.broken)
}

// emit delivers evt unless nobody listens or the crawl was cancelled.
func (c *Crawler) emit(ctx context.Context, evt CrawlEvent) {
	if c.events == nil {
		return
	}
	select {
	case c.events <- evt:
	case <-ctx.Done():
	}
}

func (c *Crawler) result(elapsed time.Duration) *result.Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	brokenLinks := make([]result.LinkResult, len(c.broken))
	copy(brokenLinks, c.broken)

	return &result.Result{
		BrokenLinks: brokenLinks,
		Stats: result.CrawlStats{
			TotalChecked:  c.checked,
			BrokenCount:   len(brokenLinks),
			ParseWarnings: c.parseWarnings,
			Rounds:        c.rounds,
			Duration:      elapsed,
		},
	}
}
