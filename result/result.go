// Package result holds the outcome of a link check: broken links, their
// error categories, run statistics and the report writers.
package result

import "time"

// LinkResult represents a link that did not resolve with a 2xx status.
type LinkResult struct {
	URL           string        `json:"url"`                   // The URL that was checked
	StatusCode    int           `json:"status_code,omitempty"` // HTTP status code (0 if unreachable)
	Error         string        `json:"error,omitempty"`       // Transport error message
	ErrorCategory ErrorCategory `json:"error_type"`            // Category classification of the error
	SourcePage    string        `json:"source_page"`           // The page where this link was first found
	IsExternal    bool          `json:"is_external"`           // Whether this link points outside the crawled site
}

// CrawlStats contains aggregate statistics for a crawl operation.
type CrawlStats struct {
	TotalChecked  int           // URLs fetched (visited or failed)
	BrokenCount   int           // Number of broken links found
	ParseWarnings int           // HTML pages whose body could not be parsed
	Rounds        int           // Breadth-first rounds processed
	Duration      time.Duration // Total time taken for the crawl
}

// Result represents the complete output of a link check.
type Result struct {
	BrokenLinks []LinkResult // All broken links, in the order they were found
	Stats       CrawlStats   // Aggregate statistics
}

// HasBrokenLinks reports whether any link failed.
func (r *Result) HasBrokenLinks() bool {
	return r != nil && len(r.BrokenLinks) > 0
}
