package crawler

import "github.com/lukemcguire/linky/result"

// EventKind classifies a CrawlEvent.
type EventKind int

const (
	// EventChecking is sent before a URL is fetched.
	EventChecking EventKind = iota
	// EventOK reports a 2xx response. Only sent in verbose mode.
	EventOK
	// EventError reports a transport failure or a non-2xx status.
	EventError
	// EventParseWarning reports an HTML page whose body could not be read.
	EventParseWarning
)

// String returns a short label for the kind.
func (k EventKind) String() string {
	switch k {
	case EventChecking:
		return "checking"
	case EventOK:
		return "ok"
	case EventError:
		return "error"
	case EventParseWarning:
		return "parse-warning"
	default:
		return "unknown"
	}
}

// CrawlEvent reports one outcome for a single URL.
type CrawlEvent struct {
	URL           string
	Kind          EventKind
	StatusCode    int    // HTTP status; 0 for transport failures and warnings
	Detail        string // Transport error message or parse failure
	ErrorCategory result.ErrorCategory
	IsExternal    bool
	Round         int
	Checked       int // URLs resolved so far
	Broken        int // Broken links found so far
}
