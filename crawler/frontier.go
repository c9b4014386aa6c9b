package crawler

import (
	"fmt"
	"sync"
)

// StateKind tags the variant held by a State.
type StateKind int

const (
	// StateUnvisited marks a discovered URL that has not been fetched yet.
	StateUnvisited StateKind = iota
	// StateVisited marks a URL that answered with an HTTP status.
	StateVisited
	// StateFailed marks a URL whose request never completed.
	StateFailed
)

// String returns the lower-case name of the kind.
func (k StateKind) String() string {
	switch k {
	case StateUnvisited:
		return "unvisited"
	case StateVisited:
		return "visited"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("StateKind(%d)", int(k))
	}
}

// State is the visit state of one frontier entry. StatusCode is set only for
// StateVisited and Reason only for StateFailed.
type State struct {
	Kind       StateKind
	StatusCode int
	Reason     string
}

// Unvisited returns the pending state.
func Unvisited() State { return State{Kind: StateUnvisited} }

// Visited returns the terminal state for a URL that answered with code.
func Visited(code int) State { return State{Kind: StateVisited, StatusCode: code} }

// Failed returns the terminal state for a URL whose transport failed.
func Failed(reason string) State { return State{Kind: StateFailed, Reason: reason} }

// Terminal reports whether the state can no longer change.
func (s State) Terminal() bool {
	return s.Kind != StateUnvisited
}

// Entry is a snapshot of one frontier key.
type Entry struct {
	URL    string
	Source string // Page on which the URL was first seen; empty for the seed
	State  State
}

type frontierEntry struct {
	state   State
	source  string
	claimed bool
}

// Frontier maps canonical URLs to their visit state. Keys are kept in
// first-seen order, which is the order Unvisited returns them in. All methods
// are safe for concurrent use.
type Frontier struct {
	mu      sync.Mutex
	order   []string
	entries map[string]*frontierEntry
	pending int
}

// NewFrontier creates a frontier holding exactly one unvisited entry.
func NewFrontier(seed string) *Frontier {
	f := &Frontier{entries: make(map[string]*frontierEntry)}
	f.Add(seed, "")
	return f
}

// Add inserts url as unvisited when it is not already present and reports
// whether it did. An existing entry is never touched, whatever its state.
func (f *Frontier) Add(url, source string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.entries[url]; ok {
		return false
	}
	f.entries[url] = &frontierEntry{state: Unvisited(), source: source}
	f.order = append(f.order, url)
	f.pending++
	return true
}

// Unvisited returns the unvisited, unclaimed keys in first-seen order. The
// slice is a copy: entries added afterwards are not part of it.
func (f *Frontier) Unvisited() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	urls := make([]string, 0, f.pending)
	for _, url := range f.order {
		e := f.entries[url]
		if e.state.Kind == StateUnvisited && !e.claimed {
			urls = append(urls, url)
		}
	}
	return urls
}

// Claim marks an unvisited url as being fetched. It returns false when the
// url is unknown, already terminal or claimed by someone else, so every URL
// is fetched at most once.
func (f *Frontier) Claim(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.entries[url]
	if !ok || e.state.Terminal() || e.claimed {
		return false
	}
	e.claimed = true
	return true
}

// Release gives back a claim on a url that was never fetched.
func (f *Frontier) Release(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if e, ok := f.entries[url]; ok && !e.state.Terminal() {
		e.claimed = false
	}
}

// MarkVisited records the status code a url answered with.
func (f *Frontier) MarkVisited(url string, code int) error {
	return f.resolve(url, Visited(code))
}

// MarkFailed records a transport failure for url.
func (f *Frontier) MarkFailed(url, reason string) error {
	return f.resolve(url, Failed(reason))
}

func (f *Frontier) resolve(url string, state State) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.entries[url]
	if !ok {
		return fmt.Errorf("resolve %s: not in frontier", url)
	}
	if e.state.Terminal() {
		return fmt.Errorf("resolve %s: already %s", url, e.state.Kind)
	}
	e.state = state
	e.claimed = false
	f.pending--
	return nil
}

// Get returns the state of url and whether it is present.
func (f *Frontier) Get(url string) (State, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.entries[url]
	if !ok {
		return State{}, false
	}
	return e.state, true
}

// Source returns the page on which url was first seen.
func (f *Frontier) Source(url string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if e, ok := f.entries[url]; ok {
		return e.source
	}
	return ""
}

// Len returns the number of keys.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.order)
}

// Pending returns the number of keys that are not terminal yet, claimed or
// not.
func (f *Frontier) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

// Entries returns a copy of every entry in first-seen order.
func (f *Frontier) Entries() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Entry, 0, len(f.order))
	for _, url := range f.order {
		e := f.entries[url]
		out = append(out, Entry{URL: url, Source: e.source, State: e.state})
	}
	return out
}
