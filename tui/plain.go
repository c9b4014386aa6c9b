package tui

import (
	"fmt"
	"io"

	"github.com/lukemcguire/linky/crawler"
)

// PrintEvents writes the persistent line of every event to w until events
// is closed. Used when output is not a terminal.
func PrintEvents(w io.Writer, events <-chan crawler.CrawlEvent) {
	for evt := range events {
		if line, ok := FormatEvent(evt); ok {
			_, _ = fmt.Fprintln(w, line)
		}
	}
}
