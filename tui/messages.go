package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lukemcguire/linky/crawler"
	"github.com/lukemcguire/linky/result"
)

// CrawlEventMsg carries one crawler event into the Bubble Tea loop.
type CrawlEventMsg struct {
	Event crawler.CrawlEvent
}

// eventsClosedMsg signals that the crawler closed its event channel.
type eventsClosedMsg struct{}

// CrawlDoneMsg signals the crawl has completed.
type CrawlDoneMsg struct {
	Result *result.Result
	Err    error
}

// waitForEvent returns a tea.Cmd that reads one event from the channel.
func waitForEvent(ch <-chan crawler.CrawlEvent) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return CrawlEventMsg{Event: evt}
	}
}
