// Package tui renders crawl progress: a Bubble Tea live view for terminals,
// a plain line printer for pipes, and a styled summary of results.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lukemcguire/linky/crawler"
	"github.com/lukemcguire/linky/result"
)

// Runner is the part of crawler.Crawler the model drives.
type Runner interface {
	Run(ctx context.Context) (*result.Result, error)
}

// Model is the Bubble Tea model for the crawl TUI. The URL being checked is
// shown on a single live line; failures, warnings and (in verbose mode)
// successes are printed above it and stay on screen.
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	runner  Runner
	spinner spinner.Model
	events  <-chan crawler.CrawlEvent

	checked      int
	broken       int
	warnings     int
	round        int
	current      string
	quitting     bool
	streamClosed bool
	done         bool
	result       *result.Result
	err          error
	width        int
}

// NewModel creates a TUI model wired to the given crawler and event channel.
func NewModel(ctx context.Context, cancel context.CancelFunc, runner Runner, events <-chan crawler.CrawlEvent) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		ctx:     ctx,
		cancel:  cancel,
		runner:  runner,
		spinner: spin,
		events:  events,
	}
}

// Init starts the spinner, crawl, and event listener concurrently.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startCrawl(), waitForEvent(m.events))
}

// startCrawl returns a tea.Cmd that runs the crawler and sends CrawlDoneMsg.
func (m Model) startCrawl() tea.Cmd {
	return func() tea.Msg {
		res, err := m.runner.Run(m.ctx)
		if err != nil {
			err = fmt.Errorf("crawl: %w", err)
		}
		return CrawlDoneMsg{Result: res, Err: err}
	}
}

// Update handles messages from the Bubble Tea runtime.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case CrawlEventMsg:
		return m.handleEvent(msg.Event)

	case eventsClosedMsg:
		m.streamClosed = true
		return m, m.quitWhenFinished()

	case CrawlDoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, m.quitWhenFinished()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleEvent(evt crawler.CrawlEvent) (tea.Model, tea.Cmd) {
	m.checked = evt.Checked
	m.broken = evt.Broken
	m.round = evt.Round

	switch evt.Kind {
	case crawler.EventChecking:
		m.current = evt.URL
	case crawler.EventParseWarning:
		m.warnings++
	}

	next := waitForEvent(m.events)
	if line, ok := FormatEvent(evt); ok {
		return m, tea.Sequence(tea.Println(line), next)
	}
	return m, next
}

// quitWhenFinished quits once the crawl returned and every event was shown.
func (m Model) quitWhenFinished() tea.Cmd {
	if m.done && m.streamClosed {
		return tea.Quit
	}
	return nil
}

// View renders the current TUI state.
func (m Model) View() string {
	if m.done && m.streamClosed {
		if m.result != nil {
			summary := RenderSummary(m.result)
			if m.err != nil {
				summary += errorStyle.Render("Error: "+m.err.Error()) + "\n"
			}
			return summary
		}
		if m.err != nil {
			return errorStyle.Render("Error: "+m.err.Error()) + "\n"
		}
	}
	if m.quitting {
		return dimStyle.Render("Cancelled.") + "\n"
	}

	current := m.current
	if m.width > 10 && len(current) > m.width-10 {
		current = current[:m.width-10] + "..."
	}
	return fmt.Sprintf("%s Round %d · checked %d, broken %d\n%s\n",
		m.spinner.View(), m.round, m.checked, m.broken,
		dimStyle.Render("  "+current))
}

// HasBrokenLinks reports whether the crawl found any broken links.
func (m Model) HasBrokenLinks() bool {
	return m.result.HasBrokenLinks()
}

// GetResult returns the crawl result for output formatting.
func (m Model) GetResult() *result.Result {
	return m.result
}

// Err returns the error the crawl ended with, if any.
func (m Model) Err() error {
	return m.err
}
