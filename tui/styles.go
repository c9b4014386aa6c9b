package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lukemcguire/linky/crawler"
	"github.com/lukemcguire/linky/result"
)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true)
	successStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	warnStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	categoryStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	dimStyle         = lipgloss.NewStyle().Faint(true)
	urlStyle         = lipgloss.NewStyle()
	statusErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// FormatEvent renders the persistent line for an event. Checking events are
// transient and return false.
func FormatEvent(evt crawler.CrawlEvent) (string, bool) {
	switch evt.Kind {
	case crawler.EventOK:
		return urlStyle.Render(evt.URL) + " " + successStyle.Render(fmt.Sprintf("[%d]", evt.StatusCode)), true
	case crawler.EventError:
		detail := evt.Detail
		if detail == "" {
			detail = fmt.Sprintf("%d", evt.StatusCode)
		}
		return urlStyle.Render(evt.URL) + " " + errorStyle.Render("["+detail+"]"), true
	case crawler.EventParseWarning:
		return urlStyle.Render(evt.URL) + "\n" + warnStyle.Render("\tUnable to parse HTML.") + " " + dimStyle.Render(evt.Detail), true
	default:
		return "", false
	}
}

// RenderSummary produces a Lip Gloss styled summary of crawl results.
func RenderSummary(res *result.Result) string {
	if res == nil {
		return errorStyle.Render("No results available.")
	}

	var builder strings.Builder

	if len(res.BrokenLinks) == 0 {
		builder.WriteString(successStyle.Render("No broken links found!"))
		builder.WriteString("\n")
		builder.WriteString(dimStyle.Render(fmt.Sprintf(
			"Checked %d URLs in %d rounds (%s)",
			res.Stats.TotalChecked,
			res.Stats.Rounds,
			res.Stats.Duration.Round(1_000_000), // round to ms
		)))
		builder.WriteString("\n")
		return builder.String()
	}

	grouped := result.GroupByCategory(res.BrokenLinks)

	for _, cat := range result.CategoryOrder {
		links := grouped[cat]
		if len(links) == 0 {
			continue
		}

		builder.WriteString(categoryStyle.Render(fmt.Sprintf("## %s (%d)", result.FormatCategory(cat), len(links))))
		builder.WriteString("\n")

		rows := make([][]string, 0, len(links))
		for _, link := range links {
			status := fmt.Sprintf("%d", link.StatusCode)
			if link.Error != "" {
				status = link.Error
			}
			source := link.SourcePage
			if source == "" {
				source = "(start)"
			}
			rows = append(rows, []string{link.URL, status, source})
		}

		catTable := table.New().
			Border(lipgloss.RoundedBorder()).
			Headers("URL", "Status", "Found On").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				if col == 1 { // Status column
					return statusErrorStyle
				}
				return urlStyle
			}).
			Rows(rows...)

		builder.WriteString(catTable.Render())
		builder.WriteString("\n\n")
	}

	builder.WriteString(titleStyle.Render(fmt.Sprintf(
		"Found %d broken links out of %d URLs checked in %d rounds (%s)",
		res.Stats.BrokenCount,
		res.Stats.TotalChecked,
		res.Stats.Rounds,
		res.Stats.Duration.Round(1_000_000),
	)))
	builder.WriteString("\n")

	if res.Stats.ParseWarnings > 0 {
		builder.WriteString(warnStyle.Render(fmt.Sprintf("%d pages could not be parsed", res.Stats.ParseWarnings)))
		builder.WriteString("\n")
	}

	return builder.String()
}
