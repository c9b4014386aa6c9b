package result

import (
	"fmt"
	"io"
)

// PrintResults writes broken link details, grouped by category, and a
// summary to w.
func PrintResults(w io.Writer, res *Result) {
	writef := func(format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

	if len(res.BrokenLinks) == 0 {
		writef("No broken links found!\n")
	} else {
		grouped := GroupByCategory(res.BrokenLinks)
		first := true
		for _, cat := range CategoryOrder {
			links := grouped[cat]
			if len(links) == 0 {
				continue
			}
			if !first {
				writef("\n")
			}
			first = false

			writef("%s (%d):\n", FormatCategory(cat), len(links))
			for _, link := range links {
				writef("  URL: %s\n", link.URL)
				if link.Error != "" {
					writef("  Error: %s\n", link.Error)
				} else {
					writef("  Status: %d\n", link.StatusCode)
				}
				if link.SourcePage != "" {
					writef("  Found on: %s\n", link.SourcePage)
				}
			}
		}
	}
	writef("Checked %d URLs in %d rounds, found %d broken links\n",
		res.Stats.TotalChecked, res.Stats.Rounds, res.Stats.BrokenCount)
	if res.Stats.ParseWarnings > 0 {
		writef("%d pages could not be parsed\n", res.Stats.ParseWarnings)
	}
}
