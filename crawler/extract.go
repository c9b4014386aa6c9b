package crawler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// maxBodyBytes caps how much of a page is read for link extraction.
const maxBodyBytes = 10 << 20

// Page is a parsed HTML document.
type Page struct {
	doc *goquery.Document
}

// ParseHTML decodes body to UTF-8 using the charset from contentType (or the
// document's own <meta charset>) and parses it as HTML.
func ParseHTML(body io.Reader, contentType string) (*Page, error) {
	utf8Body, err := charset.NewReader(io.LimitReader(body, maxBodyBytes), contentType)
	switch {
	case errors.Is(err, io.EOF):
		// An empty body is a valid document without links.
		utf8Body = strings.NewReader("")
	case err != nil:
		return nil, fmt.Errorf("decode body: %w", err)
	}

	root, err := html.Parse(utf8Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	return &Page{doc: goquery.NewDocumentFromNode(root)}, nil
}

// Links returns the raw href of every anchor in document order. Duplicates
// and empty values are kept; normalization is the caller's job.
func (p *Page) Links() []string {
	var links []string
	p.doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		links = append(links, href)
	})
	return links
}

// MetaRefresh returns the target of the first immediate
// <meta http-equiv="refresh" content="0; url=..."> tag. Delayed refreshes and
// refreshes without a URL are ignored.
func (p *Page) MetaRefresh() (string, bool) {
	var target string
	found := false
	p.doc.Find("meta[http-equiv]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		equiv, _ := sel.Attr("http-equiv")
		if !strings.EqualFold(strings.TrimSpace(equiv), "refresh") {
			return true
		}
		content, _ := sel.Attr("content")
		delay, refreshURL, ok := ParseRefresh(content)
		if !ok || delay != 0 || refreshURL == "" {
			return true
		}
		target, found = refreshURL, true
		return false
	})
	return target, found
}

// ParseRefresh splits a refresh content value such as `0; url=/next` into its
// delay in seconds and target URL. The "url=" label is optional and matched
// case-insensitively; surrounding quotes on the URL are removed.
func ParseRefresh(content string) (delay int, refreshURL string, ok bool) {
	content = strings.TrimSpace(content)
	if content == "" {
		return 0, "", false
	}

	// Some sites separate with a comma: "0, url=/next".
	delayPart, rest := content, ""
	if sep := strings.IndexAny(content, ";,"); sep >= 0 {
		delayPart, rest = content[:sep], content[sep+1:]
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(delayPart), 64)
	if err != nil || seconds < 0 {
		return 0, "", false
	}

	rest = strings.TrimSpace(rest)
	if len(rest) >= 4 && strings.EqualFold(rest[:3], "url") {
		if after, found := strings.CutPrefix(strings.TrimSpace(rest[3:]), "="); found {
			rest = strings.TrimSpace(after)
		}
	}
	rest = strings.Trim(rest, `"'`)

	return int(seconds), rest, true
}

// IsHTML reports whether a Content-Type header denotes an HTML document.
func IsHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.HasPrefix(mediaType, "text/html") || mediaType == "application/xhtml+xml"
}
