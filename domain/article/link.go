// Package article holds the value types that flow through retrieval:
// queries, candidate links and fetched articles.
package article

import (
	"net/url"
	"strings"
)

// Source identifies where a candidate link was discovered.
type Source string

// Source values.
const (
	SourceWeb  Source = "web"
	SourceFeed Source = "feed"
)

// Link is a candidate evidence source extracted from search results.
type Link struct {
	text   string
	url    string
	source Source
}

// NewLink creates a Link. Surrounding whitespace in text is collapsed.
func NewLink(text, rawURL string, source Source) Link {
	return Link{
		text:   strings.Join(strings.Fields(text), " "),
		url:    strings.TrimSpace(rawURL),
		source: source,
	}
}

// Text returns the display text of the link.
func (l Link) Text() string { return l.text }

// URL returns the absolute URL.
func (l Link) URL() string { return l.url }

// Source returns the discovering source.
func (l Link) Source() Source { return l.source }

// Host returns the lowercased host of the URL, or "" if it does not parse.
func (l Link) Host() string {
	u, err := url.Parse(l.url)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Dedupe removes links with a URL already seen, keeping first occurrences
// in order.
func Dedupe(links []Link) []Link {
	seen := make(map[string]struct{}, len(links))
	out := make([]Link, 0, len(links))
	for _, l := range links {
		if l.url == "" {
			continue
		}
		if _, ok := seen[l.url]; ok {
			continue
		}
		seen[l.url] = struct{}{}
		out = append(out, l)
	}
	return out
}

// Without returns the links whose URL differs from rawURL.
func Without(links []Link, rawURL string) []Link {
	out := make([]Link, 0, len(links))
	for _, l := range links {
		if l.url == rawURL {
			continue
		}
		out = append(out, l)
	}
	return out
}
