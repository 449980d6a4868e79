package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/helixml/factual/domain/article"
)

// Search defaults.
const (
	DefaultSearchBaseURL = "https://www.google.com/search"
	DefaultSearchPages   = 3
	resultsPerPage       = 10
)

// WebSearch scrapes links from web search result pages.
type WebSearch struct {
	renderer Renderer
	baseURL  string
	pages    int
	agents   UserAgents
	filter   HostFilter
	logger   *slog.Logger
}

// WebSearchOption configures a WebSearch.
type WebSearchOption func(*WebSearch)

// WithBaseURL sets the search endpoint.
func WithBaseURL(u string) WebSearchOption {
	return func(s *WebSearch) {
		if u != "" {
			s.baseURL = u
		}
	}
}

// WithPages sets how many result pages are requested.
func WithPages(n int) WebSearchOption {
	return func(s *WebSearch) {
		if n > 0 {
			s.pages = n
		}
	}
}

// WithUserAgents sets the User-Agent pool.
func WithUserAgents(agents UserAgents) WebSearchOption {
	return func(s *WebSearch) { s.agents = agents }
}

// WithHostFilter sets the excluded host filter.
func WithHostFilter(f HostFilter) WebSearchOption {
	return func(s *WebSearch) { s.filter = f }
}

// WithSearchLogger sets the logger.
func WithSearchLogger(l *slog.Logger) WebSearchOption {
	return func(s *WebSearch) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewWebSearch creates a WebSearch that loads pages through renderer.
func NewWebSearch(renderer Renderer, opts ...WebSearchOption) *WebSearch {
	s := &WebSearch{
		renderer: renderer,
		baseURL:  DefaultSearchBaseURL,
		pages:    DefaultSearchPages,
		agents:   NewUserAgents(nil),
		filter:   NewHostFilter(nil),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns the deduplicated article links found on up to the
// configured number of result pages. Pagination stops at the first page
// that fails or adds nothing new; links gathered so far are kept.
func (s *WebSearch) Search(ctx context.Context, query string) ([]article.Link, error) {
	escaped := EscapeQuery(query)
	if escaped == "" {
		return []article.Link{}, nil
	}

	var links []article.Link
	seen := map[string]struct{}{}
	for page := range s.pages {
		if ctx.Err() != nil {
			break
		}
		pageURL := s.PageURL(escaped, page)
		html, err := s.renderer.Render(ctx, pageURL, s.agents.Random())
		if err != nil {
			s.logger.Warn("search page failed", slog.String("url", pageURL), slog.Any("error", err))
			break
		}
		found, err := ParseResultLinks(html, s.filter)
		if err != nil {
			s.logger.Warn("search page unparseable", slog.String("url", pageURL), slog.Any("error", err))
			break
		}

		added := 0
		for _, l := range found {
			if _, ok := seen[l.URL()]; ok {
				continue
			}
			seen[l.URL()] = struct{}{}
			links = append(links, l)
			added++
		}
		s.logger.Debug("search page parsed", slog.Int("page", page), slog.Int("links", added))
		if added == 0 {
			break
		}
	}

	return article.Dedupe(links), nil
}

// PageURL returns the result page URL for an escaped query.
func (s *WebSearch) PageURL(escaped string, page int) string {
	return fmt.Sprintf("%s?q=%s&start=%d", s.baseURL, escaped, page*resultsPerPage)
}

// EscapeQuery replaces every run of characters outside [a-zA-Z0-9] with a
// single separator and joins the remaining words with "+".
func EscapeQuery(q string) string {
	words := strings.FieldsFunc(q, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	return strings.Join(words, "+")
}

// ParseResultLinks extracts candidate links from a result page. Redirect
// hrefs of the form /url?q=<target>&... are unwrapped, other relative hrefs
// are skipped and hosts rejected by filter are dropped.
func ParseResultLinks(html string, filter HostFilter) ([]article.Link, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse result page: %w", err)
	}

	var links []article.Link
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		target, ok := resolveHref(href)
		if !ok || !filter.Allowed(target) {
			return
		}
		links = append(links, article.NewLink(sel.Text(), target, article.SourceWeb))
	})
	return article.Dedupe(links), nil
}

func resolveHref(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	if strings.HasPrefix(href, "/url?") {
		u, err := url.Parse(href)
		if err != nil {
			return "", false
		}
		target := u.Query().Get("q")
		if target == "" {
			target = u.Query().Get("url")
		}
		return target, target != ""
	}
	u, err := url.Parse(href)
	if err != nil || !u.IsAbs() {
		return "", false
	}
	return href, true
}

var _ article.LinkSource = (*WebSearch)(nil)
