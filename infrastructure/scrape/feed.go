package scrape

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/helixml/factual/domain/article"
)

// DefaultWrapperHosts are aggregators whose feed items link to an
// interstitial page rather than the article itself.
var DefaultWrapperHosts = []string{"news.google.com"}

// FeedSearch discovers candidate links from RSS and Atom news feeds.
//
// A feed URL containing "%s" is a search template: the escaped query is
// substituted and every item is a candidate. Other feeds are pulled as-is
// and only items whose title shares a token with the query are kept.
//
// Items linking through a wrapper host are resolved by following the
// link's redirects. Items that still point at the wrapper are dropped.
type FeedSearch struct {
	client     *http.Client
	feeds      []string
	normalizer article.Normalizer
	agents     UserAgents
	filter     HostFilter
	wrappers   map[string]struct{}
	logger     *slog.Logger
}

// FeedOption configures a FeedSearch.
type FeedOption func(*FeedSearch)

// WithFeedClient sets the HTTP client.
func WithFeedClient(c *http.Client) FeedOption {
	return func(s *FeedSearch) {
		if c != nil {
			s.client = c
		}
	}
}

// WithFeedUserAgents sets the User-Agent pool.
func WithFeedUserAgents(agents UserAgents) FeedOption {
	return func(s *FeedSearch) { s.agents = agents }
}

// WithFeedHostFilter sets the excluded host filter.
func WithFeedHostFilter(f HostFilter) FeedOption {
	return func(s *FeedSearch) { s.filter = f }
}

// WithFeedWrapperHosts replaces the hosts whose item links are resolved
// before use.
func WithFeedWrapperHosts(hosts ...string) FeedOption {
	return func(s *FeedSearch) {
		s.wrappers = hostSet(hosts)
	}
}

// WithFeedLogger sets the logger.
func WithFeedLogger(l *slog.Logger) FeedOption {
	return func(s *FeedSearch) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewFeedSearch creates a FeedSearch over the given feed URLs.
func NewFeedSearch(feeds []string, normalizer article.Normalizer, opts ...FeedOption) *FeedSearch {
	s := &FeedSearch{
		client:     &http.Client{Timeout: 15 * time.Second},
		feeds:      feeds,
		normalizer: normalizer,
		agents:     NewUserAgents(nil),
		filter:     NewHostFilter(nil),
		wrappers:   hostSet(DefaultWrapperHosts),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns the deduplicated links from every feed. Feeds that fail
// to load or parse are logged and skipped.
func (s *FeedSearch) Search(ctx context.Context, query string) ([]article.Link, error) {
	escaped := EscapeQuery(query)
	if escaped == "" {
		return []article.Link{}, nil
	}
	keywords := map[string]struct{}{}
	for _, tok := range s.normalizer.Normalize(query) {
		keywords[tok] = struct{}{}
	}

	parser := gofeed.NewParser()
	var links []article.Link
	for _, feedURL := range s.feeds {
		if ctx.Err() != nil {
			break
		}
		templated := strings.Contains(feedURL, "%s")
		target := feedURL
		if templated {
			target = strings.ReplaceAll(feedURL, "%s", escaped)
		}

		body, err := get(ctx, s.client, target, s.agents.Random())
		if err != nil {
			s.logger.Warn("feed fetch failed", slog.String("url", target), slog.Any("error", err))
			continue
		}
		feed, err := parser.ParseString(string(body))
		if err != nil {
			s.logger.Warn("feed parse failed", slog.String("url", target), slog.Any("error", err))
			continue
		}

		for _, item := range feed.Items {
			if item == nil {
				continue
			}
			if !templated && !s.overlaps(item.Title, keywords) {
				continue
			}
			link := UnwrapRedirect(item.Link)
			if s.wrapped(link) {
				resolved, ok := s.resolve(ctx, link)
				if !ok {
					s.logger.Debug("feed item unresolved", slog.String("url", link))
					continue
				}
				link = resolved
			}
			if !s.filter.Allowed(link) {
				continue
			}
			links = append(links, article.NewLink(item.Title, link, article.SourceFeed))
		}
	}

	return article.Dedupe(links), nil
}

func (s *FeedSearch) overlaps(title string, keywords map[string]struct{}) bool {
	for _, tok := range s.normalizer.Normalize(title) {
		if _, ok := keywords[tok]; ok {
			return true
		}
	}
	return false
}

func (s *FeedSearch) wrapped(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	if _, ok := s.wrappers[strings.ToLower(u.Host)]; ok {
		return true
	}
	_, ok := s.wrappers[strings.ToLower(u.Hostname())]
	return ok
}

// resolve follows the redirects of a wrapper link and returns where they
// end. It fails when the chain ends on a wrapper host or in an error.
func (s *FeedSearch) resolve(ctx context.Context, link string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("User-Agent", s.agents.Random())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", false
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	_ = resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return "", false
	}

	if resp.Request == nil || resp.Request.URL == nil {
		return "", false
	}
	final := UnwrapRedirect(resp.Request.URL.String())
	if s.wrapped(final) {
		return "", false
	}
	return final, true
}

func hostSet(hosts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			set[h] = struct{}{}
		}
	}
	return set
}

// UnwrapRedirect returns the target of a redirect link carrying the
// destination in a "url" or "q" query parameter, or the link unchanged.
func UnwrapRedirect(link string) string {
	link = strings.TrimSpace(link)
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	for _, key := range []string{"url", "q"} {
		v := u.Query().Get(key)
		if t, err := url.Parse(v); err == nil && t.IsAbs() && (t.Scheme == "http" || t.Scheme == "https") {
			return v
		}
	}
	return link
}

var _ article.LinkSource = (*FeedSearch)(nil)
