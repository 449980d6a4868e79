package scrape

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/helixml/factual/domain/article"
)

// DefaultArticleTimeout bounds a single article fetch.
const DefaultArticleTimeout = 15 * time.Second

// ArticleFetcher downloads a page and extracts its paragraph text and
// metadata. It never returns an error; failures become article.Failed.
type ArticleFetcher struct {
	client      *http.Client
	agents      UserAgents
	readability bool
	logger      *slog.Logger
}

// ArticleOption configures an ArticleFetcher.
type ArticleOption func(*ArticleFetcher)

// WithArticleTimeout sets the per-fetch timeout.
func WithArticleTimeout(d time.Duration) ArticleOption {
	return func(f *ArticleFetcher) {
		if d > 0 {
			f.client = &http.Client{Timeout: d, Transport: f.client.Transport}
		}
	}
}

// WithArticleClient sets the HTTP client, including its timeout.
func WithArticleClient(c *http.Client) ArticleOption {
	return func(f *ArticleFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithArticleUserAgents sets the User-Agent pool.
func WithArticleUserAgents(agents UserAgents) ArticleOption {
	return func(f *ArticleFetcher) { f.agents = agents }
}

// WithReadability toggles the readability fallback used when a page has no
// paragraph text.
func WithReadability(enabled bool) ArticleOption {
	return func(f *ArticleFetcher) { f.readability = enabled }
}

// WithArticleLogger sets the logger.
func WithArticleLogger(l *slog.Logger) ArticleOption {
	return func(f *ArticleFetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewArticleFetcher creates an ArticleFetcher.
func NewArticleFetcher(opts ...ArticleOption) *ArticleFetcher {
	f := &ArticleFetcher{
		client:      &http.Client{Timeout: DefaultArticleTimeout},
		agents:      NewUserAgents(nil),
		readability: true,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch implements article.Fetcher.
func (f *ArticleFetcher) Fetch(ctx context.Context, rawURL string) article.Result {
	body, err := get(ctx, f.client, rawURL, f.agents.Random())
	if err != nil {
		f.logger.Debug("article fetch failed", slog.String("url", rawURL), slog.Any("error", err))
		return article.Failed(err)
	}

	result, err := Extract(body, rawURL, f.readability)
	if err != nil {
		f.logger.Debug("article parse failed", slog.String("url", rawURL), slog.Any("error", err))
		return article.Failed(err)
	}
	return result
}

// Extract parses an HTML document into an article result. The body is the
// text of every <p> joined by single spaces; when there is none and
// fallback is set, readability extracts the main text instead.
func Extract(html []byte, pageURL string, fallback bool) (article.Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return article.Result{}, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		if t := strings.Join(strings.Fields(sel.Text()), " "); t != "" {
			paragraphs = append(paragraphs, t)
		}
	})
	body := strings.Join(paragraphs, " ")

	metadata := extractMetadata(doc)

	if body == "" && fallback {
		body = readable(html, pageURL)
	}
	return article.Succeeded(body, metadata), nil
}

func readable(html []byte, pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	parsed, err := readability.FromReader(bytes.NewReader(html), u)
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(parsed.TextContent), " ")
}

func extractMetadata(doc *goquery.Document) article.Metadata {
	var published, modified []string
	var description, keywords string
	doc.Find("meta").Each(func(_ int, sel *goquery.Selection) {
		content, _ := sel.Attr("content")
		if prop, ok := sel.Attr("property"); ok {
			prop = strings.ToLower(strings.TrimSpace(prop))
			switch {
			case strings.Contains(prop, "published"):
				published = append(published, content)
			case strings.Contains(prop, "modified"):
				modified = append(modified, content)
			}
		}
		if name, ok := sel.Attr("name"); ok {
			switch strings.ToLower(strings.TrimSpace(name)) {
			case "description":
				if description == "" {
					description = content
				}
			case "keywords":
				if keywords == "" {
					keywords = content
				}
			}
		}
	})

	var authors []string
	doc.Find("[class]").Each(func(_ int, sel *goquery.Selection) {
		class, _ := sel.Attr("class")
		class = strings.ToLower(class)
		if !strings.Contains(class, "author") && !strings.Contains(class, "writer") && !strings.Contains(class, "journalist") {
			return
		}
		if t := strings.Join(strings.Fields(sel.Text()), " "); t != "" {
			authors = append(authors, t)
		}
	})

	return article.NewMetadata(
		article.WithTitle(strings.TrimSpace(doc.Find("title").First().Text())),
		article.WithHeadings(texts(doc.Find("h1"))),
		article.WithSubheadings(texts(doc.Find("h2"))),
		article.WithPublished(published),
		article.WithModified(modified),
		article.WithDescription(description),
		article.WithKeywords(keywords),
		article.WithAuthors(authors),
	)
}

func texts(sel *goquery.Selection) []string {
	var out []string
	sel.Each(func(_ int, s *goquery.Selection) {
		if t := strings.Join(strings.Fields(s.Text()), " "); t != "" {
			out = append(out, t)
		}
	})
	return out
}

var _ article.Fetcher = (*ArticleFetcher)(nil)
