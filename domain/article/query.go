package article

import (
	"context"
	"net/url"
	"strings"
)

// Query is the raw text or URL submitted by a caller.
type Query struct {
	raw string
}

// NewQuery creates a Query from raw input.
func NewQuery(raw string) Query {
	return Query{raw: strings.TrimSpace(raw)}
}

// Raw returns the trimmed input.
func (q Query) Raw() string { return q.raw }

// Empty reports whether the query has no content.
func (q Query) Empty() bool { return q.raw == "" }

// IsURL reports whether the query is an absolute http(s) URL.
func (q Query) IsURL() bool {
	if strings.ContainsAny(q.raw, " \t\n") {
		return false
	}
	u, err := url.Parse(q.raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Normalizer turns text into an ordered token sequence.
type Normalizer interface {
	Normalize(text string) []string
}

// LinkSource discovers candidate links for a free-text query.
type LinkSource interface {
	Search(ctx context.Context, query string) ([]Link, error)
}

// Fetcher retrieves the plain-text body of a single URL. It never returns
// an error; failures are carried in the Result.
type Fetcher interface {
	Fetch(ctx context.Context, url string) Result
}
