// Package cache stores fetched articles by URL.
package cache

import (
	"context"

	"github.com/helixml/factual/domain/article"
)

// Store persists article entries by URL.
type Store interface {
	Get(ctx context.Context, url string) (Entry, bool, error)
	Set(ctx context.Context, url string, entry Entry) error
	Close() error
}

// Entry is the stored form of a successful article fetch.
type Entry struct {
	Body        string   `json:"body"`
	Title       string   `json:"title,omitempty"`
	Headings    []string `json:"headings,omitempty"`
	Subheadings []string `json:"subheadings,omitempty"`
	Published   []string `json:"published,omitempty"`
	Modified    []string `json:"modified,omitempty"`
	Description string   `json:"description,omitempty"`
	Keywords    string   `json:"keywords,omitempty"`
	Authors     []string `json:"authors,omitempty"`
}

// NewEntry captures a result.
func NewEntry(r article.Result) Entry {
	md := r.Metadata()
	return Entry{
		Body:        r.Body(),
		Title:       md.Title(),
		Headings:    md.Headings(),
		Subheadings: md.Subheadings(),
		Published:   md.Published(),
		Modified:    md.Modified(),
		Description: md.Description(),
		Keywords:    md.Keywords(),
		Authors:     md.Authors(),
	}
}

// Result restores the article result.
func (e Entry) Result() article.Result {
	return article.Succeeded(e.Body, article.NewMetadata(
		article.WithTitle(e.Title),
		article.WithHeadings(e.Headings),
		article.WithSubheadings(e.Subheadings),
		article.WithPublished(e.Published),
		article.WithModified(e.Modified),
		article.WithDescription(e.Description),
		article.WithKeywords(e.Keywords),
		article.WithAuthors(e.Authors),
	))
}
