package scrape

import (
	"context"
	"log/slog"

	"github.com/helixml/factual/domain/article"
)

// MultiSource queries several link sources in order and merges their
// results, keeping the first occurrence of every URL.
type MultiSource struct {
	sources []article.LinkSource
	logger  *slog.Logger
}

// NewMultiSource creates a MultiSource. A nil logger uses slog.Default().
func NewMultiSource(logger *slog.Logger, sources ...article.LinkSource) *MultiSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiSource{sources: sources, logger: logger}
}

// Search implements article.LinkSource. A failing source contributes
// nothing; only context cancellation is returned.
func (m *MultiSource) Search(ctx context.Context, query string) ([]article.Link, error) {
	var all []article.Link
	for _, src := range m.sources {
		if err := ctx.Err(); err != nil {
			return article.Dedupe(all), err
		}
		links, err := src.Search(ctx, query)
		if err != nil {
			m.logger.Warn("link source failed", slog.Any("error", err))
			continue
		}
		all = append(all, links...)
	}
	return article.Dedupe(all), nil
}

var _ article.LinkSource = (*MultiSource)(nil)
