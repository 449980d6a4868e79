// Package fetch retrieves many articles concurrently.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/helixml/factual/domain/article"
)

// Orchestrator fans article fetches out over a bounded number of
// goroutines and waits for all of them.
type Orchestrator struct {
	fetcher article.Fetcher
	limit   int
	logger  *slog.Logger
}

// NewOrchestrator creates an Orchestrator. A limit of zero or less uses
// runtime.NumCPU(); a nil logger uses slog.Default().
func NewOrchestrator(fetcher article.Fetcher, limit int, logger *slog.Logger) *Orchestrator {
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{fetcher: fetcher, limit: limit, logger: logger}
}

// Limit returns the maximum number of concurrent fetches.
func (o *Orchestrator) Limit() int { return o.limit }

// FetchAll fetches every link and returns one entry per link, in input
// order. A failed, panicking or cancelled fetch yields an article.Failed
// result for its slot and never affects the others.
func (o *Orchestrator) FetchAll(ctx context.Context, links []article.Link) []article.Fetched {
	results := make([]article.Fetched, len(links))

	var g errgroup.Group
	g.SetLimit(o.limit)
	for i, link := range links {
		g.Go(func() error {
			results[i] = article.NewFetched(link, o.fetchOne(ctx, link))
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (o *Orchestrator) fetchOne(ctx context.Context, link article.Link) (result article.Result) {
	if err := ctx.Err(); err != nil {
		return article.Failed(err)
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("article fetch panicked", slog.String("url", link.URL()), slog.Any("panic", r))
			result = article.Failed(fmt.Errorf("fetch panicked: %v", r))
		}
	}()
	return o.fetcher.Fetch(ctx, link.URL())
}
