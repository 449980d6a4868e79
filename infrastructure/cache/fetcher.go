package cache

import (
	"context"
	"log/slog"

	"github.com/helixml/factual/domain/article"
)

// Fetcher serves article fetches from a Store, delegating misses to the
// wrapped fetcher. Only successful results with content are stored.
type Fetcher struct {
	inner  article.Fetcher
	store  Store
	logger *slog.Logger
}

// NewFetcher wraps inner with store.
func NewFetcher(inner article.Fetcher, store Store, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{inner: inner, store: store, logger: logger}
}

// Fetch implements article.Fetcher. Store errors are logged and treated
// as misses.
func (f *Fetcher) Fetch(ctx context.Context, url string) article.Result {
	entry, ok, err := f.store.Get(ctx, url)
	if err != nil {
		f.logger.Warn("article cache read failed", slog.String("url", url), slog.Any("error", err))
	}
	if ok {
		return entry.Result()
	}

	result := f.inner.Fetch(ctx, url)
	if !result.HasContent() {
		return result
	}
	if err := f.store.Set(ctx, url, NewEntry(result)); err != nil {
		f.logger.Warn("article cache write failed", slog.String("url", url), slog.Any("error", err))
	}
	return result
}

var _ article.Fetcher = (*Fetcher)(nil)
