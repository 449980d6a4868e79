// Package factual ranks news articles against a claim by topical similarity
// and sentiment agreement.
//
// A query (free text or an article URL) is searched on the web and in news
// feeds, the candidate articles are fetched concurrently, scored with
// TF-IDF cosine similarity and a sentiment classifier, and returned ranked.
//
// Basic usage:
//
//	client, err := factual.New(
//	    factual.WithHugot("/var/lib/factual/models"),
//	    factual.WithNewsFeeds("https://www.bing.com/news/search?format=rss&q=%s"),
//	    factual.WithMemoryCache(1024, time.Hour),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	ranked, err := client.Match.Check(ctx, "the central bank raised interest rates")
//	for _, r := range ranked.Records() {
//	    fmt.Println(r.URL(), match.Percent(r.Score()))
//	}
package factual

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/helixml/factual/application/service"
	"github.com/helixml/factual/domain/article"
	"github.com/helixml/factual/domain/sentiment"
	"github.com/helixml/factual/infrastructure/cache"
	"github.com/helixml/factual/infrastructure/fetch"
	"github.com/helixml/factual/infrastructure/provider"
	"github.com/helixml/factual/infrastructure/scrape"
	"github.com/helixml/factual/infrastructure/search"
	"github.com/helixml/factual/infrastructure/text"
)

// Client is the main entry point for the factual library.
//
//	client.Match.Check(ctx, "claim or https://article.example/url")
//	client.Match.Analyze(ctx, "claim")
type Client struct {
	Match *service.Match

	classifier sentiment.Classifier
	closers    []io.Closer

	logger *slog.Logger
	closed atomic.Bool
	mu     sync.Mutex
}

// New creates a new Client with the given options. The sentiment model is
// not loaded until first use; call Warm to load it eagerly.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		logger:  logger,
		closers: append([]io.Closer{}, cfg.closers...),
	}

	classifier, err := buildClassifier(cfg)
	if err != nil {
		return nil, err
	}
	c.classifier = classifier
	if closer, ok := classifier.(io.Closer); ok {
		c.closers = append(c.closers, closer)
	}

	agents := scrape.NewUserAgents(cfg.userAgents)
	filter := scrape.NewHostFilter(cfg.excludedHosts)
	normalizer := text.NewEnglish()

	fetcher := cfg.fetcher
	if fetcher == nil {
		fetcher = scrape.NewArticleFetcher(
			scrape.WithArticleTimeout(cfg.articleTimeout),
			scrape.WithArticleUserAgents(agents),
			scrape.WithReadability(cfg.readability),
			scrape.WithArticleLogger(logger),
		)
	}

	store, err := buildStore(cfg)
	if err != nil {
		_ = c.closeAll()
		return nil, err
	}
	if store != nil {
		c.closers = append(c.closers, store)
		fetcher = cache.NewFetcher(fetcher, store, logger)
	}

	source := cfg.source
	if source == nil {
		source = buildSource(cfg, normalizer, agents, filter, logger)
	}

	c.Match = service.NewMatch(
		normalizer,
		source,
		fetch.NewOrchestrator(fetcher, cfg.fetchConcurrency, logger),
		search.NewTFIDFScorer(),
		classifier,
		&c.closed,
		logger,
		service.WithBudget(cfg.budget),
	)

	return c, nil
}

func buildClassifier(cfg *clientConfig) (sentiment.Classifier, error) {
	if cfg.classifier != nil {
		return cfg.classifier, nil
	}

	switch cfg.sentiment {
	case sentimentRemote:
		rc := cfg.remoteConfig
		if rc.Endpoint == "" {
			return nil, fmt.Errorf("remote sentiment: %w: endpoint is required", sentiment.ErrUnavailable)
		}
		if rc.MaxLength == 0 {
			rc.MaxLength = cfg.maxLength
		}
		return provider.NewRemoteSentiment(rc), nil
	case sentimentOpenAI:
		oc := cfg.openAIConfig
		if oc.MaxLength == 0 {
			oc.MaxLength = cfg.maxLength
		}
		return provider.NewOpenAISentiment(oc), nil
	default:
		return provider.NewHugotSentiment(
			cfg.modelDir,
			provider.WithPositiveLabel(cfg.positiveLabel),
			provider.WithHugotMaxLength(cfg.maxLength),
		), nil
	}
}

func buildStore(cfg *clientConfig) (cache.Store, error) {
	if cfg.store != nil {
		return cfg.store, nil
	}

	switch cfg.cache {
	case cacheMemory:
		return cache.NewMemory(cfg.cacheSize, cfg.cacheTTL), nil
	case cacheRedis:
		store, err := cache.NewRedis(context.Background(), cfg.redisURL, cfg.cacheTTL)
		if err != nil {
			return nil, fmt.Errorf("article cache: %w", err)
		}
		return store, nil
	default:
		return nil, nil
	}
}

func buildSource(cfg *clientConfig, normalizer article.Normalizer, agents scrape.UserAgents, filter scrape.HostFilter, logger *slog.Logger) article.LinkSource {
	var renderer scrape.Renderer = scrape.NewHTTPRenderer(nil)
	if cfg.chrome {
		renderer = scrape.NewChromeRenderer(cfg.chromeURL, 0)
	}

	web := scrape.NewWebSearch(renderer,
		scrape.WithBaseURL(cfg.searchBaseURL),
		scrape.WithPages(cfg.searchPages),
		scrape.WithUserAgents(agents),
		scrape.WithHostFilter(filter),
		scrape.WithSearchLogger(logger),
	)
	if len(cfg.feeds) == 0 {
		return web
	}

	feeds := scrape.NewFeedSearch(cfg.feeds, normalizer,
		scrape.WithFeedUserAgents(agents),
		scrape.WithFeedHostFilter(filter),
		scrape.WithFeedLogger(logger),
	)
	return scrape.NewMultiSource(logger, web, feeds)
}

// Warm loads the sentiment model if the classifier supports eager loading.
func (c *Client) Warm() error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if w, ok := c.classifier.(interface{ Warm() error }); ok {
		return w.Warm()
	}
	return nil
}

// Ready reports whether the client is open and its classifier can serve.
// Classifiers that cannot report availability are assumed ready.
func (c *Client) Ready() bool {
	if c.closed.Load() {
		return false
	}
	if a, ok := c.classifier.(interface{ Available() bool }); ok {
		return a.Available()
	}
	return true
}

// Close releases the classifier, the article cache and any registered
// resources.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.closeAll(); err != nil {
		return err
	}
	c.logger.Info("factual client closed")
	return nil
}

func (c *Client) closeAll() error {
	var first error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
			if first == nil {
				first = err
			}
		}
	}
	c.closers = nil
	return first
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}
