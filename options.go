package factual

import (
	"io"
	"log/slog"
	"time"

	"github.com/helixml/factual/application/service"
	"github.com/helixml/factual/domain/article"
	"github.com/helixml/factual/domain/sentiment"
	"github.com/helixml/factual/infrastructure/cache"
	"github.com/helixml/factual/infrastructure/provider"
	"github.com/helixml/factual/internal/config"
)

// sentimentKind identifies the built-in classifier to construct.
type sentimentKind int

const (
	sentimentHugot sentimentKind = iota
	sentimentRemote
	sentimentOpenAI
)

// cacheKind identifies the article cache backend.
type cacheKind int

const (
	cacheNone cacheKind = iota
	cacheMemory
	cacheRedis
)

// clientConfig holds configuration for Client construction.
// Use newClientConfig() to create with defaults from internal/config.
type clientConfig struct {
	logger *slog.Logger

	sentiment     sentimentKind
	classifier    sentiment.Classifier
	modelDir      string
	positiveLabel string
	maxLength     int
	remoteConfig  provider.RemoteConfig
	openAIConfig  provider.OpenAIConfig

	source        article.LinkSource
	searchBaseURL string
	searchPages   int
	chrome        bool
	chromeURL     string
	feeds         []string
	userAgents    []string
	excludedHosts []string

	fetcher          article.Fetcher
	articleTimeout   time.Duration
	readability      bool
	fetchConcurrency int

	cache     cacheKind
	cacheSize int
	cacheTTL  time.Duration
	redisURL  string
	store     cache.Store

	budget  time.Duration
	closers []io.Closer
}

// newClientConfig creates a clientConfig with defaults from internal/config.
func newClientConfig() *clientConfig {
	return &clientConfig{
		sentiment:      sentimentHugot,
		modelDir:       config.DefaultModelDir(),
		positiveLabel:  config.DefaultSentimentLabel,
		maxLength:      config.DefaultSentimentMaxLength,
		searchBaseURL:  config.DefaultSearchBaseURL,
		searchPages:    config.DefaultSearchPages,
		articleTimeout: config.DefaultArticleTimeout,
		readability:    true,
		cacheSize:      config.DefaultArticleCacheSize,
		cacheTTL:       config.DefaultArticleCacheTTL,
		budget:         service.DefaultBudget,
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithHugot uses the local hugot classifier loaded from modelDir. This is
// the default. An empty modelDir keeps the default directory.
func WithHugot(modelDir string) Option {
	return func(c *clientConfig) {
		c.sentiment = sentimentHugot
		c.classifier = nil
		if modelDir != "" {
			c.modelDir = modelDir
		}
	}
}

// WithPositiveLabel sets the positive class label of the local model.
func WithPositiveLabel(label string) Option {
	return func(c *clientConfig) {
		if label != "" {
			c.positiveLabel = label
		}
	}
}

// WithSentimentMaxLength caps the tokens passed to the classifier.
func WithSentimentMaxLength(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.maxLength = n
		}
	}
}

// WithRemoteSentiment classifies through an external model API.
func WithRemoteSentiment(cfg provider.RemoteConfig) Option {
	return func(c *clientConfig) {
		c.sentiment = sentimentRemote
		c.classifier = nil
		c.remoteConfig = cfg
	}
}

// WithOpenAISentiment classifies through an OpenAI-compatible chat endpoint.
func WithOpenAISentiment(cfg provider.OpenAIConfig) Option {
	return func(c *clientConfig) {
		c.sentiment = sentimentOpenAI
		c.classifier = nil
		c.openAIConfig = cfg
	}
}

// WithClassifier sets a custom sentiment classifier, replacing the
// built-in providers.
func WithClassifier(cl sentiment.Classifier) Option {
	return func(c *clientConfig) {
		c.classifier = cl
	}
}

// WithLinkSource sets a custom candidate link source, replacing web
// search and news feeds.
func WithLinkSource(s article.LinkSource) Option {
	return func(c *clientConfig) {
		c.source = s
	}
}

// WithSearchBaseURL sets the web search endpoint.
func WithSearchBaseURL(u string) Option {
	return func(c *clientConfig) {
		if u != "" {
			c.searchBaseURL = u
		}
	}
}

// WithSearchPages sets how many result pages are requested.
func WithSearchPages(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.searchPages = n
		}
	}
}

// WithChromeRenderer loads result pages in a headless browser. An empty
// remoteURL launches a local browser per page.
func WithChromeRenderer(remoteURL string) Option {
	return func(c *clientConfig) {
		c.chrome = true
		c.chromeURL = remoteURL
	}
}

// WithNewsFeeds adds RSS/Atom feeds searched alongside the web. A feed
// URL containing %s is treated as a query template.
func WithNewsFeeds(feeds ...string) Option {
	return func(c *clientConfig) {
		c.feeds = append(c.feeds, feeds...)
	}
}

// WithUserAgents sets the User-Agent pool used for scraping.
func WithUserAgents(agents ...string) Option {
	return func(c *clientConfig) {
		c.userAgents = agents
	}
}

// WithExcludedHosts replaces the built-in excluded host patterns.
func WithExcludedHosts(patterns ...string) Option {
	return func(c *clientConfig) {
		c.excludedHosts = append([]string{}, patterns...)
	}
}

// WithFetcher sets a custom article fetcher.
func WithFetcher(f article.Fetcher) Option {
	return func(c *clientConfig) {
		c.fetcher = f
	}
}

// WithArticleTimeout sets the per-article fetch timeout.
func WithArticleTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		if d > 0 {
			c.articleTimeout = d
		}
	}
}

// WithReadability toggles the readability fallback extractor.
func WithReadability(enabled bool) Option {
	return func(c *clientConfig) {
		c.readability = enabled
	}
}

// WithFetchConcurrency caps concurrent article fetches. Zero means one
// per CPU.
func WithFetchConcurrency(n int) Option {
	return func(c *clientConfig) {
		if n >= 0 {
			c.fetchConcurrency = n
		}
	}
}

// WithMemoryCache caches fetched articles in an in-process LRU.
func WithMemoryCache(size int, ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.cache = cacheMemory
		if size > 0 {
			c.cacheSize = size
		}
		c.cacheTTL = ttl
	}
}

// WithRedisCache caches fetched articles in Redis.
func WithRedisCache(redisURL string, ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.cache = cacheRedis
		c.redisURL = redisURL
		c.cacheTTL = ttl
	}
}

// WithArticleStore caches fetched articles in a custom store. The client
// closes it on Close.
func WithArticleStore(s cache.Store) Option {
	return func(c *clientConfig) {
		c.store = s
	}
}

// WithBudget sets the wall-clock budget for a whole request: search,
// retrieval and classification. Zero disables it.
func WithBudget(d time.Duration) Option {
	return func(c *clientConfig) {
		if d >= 0 {
			c.budget = d
		}
	}
}

// WithCloser registers a resource closed with the client.
func WithCloser(closer io.Closer) Option {
	return func(c *clientConfig) {
		c.closers = append(c.closers, closer)
	}
}
