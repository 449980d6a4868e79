// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost                  = "0.0.0.0"
	DefaultPort                  = 8080
	DefaultLogLevel              = "INFO"
	DefaultPipelineTimeout       = 45 * time.Second
	DefaultSearchBaseURL         = "https://www.google.com/search"
	DefaultSearchPages           = 3
	DefaultArticleTimeout        = 15 * time.Second
	DefaultArticleCacheSize      = 1024
	DefaultArticleCacheTTL       = time.Hour
	DefaultSentimentMaxLength    = 128
	DefaultSentimentLabel        = "POSITIVE"
	DefaultSentimentModel        = "KnightsAnalytics/distilbert-base-uncased-finetuned-sst-2-english"
	DefaultEndpointTimeout       = 30 * time.Second
	DefaultEndpointMaxRetries    = 5
	DefaultEndpointInitialDelay  = 2 * time.Second
	DefaultEndpointBackoffFactor = 2.0
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Renderer selects how search result pages are loaded.
type Renderer string

// Renderer values.
const (
	RendererHTTP   Renderer = "http"
	RendererChrome Renderer = "chrome"
)

// CacheBackend selects where fetched articles are cached.
type CacheBackend string

// CacheBackend values.
const (
	CacheNone   CacheBackend = "none"
	CacheMemory CacheBackend = "memory"
	CacheRedis  CacheBackend = "redis"
)

// SentimentProvider selects the sentiment classifier.
type SentimentProvider string

// SentimentProvider values.
const (
	SentimentHugot  SentimentProvider = "hugot"
	SentimentRemote SentimentProvider = "remote"
	SentimentOpenAI SentimentProvider = "openai"
)

// Endpoint configures an HTTP sentiment service.
type Endpoint struct {
	baseURL       string
	model         string
	apiKey        string
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// NewEndpoint creates a new Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		timeout:       DefaultEndpointTimeout,
		maxRetries:    DefaultEndpointMaxRetries,
		initialDelay:  DefaultEndpointInitialDelay,
		backoffFactor: DefaultEndpointBackoffFactor,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// IsConfigured returns true if the endpoint has a base URL.
func (e Endpoint) IsConfigured() bool {
	return e.baseURL != ""
}

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithModel sets the model.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) { e.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.timeout = d }
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) { e.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoffFactor sets the retry backoff multiplier.
func WithBackoffFactor(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoffFactor = f }
}

// NewEndpointWithOptions creates an Endpoint with functional options.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host                   string
	port                   int
	logLevel               string
	logFormat              LogFormat
	corsAllowedOrigins     []string
	pipelineTimeout        time.Duration
	fetchConcurrency       int
	searchBaseURL          string
	searchPages            int
	searchRenderer         Renderer
	searchChromeURL        string
	newsFeeds              []string
	articleTimeout         time.Duration
	articleReadability     bool
	articleCache           CacheBackend
	articleCacheSize       int
	articleCacheTTL        time.Duration
	redisURL               string
	scrapeProfile          string
	userAgents             []string
	excludedHosts          []string
	sentimentProvider      SentimentProvider
	sentimentModelDir      string
	sentimentMaxLength     int
	sentimentPositiveLabel string
	sentimentEndpoint      Endpoint
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".factual"
	}
	return filepath.Join(home, ".factual")
}

// DefaultModelDir returns the default sentiment model directory.
func DefaultModelDir() string {
	return filepath.Join(DefaultDataDir(), "models")
}

// DefaultLogger returns the default slog logger for library consumers.
func DefaultLogger() *slog.Logger {
	return slog.Default()
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	return AppConfig{
		host:                   DefaultHost,
		port:                   DefaultPort,
		logLevel:               DefaultLogLevel,
		logFormat:              LogFormatPretty,
		corsAllowedOrigins:     []string{"*"},
		pipelineTimeout:        DefaultPipelineTimeout,
		searchBaseURL:          DefaultSearchBaseURL,
		searchPages:            DefaultSearchPages,
		searchRenderer:         RendererHTTP,
		articleTimeout:         DefaultArticleTimeout,
		articleReadability:     true,
		articleCache:           CacheNone,
		articleCacheSize:       DefaultArticleCacheSize,
		articleCacheTTL:        DefaultArticleCacheTTL,
		sentimentProvider:      SentimentHugot,
		sentimentModelDir:      DefaultModelDir(),
		sentimentMaxLength:     DefaultSentimentMaxLength,
		sentimentPositiveLabel: DefaultSentimentLabel,
		sentimentEndpoint:      NewEndpoint(),
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// CORSAllowedOrigins returns the origins allowed to call the API.
func (c AppConfig) CORSAllowedOrigins() []string { return copyList(c.corsAllowedOrigins) }

// PipelineTimeout returns the end-to-end budget per request.
func (c AppConfig) PipelineTimeout() time.Duration { return c.pipelineTimeout }

// FetchConcurrency returns the maximum concurrent article fetches. Zero
// means one per CPU.
func (c AppConfig) FetchConcurrency() int { return c.fetchConcurrency }

// SearchBaseURL returns the search endpoint.
func (c AppConfig) SearchBaseURL() string { return c.searchBaseURL }

// SearchPages returns the number of result pages requested.
func (c AppConfig) SearchPages() int { return c.searchPages }

// SearchRenderer returns how result pages are loaded.
func (c AppConfig) SearchRenderer() Renderer { return c.searchRenderer }

// SearchChromeURL returns the DevTools endpoint of a running browser.
func (c AppConfig) SearchChromeURL() string { return c.searchChromeURL }

// NewsFeeds returns the RSS/Atom feeds searched alongside the web.
func (c AppConfig) NewsFeeds() []string { return copyList(c.newsFeeds) }

// ArticleTimeout returns the per-article fetch timeout.
func (c AppConfig) ArticleTimeout() time.Duration { return c.articleTimeout }

// ArticleReadability reports whether the readability fallback is enabled.
func (c AppConfig) ArticleReadability() bool { return c.articleReadability }

// ArticleCache returns the article cache backend.
func (c AppConfig) ArticleCache() CacheBackend { return c.articleCache }

// ArticleCacheSize returns the in-memory cache capacity.
func (c AppConfig) ArticleCacheSize() int { return c.articleCacheSize }

// ArticleCacheTTL returns how long cached articles live.
func (c AppConfig) ArticleCacheTTL() time.Duration { return c.articleCacheTTL }

// RedisURL returns the Redis connection URL.
func (c AppConfig) RedisURL() string { return c.redisURL }

// ScrapeProfile returns the path of the YAML scrape profile.
func (c AppConfig) ScrapeProfile() string { return c.scrapeProfile }

// UserAgents returns the User-Agent pool. Empty means the built-in pool.
func (c AppConfig) UserAgents() []string { return copyList(c.userAgents) }

// ExcludedHosts returns the excluded host patterns. Nil means the
// built-in list.
func (c AppConfig) ExcludedHosts() []string {
	if c.excludedHosts == nil {
		return nil
	}
	return copyList(c.excludedHosts)
}

// SentimentProvider returns the selected classifier.
func (c AppConfig) SentimentProvider() SentimentProvider { return c.sentimentProvider }

// SentimentModelDir returns the local model directory.
func (c AppConfig) SentimentModelDir() string { return c.sentimentModelDir }

// SentimentMaxLength returns the word cap applied to classifier input.
func (c AppConfig) SentimentMaxLength() int { return c.sentimentMaxLength }

// SentimentPositiveLabel returns the positive class label of the local model.
func (c AppConfig) SentimentPositiveLabel() string { return c.sentimentPositiveLabel }

// SentimentEndpoint returns the remote or OpenAI endpoint config.
func (c AppConfig) SentimentEndpoint() Endpoint { return c.sentimentEndpoint }

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithCORSAllowedOrigins sets the allowed CORS origins.
func WithCORSAllowedOrigins(origins []string) AppConfigOption {
	return func(c *AppConfig) { c.corsAllowedOrigins = copyList(origins) }
}

// WithPipelineTimeout sets the per-request budget.
func WithPipelineTimeout(d time.Duration) AppConfigOption {
	return func(c *AppConfig) { c.pipelineTimeout = d }
}

// WithFetchConcurrency sets the fetch concurrency limit.
func WithFetchConcurrency(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n >= 0 {
			c.fetchConcurrency = n
		}
	}
}

// WithSearchBaseURL sets the search endpoint.
func WithSearchBaseURL(u string) AppConfigOption {
	return func(c *AppConfig) { c.searchBaseURL = u }
}

// WithSearchPages sets the number of result pages.
func WithSearchPages(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.searchPages = n
		}
	}
}

// WithSearchRenderer sets how result pages are loaded.
func WithSearchRenderer(r Renderer) AppConfigOption {
	return func(c *AppConfig) { c.searchRenderer = r }
}

// WithSearchChromeURL sets the DevTools endpoint of a running browser.
func WithSearchChromeURL(u string) AppConfigOption {
	return func(c *AppConfig) { c.searchChromeURL = u }
}

// WithNewsFeeds sets the news feeds.
func WithNewsFeeds(feeds []string) AppConfigOption {
	return func(c *AppConfig) { c.newsFeeds = copyList(feeds) }
}

// WithArticleTimeout sets the per-article timeout.
func WithArticleTimeout(d time.Duration) AppConfigOption {
	return func(c *AppConfig) { c.articleTimeout = d }
}

// WithArticleReadability toggles the readability fallback.
func WithArticleReadability(enabled bool) AppConfigOption {
	return func(c *AppConfig) { c.articleReadability = enabled }
}

// WithArticleCache sets the cache backend.
func WithArticleCache(b CacheBackend) AppConfigOption {
	return func(c *AppConfig) { c.articleCache = b }
}

// WithArticleCacheSize sets the in-memory cache capacity.
func WithArticleCacheSize(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.articleCacheSize = n
		}
	}
}

// WithArticleCacheTTL sets the cache TTL.
func WithArticleCacheTTL(d time.Duration) AppConfigOption {
	return func(c *AppConfig) { c.articleCacheTTL = d }
}

// WithRedisURL sets the Redis URL.
func WithRedisURL(u string) AppConfigOption {
	return func(c *AppConfig) { c.redisURL = u }
}

// WithScrapeProfile sets the scrape profile path.
func WithScrapeProfile(path string) AppConfigOption {
	return func(c *AppConfig) { c.scrapeProfile = path }
}

// WithUserAgents sets the User-Agent pool.
func WithUserAgents(agents []string) AppConfigOption {
	return func(c *AppConfig) { c.userAgents = copyList(agents) }
}

// WithExcludedHosts sets the excluded host patterns.
func WithExcludedHosts(hosts []string) AppConfigOption {
	return func(c *AppConfig) { c.excludedHosts = copyList(hosts) }
}

// WithSentimentProvider sets the classifier.
func WithSentimentProvider(p SentimentProvider) AppConfigOption {
	return func(c *AppConfig) { c.sentimentProvider = p }
}

// WithSentimentModelDir sets the local model directory.
func WithSentimentModelDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.sentimentModelDir = dir }
}

// WithSentimentMaxLength sets the classifier word cap.
func WithSentimentMaxLength(n int) AppConfigOption {
	return func(c *AppConfig) {
		if n > 0 {
			c.sentimentMaxLength = n
		}
	}
}

// WithSentimentPositiveLabel sets the positive class label.
func WithSentimentPositiveLabel(label string) AppConfigOption {
	return func(c *AppConfig) { c.sentimentPositiveLabel = label }
}

// WithSentimentEndpoint sets the remote or OpenAI endpoint.
func WithSentimentEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.sentimentEndpoint = e }
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
// This copies all fields from the receiver and then applies the options,
// making it safe to use when adding new fields to AppConfig.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// Secrets are omitted.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("addr", c.Addr()),
		slog.String("log_level", c.logLevel),
		slog.Duration("pipeline_timeout", c.pipelineTimeout),
		slog.Int("fetch_concurrency", c.fetchConcurrency),
		slog.String("search_base_url", c.searchBaseURL),
		slog.Int("search_pages", c.searchPages),
		slog.String("search_renderer", string(c.searchRenderer)),
		slog.Int("news_feeds", len(c.newsFeeds)),
		slog.Duration("article_timeout", c.articleTimeout),
		slog.String("article_cache", string(c.articleCache)),
		slog.String("redis_url", c.maskedRedisURL()),
		slog.String("sentiment_provider", string(c.sentimentProvider)),
		slog.String("sentiment_model_dir", c.sentimentModelDir),
		slog.String("sentiment_endpoint", c.endpointBaseURL()),
		slog.Bool("sentiment_api_key_set", c.sentimentEndpoint.APIKey() != ""),
	}
}

func (c AppConfig) maskedRedisURL() string {
	if c.redisURL == "" {
		return "(not configured)"
	}
	return "redis://***@***"
}

func (c AppConfig) endpointBaseURL() string {
	if !c.sentimentEndpoint.IsConfigured() {
		return "(not configured)"
	}
	return c.sentimentEndpoint.BaseURL()
}

// ParseList parses a comma-separated list, dropping blank entries.
func ParseList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func copyList(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
