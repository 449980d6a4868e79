package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Nested structs use underscore delimiter (e.g., SENTIMENT_ENDPOINT_BASE_URL).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// CORSAllowedOrigins is a comma-separated list of allowed origins.
	// Env: CORS_ALLOWED_ORIGINS (default: *)
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// PipelineTimeout is the whole-request budget in seconds, classification included.
	// Zero disables the budget.
	// Env: PIPELINE_TIMEOUT (default: 45)
	PipelineTimeout float64 `envconfig:"PIPELINE_TIMEOUT" default:"45"`

	// FetchConcurrency caps concurrent article fetches. Zero means one per CPU.
	// Env: FETCH_CONCURRENCY (default: 0)
	FetchConcurrency int `envconfig:"FETCH_CONCURRENCY" default:"0"`

	// Search configures the web search source.
	Search SearchEnv `envconfig:"SEARCH"`

	// NewsFeeds is a comma-separated list of RSS/Atom feed URLs. A URL
	// containing %s is treated as a query template.
	// Env: NEWS_FEEDS
	NewsFeeds string `envconfig:"NEWS_FEEDS"`

	// Article configures article retrieval.
	Article ArticleEnv `envconfig:"ARTICLE"`

	// RedisURL is the Redis connection URL used by the redis article cache.
	// Env: REDIS_URL
	RedisURL string `envconfig:"REDIS_URL"`

	// ScrapeProfile is the path to a YAML file overriding user agents,
	// excluded hosts and feeds.
	// Env: SCRAPE_PROFILE
	ScrapeProfile string `envconfig:"SCRAPE_PROFILE"`

	// Sentiment configures the sentiment classifier.
	Sentiment SentimentEnv `envconfig:"SENTIMENT"`
}

// SearchEnv holds web search configuration.
type SearchEnv struct {
	// BaseURL is the search endpoint.
	// Env: SEARCH_BASE_URL
	BaseURL string `envconfig:"BASE_URL" default:"https://www.google.com/search"`

	// Pages is the number of result pages requested.
	// Env: SEARCH_PAGES (default: 3)
	Pages int `envconfig:"PAGES" default:"3"`

	// Renderer is http or chrome.
	// Env: SEARCH_RENDERER (default: http)
	Renderer string `envconfig:"RENDERER" default:"http"`

	// ChromeURL is the DevTools websocket URL of a running browser. Empty
	// launches a local headless browser when the renderer is chrome.
	// Env: SEARCH_CHROME_URL
	ChromeURL string `envconfig:"CHROME_URL"`
}

// ArticleEnv holds article retrieval configuration.
type ArticleEnv struct {
	// Timeout is the per-article fetch timeout in seconds.
	// Env: ARTICLE_TIMEOUT (default: 15)
	Timeout float64 `envconfig:"TIMEOUT" default:"15"`

	// Readability enables the readability fallback extractor.
	// Env: ARTICLE_READABILITY (default: true)
	Readability bool `envconfig:"READABILITY" default:"true"`

	// Cache is none, memory or redis.
	// Env: ARTICLE_CACHE (default: none)
	Cache string `envconfig:"CACHE" default:"none"`

	// CacheSize is the in-memory cache capacity.
	// Env: ARTICLE_CACHE_SIZE (default: 1024)
	CacheSize int `envconfig:"CACHE_SIZE" default:"1024"`

	// CacheTTL is how long cached articles live, in seconds.
	// Env: ARTICLE_CACHE_TTL (default: 3600)
	CacheTTL float64 `envconfig:"CACHE_TTL" default:"3600"`
}

// SentimentEnv holds sentiment classifier configuration.
type SentimentEnv struct {
	// Provider is hugot, remote or openai.
	// Env: SENTIMENT_PROVIDER (default: hugot)
	Provider string `envconfig:"PROVIDER" default:"hugot"`

	// ModelDir is the local model directory.
	// Env: SENTIMENT_MODEL_DIR
	// Default: ~/.factual/models
	ModelDir string `envconfig:"MODEL_DIR"`

	// MaxLength is the number of model positions (words for remote models)
	// passed to the classifier.
	// Env: SENTIMENT_MAX_LENGTH (default: 128)
	MaxLength int `envconfig:"MAX_LENGTH" default:"128"`

	// PositiveLabel is the positive class label of the local model.
	// Env: SENTIMENT_POSITIVE_LABEL (default: POSITIVE)
	PositiveLabel string `envconfig:"POSITIVE_LABEL" default:"POSITIVE"`

	// Endpoint configures the remote or OpenAI classifier.
	Endpoint EndpointEnv `envconfig:"ENDPOINT"`
}

// EndpointEnv holds HTTP classifier endpoint configuration.
type EndpointEnv struct {
	// BaseURL is the endpoint URL.
	// Env: SENTIMENT_ENDPOINT_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the model identifier (openai only).
	// Env: SENTIMENT_ENDPOINT_MODEL
	Model string `envconfig:"MODEL"`

	// APIKey is the bearer token for the endpoint.
	// Env: SENTIMENT_ENDPOINT_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Timeout is the request timeout in seconds.
	// Env: SENTIMENT_ENDPOINT_TIMEOUT (default: 30)
	Timeout float64 `envconfig:"TIMEOUT" default:"30"`

	// MaxRetries is the maximum number of retries.
	// Env: SENTIMENT_ENDPOINT_MAX_RETRIES (default: 5)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"5"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: SENTIMENT_ENDPOINT_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: SENTIMENT_ENDPOINT_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
// For example, prefix "FACTUAL" would require FACTUAL_PORT instead of PORT.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	cfg = applyOption(cfg, WithHost(e.Host))
	cfg = applyOption(cfg, WithPort(e.Port))
	cfg = applyOption(cfg, WithLogLevel(e.LogLevel))
	cfg = applyOption(cfg, WithLogFormat(parseLogFormat(e.LogFormat)))
	cfg = applyOption(cfg, WithCORSAllowedOrigins(ParseList(e.CORSAllowedOrigins)))
	cfg = applyOption(cfg, WithPipelineTimeout(seconds(e.PipelineTimeout)))
	cfg = applyOption(cfg, WithFetchConcurrency(e.FetchConcurrency))

	if e.Search.BaseURL != "" {
		cfg = applyOption(cfg, WithSearchBaseURL(e.Search.BaseURL))
	}
	cfg = applyOption(cfg, WithSearchPages(e.Search.Pages))
	cfg = applyOption(cfg, WithSearchRenderer(parseRenderer(e.Search.Renderer)))
	cfg = applyOption(cfg, WithSearchChromeURL(e.Search.ChromeURL))

	cfg = applyOption(cfg, WithNewsFeeds(ParseList(e.NewsFeeds)))

	cfg = applyOption(cfg, WithArticleTimeout(seconds(e.Article.Timeout)))
	cfg = applyOption(cfg, WithArticleReadability(e.Article.Readability))
	cfg = applyOption(cfg, WithArticleCache(parseCacheBackend(e.Article.Cache)))
	cfg = applyOption(cfg, WithArticleCacheSize(e.Article.CacheSize))
	cfg = applyOption(cfg, WithArticleCacheTTL(seconds(e.Article.CacheTTL)))
	cfg = applyOption(cfg, WithRedisURL(e.RedisURL))
	cfg = applyOption(cfg, WithScrapeProfile(e.ScrapeProfile))

	cfg = applyOption(cfg, WithSentimentProvider(parseSentimentProvider(e.Sentiment.Provider)))
	if e.Sentiment.ModelDir != "" {
		cfg = applyOption(cfg, WithSentimentModelDir(e.Sentiment.ModelDir))
	}
	cfg = applyOption(cfg, WithSentimentMaxLength(e.Sentiment.MaxLength))
	if e.Sentiment.PositiveLabel != "" {
		cfg = applyOption(cfg, WithSentimentPositiveLabel(e.Sentiment.PositiveLabel))
	}
	cfg = applyOption(cfg, WithSentimentEndpoint(e.Sentiment.Endpoint.ToEndpoint()))

	return cfg
}

// applyOption applies a single option to the config.
func applyOption(cfg AppConfig, opt AppConfigOption) AppConfig {
	opt(&cfg)
	return cfg
}

// IsConfigured returns true if the endpoint has a base URL.
func (e EndpointEnv) IsConfigured() bool {
	return e.BaseURL != ""
}

// ToEndpoint converts EndpointEnv to Endpoint.
func (e EndpointEnv) ToEndpoint() Endpoint {
	opts := []EndpointOption{
		WithModel(e.Model),
		WithTimeout(seconds(e.Timeout)),
		WithMaxRetries(e.MaxRetries),
		WithInitialDelay(seconds(e.InitialDelay)),
		WithBackoffFactor(e.BackoffFactor),
	}
	if e.BaseURL != "" {
		opts = append(opts, WithBaseURL(e.BaseURL))
	}
	if e.APIKey != "" {
		opts = append(opts, WithAPIKey(e.APIKey))
	}
	return NewEndpointWithOptions(opts...)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}

func parseRenderer(s string) Renderer {
	switch strings.ToLower(s) {
	case "chrome", "chromedp", "browser":
		return RendererChrome
	default:
		return RendererHTTP
	}
}

func parseCacheBackend(s string) CacheBackend {
	switch strings.ToLower(s) {
	case "memory", "lru":
		return CacheMemory
	case "redis":
		return CacheRedis
	default:
		return CacheNone
	}
}

func parseSentimentProvider(s string) SentimentProvider {
	switch strings.ToLower(s) {
	case "remote", "http":
		return SentimentRemote
	case "openai":
		return SentimentOpenAI
	default:
		return SentimentHugot
	}
}
