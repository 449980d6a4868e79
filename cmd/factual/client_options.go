package main

import (
	"fmt"
	"log/slog"

	"github.com/helixml/factual"
	"github.com/helixml/factual/infrastructure/provider"
	"github.com/helixml/factual/internal/config"
)

// clientOptions returns the factual.Option slice derived from AppConfig.
// Callers append entrypoint-specific options before passing the slice to
// factual.New.
func clientOptions(cfg config.AppConfig, logger *slog.Logger) ([]factual.Option, error) {
	opts := []factual.Option{
		factual.WithLogger(logger),
		factual.WithBudget(cfg.PipelineTimeout()),
		factual.WithFetchConcurrency(cfg.FetchConcurrency()),
		factual.WithArticleTimeout(cfg.ArticleTimeout()),
		factual.WithReadability(cfg.ArticleReadability()),
	}

	sentimentOpts, err := sentimentOptions(cfg)
	if err != nil {
		return nil, fmt.Errorf("sentiment config: %w", err)
	}
	opts = append(opts, sentimentOpts...)
	opts = append(opts, searchOptions(cfg)...)

	cacheOpts, err := cacheOptions(cfg)
	if err != nil {
		return nil, fmt.Errorf("cache config: %w", err)
	}
	opts = append(opts, cacheOpts...)

	return opts, nil
}

// sentimentOptions selects the classifier. Remote providers need an
// endpoint base URL.
func sentimentOptions(cfg config.AppConfig) ([]factual.Option, error) {
	opts := []factual.Option{factual.WithSentimentMaxLength(cfg.SentimentMaxLength())}
	endpoint := cfg.SentimentEndpoint()

	switch cfg.SentimentProvider() {
	case config.SentimentRemote:
		if !endpoint.IsConfigured() {
			return nil, fmt.Errorf("provider %q requires SENTIMENT_ENDPOINT_BASE_URL", config.SentimentRemote)
		}
		opts = append(opts, factual.WithRemoteSentiment(provider.RemoteConfig{
			Endpoint:  endpoint.BaseURL(),
			APIKey:    endpoint.APIKey(),
			Timeout:   endpoint.Timeout(),
			MaxLength: cfg.SentimentMaxLength(),
			Retry:     retryPolicy(endpoint),
		}))
	case config.SentimentOpenAI:
		if !endpoint.IsConfigured() {
			return nil, fmt.Errorf("provider %q requires SENTIMENT_ENDPOINT_BASE_URL", config.SentimentOpenAI)
		}
		opts = append(opts, factual.WithOpenAISentiment(provider.OpenAIConfig{
			APIKey:    endpoint.APIKey(),
			BaseURL:   endpoint.BaseURL(),
			Model:     endpoint.Model(),
			Timeout:   endpoint.Timeout(),
			MaxLength: cfg.SentimentMaxLength(),
			Retry:     retryPolicy(endpoint),
		}))
	default:
		opts = append(opts,
			factual.WithHugot(cfg.SentimentModelDir()),
			factual.WithPositiveLabel(cfg.SentimentPositiveLabel()),
		)
	}
	return opts, nil
}

func retryPolicy(endpoint config.Endpoint) provider.RetryPolicy {
	return provider.RetryPolicy{
		MaxRetries:    endpoint.MaxRetries(),
		InitialDelay:  endpoint.InitialDelay(),
		BackoffFactor: endpoint.BackoffFactor(),
	}
}

// searchOptions configures link discovery and the scraping profile.
func searchOptions(cfg config.AppConfig) []factual.Option {
	opts := []factual.Option{
		factual.WithSearchBaseURL(cfg.SearchBaseURL()),
		factual.WithSearchPages(cfg.SearchPages()),
	}
	if cfg.SearchRenderer() == config.RendererChrome {
		opts = append(opts, factual.WithChromeRenderer(cfg.SearchChromeURL()))
	}
	if feeds := cfg.NewsFeeds(); len(feeds) > 0 {
		opts = append(opts, factual.WithNewsFeeds(feeds...))
	}
	if agents := cfg.UserAgents(); len(agents) > 0 {
		opts = append(opts, factual.WithUserAgents(agents...))
	}
	if hosts := cfg.ExcludedHosts(); hosts != nil {
		opts = append(opts, factual.WithExcludedHosts(hosts...))
	}
	return opts
}

func cacheOptions(cfg config.AppConfig) ([]factual.Option, error) {
	switch cfg.ArticleCache() {
	case config.CacheMemory:
		return []factual.Option{factual.WithMemoryCache(cfg.ArticleCacheSize(), cfg.ArticleCacheTTL())}, nil
	case config.CacheRedis:
		if cfg.RedisURL() == "" {
			return nil, fmt.Errorf("backend %q requires REDIS_URL", config.CacheRedis)
		}
		return []factual.Option{factual.WithRedisCache(cfg.RedisURL(), cfg.ArticleCacheTTL())}, nil
	default:
		return nil, nil
	}
}
