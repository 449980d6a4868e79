package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "pretty", cfg.LogFormat)
	assert.Equal(t, "*", cfg.CORSAllowedOrigins)
	assert.Equal(t, 45.0, cfg.PipelineTimeout)
	assert.Equal(t, 0, cfg.FetchConcurrency)
	assert.Equal(t, "", cfg.NewsFeeds)
	assert.Equal(t, "", cfg.RedisURL)

	assert.Equal(t, "https://www.google.com/search", cfg.Search.BaseURL)
	assert.Equal(t, 3, cfg.Search.Pages)
	assert.Equal(t, "http", cfg.Search.Renderer)
	assert.Equal(t, 15.0, cfg.Article.Timeout)
	assert.True(t, cfg.Article.Readability)
	assert.Equal(t, "none", cfg.Article.Cache)
	assert.Equal(t, "hugot", cfg.Sentiment.Provider)
	assert.Equal(t, 128, cfg.Sentiment.MaxLength)
	assert.Equal(t, 30.0, cfg.Sentiment.Endpoint.Timeout)
	assert.Equal(t, 5, cfg.Sentiment.Endpoint.MaxRetries)
}

func TestEnvDefaults_MatchConfigDefaults(t *testing.T) {
	// Struct tag defaults must be literals, so keep them in sync with the
	// constants in config.go.
	clearEnvVars(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	app := cfg.ToAppConfig()
	defaults := NewAppConfig()

	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultSearchBaseURL, cfg.Search.BaseURL)
	assert.Equal(t, DefaultSearchPages, cfg.Search.Pages)
	assert.Equal(t, DefaultArticleCacheSize, cfg.Article.CacheSize)
	assert.Equal(t, DefaultSentimentMaxLength, cfg.Sentiment.MaxLength)
	assert.Equal(t, DefaultSentimentLabel, cfg.Sentiment.PositiveLabel)

	assert.Equal(t, defaults.PipelineTimeout(), app.PipelineTimeout())
	assert.Equal(t, defaults.ArticleTimeout(), app.ArticleTimeout())
	assert.Equal(t, defaults.ArticleCacheTTL(), app.ArticleCacheTTL())
	assert.Equal(t, defaults.SentimentEndpoint(), app.SentimentEndpoint())
	assert.Equal(t, defaults.SentimentModelDir(), app.SentimentModelDir())
}

func TestLoadFromEnv_OverrideValues(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("PIPELINE_TIMEOUT", "2.5")
	t.Setenv("FETCH_CONCURRENCY", "8")
	t.Setenv("SEARCH_PAGES", "1")
	t.Setenv("SEARCH_RENDERER", "chrome")
	t.Setenv("NEWS_FEEDS", "https://a.example/rss, https://b.example/search?q=%s")
	t.Setenv("ARTICLE_CACHE", "memory")
	t.Setenv("ARTICLE_CACHE_TTL", "60")
	t.Setenv("ARTICLE_READABILITY", "false")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	app := cfg.ToAppConfig()

	assert.Equal(t, "127.0.0.1:9000", app.Addr())
	assert.Equal(t, LogFormatJSON, app.LogFormat())
	assert.Equal(t, 2500*time.Millisecond, app.PipelineTimeout())
	assert.Equal(t, 8, app.FetchConcurrency())
	assert.Equal(t, 1, app.SearchPages())
	assert.Equal(t, RendererChrome, app.SearchRenderer())
	assert.Equal(t, []string{"https://a.example/rss", "https://b.example/search?q=%s"}, app.NewsFeeds())
	assert.Equal(t, CacheMemory, app.ArticleCache())
	assert.Equal(t, time.Minute, app.ArticleCacheTTL())
	assert.False(t, app.ArticleReadability())
}

func TestLoadFromEnv_SentimentEndpoint(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("SENTIMENT_PROVIDER", "remote")
	t.Setenv("SENTIMENT_ENDPOINT_BASE_URL", "http://classifier:8000/predict")
	t.Setenv("SENTIMENT_ENDPOINT_API_KEY", "token")
	t.Setenv("SENTIMENT_ENDPOINT_TIMEOUT", "0.5")
	t.Setenv("SENTIMENT_ENDPOINT_MAX_RETRIES", "2")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.Sentiment.Endpoint.IsConfigured())

	app := cfg.ToAppConfig()
	assert.Equal(t, SentimentRemote, app.SentimentProvider())

	e := app.SentimentEndpoint()
	assert.Equal(t, "http://classifier:8000/predict", e.BaseURL())
	assert.Equal(t, "token", e.APIKey())
	assert.Equal(t, 500*time.Millisecond, e.Timeout())
	assert.Equal(t, 2, e.MaxRetries())
}

func TestLoadFromEnvWithPrefix(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("FACTUAL_PORT", "7000")

	cfg, err := LoadFromEnvWithPrefix("FACTUAL")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
}

func TestLoadFromEnv_InvalidValue(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("PORT", "not-a-number")

	_, err := LoadFromEnv()
	assert.Error(t, err)
}

func TestParseLogFormat(t *testing.T) {
	assert.Equal(t, LogFormatJSON, parseLogFormat("json"))
	assert.Equal(t, LogFormatJSON, parseLogFormat("JSON"))
	assert.Equal(t, LogFormatPretty, parseLogFormat("pretty"))
	assert.Equal(t, LogFormatPretty, parseLogFormat(""))
	assert.Equal(t, LogFormatPretty, parseLogFormat("unknown"))
}

func TestParseEnums(t *testing.T) {
	assert.Equal(t, RendererChrome, parseRenderer("Chrome"))
	assert.Equal(t, RendererHTTP, parseRenderer(""))
	assert.Equal(t, CacheRedis, parseCacheBackend("redis"))
	assert.Equal(t, CacheMemory, parseCacheBackend("memory"))
	assert.Equal(t, CacheNone, parseCacheBackend("bogus"))
	assert.Equal(t, SentimentOpenAI, parseSentimentProvider("OpenAI"))
	assert.Equal(t, SentimentRemote, parseSentimentProvider("remote"))
	assert.Equal(t, SentimentHugot, parseSentimentProvider(""))
}

func TestLoadDotEnv(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")
	content := `LOG_LEVEL=DEBUG
NEWS_FEEDS=https://a.example/rss
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	clearEnvVars(t)

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "DEBUG", os.Getenv("LOG_LEVEL"))
	assert.Equal(t, "https://a.example/rss", os.Getenv("NEWS_FEEDS"))
}

func TestLoadDotEnv_NonExistent(t *testing.T) {
	clearEnvVars(t)
	assert.NoError(t, LoadDotEnv("/nonexistent/.env"))
}

func TestMustLoadDotEnv_NonExistent(t *testing.T) {
	clearEnvVars(t)
	assert.Error(t, MustLoadDotEnv("/nonexistent/.env"))
}

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")
	content := `LOG_LEVEL=WARN
SENTIMENT_PROVIDER=openai
SENTIMENT_ENDPOINT_MODEL=gpt-4o-mini
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	clearEnvVars(t)

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)

	assert.Equal(t, "WARN", cfg.LogLevel())
	assert.Equal(t, SentimentOpenAI, cfg.SentimentProvider())
	assert.Equal(t, "gpt-4o-mini", cfg.SentimentEndpoint().Model())
}

func TestLoadConfig_ScrapeProfile(t *testing.T) {
	tmpDir := t.TempDir()
	profile := filepath.Join(tmpDir, "profile.yaml")
	content := `user_agents:
  - "test-agent/1.0"
excluded_hosts:
  - example.org
feeds:
  - https://b.example/rss
`
	require.NoError(t, os.WriteFile(profile, []byte(content), 0o644))

	clearEnvVars(t)
	t.Setenv("SCRAPE_PROFILE", profile)
	t.Setenv("NEWS_FEEDS", "https://a.example/rss")

	cfg, err := LoadConfig(filepath.Join(tmpDir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, []string{"test-agent/1.0"}, cfg.UserAgents())
	assert.Equal(t, []string{"example.org"}, cfg.ExcludedHosts())
	assert.Equal(t, []string{"https://a.example/rss", "https://b.example/rss"}, cfg.NewsFeeds())
}

func TestLoadConfig_BadProfile(t *testing.T) {
	tmpDir := t.TempDir()
	profile := filepath.Join(tmpDir, "profile.yaml")
	require.NoError(t, os.WriteFile(profile, []byte("user_agents: [unclosed"), 0o644))

	clearEnvVars(t)
	t.Setenv("SCRAPE_PROFILE", profile)

	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "parse scrape profile")

	t.Setenv("SCRAPE_PROFILE", filepath.Join(tmpDir, "absent.yaml"))
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "read scrape profile")
}

func TestLoadDotEnvFromFiles(t *testing.T) {
	tmpDir := t.TempDir()

	env1 := filepath.Join(tmpDir, ".env")
	require.NoError(t, os.WriteFile(env1, []byte("KEY1=value1\nKEY2=value2\n"), 0o644))
	env2 := filepath.Join(tmpDir, ".env.local")
	require.NoError(t, os.WriteFile(env2, []byte("KEY2=override\nKEY3=value3\n"), 0o644))

	clearEnvVars(t)

	// godotenv.Load does not override existing values, so the first file wins.
	require.NoError(t, LoadDotEnvFromFiles(env1, env2))

	assert.Equal(t, "value1", os.Getenv("KEY1"))
	assert.Equal(t, "value2", os.Getenv("KEY2"))
	assert.Equal(t, "value3", os.Getenv("KEY3"))
}

func TestOverloadDotEnvFromFiles(t *testing.T) {
	tmpDir := t.TempDir()

	env1 := filepath.Join(tmpDir, ".env")
	require.NoError(t, os.WriteFile(env1, []byte("KEY1=value1\nKEY2=value2\n"), 0o644))
	env2 := filepath.Join(tmpDir, ".env.local")
	require.NoError(t, os.WriteFile(env2, []byte("KEY2=override\nKEY3=value3\n"), 0o644))

	clearEnvVars(t)

	require.NoError(t, OverloadDotEnvFromFiles(env1, env2))

	assert.Equal(t, "value1", os.Getenv("KEY1"))
	assert.Equal(t, "override", os.Getenv("KEY2"))
	assert.Equal(t, "value3", os.Getenv("KEY3"))
}

// clearEnvVars unsets all config-related environment variables
func clearEnvVars(t *testing.T) {
	t.Helper()

	vars := []string{
		"HOST",
		"PORT",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"CORS_ALLOWED_ORIGINS",
		"PIPELINE_TIMEOUT",
		"FETCH_CONCURRENCY",
		"SEARCH_BASE_URL",
		"SEARCH_PAGES",
		"SEARCH_RENDERER",
		"SEARCH_CHROME_URL",
		"NEWS_FEEDS",
		"ARTICLE_TIMEOUT",
		"ARTICLE_READABILITY",
		"ARTICLE_CACHE",
		"ARTICLE_CACHE_SIZE",
		"ARTICLE_CACHE_TTL",
		"REDIS_URL",
		"SCRAPE_PROFILE",
		"SENTIMENT_PROVIDER",
		"SENTIMENT_MODEL_DIR",
		"SENTIMENT_MAX_LENGTH",
		"SENTIMENT_POSITIVE_LABEL",
		"SENTIMENT_ENDPOINT_BASE_URL",
		"SENTIMENT_ENDPOINT_MODEL",
		"SENTIMENT_ENDPOINT_API_KEY",
		"SENTIMENT_ENDPOINT_TIMEOUT",
		"SENTIMENT_ENDPOINT_MAX_RETRIES",
		"SENTIMENT_ENDPOINT_INITIAL_DELAY",
		"SENTIMENT_ENDPOINT_BACKOFF_FACTOR",
		"FACTUAL_PORT",
		"KEY1",
		"KEY2",
		"KEY3",
	}

	for _, v := range vars {
		_ = os.Unsetenv(v)
	}
}
