package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixml/factual"
	"github.com/helixml/factual/domain/match"
	"github.com/helixml/factual/internal/config"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := rootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "check", "version"} {
		assert.True(t, names[want], "missing %s command", want)
	}
}

func TestVersionCmd(t *testing.T) {
	var buf bytes.Buffer
	cmd := versionCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "factual version dev")
	assert.Contains(t, buf.String(), "commit: unknown")
}

func TestCheckCmd_RequiresQuery(t *testing.T) {
	cmd := checkCmd()
	cmd.SetArgs(nil)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

func TestApplyServeOverrides(t *testing.T) {
	cfg := config.NewAppConfig()

	same := applyServeOverrides(cfg, "", 0)
	assert.Equal(t, cfg.Addr(), same.Addr())

	got := applyServeOverrides(cfg, "127.0.0.1", 9090)
	assert.Equal(t, "127.0.0.1:9090", got.Addr())
}

func TestClientOptions_Defaults(t *testing.T) {
	opts, err := clientOptions(config.NewAppConfig(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, opts)
}

func TestClientOptions_RemoteProviderNeedsEndpoint(t *testing.T) {
	for _, p := range []config.SentimentProvider{config.SentimentRemote, config.SentimentOpenAI} {
		cfg := config.NewAppConfigWithOptions(config.WithSentimentProvider(p))
		_, err := clientOptions(cfg, nil)
		require.Error(t, err, "provider %s", p)
		assert.Contains(t, err.Error(), "SENTIMENT_ENDPOINT_BASE_URL")
	}
}

func TestClientOptions_RemoteProvider(t *testing.T) {
	cfg := config.NewAppConfigWithOptions(
		config.WithSentimentProvider(config.SentimentRemote),
		config.WithSentimentEndpoint(config.NewEndpointWithOptions(config.WithBaseURL("http://127.0.0.1:1/predict"))),
	)
	opts, err := clientOptions(cfg, nil)
	require.NoError(t, err)

	client, err := factual.New(opts...)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()
	assert.True(t, client.Ready())
}

func TestClientOptions_RedisNeedsURL(t *testing.T) {
	cfg := config.NewAppConfigWithOptions(config.WithArticleCache(config.CacheRedis))
	_, err := clientOptions(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL")
}

func TestRetryPolicy(t *testing.T) {
	endpoint := config.NewEndpointWithOptions(
		config.WithMaxRetries(2),
		config.WithInitialDelay(time.Second),
		config.WithBackoffFactor(3),
	)
	p := retryPolicy(endpoint)
	assert.Equal(t, 2, p.MaxRetries)
	assert.Equal(t, time.Second, p.InitialDelay)
	assert.InDelta(t, 3.0, p.BackoffFactor, 1e-9)
}

func TestPrintRanked(t *testing.T) {
	ranked := match.Rank([]match.Candidate{
		match.NewCandidate("https://a.example/1", "Rates rise", true, 0.8, 0.9),
		match.NewCandidate("https://b.example/2", "Rates hold", true, 0.4, 0.5),
	})

	var buf bytes.Buffer
	require.NoError(t, printRanked(&buf, ranked, 0))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "MATCH")
	assert.Contains(t, lines[1], "https://a.example/1")
	assert.Contains(t, lines[1], match.Percent(0.8*0.9))
	assert.Contains(t, lines[2], "https://b.example/2")

	buf.Reset()
	require.NoError(t, printRanked(&buf, ranked, 1))
	assert.Len(t, strings.Split(strings.TrimSpace(buf.String()), "\n"), 2)
}

func TestPrintRanked_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printRanked(&buf, match.Rank(nil), 0))
	assert.Equal(t, "no matching articles\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
