package factual_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/helixml/factual"
	"github.com/helixml/factual/domain/article"
	"github.com/helixml/factual/infrastructure/provider"
)

type stubClassifier struct {
	calls atomic.Int32
}

func (s *stubClassifier) Positive(_ context.Context, texts []string) ([]float64, error) {
	s.calls.Add(1)
	out := make([]float64, len(texts))
	for i, t := range texts {
		out[i] = 0.2
		if strings.Contains(t, "good") {
			out[i] = 0.9
		}
	}
	return out, nil
}

type staticSource struct {
	links []article.Link
}

func (s staticSource) Search(context.Context, string) ([]article.Link, error) {
	return s.links, nil
}

type countingFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	hits  map[string]int
}

func (f *countingFetcher) Fetch(_ context.Context, url string) article.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hits == nil {
		f.hits = map[string]int{}
	}
	f.hits[url]++
	body, ok := f.pages[url]
	if !ok {
		return article.Failed(fmt.Errorf("no page for %s", url))
	}
	return article.Succeeded(body, article.NewMetadata(article.WithTitle("Page "+url)))
}

func (f *countingFetcher) Hits(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[url]
}

func newNewsServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprintf(w, `<html><body>
			<a href="/url?q=%[1]s/articles/rates&sa=U">Rates rise</a>
			<a href="%[1]s/articles/weather">Weather</a>
			<a href="https://www.youtube.com/watch?v=1">Video</a>
		</body></html>`, srv.URL)
	})
	mux.HandleFunc("/articles/rates", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, `<html><head><title>Central bank raises interest rates</title></head><body>
			<h1>Central bank raises interest rates</h1>
			<p>The central bank raised interest rates by half a point on Tuesday.</p>
			<p>Markets reacted with good cheer to the interest rates decision.</p>
		</body></html>`)
	})
	mux.HandleFunc("/articles/weather", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, `<html><body><p>Heavy snow is expected in the mountains tonight.</p></body></html>`)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_CheckEndToEnd(t *testing.T) {
	srv := newNewsServer(t)
	classifier := &stubClassifier{}

	client, err := factual.New(
		factual.WithClassifier(classifier),
		factual.WithSearchBaseURL(srv.URL+"/search"),
		factual.WithSearchPages(1),
		factual.WithArticleTimeout(5*time.Second),
		factual.WithBudget(10*time.Second),
	)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	ranked, err := client.Match.Check(context.Background(), "central bank raises interest rates, good news")
	require.NoError(t, err)

	records := ranked.Records()
	require.Len(t, records, 1)
	require.Equal(t, srv.URL+"/articles/rates", records[0].URL())
	require.Equal(t, "Central bank raises interest rates", records[0].Title())
	require.Greater(t, records[0].Similarity(), 0.0)
	require.InDelta(t, 1.0, records[0].Agreement(), 1e-9)
	require.Equal(t, int32(1), classifier.calls.Load())
}

func TestClient_NewsFeeds(t *testing.T) {
	srv := newNewsServer(t)
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = fmt.Fprintf(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>News</title>
			<item><title>Interest rates raised again</title><link>%s/articles/rates</link></item>
		</channel></rss>`, srv.URL)
	}))
	defer feed.Close()

	client, err := factual.New(
		factual.WithClassifier(&stubClassifier{}),
		factual.WithSearchBaseURL(srv.URL+"/missing"),
		factual.WithSearchPages(1),
		factual.WithNewsFeeds(feed.URL+"/rss?q=%s"),
	)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	ranked, err := client.Match.Check(context.Background(), "interest rates")
	require.NoError(t, err)
	require.Equal(t, 1, ranked.Len())
	require.Equal(t, srv.URL+"/articles/rates", ranked.Records()[0].URL())
}

func TestClient_MemoryCache(t *testing.T) {
	fetcher := &countingFetcher{pages: map[string]string{
		"https://a.example/1": "interest rates rise sharply",
	}}
	client, err := factual.New(
		factual.WithClassifier(&stubClassifier{}),
		factual.WithLinkSource(staticSource{links: []article.Link{
			article.NewLink("one", "https://a.example/1", article.SourceWeb),
			article.NewLink("two", "https://a.example/2", article.SourceWeb),
		}}),
		factual.WithFetcher(fetcher),
		factual.WithMemoryCache(16, time.Minute),
	)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	for range 2 {
		ranked, err := client.Match.Check(context.Background(), "interest rates")
		require.NoError(t, err)
		require.Equal(t, 1, ranked.Len())
	}

	require.Equal(t, 1, fetcher.Hits("https://a.example/1"))
	require.Equal(t, 2, fetcher.Hits("https://a.example/2"), "failures are not cached")
}

func TestClient_Close(t *testing.T) {
	client, err := factual.New(factual.WithClassifier(&stubClassifier{}))
	require.NoError(t, err)
	require.True(t, client.Ready())

	require.NoError(t, client.Close())
	require.ErrorIs(t, client.Close(), factual.ErrClientClosed)
	require.False(t, client.Ready())
	require.ErrorIs(t, client.Warm(), factual.ErrClientClosed)

	_, err = client.Match.Check(context.Background(), "anything")
	require.ErrorIs(t, err, factual.ErrClientClosed)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestClient_ClosesRegisteredResources(t *testing.T) {
	closed := false
	client, err := factual.New(
		factual.WithClassifier(&stubClassifier{}),
		factual.WithCloser(closerFunc(func() error {
			closed = true
			return nil
		})),
	)
	require.NoError(t, err)
	require.NoError(t, client.Close())
	require.True(t, closed)
}

func TestClient_EmptyQuery(t *testing.T) {
	client, err := factual.New(factual.WithClassifier(&stubClassifier{}))
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	_, err = client.Match.Check(context.Background(), "   ")
	require.ErrorIs(t, err, factual.ErrEmptyQuery)
}

func TestClient_RemoteSentimentRequiresEndpoint(t *testing.T) {
	_, err := factual.New(factual.WithRemoteSentiment(provider.RemoteConfig{}))
	require.ErrorIs(t, err, factual.ErrUnavailable)
}

func TestClient_RedisCacheBadURL(t *testing.T) {
	_, err := factual.New(
		factual.WithClassifier(&stubClassifier{}),
		factual.WithRedisCache("not-a-redis-url", time.Minute),
	)
	require.ErrorContains(t, err, "article cache")
}

func TestClient_HugotWithoutModel(t *testing.T) {
	client, err := factual.New(factual.WithHugot(t.TempDir()))
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	if client.Ready() {
		t.Skip("embedded model available")
	}
	require.ErrorIs(t, client.Warm(), factual.ErrUnavailable)
}
