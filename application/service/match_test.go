package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/helixml/factual/domain/article"
	"github.com/helixml/factual/domain/sentiment"
	"github.com/helixml/factual/infrastructure/fetch"
	"github.com/helixml/factual/infrastructure/search"
	"github.com/helixml/factual/infrastructure/text"
)

// fakeSource returns a fixed set of links and records the queries it saw.
type fakeSource struct {
	mu      sync.Mutex
	links   []article.Link
	queries []string
}

func (f *fakeSource) Search(_ context.Context, query string) ([]article.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.links, nil
}

// pageFetcher serves canned pages by URL. URLs listed in hang block until
// the context ends.
type pageFetcher struct {
	pages map[string]article.Result
	hang  map[string]bool
}

func (f pageFetcher) Fetch(ctx context.Context, url string) article.Result {
	if f.hang[url] {
		<-ctx.Done()
		return article.Failed(ctx.Err())
	}
	if r, ok := f.pages[url]; ok {
		return r
	}
	return article.Failed(errors.New("connection refused"))
}

// fakeClassifier scores texts containing "happy" as positive.
type fakeClassifier struct {
	err   error
	calls atomic.Int32
}

func (f *fakeClassifier) Positive(_ context.Context, texts []string) ([]float64, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float64, len(texts))
	for i, t := range texts {
		out[i] = 0.2
		if strings.Contains(t, "happy") {
			out[i] = 0.9
		}
	}
	return out, nil
}

func page(body string, opts ...article.MetadataOption) article.Result {
	return article.Succeeded(body, article.NewMetadata(opts...))
}

func link(url string) article.Link {
	return article.NewLink("link "+url, url, article.SourceWeb)
}

func newTestMatch(source article.LinkSource, fetcher article.Fetcher, classifier sentiment.Classifier, opts ...MatchOption) *Match {
	return NewMatch(
		text.NewEnglish(),
		source,
		fetch.NewOrchestrator(fetcher, 4, nil),
		search.NewTFIDFScorer(),
		classifier,
		nil,
		nil,
		opts...,
	)
}

func TestMatch_NoCandidates(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("model missing")}
	m := newTestMatch(&fakeSource{}, pageFetcher{}, classifier)

	ranked, err := m.Check(context.Background(), "the sky is blue")
	require.NoError(t, err)
	require.True(t, ranked.Empty())
	require.NotNil(t, ranked.Records())
	require.Zero(t, classifier.calls.Load())
}

func TestMatch_FailedFetchesAreDropped(t *testing.T) {
	source := &fakeSource{links: []article.Link{link("https://a.test"), link("https://slow.test"), link("https://b.test")}}
	fetcher := pageFetcher{
		pages: map[string]article.Result{
			"https://a.test": page("Cats are animals. Cats purr and cats sleep."),
			"https://b.test": page("Many animals live on farms; some cats live there too."),
		},
		hang: map[string]bool{"https://slow.test": true},
	}
	m := newTestMatch(source, fetcher, &fakeClassifier{}, WithBudget(100*time.Millisecond))

	ranked, err := m.Check(context.Background(), "cats are animals")
	require.NoError(t, err)

	records := ranked.Records()
	require.Len(t, records, 2)
	require.ElementsMatch(t, []string{"https://a.test", "https://b.test"}, []string{records[0].URL(), records[1].URL()})
	require.GreaterOrEqual(t, records[0].Similarity(), records[1].Similarity())
	for _, r := range records {
		require.GreaterOrEqual(t, r.Score(), 0.0)
		require.LessOrEqual(t, r.Score(), search.DefaultSimilarityWeight)
	}
}

func TestMatch_IdenticalTextScoresHighest(t *testing.T) {
	query := "Cats are animals that purr when content"
	source := &fakeSource{links: []article.Link{link("https://same.test"), link("https://other.test")}}
	fetcher := pageFetcher{pages: map[string]article.Result{
		"https://same.test":  page(query),
		"https://other.test": page("Animals such as dogs bark loudly at cats"),
	}}
	m := newTestMatch(source, fetcher, &fakeClassifier{})

	ranked, err := m.Check(context.Background(), query)
	require.NoError(t, err)

	records := ranked.Records()
	require.Len(t, records, 2)
	require.Equal(t, "https://same.test", records[0].URL())
	require.InDelta(t, search.DefaultSimilarityWeight, records[0].Similarity(), 1e-9)
	require.InDelta(t, search.DefaultSimilarityWeight, records[0].Score(), 1e-9)
}

func TestMatch_EmptyAndDisjointBodiesExcluded(t *testing.T) {
	source := &fakeSource{links: []article.Link{link("https://empty.test"), link("https://rocks.test"), link("https://cats.test")}}
	fetcher := pageFetcher{pages: map[string]article.Result{
		"https://empty.test": page(""),
		"https://rocks.test": page("Granite basalt quartz"),
		"https://cats.test":  page("cats"),
	}}
	m := newTestMatch(source, fetcher, &fakeClassifier{})

	ranked, err := m.Check(context.Background(), "cats are animals")
	require.NoError(t, err)
	require.Equal(t, 1, ranked.Len())
	require.Equal(t, "https://cats.test", ranked.Records()[0].URL())
}

func TestMatch_Idempotent(t *testing.T) {
	source := &fakeSource{links: []article.Link{link("https://a.test"), link("https://b.test"), link("https://c.test")}}
	fetcher := pageFetcher{pages: map[string]article.Result{
		"https://a.test": page("The sky is blue because of scattering"),
		"https://b.test": page("Blue whales are happy in the sea"),
		"https://c.test": page("The sky at night is dark"),
	}}
	m := newTestMatch(source, fetcher, &fakeClassifier{})

	first, err := m.Check(context.Background(), "the sky is blue")
	require.NoError(t, err)
	second, err := m.Check(context.Background(), "the sky is blue")
	require.NoError(t, err)
	require.Equal(t, first.Records(), second.Records())
}

func TestMatch_SentimentAgreement(t *testing.T) {
	source := &fakeSource{links: []article.Link{link("https://happy.test"), link("https://sad.test")}}
	fetcher := pageFetcher{pages: map[string]article.Result{
		"https://happy.test": page("Dogs are happy pets"),
		"https://sad.test":   page("Dogs are lonely pets"),
	}}
	m := newTestMatch(source, fetcher, &fakeClassifier{})

	ranked, err := m.Check(context.Background(), "dogs are happy pets")
	require.NoError(t, err)

	byURL := map[string]float64{}
	for _, r := range ranked.Records() {
		byURL[r.URL()] = r.Agreement()
	}
	require.InDelta(t, 1.0, byURL["https://happy.test"], 1e-9)
	require.InDelta(t, 0.3, byURL["https://sad.test"], 1e-9)
}

func TestMatch_ClassifierFailureIsUnavailable(t *testing.T) {
	source := &fakeSource{links: []article.Link{link("https://a.test")}}
	fetcher := pageFetcher{pages: map[string]article.Result{"https://a.test": page("cats are animals")}}
	m := newTestMatch(source, fetcher, &fakeClassifier{err: errors.New("tokenizer not loaded")})

	_, err := m.Check(context.Background(), "cats are animals")
	require.ErrorIs(t, err, sentiment.ErrUnavailable)
}

func TestMatch_NilClassifierIsUnavailable(t *testing.T) {
	source := &fakeSource{links: []article.Link{link("https://a.test")}}
	fetcher := pageFetcher{pages: map[string]article.Result{"https://a.test": page("cats are animals")}}
	m := newTestMatch(source, fetcher, nil)

	_, err := m.Check(context.Background(), "cats are animals")
	require.ErrorIs(t, err, sentiment.ErrUnavailable)
}

// stallingClassifier ignores its context and returns after delay.
type stallingClassifier struct {
	delay time.Duration
}

func (s stallingClassifier) Positive(_ context.Context, texts []string) ([]float64, error) {
	time.Sleep(s.delay)
	return make([]float64, len(texts)), nil
}

func TestMatch_BudgetCoversClassification(t *testing.T) {
	source := &fakeSource{links: []article.Link{link("https://a.test")}}
	fetcher := pageFetcher{pages: map[string]article.Result{"https://a.test": page("cats are animals")}}
	m := newTestMatch(source, fetcher, stallingClassifier{delay: 2 * time.Second}, WithBudget(200*time.Millisecond))

	start := time.Now()
	_, err := m.Check(context.Background(), "cats are animals")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second)
}

func TestMatch_BudgetLeavesTimeToClassify(t *testing.T) {
	source := &fakeSource{links: []article.Link{link("https://a.test"), link("https://slow.test")}}
	fetcher := pageFetcher{
		pages: map[string]article.Result{"https://a.test": page("cats are animals")},
		hang:  map[string]bool{"https://slow.test": true},
	}
	m := newTestMatch(source, fetcher, &fakeClassifier{}, WithBudget(250*time.Millisecond))

	ranked, err := m.Check(context.Background(), "cats are animals")
	require.NoError(t, err)
	require.Equal(t, 1, ranked.Len())
}

func TestMatch_EmptyQuery(t *testing.T) {
	m := newTestMatch(&fakeSource{}, pageFetcher{}, &fakeClassifier{})
	_, err := m.Check(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyQuery)
}

func TestMatch_Closed(t *testing.T) {
	var closed atomic.Bool
	closed.Store(true)
	m := NewMatch(text.NewEnglish(), &fakeSource{}, fetch.NewOrchestrator(pageFetcher{}, 1, nil), search.NewTFIDFScorer(), &fakeClassifier{}, &closed, nil)

	_, err := m.Check(context.Background(), "cats")
	require.ErrorIs(t, err, ErrClientClosed)
}

func TestMatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := newTestMatch(&fakeSource{links: []article.Link{link("https://a.test")}}, pageFetcher{}, &fakeClassifier{})

	_, err := m.Check(ctx, "cats")
	require.ErrorIs(t, err, context.Canceled)
}

func TestMatch_URLQuery(t *testing.T) {
	input := "https://news.test/original"
	source := &fakeSource{links: []article.Link{link(input), link("https://other.test/story")}}
	fetcher := pageFetcher{pages: map[string]article.Result{
		input: page("Scientists confirm the sky is blue due to scattering.",
			article.WithTitle("Sky report | News"),
			article.WithHeadings([]string{"Sky is blue, scientists say"})),
		"https://other.test/story": page("The sky is blue according to scientists."),
	}}
	m := newTestMatch(source, fetcher, &fakeClassifier{})

	ranked, err := m.Check(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, []string{"Sky is blue, scientists say"}, source.queries)
	require.Equal(t, 1, ranked.Len())
	require.Equal(t, "https://other.test/story", ranked.Records()[0].URL())
}

func TestMatch_UnreadableURLQueryFallsBackToText(t *testing.T) {
	input := "https://down.test/article"
	source := &fakeSource{}
	m := newTestMatch(source, pageFetcher{}, &fakeClassifier{})

	ranked, err := m.Check(context.Background(), input)
	require.NoError(t, err)
	require.True(t, ranked.Empty())
	require.Equal(t, []string{input}, source.queries)
}

func TestMatch_Analyze(t *testing.T) {
	m := newTestMatch(&fakeSource{}, pageFetcher{}, &fakeClassifier{})

	a, err := m.Analyze(context.Background(), "  a happy day  ")
	require.NoError(t, err)
	require.Equal(t, "a happy day", a.Text())
	require.InDelta(t, 0.9, a.Positive(), 1e-9)
	require.True(t, a.Matches().Empty())

	failing := newTestMatch(&fakeSource{}, pageFetcher{}, &fakeClassifier{err: sentiment.ErrUnavailable})
	_, err = failing.Analyze(context.Background(), "a happy day")
	require.ErrorIs(t, err, sentiment.ErrUnavailable)
}

func TestNewMatch_Budget(t *testing.T) {
	require.Equal(t, DefaultBudget, newTestMatch(&fakeSource{}, pageFetcher{}, nil).Budget())
	require.Equal(t, time.Second, newTestMatch(&fakeSource{}, pageFetcher{}, nil, WithBudget(time.Second)).Budget())
}
