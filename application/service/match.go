// Package service provides application layer services that orchestrate domain operations.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/helixml/factual/domain/article"
	"github.com/helixml/factual/domain/match"
	"github.com/helixml/factual/domain/sentiment"
	"github.com/helixml/factual/internal/log"
)

// DefaultBudget bounds one request end to end: search, retrieval and
// sentiment classification.
const DefaultBudget = 45 * time.Second

// Retrieval gets the budget less budget/classifyShare, leaving the rest for
// classification.
const classifyShare = 5

// Retriever fetches a set of links, returning one entry per link.
type Retriever interface {
	FetchAll(ctx context.Context, links []article.Link) []article.Fetched
}

// Scorer measures topical similarity between two token sequences.
type Scorer interface {
	Score(query, article []string) float64
}

// MatchOption configures a Match service.
type MatchOption func(*Match)

// WithBudget sets the wall-clock limit for a whole request. Retrieval stops
// after four fifths of it and scoring proceeds over whatever completed; the
// request fails with context.DeadlineExceeded if classification does not
// finish inside the remainder. Zero disables it.
func WithBudget(d time.Duration) MatchOption {
	return func(m *Match) {
		if d >= 0 {
			m.budget = d
		}
	}
}

// Analysis is the result of Analyze.
type Analysis struct {
	text     string
	positive float64
	matches  match.Ranked
}

// NewAnalysis creates an Analysis.
func NewAnalysis(text string, positive float64, matches match.Ranked) Analysis {
	return Analysis{text: text, positive: positive, matches: matches}
}

// Text returns the analyzed input.
func (a Analysis) Text() string { return a.text }

// Positive returns the positive-sentiment probability of the input.
func (a Analysis) Positive() float64 { return a.positive }

// Matches returns the ranked matching articles.
func (a Analysis) Matches() match.Ranked { return a.matches }

// Match ranks retrieved articles against a query by similarity and
// sentiment agreement.
type Match struct {
	normalizer article.Normalizer
	source     article.LinkSource
	retriever  Retriever
	scorer     Scorer
	classifier sentiment.Classifier
	budget     time.Duration
	closed     *atomic.Bool
	logger     *slog.Logger
}

// NewMatch creates a new Match service.
func NewMatch(
	normalizer article.Normalizer,
	source article.LinkSource,
	retriever Retriever,
	scorer Scorer,
	classifier sentiment.Classifier,
	closed *atomic.Bool,
	logger *slog.Logger,
	opts ...MatchOption,
) *Match {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Match{
		normalizer: normalizer,
		source:     source,
		retriever:  retriever,
		scorer:     scorer,
		classifier: classifier,
		budget:     DefaultBudget,
		closed:     closed,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Budget returns the total request budget.
func (m *Match) Budget() time.Duration { return m.budget }

// Check ranks the articles found for raw, a free-text claim or an article
// URL. Fetch and parse failures only shrink the result; an error is
// returned for blank input, cancellation or an unavailable classifier.
func (m *Match) Check(ctx context.Context, raw string) (match.Ranked, error) {
	run, err := m.run(ctx, raw, false)
	if err != nil {
		return match.Ranked{}, err
	}
	return run.matches, nil
}

// Analyze returns the sentiment of raw together with its ranked matches.
func (m *Match) Analyze(ctx context.Context, raw string) (Analysis, error) {
	return m.run(ctx, raw, true)
}

type survivor struct {
	link       article.Link
	body       string
	title      string
	similarity float64
}

func (m *Match) run(ctx context.Context, raw string, withQuery bool) (Analysis, error) {
	if m.closed != nil && m.closed.Load() {
		return Analysis{}, ErrClientClosed
	}
	query := article.NewQuery(raw)
	if query.Empty() {
		return Analysis{}, ErrEmptyQuery
	}

	start := time.Now()
	ctx = log.WithRunID(ctx, uuid.NewString())

	pipeCtx, cancelPipe := m.withBudget(ctx, m.budget)
	defer cancelPipe()
	retrieveCtx, cancel := m.withBudget(pipeCtx, m.budget-m.budget/classifyShare)
	searchText, scoringText, exclude := m.resolve(retrieveCtx, query)

	links, err := m.source.Search(retrieveCtx, searchText)
	if err != nil {
		m.logger.WarnContext(ctx, "search failed", slog.Any("error", err))
	}
	links = article.Dedupe(links)
	if exclude != "" {
		links = article.Without(links, exclude)
	}
	fetched := m.retriever.FetchAll(retrieveCtx, links)
	cancel()

	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}

	queryTokens := m.normalizer.Normalize(scoringText)
	var survivors []survivor
	failed := 0
	for _, f := range fetched {
		res := f.Result()
		if !res.OK() {
			failed++
			m.logger.DebugContext(ctx, "article skipped", slog.String("url", f.Link().URL()), slog.String("reason", res.Reason()))
			continue
		}
		if !res.HasContent() {
			continue
		}
		sim := m.scorer.Score(queryTokens, m.normalizer.Normalize(res.Body()))
		if sim == 0 {
			continue
		}
		title := res.Metadata().Headline()
		if title == "" {
			title = f.Link().Text()
		}
		survivors = append(survivors, survivor{link: f.Link(), body: res.Body(), title: title, similarity: sim})
	}

	analysis := Analysis{text: query.Raw(), matches: match.Rank(nil)}
	if len(survivors) > 0 || withQuery {
		texts := make([]string, 0, len(survivors)+1)
		texts = append(texts, scoringText)
		for _, s := range survivors {
			texts = append(texts, s.body)
		}
		probs, err := m.classify(pipeCtx, texts)
		if err != nil {
			return Analysis{}, err
		}

		candidates := make([]match.Candidate, len(survivors))
		for i, s := range survivors {
			agreement := sentiment.Agreement(probs[0], probs[i+1])
			candidates[i] = match.NewCandidate(s.link.URL(), s.title, true, s.similarity, agreement)
		}
		analysis.positive = probs[0]
		analysis.matches = match.Rank(candidates)
	}

	m.logger.InfoContext(ctx, "match completed",
		slog.Int("links", len(links)),
		slog.Int("fetched", len(fetched)-failed),
		slog.Int("failed", failed),
		slog.Int("ranked", analysis.matches.Len()),
		slog.Duration("duration", time.Since(start)),
	)
	return analysis, nil
}

func (m *Match) withBudget(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// resolve returns the text to search with, the text to score against and
// the URL to exclude from candidates. A URL query is replaced by the page
// it points to; if that page cannot be read the URL is treated as text.
func (m *Match) resolve(ctx context.Context, query article.Query) (string, string, string) {
	raw := query.Raw()
	if !query.IsURL() {
		return raw, raw, ""
	}

	self := article.NewLink("", raw, article.SourceWeb)
	page := m.retriever.FetchAll(ctx, []article.Link{self})
	if len(page) != 1 || !page[0].Result().HasContent() {
		m.logger.WarnContext(ctx, "query page unreadable, using input as text", slog.String("url", raw))
		return raw, raw, raw
	}

	res := page[0].Result()
	searchText := res.Metadata().Headline()
	if searchText == "" {
		searchText = raw
	}
	return searchText, res.Body(), raw
}

func (m *Match) classify(ctx context.Context, texts []string) ([]float64, error) {
	if m.classifier == nil {
		return nil, fmt.Errorf("classify sentiment: %w: no classifier configured", sentiment.ErrUnavailable)
	}
	type outcome struct {
		probs []float64
		err   error
	}
	// Local models cannot be interrupted mid-batch.
	done := make(chan outcome, 1)
	go func() {
		probs, err := m.classifier.Positive(ctx, texts)
		done <- outcome{probs: probs, err: err}
	}()
	var probs []float64
	var err error
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("classify sentiment: %w", ctx.Err())
	case out := <-done:
		probs, err = out.probs, out.err
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sentiment.ErrUnavailable) {
			return nil, fmt.Errorf("classify sentiment: %w", err)
		}
		return nil, fmt.Errorf("classify sentiment: %w: %w", sentiment.ErrUnavailable, err)
	}
	if len(probs) != len(texts) {
		return nil, fmt.Errorf("classify sentiment: %w: got %d scores for %d texts", sentiment.ErrUnavailable, len(probs), len(texts))
	}
	return probs, nil
}
