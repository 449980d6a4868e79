// Package dto holds the request and response bodies of the v1 API.
package dto

import "github.com/helixml/factual/domain/match"

// MatchRequest is the body of POST /api/v1/match. The "text/URL" field is
// the documented name; "text" is accepted as an alias.
type MatchRequest struct {
	TextOrURL *string `json:"text/URL"`
	Text      *string `json:"text"`
}

// Query returns the submitted text or URL and whether either field was
// present.
func (r MatchRequest) Query() (string, bool) {
	if r.TextOrURL != nil {
		return *r.TextOrURL, true
	}
	if r.Text != nil {
		return *r.Text, true
	}
	return "", false
}

// MatchRecord is one ranked article in a response.
type MatchRecord struct {
	URL   string `json:"URL"`
	Match string `json:"Match"`
}

// NewMatchRecords converts a ranked set to response records. It never
// returns nil so an empty result encodes as [].
func NewMatchRecords(ranked match.Ranked) []MatchRecord {
	records := ranked.Records()
	out := make([]MatchRecord, 0, len(records))
	for _, r := range records {
		out = append(out, MatchRecord{URL: r.URL(), Match: match.Percent(r.Score())})
	}
	return out
}

// AnalyzeRequest is the body of POST /api/v1/analyze.
type AnalyzeRequest struct {
	Text *string `json:"text"`
}

// SentimentAnalysis reports the query's positive-class probability.
type SentimentAnalysis struct {
	Positive float64 `json:"positive"`
}

// AnalyzeResponse is the body returned by POST /api/v1/analyze.
type AnalyzeResponse struct {
	SentimentAnalysis SentimentAnalysis `json:"sentiment_analysis"`
	FactCheckMatches  []MatchRecord     `json:"fact_check_matches"`
	Text              string            `json:"text"`
}
