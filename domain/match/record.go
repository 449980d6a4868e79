// Package match combines similarity and sentiment agreement into ranked
// match records.
package match

import "fmt"

// Candidate is one scored article before filtering and ranking.
type Candidate struct {
	url        string
	title      string
	hasBody    bool
	similarity float64
	agreement  float64
}

// NewCandidate creates a Candidate.
func NewCandidate(url, title string, hasBody bool, similarity, agreement float64) Candidate {
	return Candidate{
		url:        url,
		title:      title,
		hasBody:    hasBody,
		similarity: similarity,
		agreement:  agreement,
	}
}

// URL returns the article URL.
func (c Candidate) URL() string { return c.url }

// Title returns the article headline, if known.
func (c Candidate) Title() string { return c.title }

// HasBody reports whether the article had non-empty text.
func (c Candidate) HasBody() bool { return c.hasBody }

// Similarity returns the weighted lexical similarity.
func (c Candidate) Similarity() float64 { return c.similarity }

// Agreement returns the sentiment agreement.
func (c Candidate) Agreement() float64 { return c.agreement }

// Eligible reports whether the candidate may appear in a ranked set.
func (c Candidate) Eligible() bool {
	return c.hasBody && c.similarity != 0
}

// Record is one ranked entry.
type Record struct {
	url        string
	title      string
	similarity float64
	agreement  float64
	score      float64
}

func newRecord(c Candidate) Record {
	return Record{
		url:        c.url,
		title:      c.title,
		similarity: c.similarity,
		agreement:  c.agreement,
		score:      c.similarity * c.agreement,
	}
}

// URL returns the article URL.
func (r Record) URL() string { return r.url }

// Title returns the article headline, if known.
func (r Record) Title() string { return r.title }

// Similarity returns the weighted lexical similarity.
func (r Record) Similarity() float64 { return r.similarity }

// Agreement returns the sentiment agreement.
func (r Record) Agreement() float64 { return r.agreement }

// Score returns the match score: similarity times agreement.
func (r Record) Score() float64 { return r.score }

// Percent formats a score as a percentage with two decimals.
func Percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}
