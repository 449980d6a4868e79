// Package search scores lexical similarity between token sequences.
package search

import (
	"math"
	"sort"
)

// DefaultSimilarityWeight is the empirical factor applied to raw cosine
// similarity. Weighted scores are not clamped and may exceed 1.
const DefaultSimilarityWeight = 1.25

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 (opposite) and 1 (identical).
// Returns 0 if either vector has zero magnitude.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, magA, magB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}

	if magA == 0 || magB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(magA) * math.Sqrt(magB))
}

// TFIDFScorer scores an article against a query with TF-IDF vectors fitted
// on exactly the two documents being compared.
type TFIDFScorer struct {
	weight float64
}

// NewTFIDFScorer creates a scorer using DefaultSimilarityWeight.
func NewTFIDFScorer() TFIDFScorer {
	return TFIDFScorer{weight: DefaultSimilarityWeight}
}

// NewTFIDFScorerWithWeight creates a scorer with a custom weight.
func NewTFIDFScorerWithWeight(weight float64) TFIDFScorer {
	return TFIDFScorer{weight: weight}
}

// Weight returns the similarity weight.
func (s TFIDFScorer) Weight() float64 { return s.weight }

// Score returns weight × cosine(tfidf(query), tfidf(article)). Either side
// empty scores 0.
func (s TFIDFScorer) Score(query, article []string) float64 {
	if len(query) == 0 || len(article) == 0 {
		return 0
	}
	vectors := Vectorize(query, article)
	return s.weight * CosineSimilarity(vectors[0], vectors[1])
}

// Vectorize builds L2-normalized TF-IDF vectors for the given documents
// over their shared, sorted vocabulary. Term frequency is the raw count and
// IDF is smoothed: ln((1+n)/(1+df)) + 1.
func Vectorize(docs ...[]string) [][]float64 {
	vocab := vocabulary(docs)
	index := make(map[string]int, len(vocab))
	for i, term := range vocab {
		index[term] = i
	}

	df := make([]int, len(vocab))
	counts := make([][]float64, len(docs))
	for d, doc := range docs {
		counts[d] = make([]float64, len(vocab))
		for _, term := range doc {
			counts[d][index[term]]++
		}
		for i, c := range counts[d] {
			if c > 0 {
				df[i]++
			}
		}
	}

	n := float64(len(docs))
	idf := make([]float64, len(vocab))
	for i := range vocab {
		idf[i] = math.Log((1+n)/(1+float64(df[i]))) + 1
	}

	for d := range counts {
		var norm float64
		for i := range counts[d] {
			counts[d][i] *= idf[i]
			norm += counts[d][i] * counts[d][i]
		}
		if norm == 0 {
			continue
		}
		norm = math.Sqrt(norm)
		for i := range counts[d] {
			counts[d][i] /= norm
		}
	}

	return counts
}

func vocabulary(docs [][]string) []string {
	seen := map[string]struct{}{}
	for _, doc := range docs {
		for _, term := range doc {
			seen[term] = struct{}{}
		}
	}
	vocab := make([]string, 0, len(seen))
	for term := range seen {
		vocab = append(vocab, term)
	}
	sort.Strings(vocab)
	return vocab
}
