// Package sentiment defines the sentiment classifier boundary and the
// agreement score derived from it.
package sentiment

import (
	"context"
	"errors"
	"math"
	"strings"
)

// ErrUnavailable indicates the classifier cannot serve requests: the model
// is not loaded, an endpoint is not configured or is unreachable.
var ErrUnavailable = errors.New("sentiment classifier unavailable")

// Classifier returns the positive-class probability for each text.
type Classifier interface {
	Positive(ctx context.Context, texts []string) ([]float64, error)
}

// Agreement is 1 minus the absolute difference of two positive-class
// probabilities: 1 for identical sentiment, 0 for opposite extremes.
func Agreement(a, b float64) float64 {
	return 1 - math.Abs(a-b)
}

// Softmax converts logits to probabilities. It returns nil for empty input.
func Softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return nil
	}

	maxLogit := logits[0]
	for _, l := range logits[1:] {
		if l > maxLogit {
			maxLogit = l
		}
	}

	out := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		out[i] = math.Exp(l - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// PositiveIndex is the class index of positive sentiment in two-class
// model outputs.
const PositiveIndex = 1

// PositiveFromLogits applies softmax and returns the positive-class mass.
func PositiveFromLogits(logits []float64) (float64, error) {
	if len(logits) <= PositiveIndex {
		return 0, errors.New("expected at least two logits")
	}
	return Softmax(logits)[PositiveIndex], nil
}

// DefaultMaxLength is the default number of words passed to a classifier.
const DefaultMaxLength = 128

// Truncate keeps at most maxWords whitespace-separated words of text.
// A maxWords of zero or less leaves the text unchanged.
func Truncate(text string, maxWords int) string {
	if maxWords <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:maxWords], " ")
}
