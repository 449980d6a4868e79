// Package text provides the English text normalizer used for lexical
// similarity.
package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/helixml/factual/domain/article"
)

// English lowercases text, strips punctuation and symbols, splits on
// whitespace and drops English stopwords. No stemming is applied.
type English struct{}

// NewEnglish creates an English normalizer.
func NewEnglish() English {
	return English{}
}

// Normalize returns the ordered token sequence for s. It never returns nil.
func (English) Normalize(s string) []string {
	if s == "" {
		return []string{}
	}

	s = strings.ToLower(norm.NFKC.String(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r < unicode.MaxASCII && (unicode.IsPunct(r) || unicode.IsSymbol(r)):
			// ASCII punctuation joins its neighbours: "don't" -> "dont".
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}

	fields := strings.Fields(b.String())
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if IsStopword(f) {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

var _ article.Normalizer = English{}
