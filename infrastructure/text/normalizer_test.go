package text

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnglish_Normalize(t *testing.T) {
	n := NewEnglish()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"stopwords only", "The and of it is", []string{}},
		{"lowercase and stopwords", "The Sky is Blue", []string{"sky", "blue"}},
		{"ascii punctuation removed", "Cats, dogs & birds!!", []string{"cats", "dogs", "birds"}},
		{"apostrophe joins", "Don't panic", []string{"dont", "panic"}},
		{"hyphen joins", "well-known fact", []string{"wellknown", "fact"}},
		{"unicode dash separates", "sky—blue", []string{"sky", "blue"}},
		{"fullwidth folded", "ＣＡＴＳ are animals", []string{"cats", "animals"}},
		{"numbers kept", "In 2024 prices rose 5%", []string{"2024", "prices", "rose", "5"}},
		{"non english kept", "Ο ουρανός είναι μπλε", []string{"ο", "ουρανός", "είναι", "μπλε"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, n.Normalize(tt.in))
		})
	}
}

func TestEnglish_Deterministic(t *testing.T) {
	n := NewEnglish()
	in := "Cats are animals; cats purr. Animals, unlike rocks, breathe."
	require.Equal(t, n.Normalize(in), n.Normalize(in))
}

func TestIsStopword(t *testing.T) {
	require.True(t, IsStopword("the"))
	require.True(t, IsStopword("wouldn't"))
	require.False(t, IsStopword("sky"))
	require.False(t, IsStopword("The"), "lookup is case sensitive; callers lowercase first")
}
