package parsing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizer_Normalize(t *testing.T) {
	n := MustNewNormalizer()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases and stems", "Running Developers", "run develop"},
		{"drops stopwords", "the python and the java", "python java"},
		{"strips punctuation", "python, java; (sql)!", "python java sql"},
		{"collapses whitespace", "  python \n\t java  ", "python java"},
		{"only stopwords", "the and of", ""},
		{"empty", "", ""},
		{"past tense", "skilled", "skill"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.Normalize(tt.input))
		})
	}
}

func TestNormalizer_Deterministic(t *testing.T) {
	n := MustNewNormalizer()
	in := "Senior Software Engineer skilled in Python, Go and distributed systems."
	assert.Equal(t, n.Normalize(in), n.Normalize(in))
}

func TestNormalizer_WithStopwords(t *testing.T) {
	n, err := NewNormalizer(WithStopwords([]string{"Python"}))
	require.NoError(t, err)

	assert.True(t, n.IsStopword("python"))
	assert.False(t, n.IsStopword("the"), "replacing the set drops the defaults")
	assert.Equal(t, "the java", n.Normalize("the python java"))
}

func TestNormalizer_WithExtraStopwords(t *testing.T) {
	n, err := NewNormalizer(WithExtraStopwords([]string{"java"}))
	require.NoError(t, err)

	assert.True(t, n.IsStopword("the"))
	assert.Equal(t, "python", n.Normalize("the python java"))
}

func TestNewNormalizer_UnsupportedLanguage(t *testing.T) {
	_, err := NewNormalizer(WithStemmerLanguage("klingon"))
	require.Error(t, err)

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "stemmer_language", vErr.Field)
}

func TestNewNormalizer_OtherLanguage(t *testing.T) {
	n, err := NewNormalizer(WithStemmerLanguage(" Spanish "))
	require.NoError(t, err)
	assert.Equal(t, "spanish", n.Language())
}

func TestNormalizer_NormalizeAll(t *testing.T) {
	n := MustNewNormalizer()
	out := n.NormalizeAll([]string{"Python Developer", "", "the"})
	assert.Equal(t, []string{"python develop", "", ""}, out)
}

func TestEnglishStopwords_ReturnsCopy(t *testing.T) {
	words := EnglishStopwords()
	words[0] = "changed"
	assert.Equal(t, "i", EnglishStopwords()[0])
}
