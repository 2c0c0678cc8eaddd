// Package parsing turns free text into the token streams used by the lexical
// and overlap scorers.
package parsing

import (
	"fmt"
	"strings"

	"github.com/kljensen/snowball"
)

// asciiPunctuation is the set of characters stripped before tokenizing.
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// DefaultStemmerLanguage is the Snowball locale used when none is configured.
const DefaultStemmerLanguage = "english"

var punctuationStripper = strings.NewReplacer(punctuationPairs()...)

func punctuationPairs() []string {
	pairs := make([]string, 0, len(asciiPunctuation)*2)
	for _, r := range asciiPunctuation {
		pairs = append(pairs, string(r), "")
	}
	return pairs
}

// Normalizer lowercases, strips punctuation, drops stopwords and stems.
// A Normalizer is immutable after construction and safe for concurrent use.
type Normalizer struct {
	stopwords map[string]struct{}
	language  string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithStopwords replaces the stopword set.
func WithStopwords(words []string) Option {
	return func(n *Normalizer) {
		n.stopwords = make(map[string]struct{}, len(words))
		for _, w := range words {
			n.stopwords[strings.ToLower(w)] = struct{}{}
		}
	}
}

// WithExtraStopwords adds words to the current stopword set.
func WithExtraStopwords(words []string) Option {
	return func(n *Normalizer) {
		for _, w := range words {
			n.stopwords[strings.ToLower(w)] = struct{}{}
		}
	}
}

// WithStemmerLanguage selects the Snowball stemmer locale.
func WithStemmerLanguage(language string) Option {
	return func(n *Normalizer) {
		n.language = strings.ToLower(strings.TrimSpace(language))
	}
}

// NewNormalizer builds a Normalizer with the English stopword set and stemmer
// unless options say otherwise. It fails if the stemmer locale is unsupported.
func NewNormalizer(opts ...Option) (*Normalizer, error) {
	n := &Normalizer{
		stopwords: make(map[string]struct{}, len(englishStopwords)),
		language:  DefaultStemmerLanguage,
	}
	for _, w := range englishStopwords {
		n.stopwords[w] = struct{}{}
	}
	for _, opt := range opts {
		opt(n)
	}
	if _, err := snowball.Stem("running", n.language, true); err != nil {
		return nil, &ValidationError{Field: "stemmer_language", Message: fmt.Sprintf("unsupported stemmer language %q", n.language)}
	}
	return n, nil
}

// MustNewNormalizer is NewNormalizer that panics on error.
func MustNewNormalizer(opts ...Option) *Normalizer {
	n, err := NewNormalizer(opts...)
	if err != nil {
		panic(err)
	}
	return n
}

// Language returns the stemmer locale.
func (n *Normalizer) Language() string {
	return n.language
}

// IsStopword reports whether word is in the stopword set.
func (n *Normalizer) IsStopword(word string) bool {
	_, ok := n.stopwords[word]
	return ok
}

// Normalize returns text lowercased, without punctuation or stopwords, with
// every remaining token stemmed and joined by single spaces.
func (n *Normalizer) Normalize(text string) string {
	return strings.Join(n.Terms(text), " ")
}

// Terms is Normalize without the final join.
func (n *Normalizer) Terms(text string) []string {
	text = punctuationStripper.Replace(strings.ToLower(text))
	fields := strings.Fields(text)

	out := make([]string, 0, len(fields))
	for _, tok := range fields {
		if n.IsStopword(tok) {
			continue
		}
		stem, err := snowball.Stem(tok, n.language, true)
		if err != nil || stem == "" {
			// language was checked in NewNormalizer
			stem = tok
		}
		out = append(out, stem)
	}
	return out
}

// NormalizeAll normalizes each text in order.
func (n *Normalizer) NormalizeAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = n.Normalize(t)
	}
	return out
}
