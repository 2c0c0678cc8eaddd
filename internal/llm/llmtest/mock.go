// Package llmtest provides test doubles for the llm collaborators.
package llmtest

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/jonathan/candidate-ranker/internal/llm"
)

// MockClient is a test double for llm.Client with function-field overrides.
type MockClient struct {
	GenerateContentFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	GenerateJSONFunc    func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)

	mu      sync.Mutex
	calls   int
	prompts []string
}

// GenerateContent implements llm.Client
func (m *MockClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	m.record(prompt)
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier)
	}
	return "", nil
}

// GenerateJSON implements llm.Client
func (m *MockClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	m.record(prompt)
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return "{}", nil
}

// GetModel implements llm.Client
func (m *MockClient) GetModel(_ llm.ModelTier) string {
	return "mock-model"
}

// Close implements llm.Client
func (m *MockClient) Close() error {
	return nil
}

// CallCount returns the number of generate calls made.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Prompts returns every prompt received, in order.
func (m *MockClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

func (m *MockClient) record(prompt string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.prompts = append(m.prompts, prompt)
}

// DefaultDimension is the vector size produced by BagOfWordsEmbedder.
const DefaultDimension = 64

// MockEmbedder is a test double for llm.Embedder. Without overrides it
// embeds each text as a hashed bag of words, so texts sharing words are
// close in cosine distance and identical texts map to identical vectors.
type MockEmbedder struct {
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)
	Dimension      int
	ModelName      string

	mu    sync.Mutex
	calls int
	seen  []string
}

// NewMockEmbedder returns a deterministic bag-of-words embedder.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// Model implements llm.Embedder
func (m *MockEmbedder) Model() string {
	if m.ModelName == "" {
		return "mock-embedding"
	}
	return m.ModelName
}

// EmbedText implements llm.Embedder
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts implements llm.Embedder
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.seen = append(m.seen, texts...)
	m.mu.Unlock()

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}

	dim := m.Dimension
	if dim <= 0 {
		dim = DefaultDimension
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = BagOfWords(t, dim)
	}
	return out, nil
}

// CallCount returns the number of EmbedTexts calls.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Seen returns every text embedded, in call order.
func (m *MockEmbedder) Seen() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.seen...)
}

// BagOfWords hashes each lowercase whitespace token of text into one of dim
// buckets and counts occurrences.
func BagOfWords(text string, dim int) []float32 {
	vec := make([]float32, dim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%uint32(dim)]++
	}
	return vec
}
