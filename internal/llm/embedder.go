package llm

import (
	"context"
	"fmt"
)

// Embedder maps text to fixed-dimension vectors. Implementations must be
// deterministic for a fixed model and return one vector per input, in order.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	// Model identifies the embedding model, used to key caches
	Model() string
}

// NewEmbedder creates an embedder for the configured provider
func NewEmbedder(ctx context.Context, config *Config, apiKey string) (Embedder, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.EmbeddingModel == "" {
		return nil, fmt.Errorf("no embedding model configured")
	}

	switch config.Provider {
	case ProviderOpenAI:
		return NewOpenAIEmbedder(config, apiKey)
	case ProviderGemini, "":
		return NewGeminiEmbedder(ctx, config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", config.Provider)
	}
}

// CheckEmbeddings verifies that a batch response has one vector per input
// and that every vector has the same non-zero dimension.
func CheckEmbeddings(want int, vectors [][]float32) error {
	if len(vectors) != want {
		return &SchemaError{
			Collaborator: "embedding",
			Message:      fmt.Sprintf("expected %d vectors, got %d", want, len(vectors)),
		}
	}
	if want == 0 {
		return nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return &SchemaError{Collaborator: "embedding", Message: "empty vector at index 0"}
	}
	for i, v := range vectors {
		if len(v) != dim {
			return &SchemaError{
				Collaborator: "embedding",
				Message:      fmt.Sprintf("vector %d has dimension %d, expected %d", i, len(v), dim),
			}
		}
	}
	return nil
}
