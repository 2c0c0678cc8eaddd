package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
)

// geminiBatchLimit is the maximum number of texts per BatchEmbedContents call.
const geminiBatchLimit = 100

// GeminiEmbedder implements Embedder with a Gemini embedding model
type GeminiEmbedder struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewGeminiEmbedder creates a new Gemini embedder
func NewGeminiEmbedder(ctx context.Context, config *Config, apiKey string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &APICallError{Provider: ProviderGemini, Message: "failed to create client", Cause: err}
	}

	return &GeminiEmbedder{
		client: client,
		model:  config.EmbeddingModel,
		logger: slog.Default().With("component", "gemini-embedder"),
	}, nil
}

// Model returns the embedding model name
func (e *GeminiEmbedder) Model() string {
	return e.model
}

// EmbedText embeds a single text
func (e *GeminiEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts embeds texts in batches of at most 100, concurrently, keeping
// the output aligned with the input.
func (e *GeminiEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	e.logger.Debug("generating embeddings", "count", len(texts), "model", e.model)

	em := e.client.EmbeddingModel(e.model)
	em.TaskType = genai.TaskTypeSemanticSimilarity

	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(texts); start += geminiBatchLimit {
		end := min(start+geminiBatchLimit, len(texts))
		g.Go(func() error {
			batch := em.NewBatch()
			for _, t := range texts[start:end] {
				batch.AddContent(genai.Text(t))
			}
			resp, err := em.BatchEmbedContents(gctx, batch)
			if err != nil {
				return &APICallError{Provider: ProviderGemini, Message: "batch embed failed", Cause: err}
			}
			if len(resp.Embeddings) != end-start {
				return &SchemaError{
					Collaborator: "embedding",
					Message:      fmt.Sprintf("expected %d vectors in batch, got %d", end-start, len(resp.Embeddings)),
				}
			}
			for i, emb := range resp.Embeddings {
				if emb == nil {
					return &SchemaError{Collaborator: "embedding", Message: fmt.Sprintf("missing vector at index %d", start+i)}
				}
				out[start+i] = emb.Values
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	return out, nil
}

// Close releases resources held by the embedder
func (e *GeminiEmbedder) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}
