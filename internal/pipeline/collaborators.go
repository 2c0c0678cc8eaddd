package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jonathan/candidate-ranker/internal/config"
	"github.com/jonathan/candidate-ranker/internal/embedcache"
	"github.com/jonathan/candidate-ranker/internal/llm"
)

// Collaborators are the external services a run depends on.
type Collaborators struct {
	Client   llm.Client
	Embedder llm.Embedder

	closers []io.Closer
}

// NewCollaborators builds the LLM client and embedder for cfg. When the
// embedding cache is enabled the embedder is wrapped with a persistent cache
// that reports lookups to stats, if given.
func NewCollaborators(ctx context.Context, cfg *config.Config, stats embedcache.LookupRecorder) (*Collaborators, error) {
	apiKey := cfg.LLM.APIKey()
	if apiKey == "" && cfg.LLM.BaseURL == "" {
		return nil, fmt.Errorf("no API key for provider %q: set %s", cfg.LLM.Provider, keyEnv(cfg.LLM.Provider))
	}
	llmCfg := cfg.LLM.ClientConfig()

	c := &Collaborators{}
	client, err := llm.NewClient(ctx, llmCfg, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	c.Client = client
	c.closers = append(c.closers, client)

	embedder, err := llm.NewEmbedder(ctx, llmCfg, apiKey)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	if closer, ok := embedder.(io.Closer); ok {
		c.closers = append(c.closers, closer)
	}
	c.Embedder = embedder

	if cfg.Cache.Enabled {
		opts := []embedcache.Option{}
		if stats != nil {
			opts = append(opts, embedcache.WithRecorder(stats))
		}
		cache, err := embedcache.Open(embedder, cfg.Cache.Dir, opts...)
		if err != nil {
			// ranking still works uncached
			slog.Default().Warn("embedding cache unavailable", "component", "pipeline", "dir", cfg.Cache.Dir, "err", err)
		} else {
			c.Embedder = cache
			c.closers = append(c.closers, cache)
		}
	}
	return c, nil
}

// Close releases every collaborator, most recently opened first.
func (c *Collaborators) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func keyEnv(provider string) string {
	if llm.Provider(provider) == llm.ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}
