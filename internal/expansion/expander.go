// Package expansion turns one job description into a set of paraphrased
// query variants using an LLM collaborator.
package expansion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jonathan/candidate-ranker/internal/llm"
	"github.com/jonathan/candidate-ranker/internal/prompts"
	"github.com/jonathan/candidate-ranker/internal/schemas"
	"github.com/jonathan/candidate-ranker/internal/types"
	schemafiles "github.com/jonathan/candidate-ranker/schemas"
)

const (
	promptFile = "expansion.json"
	promptKey  = "generate-jd-variants"
)

// collaborator is the name used in SchemaErrors raised by this package.
const collaborator = "paraphrase"

// Payload is the structured answer expected from the LLM.
type Payload struct {
	OriginalJD string   `json:"original_jd"`
	VariantJDs []string `json:"variant_jds"`
}

// Expander produces query variants for a job description.
type Expander struct {
	client llm.Client
	tier   llm.ModelTier
	logger *slog.Logger
}

// Option configures an Expander.
type Option func(*Expander)

// WithTier selects the model tier used for paraphrasing.
func WithTier(tier llm.ModelTier) Option {
	return func(e *Expander) { e.tier = tier }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Expander) { e.logger = logger }
}

// New creates an Expander backed by client.
func New(client llm.Client, opts ...Option) *Expander {
	e := &Expander{
		client: client,
		tier:   llm.TierStandard,
		logger: slog.Default().With("component", "expander"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand returns n+1 variants: index 0 is jd verbatim, indices 1..n are the
// LLM paraphrases in the order the LLM returned them. With n == 0 the LLM is
// not called. Any malformed or short answer is a *llm.SchemaError; nothing
// is retried here.
func (e *Expander) Expand(ctx context.Context, jd string, n int) ([]types.QueryVariant, error) {
	if n < 0 {
		return nil, fmt.Errorf("variant count must be non-negative, got %d", n)
	}
	if n == 0 {
		return []types.QueryVariant{{Index: 0, Text: jd}}, nil
	}
	if e.client == nil {
		return nil, fmt.Errorf("no LLM client configured for %d variants", n)
	}

	prompt, err := prompts.Render(promptFile, promptKey, map[string]string{
		"Count":          strconv.Itoa(n),
		"JobDescription": jd,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build expansion prompt: %w", err)
	}

	e.logger.Debug("requesting paraphrases", "count", n, "model", e.client.GetModel(e.tier))
	raw, err := e.client.GenerateJSON(ctx, prompt, e.tier)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	payload, err := ParsePayload(raw, n)
	if err != nil {
		e.logger.Warn("paraphrase payload rejected", "err", err)
		return nil, err
	}

	variants := make([]types.QueryVariant, 0, n+1)
	variants = append(variants, types.QueryVariant{Index: 0, Text: jd})
	for i, text := range payload.VariantJDs {
		variants = append(variants, types.QueryVariant{Index: i + 1, Text: text})
	}
	e.logger.Info("expanded job description", "variants", len(variants))
	return variants, nil
}

// ParsePayload decodes and checks an LLM answer that must hold exactly n
// non-blank paraphrases.
func ParsePayload(raw string, n int) (*Payload, error) {
	cleaned := llm.CleanJSONBlock(raw)
	if err := schemas.Validate(schemafiles.JDVariants, cleaned); err != nil {
		var vErr *schemas.ValidationError
		msg := "response does not match the variant schema"
		if errors.As(err, &vErr) {
			msg = vErr.Summary()
		}
		return nil, &llm.SchemaError{Collaborator: collaborator, Message: msg, Cause: err}
	}

	var payload Payload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, &llm.SchemaError{Collaborator: collaborator, Message: "invalid JSON", Cause: err}
	}
	if len(payload.VariantJDs) != n {
		return nil, &llm.SchemaError{
			Collaborator: collaborator,
			Message:      fmt.Sprintf("expected %d variants, got %d", n, len(payload.VariantJDs)),
		}
	}
	for i, v := range payload.VariantJDs {
		if strings.TrimSpace(v) == "" {
			return nil, &llm.SchemaError{
				Collaborator: collaborator,
				Message:      fmt.Sprintf("variant %d is blank", i+1),
			}
		}
	}
	return &payload, nil
}
