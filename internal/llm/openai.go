package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIClient implements Client for OpenAI-compatible chat APIs via langchaingo.
type OpenAIClient struct {
	model  llms.Model
	config *Config
	logger *slog.Logger
}

// NewOpenAIClient creates a new OpenAI client. An empty API key is allowed
// when BaseURL points at a local OpenAI-compatible server.
func NewOpenAIClient(config *Config, apiKey string) (*OpenAIClient, error) {
	if apiKey == "" && config.BaseURL == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if apiKey == "" {
		apiKey = "none"
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(config.GetModel(TierStandard)),
	}
	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, &APICallError{Provider: ProviderOpenAI, Message: "failed to create client", Cause: err}
	}

	return newOpenAIClientWithModel(model, config), nil
}

func newOpenAIClientWithModel(model llms.Model, config *Config) *OpenAIClient {
	return &OpenAIClient{
		model:  model,
		config: config,
		logger: slog.Default().With("component", "openai-client"),
	}
}

// GenerateContent generates text content using the specified model tier
func (c *OpenAIClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.generate(ctx, prompt, tier, false)
}

// GenerateJSON generates JSON content using the specified model tier
func (c *OpenAIClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	text, err := c.generate(ctx, prompt, tier, true)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

func (c *OpenAIClient) generate(ctx context.Context, prompt string, tier ModelTier, jsonMode bool) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	opts := []llms.CallOption{
		llms.WithModel(modelName),
		llms.WithTemperature(c.config.Temperature),
	}
	if jsonMode {
		opts = append(opts, llms.WithJSONMode())
	}

	c.logger.Debug("generating content", "model", modelName, "json", jsonMode, "prompt_length", len(prompt))
	resp, err := c.model.GenerateContent(ctx, content, opts...)
	if err != nil {
		return "", &APICallError{Provider: ProviderOpenAI, Message: "failed to generate content", Cause: err}
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return resp.Choices[0].Content, nil
}

// GetModel returns the model name for a tier
func (c *OpenAIClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the HTTP client holds no long-lived resources.
func (c *OpenAIClient) Close() error {
	return nil
}
