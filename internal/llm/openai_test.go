package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	response *llms.ContentResponse
	err      error
	opts     llms.CallOptions
	messages []llms.MessageContent
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, o := range options {
		o(&f.opts)
	}
	return f.response, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestOpenAIClient_GenerateJSON(t *testing.T) {
	model := &fakeModel{response: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "```json\n{\"variant_jds\": []}\n```"}},
	}}
	client := newOpenAIClientWithModel(model, DefaultOpenAIConfig())

	out, err := client.GenerateJSON(context.Background(), "paraphrase this", TierStandard)
	require.NoError(t, err)
	assert.Equal(t, `{"variant_jds": []}`, out)
	assert.True(t, model.opts.JSONMode)
	assert.Equal(t, "gpt-4.1-mini-2025-04-14", model.opts.Model)
	assert.InDelta(t, 0.1, model.opts.Temperature, 1e-9)
	require.Len(t, model.messages, 1)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[0].Role)
}

func TestOpenAIClient_GenerateContent_NoJSONMode(t *testing.T) {
	model := &fakeModel{response: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "plain"}},
	}}
	client := newOpenAIClientWithModel(model, DefaultOpenAIConfig())

	out, err := client.GenerateContent(context.Background(), "hi", TierLite)
	require.NoError(t, err)
	assert.Equal(t, "plain", out)
	assert.False(t, model.opts.JSONMode)
	assert.Equal(t, "gpt-4.1-nano", model.opts.Model)
}

func TestOpenAIClient_Errors(t *testing.T) {
	t.Run("transport error is APICallError", func(t *testing.T) {
		model := &fakeModel{err: errors.New("connection refused")}
		client := newOpenAIClientWithModel(model, DefaultOpenAIConfig())

		_, err := client.GenerateJSON(context.Background(), "x", TierStandard)
		var apiErr *APICallError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, ProviderOpenAI, apiErr.Provider)
	})

	t.Run("no choices", func(t *testing.T) {
		model := &fakeModel{response: &llms.ContentResponse{}}
		client := newOpenAIClientWithModel(model, DefaultOpenAIConfig())

		_, err := client.GenerateJSON(context.Background(), "x", TierStandard)
		assert.ErrorContains(t, err, "no choices")
	})

	t.Run("no model for tier", func(t *testing.T) {
		client := newOpenAIClientWithModel(&fakeModel{}, &Config{Provider: ProviderOpenAI})
		_, err := client.GenerateJSON(context.Background(), "x", TierStandard)
		assert.ErrorContains(t, err, "no model configured")
	})
}

func TestNewOpenAIClient_RequiresKeyOrBaseURL(t *testing.T) {
	_, err := NewOpenAIClient(DefaultOpenAIConfig(), "")
	assert.ErrorContains(t, err, "API key is required")
}

func TestNewClient_UnsupportedProvider(t *testing.T) {
	_, err := NewClient(context.Background(), &Config{Provider: "anthropic"}, "key")
	assert.ErrorContains(t, err, "unsupported LLM provider")
}
