package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLangchainEmbedder struct {
	vectors [][]float32
	err     error
	got     []string
}

func (f *fakeLangchainEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.got = texts
	return f.vectors, f.err
}

func (f *fakeLangchainEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	if len(f.vectors) == 0 {
		return nil, f.err
	}
	return f.vectors[0], f.err
}

func TestCheckEmbeddings(t *testing.T) {
	tests := []struct {
		name    string
		want    int
		vectors [][]float32
		errMsg  string
	}{
		{"ok", 2, [][]float32{{1, 2}, {3, 4}}, ""},
		{"empty ok", 0, nil, ""},
		{"count mismatch", 3, [][]float32{{1}, {2}}, "expected 3 vectors, got 2"},
		{"dimension mismatch", 2, [][]float32{{1, 2}, {3}}, "vector 1 has dimension 1, expected 2"},
		{"zero dimension", 1, [][]float32{{}}, "empty vector"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckEmbeddings(tt.want, tt.vectors)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr))
			assert.Equal(t, "embedding", schemaErr.Collaborator)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestOpenAIEmbedder_EmbedTexts(t *testing.T) {
	fake := &fakeLangchainEmbedder{vectors: [][]float32{{1, 0}, {0, 1}}}
	e := newOpenAIEmbedderWith(fake, "text-embedding-3-small")

	out, err := e.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, out)
	assert.Equal(t, []string{"a", "b"}, fake.got)
	assert.Equal(t, "text-embedding-3-small", e.Model())
}

func TestOpenAIEmbedder_ShortResponseIsSchemaError(t *testing.T) {
	fake := &fakeLangchainEmbedder{vectors: [][]float32{{1, 0}}}
	e := newOpenAIEmbedderWith(fake, "m")

	_, err := e.EmbedTexts(context.Background(), []string{"a", "b"})
	var schemaErr *SchemaError
	assert.True(t, errors.As(err, &schemaErr))
}

func TestOpenAIEmbedder_TransportError(t *testing.T) {
	fake := &fakeLangchainEmbedder{err: errors.New("timeout")}
	e := newOpenAIEmbedderWith(fake, "m")

	_, err := e.EmbedText(context.Background(), "a")
	var apiErr *APICallError
	require.True(t, errors.As(err, &apiErr))
	assert.ErrorContains(t, err, "timeout")
}

func TestOpenAIEmbedder_EmptyInput(t *testing.T) {
	fake := &fakeLangchainEmbedder{}
	e := newOpenAIEmbedderWith(fake, "m")

	out, err := e.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Nil(t, fake.got, "no call for an empty batch")
}

func TestNewEmbedder_RequiresModel(t *testing.T) {
	cfg := DefaultGeminiConfig().WithEmbeddingModel("")
	_, err := NewEmbedder(context.Background(), cfg, "key")
	assert.ErrorContains(t, err, "no embedding model configured")
}
