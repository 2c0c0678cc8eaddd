package embedcache

import (
	"context"
	"errors"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/jonathan/candidate-ranker/internal/llm"
	"github.com/jonathan/candidate-ranker/internal/llm/llmtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	hits, misses int
}

func (r *countingRecorder) ObserveCacheLookups(hits, misses int) {
	r.hits += hits
	r.misses += misses
}

func openMemory(t *testing.T, inner llm.Embedder, opts ...Option) *Cache {
	t.Helper()
	c, err := Open(inner, "", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCache_HitsAfterFirstCall(t *testing.T) {
	inner := llmtest.NewMockEmbedder()
	rec := &countingRecorder{}
	c := openMemory(t, inner, WithRecorder(rec))

	first, err := c.EmbedTexts(context.Background(), []string{"python dev", "chef"})
	require.NoError(t, err)
	second, err := c.EmbedTexts(context.Background(), []string{"chef", "python dev", "new text"})
	require.NoError(t, err)

	assert.Equal(t, first[0], second[1])
	assert.Equal(t, first[1], second[0])
	assert.Equal(t, 2, inner.CallCount())
	assert.Equal(t, []string{"python dev", "chef", "new text"}, inner.Seen(), "only misses reach the inner embedder")
	assert.Equal(t, 2, rec.hits)
	assert.Equal(t, 3, rec.misses)
}

func TestCache_DuplicateTextsEmbeddedOnce(t *testing.T) {
	inner := llmtest.NewMockEmbedder()
	c := openMemory(t, inner)

	out, err := c.EmbedTexts(context.Background(), []string{"a", "a", "b"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, out[0], out[1])
	assert.Equal(t, []string{"a", "b"}, inner.Seen())
}

func TestCache_AllHitsSkipInner(t *testing.T) {
	inner := llmtest.NewMockEmbedder()
	c := openMemory(t, inner)

	_, err := c.EmbedText(context.Background(), "x")
	require.NoError(t, err)
	_, err = c.EmbedText(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.CallCount())
}

func TestCache_KeyedByModel(t *testing.T) {
	inner := &llmtest.MockEmbedder{ModelName: "model-a"}
	c := openMemory(t, inner)

	_, err := c.EmbedText(context.Background(), "x")
	require.NoError(t, err)
	inner.ModelName = "model-b"
	_, err = c.EmbedText(context.Background(), "x")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.CallCount())
	assert.Equal(t, "model-b", c.Model())
}

func TestCache_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	inner := llmtest.NewMockEmbedder()

	c, err := Open(inner, dir)
	require.NoError(t, err)
	want, err := c.EmbedText(context.Background(), "persist me")
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c, err = Open(inner, dir)
	require.NoError(t, err)
	defer c.Close()
	got, err := c.EmbedText(context.Background(), "persist me")
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.Equal(t, 1, inner.CallCount())
}

func TestCache_CorruptEntryIsReembedded(t *testing.T) {
	inner := llmtest.NewMockEmbedder()
	c := openMemory(t, inner)

	want, err := c.EmbedText(context.Background(), "python dev")
	require.NoError(t, err)
	require.NoError(t, c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cacheKey(c.Model(), "python dev"), []byte{1, 2, 3})
	}))

	got, err := c.EmbedText(context.Background(), "python dev")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 2, inner.CallCount())

	_, err = c.EmbedText(context.Background(), "python dev")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.CallCount(), "the corrupt entry was overwritten")
}

func TestCache_InnerErrors(t *testing.T) {
	cause := errors.New("quota exceeded")
	inner := &llmtest.MockEmbedder{EmbedTextsFunc: func(context.Context, []string) ([][]float32, error) {
		return nil, cause
	}}
	c := openMemory(t, inner)

	_, err := c.EmbedTexts(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, cause)
}

func TestCache_ShortInnerBatchIsSchemaError(t *testing.T) {
	inner := &llmtest.MockEmbedder{EmbedTextsFunc: func(context.Context, []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	}}
	c := openMemory(t, inner)

	_, err := c.EmbedTexts(context.Background(), []string{"a", "b"})
	var schemaErr *llm.SchemaError
	assert.True(t, errors.As(err, &schemaErr))
}

func TestOpen_RequiresInner(t *testing.T) {
	_, err := Open(nil, "")
	assert.Error(t, err)
}

func TestEncodeDecode(t *testing.T) {
	v := []float32{0, -1.5, 3.25, 1e-7}
	got, err := decode(encode(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = decode([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, cacheKey("m", "text"), cacheKey("m", "text"))
	assert.NotEqual(t, cacheKey("m", "text"), cacheKey("n", "text"))
	assert.Len(t, cacheKey("m", "text"), len(keyPrefix)+32)
}
