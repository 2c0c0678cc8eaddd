// Package embedcache persists embeddings in BadgerDB so repeated runs over
// the same candidate pool only embed new text.
package embedcache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/jonathan/candidate-ranker/internal/llm"
	"golang.org/x/crypto/blake2b"
)

const keyPrefix = "emb/"

// LookupRecorder receives hit and miss counts for each batch.
type LookupRecorder interface {
	ObserveCacheLookups(hits, misses int)
}

// Cache is an llm.Embedder that serves vectors from BadgerDB and delegates
// misses to an inner embedder. Entries are keyed by model and text, so
// switching models never returns stale vectors.
type Cache struct {
	inner    llm.Embedder
	db       *badger.DB
	logger   *slog.Logger
	recorder LookupRecorder
}

var _ llm.Embedder = (*Cache)(nil)

// Option configures a Cache.
type Option func(*Cache)

// WithRecorder reports lookups to r.
func WithRecorder(r LookupRecorder) Option {
	return func(c *Cache) { c.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open wraps inner with a cache stored in dir. An empty dir keeps the cache
// in memory for the life of the process.
func Open(inner llm.Embedder, dir string, opts ...Option) (*Cache, error) {
	if inner == nil {
		return nil, errors.New("embedcache: inner embedder is required")
	}

	c := &Cache{
		inner:  inner,
		logger: slog.Default().With("component", "embedding-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}

	var bopts badger.Options
	if dir == "" {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		bopts = badger.DefaultOptions(dir)
	}
	bopts.Logger = &badgerLoggerAdapter{logger: c.logger}
	bopts.Compression = options.None

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}
	c.db = db
	return c, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Model returns the inner embedder's model.
func (c *Cache) Model() string {
	return c.inner.Model()
}

// EmbedText embeds one text through the cache.
func (c *Cache) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts returns cached vectors where present and embeds the remaining
// distinct texts in a single inner call.
func (c *Cache) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([][]byte, len(texts))
	model := c.Model()
	for i, t := range texts {
		keys[i] = cacheKey(model, t)
	}

	err := c.db.View(func(txn *badger.Txn) error {
		for i, k := range keys {
			item, err := txn.Get(k)
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if err := item.Value(func(val []byte) error {
				v, err := decode(val)
				if err != nil {
					// corrupt entries are re-embedded and overwritten
					c.logger.Warn("discarding unreadable cache entry", "err", err)
					return nil
				}
				out[i] = v
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embedding cache read failed: %w", err)
	}

	// distinct missing texts, first occurrence order
	var missing []string
	slots := make(map[string][]int)
	for i, t := range texts {
		if out[i] != nil {
			continue
		}
		if _, ok := slots[t]; !ok {
			missing = append(missing, t)
		}
		slots[t] = append(slots[t], i)
	}

	hits := len(texts)
	for _, idx := range slots {
		hits -= len(idx)
	}
	if c.recorder != nil {
		c.recorder.ObserveCacheLookups(hits, len(missing))
	}
	c.logger.Debug("embedding cache lookup", "hits", hits, "misses", len(missing))
	if len(missing) == 0 {
		return out, nil
	}

	fresh, err := c.inner.EmbedTexts(ctx, missing)
	if err != nil {
		return nil, err
	}
	if err := llm.CheckEmbeddings(len(missing), fresh); err != nil {
		return nil, err
	}

	for j, t := range missing {
		for _, i := range slots[t] {
			out[i] = fresh[j]
		}
	}
	if err := c.store(model, missing, fresh); err != nil {
		// vectors are already computed; a failed write only costs a future miss
		c.logger.Warn("failed to persist embeddings", "count", len(missing), "err", err)
	}
	return out, nil
}

func (c *Cache) store(model string, texts []string, vectors [][]float32) error {
	wb := c.db.NewWriteBatch()
	defer wb.Cancel()
	for j, t := range texts {
		if err := wb.Set(cacheKey(model, t), encode(vectors[j])); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func cacheKey(model, text string) []byte {
	sum := blake2b.Sum256([]byte(model + "\x00" + text))
	return append([]byte(keyPrefix), sum[:]...)
}

func encode(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decode(b []byte) ([]float32, error) {
	if len(b)%4 != 0 || len(b) == 0 {
		return nil, fmt.Errorf("corrupt cache entry of %d bytes", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
