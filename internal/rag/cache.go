package rag

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the embedding cache. Receipts repeat a lot of
// near-identical documents, so even a small cache saves most calls.
const DefaultCacheSize = 1000

// CachedEmbedder wraps another Embedder with a fixed-capacity LRU cache
// keyed by the exact input text. The cache is an explicit, injected object
// with a hard bound, never an unbounded process-wide map.
type CachedEmbedder struct {
	inner Embedder
	cache *lru.Cache[string, []float32]
}

// NewCachedEmbedder wraps inner with an LRU of the given capacity.
func NewCachedEmbedder(inner Embedder, size int) (*CachedEmbedder, error) {
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("NewCachedEmbedder: %w", err)
	}
	return &CachedEmbedder{inner: inner, cache: cache}, nil
}

// Embed implements Embedder.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.cache.Get(text); ok {
		return vec, nil
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(text, vec)
	return vec, nil
}

// Len reports how many embeddings are currently cached.
func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}
