// Package embedcache layers caches in front of an embedding provider.
// Identical text embedded with the same model and task type always
// yields the same vector, so the result can be reused freely.
package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/xxxsen/docqa/internal/ai"
)

// CacheKey hashes model, task type and content into the lookup key. The
// model and task type are part of the key so that switching either never
// serves a vector computed under different settings.
func CacheKey(model, taskType, text string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|", model, taskType)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

type lruEmbedder struct {
	inner ai.IEmbedder
	cache *expirable.LRU[string, []float32]
}

// WithLRU wraps an embedder with an in-process expiring LRU tier.
func WithLRU(inner ai.IEmbedder, size int, ttl time.Duration) ai.IEmbedder {
	if size <= 0 {
		size = 1024
	}
	return &lruEmbedder{
		inner: inner,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

func (e *lruEmbedder) ModelName() string {
	return e.inner.ModelName()
}

func (e *lruEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	key := CacheKey(e.inner.ModelName(), taskType, text)
	if vec, ok := e.cache.Get(key); ok {
		return vec, nil
	}
	vec, err := e.inner.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	e.cache.Add(key, vec)
	return vec, nil
}
