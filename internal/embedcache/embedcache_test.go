package embedcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docqa/internal/ai"
)

type countingEmbedder struct {
	model string
	calls int
}

func (e *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	e.calls++
	return []float32{float32(len(text)), float32(len(taskType))}, nil
}

func (e *countingEmbedder) ModelName() string {
	return e.model
}

func TestLRUServesRepeatsFromCache(t *testing.T) {
	inner := &countingEmbedder{model: "embed-v1"}
	embedder := WithLRU(inner, 16, time.Minute)

	first, err := embedder.Embed(context.Background(), "hello", ai.TaskTypeDocument)
	require.NoError(t, err)
	second, err := embedder.Embed(context.Background(), "hello", ai.TaskTypeDocument)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, inner.calls)
}

func TestLRUKeySeparatesTaskTypes(t *testing.T) {
	inner := &countingEmbedder{model: "embed-v1"}
	embedder := WithLRU(inner, 16, time.Minute)

	_, err := embedder.Embed(context.Background(), "hello", ai.TaskTypeDocument)
	require.NoError(t, err)
	_, err = embedder.Embed(context.Background(), "hello", ai.TaskTypeQuery)
	require.NoError(t, err)

	require.Equal(t, 2, inner.calls)
}

func TestCacheKeyDependsOnModel(t *testing.T) {
	a := CacheKey("model-a", ai.TaskTypeQuery, "text")
	b := CacheKey("model-b", ai.TaskTypeQuery, "text")
	require.NotEqual(t, a, b)
	require.Equal(t, a, CacheKey("model-a", ai.TaskTypeQuery, "text"))
}
