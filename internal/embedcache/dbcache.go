package embedcache

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/ai"
	"github.com/xxxsen/docqa/internal/model"
	"github.com/xxxsen/docqa/internal/pkg/timeutil"
)

// Store is the durable cache tier, implemented by repo.EmbeddingCacheRepo.
type Store interface {
	Get(ctx context.Context, modelName, taskType, contentHash string) ([]float32, bool, error)
	Save(ctx context.Context, item *model.EmbeddingCache) error
}

type dbEmbedder struct {
	inner ai.IEmbedder
	store Store
}

// WithStore wraps an embedder with a durable cache tier. Store errors
// are logged and degrade to a provider call; they never fail the embed.
func WithStore(inner ai.IEmbedder, store Store) ai.IEmbedder {
	return &dbEmbedder{inner: inner, store: store}
}

func (e *dbEmbedder) ModelName() string {
	return e.inner.ModelName()
}

func (e *dbEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	hash := CacheKey(e.inner.ModelName(), taskType, text)
	vec, ok, err := e.store.Get(ctx, e.inner.ModelName(), taskType, hash)
	if err != nil {
		logutil.GetLogger(ctx).Warn("read embedding cache failed", zap.Error(err))
	} else if ok {
		return vec, nil
	}
	vec, err = e.inner.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	if saveErr := e.store.Save(ctx, &model.EmbeddingCache{
		ModelName:   e.inner.ModelName(),
		TaskType:    taskType,
		ContentHash: hash,
		Embedding:   vec,
		Ctime:       timeutil.NowUnix(),
	}); saveErr != nil {
		logutil.GetLogger(ctx).Warn("save embedding cache failed", zap.Error(saveErr))
	}
	return vec, nil
}
