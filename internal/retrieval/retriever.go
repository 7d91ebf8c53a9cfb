// Package retrieval implements the query-time pipeline: chunking at
// ingest, brute-force L2 ranking over a tenant's corpus, and assembly of
// the bounded context payload handed to a generation provider.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/ai"
	"github.com/xxxsen/docqa/internal/model"
	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
	"github.com/xxxsen/docqa/internal/pkg/vecutil"
)

const DefaultTopK = 3

// CorpusSource loads every chunk+vector a tenant credential owns, in
// chunk insertion order. It must return ErrTenantNotFound for an unknown
// key, distinct from an empty result.
type CorpusSource interface {
	ListChunks(ctx context.Context, tenantKey string) ([]model.ChunkEmbedding, error)
}

type Hit struct {
	ChunkID    int64   `json:"chunk_id"`
	DocumentID int64   `json:"document_id"`
	Content    string  `json:"content"`
	Distance   float64 `json:"distance"`
}

type Retriever struct {
	source   CorpusSource
	embedder ai.IEmbedder
	timeout  time.Duration
}

func NewRetriever(source CorpusSource, embedder ai.IEmbedder, timeout time.Duration) *Retriever {
	return &Retriever{source: source, embedder: embedder, timeout: timeout}
}

// ModelName exposes the embedding model queries run against, so callers
// can refuse corpora pinned to a different model.
func (r *Retriever) ModelName() string {
	return r.embedder.ModelName()
}

// Retrieve returns the topK chunks of the tenant's corpus closest to the
// query by L2 distance, ascending, ties broken by chunk insertion order.
// The whole call runs under the configured execution budget; exceeding
// it is ErrRetrievalTimeout.
func (r *Retriever) Retrieve(ctx context.Context, tenantKey string, query string, topK int) ([]Hit, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	logger := logutil.GetLogger(ctx).With(zap.String("api_key", tenantKey))

	corpus, err := r.source.ListChunks(ctx, tenantKey)
	if err != nil {
		return nil, asTimeout(ctx, err)
	}
	if len(corpus) == 0 {
		return nil, appErr.ErrEmptyCorpus
	}

	// Query vectors must come from the same embedder as the corpus.
	queryVec, err := r.embedder.Embed(ctx, query, ai.TaskTypeQuery)
	if err != nil {
		logger.Error("failed to embed query", zap.Error(err))
		return nil, asTimeout(ctx, err)
	}

	hits := make([]Hit, 0, len(corpus))
	for i, item := range corpus {
		if len(item.Vector) != len(queryVec) {
			// A corrupt vector makes results silently incomplete if
			// skipped, so the whole query fails instead.
			logger.Error("stored embedding dimension mismatch",
				zap.Int64("chunk_id", item.ChunkID),
				zap.Int("stored", len(item.Vector)),
				zap.Int("expected", len(queryVec)),
			)
			return nil, fmt.Errorf("%w: chunk %d has %d dims, query has %d",
				appErr.ErrDimensionMismatch, item.ChunkID, len(item.Vector), len(queryVec))
		}
		hits = append(hits, Hit{
			ChunkID:    item.ChunkID,
			DocumentID: item.DocumentID,
			Content:    item.Content,
			Distance:   vecutil.L2Distance(item.Vector, queryVec),
		})
		if i%256 == 255 {
			if err := ctx.Err(); err != nil {
				return nil, asTimeout(ctx, err)
			}
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK], nil
}

func asTimeout(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return appErr.ErrRetrievalTimeout
	}
	return err
}
