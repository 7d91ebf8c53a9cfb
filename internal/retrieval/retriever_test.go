package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docqa/internal/model"
	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
)

type fakeSource struct {
	corpus map[string][]model.ChunkEmbedding
}

func (s *fakeSource) ListChunks(ctx context.Context, tenantKey string) ([]model.ChunkEmbedding, error) {
	corpus, ok := s.corpus[tenantKey]
	if !ok {
		return nil, appErr.ErrTenantNotFound
	}
	return corpus, nil
}

type fakeEmbedder struct {
	vec   []float32
	delay time.Duration
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return e.vec, nil
}

func (e *fakeEmbedder) ModelName() string { return "fake-model" }

func corpusOf(vectors ...[]float32) []model.ChunkEmbedding {
	corpus := make([]model.ChunkEmbedding, 0, len(vectors))
	for i, vec := range vectors {
		corpus = append(corpus, model.ChunkEmbedding{
			ChunkID:    int64(i + 1),
			DocumentID: 1,
			Content:    "chunk",
			Vector:     vec,
		})
	}
	return corpus
}

func TestRetrieveRankedByDistance(t *testing.T) {
	source := &fakeSource{corpus: map[string][]model.ChunkEmbedding{
		"key": corpusOf([]float32{0.9}, []float32{0.1}, []float32{0.5}),
	}}
	r := NewRetriever(source, &fakeEmbedder{vec: []float32{0}}, 0)

	hits, err := r.Retrieve(context.Background(), "key", "question", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, int64(2), hits[0].ChunkID)
	require.Equal(t, int64(3), hits[1].ChunkID)
	require.InDelta(t, 0.1, hits[0].Distance, 1e-6)
	require.InDelta(t, 0.5, hits[1].Distance, 1e-6)
}

func TestRetrieveFirstHitIsMinimum(t *testing.T) {
	source := &fakeSource{corpus: map[string][]model.ChunkEmbedding{
		"key": corpusOf([]float32{3}, []float32{-2}, []float32{7}, []float32{0.25}, []float32{-0.5}),
	}}
	r := NewRetriever(source, &fakeEmbedder{vec: []float32{0}}, 0)

	hits, err := r.Retrieve(context.Background(), "key", "question", 5)
	require.NoError(t, err)
	for i := 1; i < len(hits); i++ {
		require.LessOrEqual(t, hits[i-1].Distance, hits[i].Distance)
	}
	require.Equal(t, int64(4), hits[0].ChunkID)
}

func TestRetrieveCap(t *testing.T) {
	source := &fakeSource{corpus: map[string][]model.ChunkEmbedding{
		"key": corpusOf([]float32{1}, []float32{2}),
	}}
	r := NewRetriever(source, &fakeEmbedder{vec: []float32{0}}, 0)

	hits, err := r.Retrieve(context.Background(), "key", "question", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
}

func TestRetrieveDefaultTopK(t *testing.T) {
	source := &fakeSource{corpus: map[string][]model.ChunkEmbedding{
		"key": corpusOf([]float32{1}, []float32{2}, []float32{3}, []float32{4}),
	}}
	r := NewRetriever(source, &fakeEmbedder{vec: []float32{0}}, 0)

	hits, err := r.Retrieve(context.Background(), "key", "question", 0)
	require.NoError(t, err)
	require.Len(t, hits, DefaultTopK)
}

func TestRetrieveTiesKeepInsertionOrder(t *testing.T) {
	source := &fakeSource{corpus: map[string][]model.ChunkEmbedding{
		"key": corpusOf([]float32{1}, []float32{1}, []float32{1}),
	}}
	r := NewRetriever(source, &fakeEmbedder{vec: []float32{0}}, 0)

	hits, err := r.Retrieve(context.Background(), "key", "question", 3)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3}, []int64{hits[0].ChunkID, hits[1].ChunkID, hits[2].ChunkID})
}

func TestRetrieveEmptyCorpus(t *testing.T) {
	source := &fakeSource{corpus: map[string][]model.ChunkEmbedding{"key": nil}}
	r := NewRetriever(source, &fakeEmbedder{vec: []float32{0}}, 0)

	_, err := r.Retrieve(context.Background(), "key", "question", 3)
	require.ErrorIs(t, err, appErr.ErrEmptyCorpus)
}

func TestRetrieveTenantNotFound(t *testing.T) {
	source := &fakeSource{corpus: map[string][]model.ChunkEmbedding{}}
	r := NewRetriever(source, &fakeEmbedder{vec: []float32{0}}, 0)

	_, err := r.Retrieve(context.Background(), "missing", "question", 3)
	require.ErrorIs(t, err, appErr.ErrTenantNotFound)
}

func TestRetrieveDimensionMismatch(t *testing.T) {
	source := &fakeSource{corpus: map[string][]model.ChunkEmbedding{
		"key": corpusOf([]float32{1, 2}, []float32{1}),
	}}
	r := NewRetriever(source, &fakeEmbedder{vec: []float32{0, 0}}, 0)

	_, err := r.Retrieve(context.Background(), "key", "question", 3)
	require.ErrorIs(t, err, appErr.ErrDimensionMismatch)
}

func TestRetrieveTimeout(t *testing.T) {
	source := &fakeSource{corpus: map[string][]model.ChunkEmbedding{
		"key": corpusOf([]float32{1}),
	}}
	r := NewRetriever(source, &fakeEmbedder{vec: []float32{0}, delay: 200 * time.Millisecond}, 10*time.Millisecond)

	_, err := r.Retrieve(context.Background(), "key", "question", 3)
	require.ErrorIs(t, err, appErr.ErrRetrievalTimeout)
	require.False(t, errors.Is(err, appErr.ErrEmptyCorpus))
}
