package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/ai"
	"github.com/xxxsen/docqa/internal/extract"
	"github.com/xxxsen/docqa/internal/filestore"
	"github.com/xxxsen/docqa/internal/model"
	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
	"github.com/xxxsen/docqa/internal/pkg/timeutil"
	"github.com/xxxsen/docqa/internal/repo"
	"github.com/xxxsen/docqa/internal/retrieval"
)

const maxUploadBytes = 20 << 20

// IngestService turns an uploaded file into corpus chunks: extract text,
// split into chunks, embed each chunk, then persist everything in one
// transaction. Ingests for the same credential are serialized so two
// concurrent uploads cannot interleave chunk ids.
type IngestService struct {
	keys     *repo.APIKeyRepo
	docs     *repo.DocumentRepo
	embedder ai.IEmbedder
	store    filestore.Store

	uploadChunkSize int
	ingestChunkSize int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewIngestService(keys *repo.APIKeyRepo, docs *repo.DocumentRepo, embedder ai.IEmbedder,
	store filestore.Store, uploadChunkSize, ingestChunkSize int) *IngestService {
	if uploadChunkSize <= 0 {
		uploadChunkSize = 200
	}
	if ingestChunkSize <= 0 {
		ingestChunkSize = 1000
	}
	return &IngestService{
		keys:            keys,
		docs:            docs,
		embedder:        embedder,
		store:           store,
		uploadChunkSize: uploadChunkSize,
		ingestChunkSize: ingestChunkSize,
		locks:           make(map[string]*sync.Mutex),
	}
}

// UploadDocument ingests a file uploaded through the API, using the
// small chunk size tuned for short user documents.
func (s *IngestService) UploadDocument(ctx context.Context, apiKey, filename string, data []byte) (*model.Document, int, error) {
	return s.ingest(ctx, apiKey, filename, data, s.uploadChunkSize)
}

// IngestStored ingests a file that already sits in the file store, e.g.
// delivered by the upload webhook. Large pre-staged files get the bigger
// chunk size.
func (s *IngestService) IngestStored(ctx context.Context, apiKey, storageKey, filename string) (*model.Document, int, error) {
	rc, err := s.store.Open(ctx, storageKey)
	if err != nil {
		return nil, 0, fmt.Errorf("open stored file: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxUploadBytes+1))
	if err != nil {
		return nil, 0, err
	}
	if len(data) > maxUploadBytes {
		return nil, 0, fmt.Errorf("%w: file exceeds %d bytes", appErr.ErrInvalid, maxUploadBytes)
	}
	return s.ingest(ctx, apiKey, filename, data, s.ingestChunkSize)
}

func (s *IngestService) ingest(ctx context.Context, apiKey, filename string, data []byte, chunkSize int) (*model.Document, int, error) {
	if filename == "" || len(data) == 0 {
		return nil, 0, appErr.ErrInvalid
	}
	if len(data) > maxUploadBytes {
		return nil, 0, fmt.Errorf("%w: file exceeds %d bytes", appErr.ErrInvalid, maxUploadBytes)
	}
	key, err := s.keys.GetByKey(ctx, apiKey)
	if err != nil {
		return nil, 0, err
	}
	if key.EmbedModel != "" && key.EmbedModel != s.embedder.ModelName() {
		return nil, 0, fmt.Errorf("%w: corpus pinned to model %s, server embeds with %s",
			appErr.ErrInvalid, key.EmbedModel, s.embedder.ModelName())
	}

	text, err := extract.Extract(filename, data)
	if err != nil {
		return nil, 0, err
	}
	chunks := retrieval.Chunk(text, chunkSize)
	if len(chunks) == 0 {
		return nil, 0, fmt.Errorf("%w: no text content", appErr.ErrInvalid)
	}
	vectors, err := ai.EmbedAll(ctx, s.embedder, chunks, ai.TaskTypeDocument)
	if err != nil {
		return nil, 0, err
	}

	// Keep the original alongside the chunks; the key lands on the document
	// row so the file can be served back or re-ingested later.
	var storageKey string
	if s.store != nil {
		storageKey = newID() + filepath.Ext(filename)
		if err := s.store.Save(ctx, storageKey, byteFile{bytes.NewReader(data)}, int64(len(data))); err != nil {
			logutil.GetLogger(ctx).Warn("save original file failed",
				zap.String("filename", filename), zap.Error(err))
			storageKey = ""
		}
	}

	lock := s.tenantLock(apiKey)
	lock.Lock()
	defer lock.Unlock()

	doc := &model.Document{
		APIKey:     apiKey,
		Filename:   filename,
		Size:       int64(len(data)),
		StorageKey: storageKey,
		Ctime:      timeutil.NowUnix(),
	}
	docID, err := s.docs.CreateWithChunks(ctx, doc, chunks, vectors, key.EmbedDim)
	if err != nil {
		return nil, 0, err
	}
	doc.ID = docID
	logutil.GetLogger(ctx).Info("document ingested",
		zap.String("api_key", apiKey),
		zap.String("filename", filename),
		zap.Int64("document_id", docID),
		zap.Int("chunks", len(chunks)),
	)
	return doc, len(chunks), nil
}

func (s *IngestService) ListDocuments(ctx context.Context, apiKey string) ([]model.Document, error) {
	if _, err := s.keys.GetByKey(ctx, apiKey); err != nil {
		return nil, err
	}
	return s.docs.ListByAPIKey(ctx, apiKey)
}

func (s *IngestService) DeleteDocument(ctx context.Context, apiKey string, docID int64) error {
	return s.docs.Delete(ctx, apiKey, docID)
}

func (s *IngestService) tenantLock(apiKey string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[apiKey]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[apiKey] = lock
	}
	return lock
}

type byteFile struct {
	*bytes.Reader
}

func (byteFile) Close() error {
	return nil
}
