package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/xxxsen/docqa/internal/model"
	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
	"github.com/xxxsen/docqa/internal/pkg/vecutil"
)

// DocumentRepo is the corpus store: documents, their ordered chunks and
// the 1:1 chunk embeddings, all scoped to a tenant credential.
type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// CreateWithChunks persists a document plus its chunks and their vectors
// as one transaction. chunks and vectors are index-aligned and in
// original document order; any failure rolls the whole batch back, so a
// document can never exist with a partial chunk or embedding set.
func (r *DocumentRepo) CreateWithChunks(ctx context.Context, doc *model.Document, chunks []string, vectors [][]float32, expectDim int) (int64, error) {
	if len(chunks) != len(vectors) {
		return 0, fmt.Errorf("%w: %d chunks, %d vectors", appErr.ErrInternal, len(chunks), len(vectors))
	}
	for i, vec := range vectors {
		if len(vec) != expectDim {
			return 0, fmt.Errorf("%w: chunk %d embeds to %d dims, corpus expects %d",
				appErr.ErrDimensionMismatch, i, len(vec), expectDim)
		}
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var docID int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO documents (api_key, filename, size, storage_key, hits, ctime, last_used_at)
		 VALUES ($1, $2, $3, $4, 0, $5, 0) RETURNING id`,
		doc.APIKey, doc.Filename, doc.Size, doc.StorageKey, doc.Ctime,
	).Scan(&docID)
	if err != nil {
		return 0, err
	}
	for i, content := range chunks {
		var chunkID int64
		err = tx.QueryRowContext(ctx,
			`INSERT INTO chunks (document_id, seq, content, ctime) VALUES ($1, $2, $3, $4) RETURNING id`,
			docID, i, content, doc.Ctime,
		).Scan(&chunkID)
		if err != nil {
			return 0, err
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO embeddings (chunk_id, embedding) VALUES ($1, $2)`,
			chunkID, vecutil.Encode(vectors[i]),
		); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return docID, nil
}

// ListChunks returns every chunk+vector the credential owns, in chunk
// insertion order. An unknown credential is ErrTenantNotFound; a known
// credential with no documents returns an empty slice.
func (r *DocumentRepo) ListChunks(ctx context.Context, apiKey string) ([]model.ChunkEmbedding, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM api_keys WHERE api_key = $1`, apiKey).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	const query = `
		SELECT c.id, c.document_id, c.content, e.embedding
		FROM chunks c
		JOIN embeddings e ON e.chunk_id = c.id
		JOIN documents d ON d.id = c.document_id
		WHERE d.api_key = $1
		ORDER BY c.id
	`
	rows, err := r.db.QueryContext(ctx, query, apiKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.ChunkEmbedding
	for rows.Next() {
		var item model.ChunkEmbedding
		var blob []byte
		if err := rows.Scan(&item.ChunkID, &item.DocumentID, &item.Content, &blob); err != nil {
			return nil, err
		}
		vec, err := vecutil.Decode(blob)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", item.ChunkID, err)
		}
		item.Vector = vec
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *DocumentRepo) GetByID(ctx context.Context, apiKey string, docID int64) (*model.Document, error) {
	const query = `
		SELECT id, api_key, filename, size, storage_key, hits, ctime, last_used_at
		FROM documents WHERE id = $1 AND api_key = $2
	`
	row := r.db.QueryRowContext(ctx, query, docID, apiKey)
	var doc model.Document
	if err := row.Scan(&doc.ID, &doc.APIKey, &doc.Filename, &doc.Size, &doc.StorageKey, &doc.Hits, &doc.Ctime, &doc.LastUsedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepo) ListByAPIKey(ctx context.Context, apiKey string) ([]model.Document, error) {
	const query = `
		SELECT id, api_key, filename, size, storage_key, hits, ctime, last_used_at
		FROM documents WHERE api_key = $1 ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, apiKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []model.Document
	for rows.Next() {
		var doc model.Document
		if err := rows.Scan(&doc.ID, &doc.APIKey, &doc.Filename, &doc.Size, &doc.StorageKey, &doc.Hits, &doc.Ctime, &doc.LastUsedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Delete removes a document; chunks and embeddings go with it via
// cascade.
func (r *DocumentRepo) Delete(ctx context.Context, apiKey string, docID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1 AND api_key = $2`, docID, apiKey)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// TouchHits bumps the access counters of the documents whose chunks were
// just retrieved.
func (r *DocumentRepo) TouchHits(ctx context.Context, docIDs []int64, now int64) error {
	if len(docIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE documents SET hits = hits + 1, last_used_at = ? WHERE id IN (?)`, now, docIDs)
	if err != nil {
		return err
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}
