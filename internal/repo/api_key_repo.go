package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/docqa/internal/model"
	"github.com/xxxsen/docqa/internal/pkg/dbutil"
	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
)

// APIKeyRepo manages tenant credentials. Deleting a key cascades through
// documents, chunks and embeddings via foreign keys.
type APIKeyRepo struct {
	db *sql.DB
}

func NewAPIKeyRepo(db *sql.DB) *APIKeyRepo {
	return &APIKeyRepo{db: db}
}

const apiKeyColumns = `api_key, user_id, label, instructions, embed_model, embed_dim, token_limit, tokens_used, ctime, last_used_at`

func (r *APIKeyRepo) Create(ctx context.Context, key *model.APIKey) error {
	data := map[string]interface{}{
		"api_key":      key.Key,
		"user_id":      key.UserID,
		"label":        key.Label,
		"instructions": key.Instructions,
		"embed_model":  key.EmbedModel,
		"embed_dim":    key.EmbedDim,
		"token_limit":  key.TokenLimit,
		"tokens_used":  key.TokensUsed,
		"ctime":        key.Ctime,
		"last_used_at": key.LastUsedAt,
	}
	sqlStr, args, err := builder.BuildInsert("api_keys", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if dbutil.IsConflict(err) {
		return appErr.ErrConflict
	}
	return err
}

// GetByKey resolves a tenant credential. An unknown key is
// ErrTenantNotFound, never an empty record.
func (r *APIKeyRepo) GetByKey(ctx context.Context, key string) (*model.APIKey, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE api_key = $1`, key)
	item, err := scanAPIKey(row)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *APIKeyRepo) ListByUser(ctx context.Context, userID string) ([]model.APIKey, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE user_id = $1 ORDER BY ctime`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []model.APIKey
	for rows.Next() {
		var item model.APIKey
		if err := rows.Scan(&item.Key, &item.UserID, &item.Label, &item.Instructions, &item.EmbedModel,
			&item.EmbedDim, &item.TokenLimit, &item.TokensUsed, &item.Ctime, &item.LastUsedAt); err != nil {
			return nil, err
		}
		keys = append(keys, item)
	}
	return keys, rows.Err()
}

func (r *APIKeyRepo) UpdateInstructions(ctx context.Context, userID, key, instructions string) error {
	const query = `UPDATE api_keys SET instructions = $1 WHERE api_key = $2 AND user_id = $3`
	return r.execOwned(ctx, query, instructions, key, userID)
}

func (r *APIKeyRepo) UpdateTokenLimit(ctx context.Context, userID, key string, limit int64) error {
	const query = `UPDATE api_keys SET token_limit = $1 WHERE api_key = $2 AND user_id = $3`
	return r.execOwned(ctx, query, limit, key, userID)
}

// AddUsage charges consumed tokens to the credential and refreshes its
// last-used timestamp.
func (r *APIKeyRepo) AddUsage(ctx context.Context, key string, tokens int64, now int64) error {
	const query = `UPDATE api_keys SET tokens_used = tokens_used + $1, last_used_at = $2 WHERE api_key = $3`
	_, err := r.db.ExecContext(ctx, query, tokens, now, key)
	return err
}

// Delete removes the credential and, transitively, every document, chunk
// and embedding scoped to it.
func (r *APIKeyRepo) Delete(ctx context.Context, userID, key string) error {
	const query = `DELETE FROM api_keys WHERE api_key = $1 AND user_id = $2`
	return r.execOwned(ctx, query, key, userID)
}

func (r *APIKeyRepo) execOwned(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
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

func scanAPIKey(row *sql.Row) (*model.APIKey, error) {
	var item model.APIKey
	if err := row.Scan(&item.Key, &item.UserID, &item.Label, &item.Instructions, &item.EmbedModel,
		&item.EmbedDim, &item.TokenLimit, &item.TokensUsed, &item.Ctime, &item.LastUsedAt); err != nil {
		return nil, err
	}
	return &item, nil
}
