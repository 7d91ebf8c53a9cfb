package service

import (
	"context"

	"github.com/xxxsen/docqa/internal/model"
	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
	"github.com/xxxsen/docqa/internal/pkg/timeutil"
	"github.com/xxxsen/docqa/internal/repo"
)

// APIKeyService manages tenant credentials. The embedding model and
// dimension are pinned at creation time so the corpus stays consistent
// even if the server configuration changes later.
type APIKeyService struct {
	keys       *repo.APIKeyRepo
	embedModel string
	embedDim   int
}

func NewAPIKeyService(keys *repo.APIKeyRepo, embedModel string, embedDim int) *APIKeyService {
	return &APIKeyService{keys: keys, embedModel: embedModel, embedDim: embedDim}
}

func (s *APIKeyService) Create(ctx context.Context, userID, label, instructions string, tokenLimit int64) (*model.APIKey, error) {
	if userID == "" {
		return nil, appErr.ErrInvalid
	}
	key := &model.APIKey{
		Key:          newAPIKey(),
		UserID:       userID,
		Label:        label,
		Instructions: instructions,
		EmbedModel:   s.embedModel,
		EmbedDim:     s.embedDim,
		TokenLimit:   tokenLimit,
		TokensUsed:   0,
		Ctime:        timeutil.NowUnix(),
		LastUsedAt:   0,
	}
	if err := s.keys.Create(ctx, key); err != nil {
		return nil, err
	}
	return key, nil
}

func (s *APIKeyService) List(ctx context.Context, userID string) ([]model.APIKey, error) {
	return s.keys.ListByUser(ctx, userID)
}

func (s *APIKeyService) UpdateInstructions(ctx context.Context, userID, key, instructions string) error {
	return s.keys.UpdateInstructions(ctx, userID, key, instructions)
}

func (s *APIKeyService) UpdateTokenLimit(ctx context.Context, userID, key string, limit int64) error {
	if limit < 0 {
		return appErr.ErrInvalid
	}
	return s.keys.UpdateTokenLimit(ctx, userID, key, limit)
}

// Delete removes the credential and its whole corpus.
func (s *APIKeyService) Delete(ctx context.Context, userID, key string) error {
	return s.keys.Delete(ctx, userID, key)
}
