package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/docqa/internal/model"
	"github.com/xxxsen/docqa/internal/pkg/dbutil"
)

// ChatSessionRepo writes the immutable per-turn audit records. There is
// deliberately no update or delete path.
type ChatSessionRepo struct {
	db *sql.DB
}

func NewChatSessionRepo(db *sql.DB) *ChatSessionRepo {
	return &ChatSessionRepo{db: db}
}

func (r *ChatSessionRepo) Create(ctx context.Context, session *model.ChatSession) error {
	data := map[string]interface{}{
		"session_id":         session.SessionID,
		"user_id":            session.UserID,
		"api_key":            session.APIKey,
		"provider":           session.Provider,
		"model":              session.Model,
		"question":           session.Question,
		"answer":             session.Answer,
		"document":           session.Document,
		"image":              session.Image,
		"document_hits":      session.DocumentHits,
		"input_tokens":       session.InputTokens,
		"output_tokens":      session.OutputTokens,
		"total_tokens":       session.TotalTokens,
		"request_latency_ms": session.LatencyMs,
		"status_code":        session.StatusCode,
		"ctime":              session.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("chat_sessions", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ChatSessionRepo) ListByUser(ctx context.Context, userID string, limit int) ([]model.ChatSession, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT id, session_id, user_id, api_key, provider, model, question, answer,
		       document, image, document_hits, input_tokens, output_tokens, total_tokens,
		       request_latency_ms, status_code, ctime
		FROM chat_sessions WHERE user_id = $1 ORDER BY ctime DESC LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sessions []model.ChatSession
	for rows.Next() {
		var s model.ChatSession
		if err := rows.Scan(&s.ID, &s.SessionID, &s.UserID, &s.APIKey, &s.Provider, &s.Model,
			&s.Question, &s.Answer, &s.Document, &s.Image, &s.DocumentHits,
			&s.InputTokens, &s.OutputTokens, &s.TotalTokens, &s.LatencyMs, &s.StatusCode, &s.Ctime); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
