package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docqa/internal/ai"
	"github.com/xxxsen/docqa/internal/model"
	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
	"github.com/xxxsen/docqa/internal/repo"
	"github.com/xxxsen/docqa/internal/retrieval"
)

type stubSource struct{}

func (stubSource) ListChunks(ctx context.Context, tenantKey string) ([]model.ChunkEmbedding, error) {
	return []model.ChunkEmbedding{
		{ChunkID: 1, DocumentID: 7, Content: "alpha", Vector: []float32{1, 0, 0}},
	}, nil
}

type fixedEmbedder struct {
	model string
}

func (e fixedEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (e fixedEmbedder) ModelName() string {
	return e.model
}

// scriptedProvider emits a fixed run of content fragments and a trailing
// usage fragment, like a real streaming backend.
type scriptedProvider struct {
	fragments int
}

func (p scriptedProvider) Name() string {
	return "scripted"
}

func (p scriptedProvider) GenerateStream(ctx context.Context, model string, prompt string) (<-chan ai.Fragment, error) {
	out := make(chan ai.Fragment)
	go func() {
		defer close(out)
		for i := 0; i < p.fragments; i++ {
			select {
			case out <- ai.Fragment{Type: ai.FragmentContent, Text: "x"}:
			case <-ctx.Done():
				return
			}
		}
		select {
		case out <- ai.Fragment{Type: ai.FragmentUsage, Usage: &ai.Usage{InputTokens: 10, OutputTokens: 90, TotalTokens: 100}}:
		case <-ctx.Done():
		}
	}()
	return out, nil
}

func init() {
	ai.Register("scripted", func(args interface{}) (ai.IAIProvider, error) {
		return scriptedProvider{fragments: 100}, nil
	})
}

func newChatServiceForTest(t *testing.T) (*ChatService, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	mock.MatchExpectationsInOrder(false)

	retriever := retrieval.NewRetriever(stubSource{}, fixedEmbedder{model: "embed-v1"}, 0)
	providers, err := ai.NewRegistry(map[string]interface{}{"scripted": map[string]interface{}{}})
	require.NoError(t, err)

	svc := NewChatService(
		repo.NewAPIKeyRepo(conn),
		repo.NewDocumentRepo(conn),
		repo.NewChatSessionRepo(conn),
		retriever, providers, 3, 5*time.Second,
	)
	return svc, mock
}

func expectTenant(mock sqlmock.Sqlmock, embedModel string) {
	rows := sqlmock.NewRows([]string{
		"api_key", "user_id", "label", "instructions", "embed_model",
		"embed_dim", "token_limit", "tokens_used", "ctime", "last_used_at",
	}).AddRow("key-a", "user-1", "", "", embedModel, 3, 0, 0, 1, 0)
	mock.ExpectQuery("SELECT (.+) FROM api_keys WHERE api_key").WillReturnRows(rows)
}

func expectTurnRecorded(mock sqlmock.Sqlmock) {
	mock.ExpectExec("UPDATE documents SET hits").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE api_keys SET tokens_used").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO chat_sessions").WillReturnResult(sqlmock.NewResult(1, 1))
}

func TestChatAskRecordsTurn(t *testing.T) {
	svc, mock := newChatServiceForTest(t)
	expectTenant(mock, "embed-v1")
	expectTurnRecorded(mock)

	result, err := svc.Ask(context.Background(), AskRequest{
		APIKey: "key-a", Question: "q", Provider: "scripted", Model: "m",
	})
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("x", 100), result.Answer)
	require.Equal(t, int64(100), result.Usage.TotalTokens)
	require.Len(t, result.Hits, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChatStreamClientGoneStillRecordsTurn(t *testing.T) {
	svc, mock := newChatServiceForTest(t)
	expectTenant(mock, "embed-v1")
	expectTurnRecorded(mock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, err := svc.AskStream(ctx, AskRequest{
		APIKey: "key-a", Question: "q", Provider: "scripted", Model: "m",
	})
	require.NoError(t, err)

	// read a couple of fragments, then walk away mid-answer
	<-stream
	<-stream
	cancel()

	// the turn must still be drained, charged and persisted
	require.Eventually(t, func() bool {
		return mock.ExpectationsWereMet() == nil
	}, 3*time.Second, 10*time.Millisecond)
}

func TestChatRefusesForeignEmbedModel(t *testing.T) {
	svc, mock := newChatServiceForTest(t)
	expectTenant(mock, "embed-v2")

	_, err := svc.Ask(context.Background(), AskRequest{
		APIKey: "key-a", Question: "q", Provider: "scripted", Model: "m",
	})
	require.ErrorIs(t, err, appErr.ErrInvalid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExtractAttachment(t *testing.T) {
	long := strings.Repeat("word ", 4000)
	text, err := extractAttachment(Attachment{Filename: "notes.txt", Data: []byte(long)})
	require.NoError(t, err)
	require.NotEmpty(t, text)
	require.LessOrEqual(t, len(text), maxAttachmentChars)

	_, err = extractAttachment(Attachment{Filename: "tool.exe", Data: []byte("MZ")})
	require.ErrorIs(t, err, appErr.ErrUnsupportedFormat)
}
