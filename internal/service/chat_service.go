package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/ai"
	"github.com/xxxsen/docqa/internal/extract"
	"github.com/xxxsen/docqa/internal/model"
	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
	"github.com/xxxsen/docqa/internal/pkg/timeutil"
	"github.com/xxxsen/docqa/internal/repo"
	"github.com/xxxsen/docqa/internal/retrieval"
)

type AskRequest struct {
	APIKey   string
	UserID   string
	Question string
	Provider string
	Model    string
	// TopK overrides the configured chunk count when positive.
	TopK int
	// Images are summarized by a multimodal provider; the summaries join
	// the prompt context. Documents are extracted inline and ride along as
	// ad-hoc context without touching the corpus.
	Images    []Attachment
	Documents []Attachment
}

// Attachment is a file riding along with one chat turn.
type Attachment struct {
	Filename string
	MimeType string
	Data     []byte
}

type AskResult struct {
	SessionID string          `json:"session_id"`
	Answer    string          `json:"answer"`
	Hits      []retrieval.Hit `json:"hits"`
	Usage     ai.Usage        `json:"usage"`
}

// ChatService runs one question/answer turn: resolve the credential,
// retrieve the closest chunks, assemble the prompt, stream the answer
// from the chosen provider and record the turn.
type ChatService struct {
	keys      *repo.APIKeyRepo
	docs      *repo.DocumentRepo
	sessions  *repo.ChatSessionRepo
	retriever *retrieval.Retriever
	providers *ai.Registry
	topK      int
	timeout   time.Duration
}

func NewChatService(keys *repo.APIKeyRepo, docs *repo.DocumentRepo, sessions *repo.ChatSessionRepo,
	retriever *retrieval.Retriever, providers *ai.Registry, topK int, timeout time.Duration) *ChatService {
	return &ChatService{
		keys:      keys,
		docs:      docs,
		sessions:  sessions,
		retriever: retriever,
		providers: providers,
		topK:      topK,
		timeout:   timeout,
	}
}

// Ask answers synchronously by draining the stream.
func (s *ChatService) Ask(ctx context.Context, req AskRequest) (*AskResult, error) {
	stream, result, err := s.start(ctx, req)
	if err != nil {
		return nil, err
	}
	for range stream {
	}
	return result.wait(), nil
}

// AskStream starts a turn and hands the fragment stream to the caller.
// The audit record and token accounting are finalized once the stream
// drains, even if the caller's context is gone by then.
func (s *ChatService) AskStream(ctx context.Context, req AskRequest) (<-chan ai.Fragment, error) {
	stream, _, err := s.start(ctx, req)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

const (
	visionProviderName = "gemini"
	defaultVisionModel = "gemini-2.0-flash"
)

func (s *ChatService) describeImage(ctx context.Context, img Attachment) (string, error) {
	provider, err := s.providers.Get(visionProviderName)
	if err != nil {
		return "", err
	}
	describer, ok := provider.(ai.ImageDescriber)
	if !ok {
		return "", ai.ErrUnavailable
	}
	return describer.DescribeImage(ctx, defaultVisionModel, img.MimeType, img.Data)
}

// maxAttachmentChars bounds the extracted text of each inline document so
// one oversized attachment cannot crowd everything else out of the prompt.
const maxAttachmentChars = 8000

func extractAttachment(doc Attachment) (string, error) {
	text, err := extract.Extract(doc.Filename, doc.Data)
	if err != nil {
		return "", fmt.Errorf("attachment %s: %w", doc.Filename, err)
	}
	text = strings.TrimSpace(text)
	if len(text) > maxAttachmentChars {
		text = text[:maxAttachmentChars]
	}
	return text, nil
}

// History lists the caller's recent turns, newest first.
func (s *ChatService) History(ctx context.Context, userID string, limit int) ([]model.ChatSession, error) {
	return s.sessions.ListByUser(ctx, userID, limit)
}

type pendingResult struct {
	done   chan struct{}
	result *AskResult
}

func (p *pendingResult) wait() *AskResult {
	<-p.done
	return p.result
}

func (s *ChatService) start(ctx context.Context, req AskRequest) (<-chan ai.Fragment, *pendingResult, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, nil, appErr.ErrInvalid
	}
	key, err := s.keys.GetByKey(ctx, req.APIKey)
	if err != nil {
		return nil, nil, err
	}
	if key.TokensRemaining() == 0 {
		return nil, nil, appErr.ErrForbidden
	}
	if key.EmbedModel != "" && key.EmbedModel != s.retriever.ModelName() {
		return nil, nil, fmt.Errorf("%w: corpus pinned to model %s, queries embed with %s",
			appErr.ErrInvalid, key.EmbedModel, s.retriever.ModelName())
	}

	topK := s.topK
	if req.TopK > 0 {
		topK = req.TopK
	}
	hits, err := s.retriever.Retrieve(ctx, req.APIKey, req.Question, topK)
	if err != nil {
		return nil, nil, err
	}
	var imageSummaries []string
	for _, img := range req.Images {
		summary, err := s.describeImage(ctx, img)
		if err != nil {
			return nil, nil, err
		}
		imageSummaries = append(imageSummaries, summary)
	}
	var documentSummaries []string
	for _, doc := range req.Documents {
		text, err := extractAttachment(doc)
		if err != nil {
			return nil, nil, err
		}
		documentSummaries = append(documentSummaries, text)
	}
	prompt := retrieval.Assemble(hits, key.Instructions, imageSummaries, documentSummaries).Render(req.Question)

	provider, err := s.providers.Get(req.Provider)
	if err != nil {
		return nil, nil, err
	}
	genCtx := ctx
	var cancel context.CancelFunc = func() {}
	if s.timeout > 0 {
		genCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	}
	inner, err := provider.GenerateStream(genCtx, req.Model, prompt)
	if err != nil {
		cancel()
		return nil, nil, err
	}

	started := time.Now()
	out := make(chan ai.Fragment, 8)
	pending := &pendingResult{done: make(chan struct{})}
	go func() {
		defer cancel()
		defer close(pending.done)
		defer close(out)
		var answer strings.Builder
		var usage ai.Usage
		// The provider stream is always drained to completion so the audit
		// record and token accounting survive a client that walks away
		// mid-answer. Delivery stops once the caller's context dies.
		delivering := true
		for frag := range inner {
			switch frag.Type {
			case ai.FragmentContent:
				answer.WriteString(frag.Text)
			case ai.FragmentUsage:
				if frag.Usage != nil {
					usage = *frag.Usage
				}
			}
			if !delivering {
				continue
			}
			select {
			case out <- frag:
			case <-ctx.Done():
				delivering = false
			}
		}
		sessionID := newID()
		pending.result = &AskResult{
			SessionID: sessionID,
			Answer:    answer.String(),
			Hits:      hits,
			Usage:     usage,
		}
		s.finish(context.WithoutCancel(ctx), req, key, sessionID, answer.String(), hits, usage, time.Since(started))
	}()
	return out, pending, nil
}

func (s *ChatService) finish(ctx context.Context, req AskRequest, key *model.APIKey, sessionID, answer string,
	hits []retrieval.Hit, usage ai.Usage, elapsed time.Duration) {
	logger := logutil.GetLogger(ctx).With(
		zap.String("session_id", sessionID),
		zap.String("api_key", req.APIKey),
	)
	now := timeutil.NowUnix()
	docIDs := uniqueDocIDs(hits)
	if err := s.docs.TouchHits(ctx, docIDs, now); err != nil {
		logger.Warn("touch document hits failed", zap.Error(err))
	}
	if usage.TotalTokens > 0 {
		if err := s.keys.AddUsage(ctx, req.APIKey, usage.TotalTokens, now); err != nil {
			logger.Warn("record token usage failed", zap.Error(err))
		}
	}
	session := &model.ChatSession{
		SessionID:    sessionID,
		UserID:       key.UserID,
		APIKey:       req.APIKey,
		Provider:     req.Provider,
		Model:        req.Model,
		Question:     req.Question,
		Answer:       answer,
		Document:     joinFilenames(req.Documents),
		Image:        joinFilenames(req.Images),
		DocumentHits: joinDocIDs(docIDs),
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		TotalTokens:  usage.TotalTokens,
		LatencyMs:    elapsed.Milliseconds(),
		StatusCode:   200,
		Ctime:        now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		logger.Error("persist chat session failed", zap.Error(err))
	}
}

func uniqueDocIDs(hits []retrieval.Hit) []int64 {
	seen := make(map[int64]struct{}, len(hits))
	ids := make([]int64, 0, len(hits))
	for _, hit := range hits {
		if _, ok := seen[hit.DocumentID]; ok {
			continue
		}
		seen[hit.DocumentID] = struct{}{}
		ids = append(ids, hit.DocumentID)
	}
	return ids
}

func joinDocIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}

func joinFilenames(files []Attachment) string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Filename)
	}
	return strings.Join(names, ",")
}
