package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const defaultDeepSeekBaseURL = "https://api.deepseek.com/v1"

type openAIConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

// openAIProvider serves every OpenAI-compatible chat/embeddings API.
// DeepSeek registers the same implementation under its own name with a
// different base URL.
type openAIProvider struct {
	name   string
	client *openai.Client
}

func newOpenAICompatProvider(name string, cfg *openAIConfig, defaultBaseURL string) *openAIProvider {
	clientConfig := openai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if baseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &openAIProvider{
		name:   name,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

func (p *openAIProvider) Name() string {
	return p.name
}

func (p *openAIProvider) GenerateStream(ctx context.Context, model string, prompt string) (<-chan Fragment, error) {
	if p.client == nil {
		return nil, ErrUnavailable
	}
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Stream:        true,
		StreamOptions: &openai.StreamOptions{IncludeUsage: true},
	}
	stream, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s stream: %w", p.name, err)
	}
	out := make(chan Fragment)
	go func() {
		defer close(out)
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				return
			}
			if resp.Usage != nil {
				out <- Fragment{Type: FragmentUsage, Usage: &Usage{
					InputTokens:  int64(resp.Usage.PromptTokens),
					OutputTokens: int64(resp.Usage.CompletionTokens),
					TotalTokens:  int64(resp.Usage.TotalTokens),
				}}
				continue
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta
			if delta.ReasoningContent != "" {
				out <- Fragment{Type: FragmentReasoning, Text: delta.ReasoningContent}
			}
			if delta.Content != "" {
				out <- Fragment{Type: FragmentContent, Text: delta.Content}
			}
		}
	}()
	return out, nil
}

type openAIEmbedProvider struct {
	client *openai.Client
}

func (p *openAIEmbedProvider) Name() string {
	return "openai"
}

func (p *openAIEmbedProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	if p.client == nil {
		return nil, ErrUnavailable
	}
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai response has no embeddings")
	}
	return resp.Data[0].Embedding, nil
}

func createOpenAIFactory(args interface{}) (IAIProvider, error) {
	cfg := &openAIConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.APIKey == "" {
		return nil, ErrUnavailable
	}
	return newOpenAICompatProvider("openai", cfg, ""), nil
}

func createDeepSeekFactory(args interface{}) (IAIProvider, error) {
	cfg := &openAIConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.APIKey == "" {
		return nil, ErrUnavailable
	}
	return newOpenAICompatProvider("deepseek", cfg, defaultDeepSeekBaseURL), nil
}

func createOpenAIEmbedFactory(args interface{}) (IEmbedProvider, error) {
	cfg := &openAIConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.APIKey == "" {
		return nil, ErrUnavailable
	}
	clientConfig := openai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &openAIEmbedProvider{client: openai.NewClientWithConfig(clientConfig)}, nil
}

func init() {
	Register("openai", createOpenAIFactory)
	Register("deepseek", createDeepSeekFactory)
	RegisterEmbed("openai", createOpenAIEmbedFactory)
}
