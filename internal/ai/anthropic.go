package ai

import (
	"context"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicConfig struct {
	APIKey    string `json:"api_key"`
	MaxTokens int64  `json:"max_tokens"`
}

type anthropicProvider struct {
	client    *anthropic.Client
	maxTokens int64
}

func (p *anthropicProvider) Name() string {
	return "anthropic"
}

func (p *anthropicProvider) GenerateStream(ctx context.Context, model string, prompt string) (<-chan Fragment, error) {
	if p.client == nil {
		return nil, ErrUnavailable
	}
	stream := p.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: p.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	out := make(chan Fragment)
	go func() {
		defer close(out)
		defer stream.Close()
		usage := &Usage{}
		for stream.Next() {
			event := stream.Current()
			switch variant := event.AsAny().(type) {
			case anthropic.MessageStartEvent:
				usage.InputTokens = variant.Message.Usage.InputTokens
			case anthropic.ContentBlockDeltaEvent:
				switch delta := variant.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					if delta.Text != "" {
						out <- Fragment{Type: FragmentContent, Text: delta.Text}
					}
				case anthropic.ThinkingDelta:
					if delta.Thinking != "" {
						out <- Fragment{Type: FragmentReasoning, Text: delta.Thinking}
					}
				}
			case anthropic.MessageDeltaEvent:
				usage.OutputTokens = variant.Usage.OutputTokens
			}
		}
		if stream.Err() != nil {
			return
		}
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
		out <- Fragment{Type: FragmentUsage, Usage: usage}
	}()
	return out, nil
}

func createAnthropicFactory(args interface{}) (IAIProvider, error) {
	cfg := &anthropicConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrUnavailable
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	client := anthropic.NewClient(anthropicopt.WithAPIKey(strings.TrimSpace(cfg.APIKey)))
	return &anthropicProvider{client: &client, maxTokens: cfg.MaxTokens}, nil
}

func init() {
	Register("anthropic", createAnthropicFactory)
}
