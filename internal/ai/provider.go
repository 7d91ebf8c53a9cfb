// Package ai hosts the pluggable generation and embedding backends.
// Providers self-register by name; call sites never branch on provider
// strings.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrUnavailable = errors.New("ai provider not configured")

// IAIProvider generates an answer stream for a prompt using one of the
// provider's models.
type IAIProvider interface {
	Name() string
	GenerateStream(ctx context.Context, model string, prompt string) (<-chan Fragment, error)
}

// IEmbedProvider maps text to a fixed-length dense vector. Identical
// input must produce identical output.
type IEmbedProvider interface {
	Name() string
	Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error)
}

// ImageDescriber is implemented by multimodal providers that can
// summarize an image into text.
type ImageDescriber interface {
	DescribeImage(ctx context.Context, model string, mimeType string, data []byte) (string, error)
}

type ProviderFactory func(args interface{}) (IAIProvider, error)
type EmbedFactory func(args interface{}) (IEmbedProvider, error)

var (
	registry      = map[string]ProviderFactory{}
	embedRegistry = map[string]EmbedFactory{}
)

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func RegisterEmbed(name string, factory EmbedFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	embedRegistry[key] = factory
}

func NewProvider(name string, args interface{}) (IAIProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai provider name is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}

func NewEmbedProvider(name string, args interface{}) (IEmbedProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai provider name is required")
	}
	factory := embedRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported embed provider: %s", name)
	}
	return factory(args)
}

// Registry holds the providers that were actually configured, keyed by
// name. Question handlers pick one per request.
type Registry struct {
	providers map[string]IAIProvider
}

func NewRegistry(configs map[string]interface{}) (*Registry, error) {
	providers := make(map[string]IAIProvider, len(configs))
	for name, args := range configs {
		provider, err := NewProvider(name, args)
		if err != nil {
			return nil, fmt.Errorf("init provider %s: %w", name, err)
		}
		providers[strings.ToLower(strings.TrimSpace(name))] = provider
	}
	return &Registry{providers: providers}, nil
}

func (r *Registry) Get(name string) (IAIProvider, error) {
	provider := r.providers[strings.ToLower(strings.TrimSpace(name))]
	if provider == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, name)
	}
	return provider, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
