package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider("definitely-not-registered", map[string]interface{}{})
	require.Error(t, err)
}

func TestNewProviderEmptyName(t *testing.T) {
	_, err := NewProvider("  ", nil)
	require.Error(t, err)
}

func TestRegistryGetUnknown(t *testing.T) {
	registry, err := NewRegistry(nil)
	require.NoError(t, err)
	_, err = registry.Get("openai")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestRegistryConfiguredNames(t *testing.T) {
	registry, err := NewRegistry(map[string]interface{}{
		"openai": map[string]interface{}{"api_key": "sk-test"},
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"openai"}, registry.Names())
	provider, err := registry.Get("OpenAI")
	require.NoError(t, err)
	require.Equal(t, "openai", provider.Name())
}

func TestCollect(t *testing.T) {
	ch := make(chan Fragment, 4)
	ch <- Fragment{Type: FragmentReasoning, Text: "thinking..."}
	ch <- Fragment{Type: FragmentContent, Text: "hello "}
	ch <- Fragment{Type: FragmentContent, Text: "world"}
	ch <- Fragment{Type: FragmentUsage, Usage: &Usage{InputTokens: 10, OutputTokens: 2, TotalTokens: 12}}
	close(ch)

	answer, usage := Collect(ch)
	require.Equal(t, "hello world", answer)
	require.Equal(t, int64(12), usage.TotalTokens)
}

func TestCollectEmptyStream(t *testing.T) {
	ch := make(chan Fragment)
	close(ch)
	answer, usage := Collect(ch)
	require.Empty(t, answer)
	require.Zero(t, usage.TotalTokens)
}
