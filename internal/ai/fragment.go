package ai

// Usage is the trailing token accounting fragment of a generation stream.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

type FragmentType string

const (
	FragmentContent   FragmentType = "content"
	FragmentReasoning FragmentType = "reasoning"
	FragmentUsage     FragmentType = "usage"
)

// Fragment is one piece of a finite, non-restartable answer stream.
// Content/reasoning fragments carry Text; the stream ends with at most
// one usage fragment carrying Usage.
type Fragment struct {
	Type  FragmentType `json:"type"`
	Text  string       `json:"text,omitempty"`
	Usage *Usage       `json:"usage,omitempty"`
}

// Collect drains a fragment stream into the full answer text and the
// trailing usage summary. Reasoning fragments are dropped.
func Collect(ch <-chan Fragment) (string, Usage) {
	var answer []byte
	var usage Usage
	for frag := range ch {
		switch frag.Type {
		case FragmentContent:
			answer = append(answer, frag.Text...)
		case FragmentUsage:
			if frag.Usage != nil {
				usage = *frag.Usage
			}
		}
	}
	return string(answer), usage
}
