package retrieval

import (
	"fmt"
	"strings"
)

// PromptContext is the provider-agnostic payload handed to a generation
// backend: tenant instructions plus ranked snippets and any auxiliary
// modality summaries. Providers flatten it into their own message schema.
type PromptContext struct {
	Instructions      string   `json:"instructions,omitempty"`
	Snippets          []string `json:"snippets"`
	ImageSummaries    []string `json:"image_summaries,omitempty"`
	DocumentSummaries []string `json:"document_summaries,omitempty"`
}

// Assemble packages ranked hits into a PromptContext. Snippet order
// follows retriever rank, most relevant first. Duplicate snippet text is
// passed through untouched.
func Assemble(hits []Hit, instructions string, imageSummaries []string, documentSummaries []string) *PromptContext {
	snippets := make([]string, 0, len(hits))
	for _, hit := range hits {
		snippets = append(snippets, hit.Content)
	}
	return &PromptContext{
		Instructions:      instructions,
		Snippets:          snippets,
		ImageSummaries:    imageSummaries,
		DocumentSummaries: documentSummaries,
	}
}

// Render flattens the context and question into a single prompt for
// providers that take plain text input.
func (p *PromptContext) Render(question string) string {
	var sb strings.Builder
	if p.Instructions != "" {
		fmt.Fprintf(&sb, "Instructions: %s\n\n", p.Instructions)
	}
	if len(p.ImageSummaries) > 0 {
		sb.WriteString("Image Data\n")
		for _, summary := range p.ImageSummaries {
			sb.WriteString(summary)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	if len(p.DocumentSummaries) > 0 {
		sb.WriteString("Document Data\n")
		for _, summary := range p.DocumentSummaries {
			sb.WriteString(summary)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Based on the provided information, answer the following question:\n%s\n", question)
	if len(p.Snippets) > 0 {
		sb.WriteString("\nYou have the following information from the uploaded documents:\n")
		for _, snippet := range p.Snippets {
			sb.WriteString("- ")
			sb.WriteString(snippet)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
