package extract

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// markdownExtractor strips markdown syntax and keeps the readable text.
// Formatting carries no signal for retrieval, so only the node text
// survives.
type markdownExtractor struct {
	md goldmark.Markdown
}

func (e *markdownExtractor) Extract(data []byte) (string, error) {
	doc := e.md.Parser().Parse(text.NewReader(data))
	var sb strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if _, isBlock := n.(*ast.Paragraph); isBlock {
				sb.WriteByte('\n')
			}
			if _, isHeading := n.(*ast.Heading); isHeading {
				sb.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			sb.Write(node.Segment.Value(data))
			if node.SoftLineBreak() || node.HardLineBreak() {
				sb.WriteByte('\n')
			}
		case *ast.CodeBlock:
			writeLines(&sb, data, node)
		case *ast.FencedCodeBlock:
			writeLines(&sb, data, node)
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(sb.String()), nil
}

func writeLines(sb *strings.Builder, data []byte, node ast.Node) {
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(data))
	}
}

func init() {
	Register("md", &markdownExtractor{md: goldmark.New()})
	Register("markdown", &markdownExtractor{md: goldmark.New()})
}
