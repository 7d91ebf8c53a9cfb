package extract

import (
	"bytes"
	"fmt"
	"strings"

	pdfextractor "github.com/unidoc/unipdf/v3/extractor"
	pdfmodel "github.com/unidoc/unipdf/v3/model"
)

type pdfExtractor struct{}

func init() {
	Register("pdf", pdfExtractor{})
}

// Extract walks every page and concatenates the extracted text. Pages
// that fail to parse are skipped rather than failing the whole document.
func (pdfExtractor) Extract(data []byte) (string, error) {
	reader, err := pdfmodel.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}
	pages, err := reader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("read pdf page count: %w", err)
	}
	var sb strings.Builder
	for i := 1; i <= pages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			continue
		}
		ex, err := pdfextractor.New(page)
		if err != nil {
			continue
		}
		text, err := ex.ExtractText()
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
