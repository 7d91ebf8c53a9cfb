package extract

import (
	"fmt"
	"unicode/utf8"

	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
)

type textExtractor struct{}

func (textExtractor) Extract(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: not valid utf-8 text", appErr.ErrUnsupportedFormat)
	}
	return string(data), nil
}

func init() {
	Register("txt", textExtractor{})
	Register("log", textExtractor{})
	Register("csv", textExtractor{})
}
