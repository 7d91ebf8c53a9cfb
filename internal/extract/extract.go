// Package extract turns uploaded files into plain text for chunking.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	appErr "github.com/xxxsen/docqa/internal/pkg/errors"
)

// IExtractor converts one file format to plain text.
type IExtractor interface {
	Extract(data []byte) (string, error)
}

var extractors = make(map[string]IExtractor)

// Register binds an extractor to a file extension (without the dot).
func Register(ext string, e IExtractor) {
	extractors[strings.ToLower(ext)] = e
}

// Supported reports whether the file's extension has an extractor.
func Supported(filename string) bool {
	_, ok := extractors[extOf(filename)]
	return ok
}

// Extract dispatches on the filename's extension. Unknown extensions
// yield ErrUnsupportedFormat so callers can reject the upload cleanly.
func Extract(filename string, data []byte) (string, error) {
	ext := extOf(filename)
	e, ok := extractors[ext]
	if !ok {
		return "", fmt.Errorf("%w: .%s", appErr.ErrUnsupportedFormat, ext)
	}
	return e.Extract(data)
}

func extOf(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}
