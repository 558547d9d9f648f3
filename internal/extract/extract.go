// Package extract turns uploaded document bytes into plain text.
//
// Extraction is a local, synchronous collaborator of the ingestion
// pipeline: the pipeline treats it as a correct text-extraction function
// and does not second-guess its output.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnsupportedType indicates a filename with no registered extractor.
	ErrUnsupportedType = errors.New("unsupported document type")

	// ErrNotText indicates bytes that do not decode as text.
	ErrNotText = errors.New("document is not valid text")
)

// Extractor extracts plain text from one document format.
type Extractor interface {
	Extract(data []byte) (string, error)
}

// ForFilename returns the extractor responsible for a filename, keyed by
// extension. Supported: .pdf, .txt, .md.
func ForFilename(filename string) (Extractor, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return PDFExtractor{}, nil
	case ".txt", ".md":
		return TextExtractor{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, filename)
	}
}

// Supported reports whether an extractor exists for the filename.
func Supported(filename string) bool {
	_, err := ForFilename(filename)
	return err == nil
}

// SupportedExtensions lists the accepted file extensions.
func SupportedExtensions() []string {
	return []string{".pdf", ".txt", ".md"}
}

// TextExtractor passes plain-text bytes through unchanged.
type TextExtractor struct{}

// Extract returns the bytes as a string, rejecting invalid UTF-8.
func (TextExtractor) Extract(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrNotText
	}
	return string(data), nil
}
