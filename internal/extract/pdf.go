// Package extract reads plain text out of source PDF files.
package extract

import (
	"strings"

	"github.com/tsawler/tabula"

	"pdfrag/internal/domain"
)

// PDF extracts text from PDF documents via tabula. Extraction is local and
// synchronous; every remote concern lives elsewhere in the pipeline.
type PDF struct{}

// NewPDF returns a PDF extractor.
func NewPDF() *PDF { return &PDF{} }

// Extract returns the document's full text. Extraction warnings (messy
// layout, partial decode) are tolerated as long as some text came out; a
// document with no text at all reports ErrNoText so the caller can skip it.
func (p *PDF) Extract(path string) (string, error) {
	text, _, err := tabula.Open(path).Text()
	if err != nil {
		return "", &domain.ExtractionError{Path: path, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return "", &domain.ExtractionError{Path: path, Err: domain.ErrNoText}
	}
	return text, nil
}
