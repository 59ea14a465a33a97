// Package ocr turns amendment and statute PDFs into plain text for the text
// parser.
package ocr

import (
	"context"

	"github.com/sells-group/statute-cli/internal/config"
)

// Extractor extracts text content from PDF files.
type Extractor interface {
	ExtractText(ctx context.Context, pdfPath string) (string, error)
}

// NewExtractor creates an Extractor based on config.
func NewExtractor(cfg config.OCRConfig) Extractor {
	return NewPdfToText(cfg.PdfToTextPath)
}
