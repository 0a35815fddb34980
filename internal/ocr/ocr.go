// Package ocr extracts plain text from PDF documents.
package ocr

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/civisort/county-ingest/internal/config"
)

// Extractor extracts text content from PDF files.
type Extractor interface {
	ExtractText(ctx context.Context, pdfPath string) (string, error)
}

// NewExtractor creates an Extractor based on config.
func NewExtractor(cfg config.OCRConfig) (Extractor, error) {
	switch cfg.Provider {
	case "pdftotext", "local", "":
		return NewPdfToText(cfg.PdfToTextPath, cfg.MaxPages), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}
