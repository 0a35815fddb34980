package ocr

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civisort/county-ingest/internal/config"
)

func TestNewExtractor_Local(t *testing.T) {
	ext, err := NewExtractor(config.OCRConfig{Provider: "pdftotext", PdfToTextPath: "/usr/bin/pdftotext", MaxPages: 1})
	require.NoError(t, err)
	require.IsType(t, &PdfToText{}, ext)
	assert.Equal(t, 1, ext.(*PdfToText).maxPages)
}

func TestNewExtractor_LocalDefault(t *testing.T) {
	ext, err := NewExtractor(config.OCRConfig{Provider: ""})
	require.NoError(t, err)
	assert.IsType(t, &PdfToText{}, ext)
}

func TestNewExtractor_UnknownProvider(t *testing.T) {
	_, err := NewExtractor(config.OCRConfig{Provider: "unknown"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "unknown"`)
}

func TestPdfToText_BinPath(t *testing.T) {
	p := NewPdfToText("", 1)
	assert.Equal(t, "pdftotext", p.binPath)

	p = NewPdfToText("/custom/pdftotext", 1)
	assert.Equal(t, "/custom/pdftotext", p.binPath)
}

func TestPdfToText_Args(t *testing.T) {
	assert.Equal(t, []string{"-layout", "-f", "1", "-l", "1", "a.pdf", "-"}, NewPdfToText("", 1).args("a.pdf"))
	assert.Equal(t, []string{"-layout", "a.pdf", "-"}, NewPdfToText("", 0).args("a.pdf"))
}

func TestPdfToText_ExtractText_BinaryNotFound(t *testing.T) {
	p := NewPdfToText("/nonexistent/pdftotext", 1)
	_, err := p.ExtractText(context.Background(), "/tmp/test.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext failed")
}

func TestPdfToText_ExtractText_Success(t *testing.T) {
	// Fake pdftotext that echoes its arguments.
	tmpDir := t.TempDir()
	fakeBin := filepath.Join(tmpDir, "pdftotext")
	script := "#!/bin/sh\necho \"$@\"\n"
	require.NoError(t, os.WriteFile(fakeBin, []byte(script), 0755))

	p := NewPdfToText(fakeBin, 1)
	text, err := p.ExtractText(context.Background(), "/tmp/dummy.pdf")
	require.NoError(t, err)
	assert.Contains(t, text, "-f 1 -l 1 /tmp/dummy.pdf -")
}

func TestPdfToText_ExtractText_UnreadablePDF(t *testing.T) {
	tmpDir := t.TempDir()
	fakeBin := filepath.Join(tmpDir, "pdftotext")
	script := "#!/bin/sh\necho 'Syntax Error: Couldn'\\''t find trailer dictionary' >&2\nexit 1\n"
	require.NoError(t, os.WriteFile(fakeBin, []byte(script), 0755))

	_, err := NewPdfToText(fakeBin, 1).ExtractText(context.Background(), "/tmp/broken.pdf")
	require.Error(t, err)

	var extErr *ExtractError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "/tmp/broken.pdf", extErr.Path)
	assert.Contains(t, extErr.Stderr, "trailer dictionary")
}
