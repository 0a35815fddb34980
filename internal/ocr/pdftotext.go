package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// PdfToText extracts text from PDFs using the pdftotext CLI tool.
type PdfToText struct {
	binPath  string
	maxPages int
}

// NewPdfToText creates a PdfToText extractor. If binPath is empty, "pdftotext" is used.
// maxPages limits extraction to the first N pages; zero or less reads the whole document.
func NewPdfToText(binPath string, maxPages int) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath, maxPages: maxPages}
}

// ExtractText runs pdftotext -layout on the given PDF and returns stdout.
func (p *PdfToText) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	cmd := exec.CommandContext(ctx, p.binPath, p.args(pdfPath)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return "", &ExtractError{Path: pdfPath, Stderr: strings.TrimSpace(stderr.String()), Err: err}
		}
		return "", eris.Wrapf(err, "ocr: pdftotext failed for %s", pdfPath)
	}

	return stdout.String(), nil
}

func (p *PdfToText) args(pdfPath string) []string {
	args := []string{"-layout"}
	if p.maxPages > 0 {
		args = append(args, "-f", "1", "-l", strconv.Itoa(p.maxPages))
	}
	return append(args, pdfPath, "-")
}

// ExtractError reports a PDF that pdftotext ran on but could not read,
// usually a corrupt or non-PDF download. It concerns one document only.
type ExtractError struct {
	Path   string
	Stderr string
	Err    error
}

func (e *ExtractError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("ocr: extract %s: %v: %s", e.Path, e.Err, e.Stderr)
	}
	return fmt.Sprintf("ocr: extract %s: %v", e.Path, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }
