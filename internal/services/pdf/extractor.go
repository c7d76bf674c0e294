// -----------------------------------------------------------------------
// PDF Extractor Service - Extract text content from PDF documents
// Uses pdfcpu for Go-native PDF processing
// -----------------------------------------------------------------------

package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tabulae/internal/interfaces"
)

// Extractor implements the PDFExtractor interface using pdfcpu
type Extractor struct {
	logger  arbor.ILogger
	tempDir string
}

// Compile-time interface assertion
var _ interfaces.PDFExtractor = (*Extractor)(nil)

// NewExtractor creates a new PDF extractor service
func NewExtractor(logger arbor.ILogger) *Extractor {
	// Create a temp directory for PDF processing
	tempDir := filepath.Join(os.TempDir(), "tabulae-pdf")
	os.MkdirAll(tempDir, 0755)

	return &Extractor{
		logger:  logger,
		tempDir: tempDir,
	}
}

// ExtractText extracts all text content from PDF bytes, concatenated from
// all pages with page markers.
func (e *Extractor) ExtractText(ctx context.Context, pdfContent []byte) (string, error) {
	pages, err := e.ExtractPages(ctx, pdfContent)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for i, page := range pages {
		if i > 0 {
			builder.WriteString("\n\n--- Page ")
			builder.WriteString(fmt.Sprintf("%d", page.PageNumber))
			builder.WriteString(" ---\n\n")
		}
		builder.WriteString(page.Text)
	}

	return builder.String(), nil
}

// ExtractPages extracts text content by page from PDF bytes. Callers may
// run extractions concurrently, so all scratch paths are unique per call.
func (e *Extractor) ExtractPages(ctx context.Context, pdfContent []byte) ([]interfaces.PageText, error) {
	// Write to temp file for pdfcpu processing
	tempFile, err := e.writeScratchPDF("extract_*.pdf", pdfContent)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tempFile)

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	pageCount := pdfCtx.PageCount
	pages := make([]interfaces.PageText, 0, pageCount)

	// pdfcpu doesn't have direct text extraction, so we extract page content
	// streams into a scratch directory and read them back
	outDir, err := os.MkdirTemp(e.tempDir, "pages_")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(tempFile, outDir, nil, conf); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to extract PDF content, returning empty pages")
		for pageNum := 1; pageNum <= pageCount; pageNum++ {
			pages = append(pages, interfaces.PageText{
				PageNumber: pageNum,
				Text:       "",
			})
		}
		return pages, nil
	}

	// Read extracted content files
	files, _ := os.ReadDir(outDir)
	pageTexts := make(map[int]string)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		// Page number is encoded in the extracted filename
		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		} else if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		}
	}

	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		pages = append(pages, interfaces.PageText{
			PageNumber: pageNum,
			Text:       pageTexts[pageNum],
		})
	}

	return pages, nil
}

// GetMetadata retrieves PDF metadata without extracting text content.
func (e *Extractor) GetMetadata(ctx context.Context, pdfContent []byte) (*interfaces.PDFMetadata, error) {
	tempFile, err := e.writeScratchPDF("meta_*.pdf", pdfContent)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tempFile)

	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	metadata := &interfaces.PDFMetadata{
		PageCount:   pdfCtx.PageCount,
		FileSize:    int64(len(pdfContent)),
		IsEncrypted: pdfCtx.Encrypt != nil,
	}

	e.logger.Debug().
		Int("page_count", metadata.PageCount).
		Int64("file_size", metadata.FileSize).
		Bool("encrypted", metadata.IsEncrypted).
		Msg("Extracted PDF metadata")

	return metadata, nil
}

// writeScratchPDF writes PDF bytes to a uniquely named file under the
// extractor's temp directory and returns its path.
func (e *Extractor) writeScratchPDF(pattern string, content []byte) (string, error) {
	f, err := os.CreateTemp(e.tempDir, pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temp PDF file: %w", err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp PDF file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to close temp PDF file: %w", err)
	}
	return f.Name(), nil
}
