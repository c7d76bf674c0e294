// -----------------------------------------------------------------------
// PDF Extractor Interface - Extract text content from PDF documents
// -----------------------------------------------------------------------

package interfaces

import (
	"context"
)

// PDFMetadata contains metadata about a PDF document
type PDFMetadata struct {
	PageCount   int   `json:"page_count"`
	FileSize    int64 `json:"file_size"`
	IsEncrypted bool  `json:"is_encrypted"`
}

// PDFExtractor defines the interface for extracting text content from PDF
// documents. This abstracts the extraction implementation so different
// backends can be used interchangeably.
type PDFExtractor interface {
	// ExtractPages extracts text content by page from PDF bytes.
	ExtractPages(ctx context.Context, pdfContent []byte) ([]PageText, error)

	// ExtractText extracts all text content from PDF bytes, concatenated
	// from all pages.
	ExtractText(ctx context.Context, pdfContent []byte) (string, error)

	// GetMetadata retrieves PDF metadata without extracting text content.
	GetMetadata(ctx context.Context, pdfContent []byte) (*PDFMetadata, error)
}
