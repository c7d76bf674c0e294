package interfaces

import (
	"github.com/ternarybob/tabulae/internal/models"
)

// ReportService renders extraction results for human review.
type ReportService interface {
	// BuildMarkdown renders a record as a markdown summary with one
	// markdown table per detected candidate.
	BuildMarkdown(record *models.ExtractionRecord) string

	// ConvertMarkdownToPDF converts markdown content to a PDF byte slice
	ConvertMarkdownToPDF(markdown, title string) ([]byte, error)
}
