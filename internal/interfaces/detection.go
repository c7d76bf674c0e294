// -----------------------------------------------------------------------
// Table Detection Interfaces - Multi-strategy table recovery from text
// -----------------------------------------------------------------------

package interfaces

import (
	"context"

	"github.com/ternarybob/tabulae/internal/models"
)

// PageText is the text content of a single document page.
type PageText struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
}

// DetectInput carries everything a detection run needs. Each producer
// receives the same input and returns its own candidate list; no producer
// mutates the input.
type DetectInput struct {
	// RawText is the full document text, used by the pattern-based extractor.
	RawText string

	// Pages is the per-page text stream, used by grid analysis. May be empty
	// for sources without page structure (HTML, CSV); RawText is then treated
	// as a single page.
	Pages []PageText

	// DocumentType is a hint from the caller ("financial", "portfolio", ...).
	DocumentType string

	// SourcePath is the path of the original file, handed to the native tool.
	SourcePath string

	// NativeTool enables the native-tool producer for tool-compatible sources.
	NativeTool bool
}

// TableProducer is one independent detection strategy. A returned error
// means the whole strategy failed; the orchestrator folds it into an empty
// list rather than aborting the other producers.
type TableProducer interface {
	// Method returns the extraction method this producer tags candidates with.
	Method() string

	// Produce scans the input and returns zero or more table candidates.
	Produce(ctx context.Context, input DetectInput) ([]models.TableCandidate, error)
}

// TableDetector runs all producers and returns the deduplicated result.
type TableDetector interface {
	// DetectTables never fails outright: when every producer errors the
	// result is empty, not an error.
	DetectTables(ctx context.Context, input DetectInput) (*models.DetectionResult, error)
}
