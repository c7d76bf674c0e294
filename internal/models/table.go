package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Extraction methods, in descending priority order for deduplication.
const (
	// MethodNative is output mapped from an external extraction tool.
	MethodNative = "native"
	// MethodGrid is text-heuristic detection over segmented line regions.
	MethodGrid = "grid-analysis"
	// MethodRegex is pattern-based extraction of known financial sections.
	MethodRegex = "regex"
)

// PageUnknown is the page sentinel for producers that cannot determine a
// page (pattern-based extraction never knows the page).
const PageUnknown = 0

// Well-known table numbers assigned by the pattern-based extractor.
const (
	TableNumberHoldings        = 1
	TableNumberAssetAllocation = 2
)

// BoundingBox is table geometry on the source page. Only native tools
// report geometry; text-heuristic producers leave it nil.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TableCandidate is one detected table plus its provenance.
type TableCandidate struct {
	ID               string       `json:"id" validate:"required"`
	Page             int          `json:"page" validate:"gte=0"` // PageUnknown when the producer cannot determine it
	ExtractionMethod string       `json:"extraction_method" validate:"required,oneof=native grid-analysis regex"`
	Accuracy         float64      `json:"accuracy" validate:"gte=0,lte=1"`
	Headers          []string     `json:"headers" validate:"min=2,dive,required"`
	Rows             [][]string   `json:"rows" validate:"min=1"`
	BoundingBox      *BoundingBox `json:"bounding_box,omitempty"`
	TableNumber      int          `json:"table_number,omitempty"`
}

var candidateValidator = validator.New()

// Validate checks the candidate against the output invariants: at least 2
// non-empty headers, at least 1 row, accuracy in [0,1], and every row exactly
// as wide as the header list.
func (c *TableCandidate) Validate() error {
	if err := candidateValidator.Struct(c); err != nil {
		return err
	}
	for i, row := range c.Rows {
		if len(row) != len(c.Headers) {
			return fmt.Errorf("row %d has %d cells, expected %d", i, len(row), len(c.Headers))
		}
	}
	return nil
}

// Signature is the deduplication key: headers joined with "|", then ":",
// then the first row joined with "|" (empty string if there are no rows).
func (c *TableCandidate) Signature() string {
	firstRow := ""
	if len(c.Rows) > 0 {
		firstRow = strings.Join(c.Rows[0], "|")
	}
	return strings.Join(c.Headers, "|") + ":" + firstRow
}

// MethodPriority returns the deduplication rank of an extraction method,
// lower is better. Unknown methods sort last.
func MethodPriority(method string) int {
	switch method {
	case MethodNative:
		return 0
	case MethodGrid:
		return 1
	case MethodRegex:
		return 2
	default:
		return 3
	}
}

// TableRegion is a contiguous span of lines provisionally classified as
// tabular, before parsing. Line indices are into the per-page line stream.
type TableRegion struct {
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Text      string `json:"text"`
}

// DetectionResult is the final deduplicated output of a detection run.
type DetectionResult struct {
	Tables     []TableCandidate `json:"tables"`
	TableCount int              `json:"table_count"`
}

// ExtractionRecord is a persisted detection result for one document.
// Content is the normalized document text (markdown for HTML sources,
// plain text otherwise) kept alongside the tables for review.
type ExtractionRecord struct {
	ID           string           `json:"id" badgerhold:"key"`
	FileName     string           `json:"file_name"`
	DocumentType string           `json:"document_type"`
	Tables       []TableCandidate `json:"tables"`
	TableCount   int              `json:"table_count"`
	Content      string           `json:"content,omitempty"`
	PageCount    int              `json:"page_count,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}
