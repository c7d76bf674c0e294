package common

import (
	"fmt"

	"github.com/google/uuid"
)

// NewExtractionID generates a unique extraction record ID with the "ext_" prefix
// Format: ext_<uuid>
func NewExtractionID() string {
	return "ext_" + uuid.New().String()
}

// NewCandidateID builds a candidate ID from method, page and sequence.
// The page segment is omitted when the producer does not know the page.
// Format: grid-p3-2 or regex-1
func NewCandidateID(method string, page int, sequence int) string {
	short := method
	switch method {
	case "grid-analysis":
		short = "grid"
	case "native":
		short = "native"
	case "regex":
		short = "regex"
	}
	if page > 0 {
		return fmt.Sprintf("%s-p%d-%d", short, page, sequence)
	}
	return fmt.Sprintf("%s-%d", short, sequence)
}
