package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/tabulae/internal/models"
)

// ErrRecordNotFound is returned when an extraction record does not exist.
var ErrRecordNotFound = errors.New("extraction record not found")

// ResultStorage persists detection results per document.
type ResultStorage interface {
	// Save stores a record, overwriting any record with the same ID.
	Save(ctx context.Context, record *models.ExtractionRecord) error

	// Get retrieves a record by ID, returns ErrRecordNotFound if missing.
	Get(ctx context.Context, id string) (*models.ExtractionRecord, error)

	// List returns all records ordered by creation time descending.
	List(ctx context.Context) ([]models.ExtractionRecord, error)

	// Delete removes a record by ID, returns ErrRecordNotFound if missing.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}
