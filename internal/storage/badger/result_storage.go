package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tabulae/internal/interfaces"
	"github.com/ternarybob/tabulae/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ResultStorage implements the ResultStorage interface for Badger
type ResultStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.ResultStorage = (*ResultStorage)(nil)

// NewResultStorage creates a new ResultStorage instance
func NewResultStorage(db *BadgerDB, logger arbor.ILogger) *ResultStorage {
	return &ResultStorage{
		db:     db,
		logger: logger,
	}
}

// Save stores an extraction record, overwriting any record with the same ID.
func (s *ResultStorage) Save(ctx context.Context, record *models.ExtractionRecord) error {
	if record.ID == "" {
		return fmt.Errorf("extraction record ID is required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(record.ID, record); err != nil {
		return fmt.Errorf("failed to save extraction record: %w", err)
	}

	s.logger.Debug().
		Str("id", record.ID).
		Str("file", record.FileName).
		Int("tables", record.TableCount).
		Msg("Saved extraction record")

	return nil
}

// Get retrieves a record by ID.
func (s *ResultStorage) Get(ctx context.Context, id string) (*models.ExtractionRecord, error) {
	var record models.ExtractionRecord
	if err := s.db.Store().Get(id, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get extraction record: %w", err)
	}
	return &record, nil
}

// List returns all records ordered by creation time descending.
func (s *ResultStorage) List(ctx context.Context) ([]models.ExtractionRecord, error) {
	var records []models.ExtractionRecord
	if err := s.db.Store().Find(&records, nil); err != nil {
		return nil, fmt.Errorf("failed to list extraction records: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	return records, nil
}

// Delete removes a record by ID.
func (s *ResultStorage) Delete(ctx context.Context, id string) error {
	err := s.db.Store().Delete(id, &models.ExtractionRecord{})
	if err == badgerhold.ErrNotFound {
		return interfaces.ErrRecordNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete extraction record: %w", err)
	}
	return nil
}

// Count returns the number of stored records.
func (s *ResultStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.ExtractionRecord{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count extraction records: %w", err)
	}
	return int(count), nil
}
