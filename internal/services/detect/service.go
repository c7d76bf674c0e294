// -----------------------------------------------------------------------
// Detection Service - Run all producers inside isolated failure boundaries
// and fold their candidates into one deduplicated result
// -----------------------------------------------------------------------

package detect

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tabulae/internal/common"
	"github.com/ternarybob/tabulae/internal/interfaces"
	"github.com/ternarybob/tabulae/internal/models"
)

// Service orchestrates the detection producers. Producers are injected so
// individual strategies can be substituted or tested in isolation.
type Service struct {
	producers []interfaces.TableProducer
	logger    arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.TableDetector = (*Service)(nil)

// NewService wires the default producer set: native tool adapter, grid
// analysis, pattern extraction.
func NewService(cfg common.DetectionConfig, tool interfaces.NativeTool, logger arbor.ILogger) *Service {
	return NewServiceWithProducers(logger,
		NewNativeProducer(tool, logger),
		NewGridProducer(cfg, logger),
		NewPatternExtractor(cfg, logger),
	)
}

// NewServiceWithProducers builds an orchestrator over an explicit producer
// list.
func NewServiceWithProducers(logger arbor.ILogger, producers ...interfaces.TableProducer) *Service {
	return &Service{
		producers: producers,
		logger:    logger,
	}
}

// DetectTables runs every producer, folds failures into empty lists, drops
// candidates violating the output invariants, and deduplicates the rest.
// The result is well-formed even when all producers fail.
func (s *Service) DetectTables(ctx context.Context, input interfaces.DetectInput) (*models.DetectionResult, error) {
	var collected []models.TableCandidate

	for _, producer := range s.producers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidates, err := producer.Produce(ctx, input)
		if err != nil {
			// ProducerFailure: one failing strategy never voids the others
			s.logger.Warn().
				Err(err).
				Str("method", producer.Method()).
				Msg("Producer failed, contributing zero tables")
			continue
		}

		for _, candidate := range candidates {
			if err := candidate.Validate(); err != nil {
				s.logger.Debug().
					Err(err).
					Str("id", candidate.ID).
					Msg("Discarding invalid candidate")
				continue
			}
			collected = append(collected, candidate)
		}
	}

	tables := Deduplicate(collected)
	if tables == nil {
		tables = []models.TableCandidate{}
	}

	s.logger.Debug().
		Int("collected", len(collected)).
		Int("unique", len(tables)).
		Msg("Table detection completed")

	return &models.DetectionResult{
		Tables:     tables,
		TableCount: len(tables),
	}, nil
}
