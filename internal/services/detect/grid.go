// -----------------------------------------------------------------------
// Grid Producer - Region segmentation plus parsing over the per-page line
// stream
// -----------------------------------------------------------------------

package detect

import (
	"context"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tabulae/internal/common"
	"github.com/ternarybob/tabulae/internal/interfaces"
	"github.com/ternarybob/tabulae/internal/models"
)

// GridProducer detects tables by segmenting each page into table-like
// regions and parsing every region.
type GridProducer struct {
	segmenter *Segmenter
	parser    *Parser
	cfg       common.DetectionConfig
	logger    arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.TableProducer = (*GridProducer)(nil)

// NewGridProducer creates the grid-analysis producer.
func NewGridProducer(cfg common.DetectionConfig, logger arbor.ILogger) *GridProducer {
	return &GridProducer{
		segmenter: NewSegmenter(cfg),
		parser:    NewParser(cfg),
		cfg:       cfg,
		logger:    logger,
	}
}

// Method returns the extraction method this producer tags candidates with.
func (p *GridProducer) Method() string {
	return models.MethodGrid
}

// Produce segments every page and parses each region into a candidate.
// Sources without page structure are treated as a single page 1.
func (p *GridProducer) Produce(ctx context.Context, input interfaces.DetectInput) ([]models.TableCandidate, error) {
	pages := input.Pages
	if len(pages) == 0 && input.RawText != "" {
		pages = []interfaces.PageText{{PageNumber: 1, Text: input.RawText}}
	}

	var candidates []models.TableCandidate
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return candidates, err
		}

		lines := strings.Split(strings.ReplaceAll(page.Text, "\r\n", "\n"), "\n")
		regions := p.segmenter.Segment(lines)

		sequence := 0
		for _, region := range regions {
			parsed, ok := p.parser.Parse(region.Text)
			if !ok {
				// ParseRejection: common and expected, not an error
				continue
			}
			sequence++
			candidates = append(candidates, models.TableCandidate{
				ID:               common.NewCandidateID(models.MethodGrid, page.PageNumber, sequence),
				Page:             page.PageNumber,
				ExtractionMethod: models.MethodGrid,
				Accuracy:         p.cfg.GridConfidence,
				Headers:          parsed.Headers,
				Rows:             parsed.Rows,
			})
		}

		if len(regions) > 0 {
			p.logger.Debug().
				Int("page", page.PageNumber).
				Int("regions", len(regions)).
				Int("tables", sequence).
				Msg("Grid analysis completed for page")
		}
	}

	return candidates, nil
}
