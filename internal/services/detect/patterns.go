// -----------------------------------------------------------------------
// Pattern-Based Extractor - Anchor/terminator scans for known financial
// table sections
// -----------------------------------------------------------------------

package detect

import (
	"context"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tabulae/internal/common"
	"github.com/ternarybob/tabulae/internal/interfaces"
	"github.com/ternarybob/tabulae/internal/models"
)

// sectionPattern bounds one named financial section. minFurtherLines counts
// the lines after the anchor including the terminator line.
type sectionPattern struct {
	name             string
	tableNumber      int
	anchor           *regexp.Regexp
	terminator       *regexp.Regexp
	minFurtherLines  int
	financialDocOnly bool
}

var sectionPatterns = []sectionPattern{
	{
		name:             "holdings",
		tableNumber:      models.TableNumberHoldings,
		anchor:           regexp.MustCompile(`(?i)\b(holdings|securities|positions|portfolio composition)\b`),
		terminator:       regexp.MustCompile(`(?i)\b(grand total|subtotal|total|sum)\b`),
		minFurtherLines:  3,
		financialDocOnly: true,
	},
	{
		name:            "asset allocation",
		tableNumber:     models.TableNumberAssetAllocation,
		anchor:          regexp.MustCompile(`(?i)\b(asset allocation|asset class|allocation by asset)\b`),
		terminator:      regexp.MustCompile(`(?i)(\b(total|sum)\b|100\s*%)`),
		minFurtherLines: 2,
	},
}

// PatternExtractor scans the full document text for named financial
// sections bounded by anchor/terminator keywords, independent of the region
// segmenter. It never knows which page a match came from.
type PatternExtractor struct {
	parser *Parser
	cfg    common.DetectionConfig
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.TableProducer = (*PatternExtractor)(nil)

// NewPatternExtractor creates the regex producer.
func NewPatternExtractor(cfg common.DetectionConfig, logger arbor.ILogger) *PatternExtractor {
	return &PatternExtractor{
		parser: NewParser(cfg),
		cfg:    cfg,
		logger: logger,
	}
}

// Method returns the extraction method this producer tags candidates with.
func (p *PatternExtractor) Method() string {
	return models.MethodRegex
}

// Produce evaluates each section pattern independently; failure of one
// never blocks the others.
func (p *PatternExtractor) Produce(ctx context.Context, input interfaces.DetectInput) ([]models.TableCandidate, error) {
	if strings.TrimSpace(input.RawText) == "" {
		return nil, nil
	}

	financialDoc := isFinancialDocument(input.DocumentType)

	var candidates []models.TableCandidate
	sequence := 0
	for _, section := range sectionPatterns {
		if section.financialDocOnly && !financialDoc {
			continue
		}

		span, ok := p.captureSection(input.RawText, section)
		if !ok {
			continue
		}

		parsed, parsedOK := p.parser.Parse(span)
		if !parsedOK {
			continue
		}

		sequence++
		candidates = append(candidates, models.TableCandidate{
			ID:               common.NewCandidateID(models.MethodRegex, models.PageUnknown, sequence),
			Page:             models.PageUnknown,
			ExtractionMethod: models.MethodRegex,
			Accuracy:         p.cfg.RegexConfidence,
			Headers:          parsed.Headers,
			Rows:             parsed.Rows,
			TableNumber:      section.tableNumber,
		})

		p.logger.Debug().
			Str("section", section.name).
			Int("headers", len(parsed.Headers)).
			Int("rows", len(parsed.Rows)).
			Msg("Pattern section extracted")
	}

	return candidates, nil
}

// captureSection finds the section's anchor line and collects the lines up
// to (excluding) the terminator line. The span is rejected when fewer than
// minFurtherLines lines, terminator included, follow the anchor.
func (p *PatternExtractor) captureSection(text string, section sectionPattern) (string, bool) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	anchorIdx := -1
	for i, line := range lines {
		if section.anchor.MatchString(line) {
			anchorIdx = i
			break
		}
	}
	if anchorIdx < 0 {
		return "", false
	}

	var span []string
	terminated := false
	furtherLines := 0
	for _, line := range lines[anchorIdx+1:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		furtherLines++
		if section.terminator.MatchString(trimmed) {
			terminated = true
			break
		}
		span = append(span, trimmed)
	}

	if !terminated || furtherLines < section.minFurtherLines {
		return "", false
	}
	return strings.Join(span, "\n"), true
}

func isFinancialDocument(documentType string) bool {
	switch strings.ToLower(strings.TrimSpace(documentType)) {
	case "financial", "portfolio":
		return true
	default:
		return false
	}
}
