// -----------------------------------------------------------------------
// Region Segmenter - Classify lines as table-like and group contiguous
// runs into candidate table regions
// -----------------------------------------------------------------------

package detect

import (
	"regexp"
	"strings"

	"github.com/ternarybob/tabulae/internal/common"
	"github.com/ternarybob/tabulae/internal/models"
)

var (
	// Runs of two or more spaces/tabs, the column gap of fixed-width text
	wideGapPattern = regexp.MustCompile(`[ \t]{2,}`)

	// "word, 2+-space run, word" repeated - fixed-width column texture
	columnTexturePattern = regexp.MustCompile(`(?:\S+[ \t]{2,}){3,}\S+`)

	// Integer or decimal token
	numericTokenPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// Segmenter groups contiguous table-like lines into candidate regions.
// Segment is a pure scan: it never mutates its input and returns a fresh
// region list per call.
type Segmenter struct {
	cfg common.DetectionConfig
}

// NewSegmenter creates a segmenter with the given detection thresholds.
func NewSegmenter(cfg common.DetectionConfig) *Segmenter {
	return &Segmenter{cfg: cfg}
}

// Segment scans raw lines (empties included, they carry region boundaries)
// and returns the closed table regions. Line indices in the result refer to
// the input slice.
func (s *Segmenter) Segment(lines []string) []models.TableRegion {
	var regions []models.TableRegion

	inTable := false
	startLine := 0
	endLine := 0
	var buf []string

	closeRegion := func() {
		if len(buf) > 0 {
			regions = append(regions, models.TableRegion{
				StartLine: startLine,
				EndLine:   endLine,
				Text:      strings.Join(buf, "\n"),
			})
		}
		inTable = false
		buf = nil
	}

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])

		if trimmed == "" {
			if !inTable {
				continue
			}
			// A single blank line is tolerated as noise within a table; a
			// second consecutive blank closes the region (lookahead of
			// exactly one line).
			if s.blankRunEndsRegion(lines, i) {
				closeRegion()
			}
			continue
		}

		if s.isTableLike(trimmed) {
			if !inTable {
				inTable = true
				startLine = i
				buf = buf[:0]
			}
			buf = append(buf, trimmed)
			endLine = i
			continue
		}

		if inTable {
			if s.isContinuation(lines, i, trimmed) {
				// Wrapped continuation of the last cell (long security
				// names spill onto a second line)
				buf = append(buf, trimmed)
				endLine = i
				continue
			}
			closeRegion()
		}
	}

	if inTable {
		closeRegion()
	}

	return regions
}

// blankRunEndsRegion reports whether the blank line at index i is followed
// by enough further blanks to close the current region.
func (s *Segmenter) blankRunEndsRegion(lines []string, i int) bool {
	lookahead := s.cfg.BlankLineLookahead
	if lookahead <= 0 {
		lookahead = 1
	}
	for j := 1; j <= lookahead; j++ {
		if i+j >= len(lines) {
			return true
		}
		if strings.TrimSpace(lines[i+j]) != "" {
			return false
		}
	}
	return true
}

// isTableLike applies the four line heuristics: wide-gap segment count, tab
// presence, pipe delimiters, repeated column texture, and numeric density.
func (s *Segmenter) isTableLike(line string) bool {
	minSegments := s.cfg.MinWhitespaceSegments
	if minSegments <= 0 {
		minSegments = 4
	}
	if segs := splitNonEmpty(wideGapPattern.Split(line, -1)); len(segs) >= minSegments {
		return true
	}

	if strings.ContainsRune(line, '\t') {
		return true
	}

	// Pipe-delimited rows ("Name | ISIN | Value") carry single spaces around
	// the separator, so the wide-gap test misses them.
	if strings.Count(line, "|") >= 2 {
		return true
	}

	if columnTexturePattern.MatchString(line) {
		return true
	}

	minNumeric := s.cfg.MinNumericTokens
	if minNumeric <= 0 {
		minNumeric = 3
	}
	return len(numericTokenPattern.FindAllString(line, -1)) >= minNumeric
}

// isContinuation checks whether a non-table-like line is a wrapped cell:
// previous line non-empty, length within the configured delta, and at least
// one numeric token.
func (s *Segmenter) isContinuation(lines []string, i int, trimmed string) bool {
	if i == 0 {
		return false
	}
	prev := strings.TrimSpace(lines[i-1])
	if prev == "" {
		return false
	}

	maxDelta := s.cfg.ContinuationMaxDelta
	if maxDelta <= 0 {
		maxDelta = 10
	}
	delta := len(trimmed) - len(prev)
	if delta < 0 {
		delta = -delta
	}
	if delta >= maxDelta {
		return false
	}

	return numericTokenPattern.MatchString(trimmed)
}

func splitNonEmpty(segments []string) []string {
	result := segments[:0:0]
	for _, seg := range segments {
		if strings.TrimSpace(seg) != "" {
			result = append(result, seg)
		}
	}
	return result
}
