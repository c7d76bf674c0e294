// -----------------------------------------------------------------------
// Table Parser - Infer the column delimiter and split region text into
// headers and width-consistent rows
// -----------------------------------------------------------------------

package detect

import (
	"strings"

	"github.com/ternarybob/tabulae/internal/common"
)

// ParsedTable is the header/row structure recovered from a region.
type ParsedTable struct {
	Headers []string
	Rows    [][]string
}

// Parser turns region text into a ParsedTable. Rejection is the common,
// expected outcome for noisy regions and is signalled by ok=false, not an
// error.
type Parser struct {
	cfg common.DetectionConfig
}

// NewParser creates a parser with the given detection thresholds.
func NewParser(cfg common.DetectionConfig) *Parser {
	return &Parser{cfg: cfg}
}

// Parse splits the first non-empty line into headers and subsequent lines
// into rows, applying the column-count tolerance policy. Returns ok=false
// when fewer than the minimum header columns are found or no row survives.
func (p *Parser) Parse(text string) (*ParsedTable, bool) {
	lines := nonEmptyLines(text)
	if len(lines) < 2 {
		return nil, false
	}

	split := p.splitter(text)

	headers := splitNonEmpty(split(lines[0]))
	minHeaders := p.cfg.MinHeaderColumns
	if minHeaders < 2 {
		minHeaders = 2
	}
	if len(headers) < minHeaders {
		return nil, false
	}

	tolerance := p.cfg.RowCountTolerance
	minCells := len(headers) - tolerance
	if floor := max(2, len(headers)/2); minCells < floor {
		minCells = floor
	}
	maxCells := len(headers) + tolerance

	var rows [][]string
	for _, line := range lines[1:] {
		cells := split(line)
		if len(cells) < minCells || len(cells) > maxCells {
			// Width too far from the header count: not a row of this table
			continue
		}
		rows = append(rows, fitWidth(cells, len(headers)))
	}

	if len(rows) == 0 {
		return nil, false
	}

	return &ParsedTable{Headers: headers, Rows: rows}, true
}

// splitter infers the column delimiter for the whole region: a tab anywhere
// wins, then pipes, then runs of two-plus whitespace.
func (p *Parser) splitter(text string) func(string) []string {
	switch {
	case strings.ContainsRune(text, '\t'):
		return func(line string) []string {
			return trimCells(strings.Split(line, "\t"))
		}
	case strings.ContainsRune(text, '|'):
		return func(line string) []string {
			return trimCells(strings.Split(line, "|"))
		}
	default:
		return func(line string) []string {
			return trimCells(wideGapPattern.Split(line, -1))
		}
	}
}

// fitWidth pads with empty strings or truncates so the row is exactly as
// wide as the header list. Rows are never dropped at this stage.
func fitWidth(cells []string, width int) []string {
	row := make([]string, width)
	copy(row, cells)
	return row
}

func trimCells(cells []string) []string {
	trimmed := make([]string, 0, len(cells))
	for _, cell := range cells {
		trimmed = append(trimmed, strings.TrimSpace(cell))
	}
	// Delimiters at line edges ("| a | b |") produce empty boundary cells
	for len(trimmed) > 0 && trimmed[0] == "" {
		trimmed = trimmed[1:]
	}
	for len(trimmed) > 0 && trimmed[len(trimmed)-1] == "" {
		trimmed = trimmed[:len(trimmed)-1]
	}
	return trimmed
}

func nonEmptyLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
