// -----------------------------------------------------------------------
// Normalize Service - Flatten raw document content into the line stream
// consumed by table detection
// -----------------------------------------------------------------------

package normalize

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tabulae/internal/interfaces"
)

// Service implements interfaces.TextNormalizer
type Service struct {
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.TextNormalizer = (*Service)(nil)

// NewService creates a new normalize service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		logger: logger,
	}
}

// Lines splits raw text into non-empty trimmed lines.
func (s *Service) Lines(text string) []string {
	if text == "" {
		return nil
	}

	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// HTMLToLines flattens Word-derived or web HTML into a line stream. Table
// rows become one line each with cells joined by tabs, so the table parser
// infers the tab delimiter; remaining markup is reduced to plain text lines.
func (s *Service) HTMLToLines(html string) ([]string, error) {
	if strings.TrimSpace(html) == "" {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		s.logger.Warn().Err(err).Msg("HTML parse failed, falling back to tag stripping")
		return s.Lines(stripHTMLTags(html)), nil
	}

	var lines []string

	// Table rows first: one line per row, cells tab-joined
	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		nonEmpty := 0
		for _, c := range cells {
			if c != "" {
				nonEmpty++
			}
		}
		if nonEmpty > 0 {
			lines = append(lines, strings.Join(cells, "\t"))
		}
	})

	// Remaining content with tables removed, as plain text lines
	doc.Find("table").Remove()
	lines = append(lines, s.Lines(doc.Text())...)

	s.logger.Debug().
		Int("html_length", len(html)).
		Int("lines", len(lines)).
		Msg("Flattened HTML to line stream")

	return lines, nil
}

// HTMLToMarkdown converts HTML content to markdown
// baseURL is used for resolving relative links
// Returns markdown string or error if conversion fails
func (s *Service) HTMLToMarkdown(html string, baseURL string) (string, error) {
	if html == "" {
		return "", nil
	}

	mdConverter := md.NewConverter(baseURL, true, nil)
	converted, err := mdConverter.ConvertString(html)
	if err != nil {
		s.logger.Warn().Err(err).Msg("HTML to markdown conversion failed, using fallback")
		// Fallback: strip HTML tags
		return stripHTMLTags(html), nil
	}

	// Check for empty output
	if strings.TrimSpace(converted) == "" && html != "" {
		s.logger.Warn().
			Int("html_length", len(html)).
			Msg("HTML to markdown conversion produced empty output, applying fallback")
		return stripHTMLTags(html), nil
	}

	return converted, nil
}

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`[ \t]+`)
)

// stripHTMLTags removes basic HTML tags for fallback cases
func stripHTMLTags(htmlStr string) string {
	stripped := tagPattern.ReplaceAllString(htmlStr, "\n")
	cleaned := spacePattern.ReplaceAllString(stripped, " ")

	// Decode HTML entities (basic set)
	cleaned = strings.ReplaceAll(cleaned, "&amp;", "&")
	cleaned = strings.ReplaceAll(cleaned, "&lt;", "<")
	cleaned = strings.ReplaceAll(cleaned, "&gt;", ">")
	cleaned = strings.ReplaceAll(cleaned, "&quot;", "\"")
	cleaned = strings.ReplaceAll(cleaned, "&#39;", "'")
	cleaned = strings.ReplaceAll(cleaned, "&nbsp;", " ")

	return strings.TrimSpace(cleaned)
}
