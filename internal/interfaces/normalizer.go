package interfaces

// TextNormalizer turns raw document content into the line stream the
// detection engine consumes.
type TextNormalizer interface {
	// Lines splits raw text into non-empty trimmed lines.
	Lines(text string) []string

	// HTMLToLines flattens HTML into a line stream. Table cells within a row
	// are joined with tabs so downstream parsing infers the tab delimiter.
	HTMLToLines(html string) ([]string, error)

	// HTMLToMarkdown converts HTML to markdown for persisted document
	// content. baseURL resolves relative links.
	HTMLToMarkdown(html string, baseURL string) (string, error)
}
