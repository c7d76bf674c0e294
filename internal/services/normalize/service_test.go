package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestLines(t *testing.T) {
	service := NewService(arbor.NewLogger())

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "Trims and drops empties",
			text: "  first \n\n second\t\n",
			want: []string{"first", "second"},
		},
		{
			name: "Windows line endings",
			text: "a\r\nb\r\nc",
			want: []string{"a", "b", "c"},
		},
		{
			name: "Empty input",
			text: "",
			want: nil,
		},
		{
			name: "Only whitespace",
			text: "  \n\t\n  ",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.Lines(tt.text))
		})
	}
}

func TestHTMLToLines(t *testing.T) {
	service := NewService(arbor.NewLogger())

	t.Run("Table rows become tab-joined lines", func(t *testing.T) {
		html := `<html><body>
			<p>Portfolio statement</p>
			<table>
				<tr><th>Name</th><th>ISIN</th><th>Value</th></tr>
				<tr><td>Apple</td><td>US0378331005</td><td>1000</td></tr>
			</table>
		</body></html>`

		lines, err := service.HTMLToLines(html)
		require.NoError(t, err)

		assert.Contains(t, lines, "Name\tISIN\tValue")
		assert.Contains(t, lines, "Apple\tUS0378331005\t1000")
		assert.Contains(t, lines, "Portfolio statement")

		// Table content must not reappear in the prose lines
		for _, line := range lines {
			if !strings.Contains(line, "\t") {
				assert.NotContains(t, line, "Apple")
			}
		}
	})

	t.Run("Rows of empty cells are dropped", func(t *testing.T) {
		html := `<table><tr><td></td><td> </td></tr><tr><td>a</td><td>b</td></tr></table>`

		lines, err := service.HTMLToLines(html)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, "a\tb", lines[0])
	})

	t.Run("Empty input", func(t *testing.T) {
		lines, err := service.HTMLToLines("   ")
		require.NoError(t, err)
		assert.Nil(t, lines)
	})
}

func TestHTMLToMarkdown(t *testing.T) {
	service := NewService(arbor.NewLogger())

	t.Run("Converts basic markup", func(t *testing.T) {
		markdown, err := service.HTMLToMarkdown("<h1>Title</h1><p>Some <strong>bold</strong> text.</p>", "")
		require.NoError(t, err)
		assert.Contains(t, markdown, "# Title")
		assert.Contains(t, markdown, "**bold**")
	})

	t.Run("Empty input", func(t *testing.T) {
		markdown, err := service.HTMLToMarkdown("", "")
		require.NoError(t, err)
		assert.Empty(t, markdown)
	})
}

func TestStripHTMLTags(t *testing.T) {
	assert.Equal(t, "a & b", stripHTMLTags("<p>a &amp; b</p>"))
	assert.Equal(t, "quoted \"text\"", stripHTMLTags("quoted &quot;text&quot;"))
}
