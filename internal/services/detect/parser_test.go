package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Parse(t *testing.T) {
	parser := NewParser(testDetectionConfig())

	t.Run("Tab delimited", func(t *testing.T) {
		parsed, ok := parser.Parse("Name\tISIN\tValue\nApple\tUS0378331005\t1000")
		require.True(t, ok)
		assert.Equal(t, []string{"Name", "ISIN", "Value"}, parsed.Headers)
		require.Len(t, parsed.Rows, 1)
		assert.Equal(t, []string{"Apple", "US0378331005", "1000"}, parsed.Rows[0])
	})

	t.Run("Pipe delimited", func(t *testing.T) {
		parsed, ok := parser.Parse("Name | ISIN | Value\nApple | US0378331005 | 1000\nMSFT | US5949181045 | 2000")
		require.True(t, ok)
		assert.Equal(t, []string{"Name", "ISIN", "Value"}, parsed.Headers)
		require.Len(t, parsed.Rows, 2)
		assert.Equal(t, []string{"MSFT", "US5949181045", "2000"}, parsed.Rows[1])
	})

	t.Run("Pipe delimited with boundary pipes", func(t *testing.T) {
		parsed, ok := parser.Parse("| Name | Value |\n| Apple | 1000 |")
		require.True(t, ok)
		assert.Equal(t, []string{"Name", "Value"}, parsed.Headers)
		assert.Equal(t, []string{"Apple", "1000"}, parsed.Rows[0])
	})

	t.Run("Wide gap delimited", func(t *testing.T) {
		parsed, ok := parser.Parse("Security  Qty  Price  Value\nApple Inc  100  150.25  15025")
		require.True(t, ok)
		assert.Equal(t, []string{"Security", "Qty", "Price", "Value"}, parsed.Headers)
		assert.Equal(t, []string{"Apple Inc", "100", "150.25", "15025"}, parsed.Rows[0])
	})

	t.Run("Tab wins over pipe", func(t *testing.T) {
		parsed, ok := parser.Parse("Name\tA|B\nApple\t1|2")
		require.True(t, ok)
		assert.Equal(t, []string{"Name", "A|B"}, parsed.Headers)
	})

	t.Run("Narrow row is padded to header width", func(t *testing.T) {
		parsed, ok := parser.Parse("A\tB\tC\nx\ty")
		require.True(t, ok)
		require.Len(t, parsed.Rows, 1)
		assert.Equal(t, []string{"x", "y", ""}, parsed.Rows[0])
	})

	t.Run("Wide row within tolerance is truncated", func(t *testing.T) {
		parsed, ok := parser.Parse("A\tB\tC\nw\tx\ty\tz")
		require.True(t, ok)
		assert.Equal(t, []string{"w", "x", "y"}, parsed.Rows[0])
	})

	t.Run("Row far wider than headers is dropped", func(t *testing.T) {
		// 4 headers, 7-cell row: outside headers+1, not a row of this table
		parsed, ok := parser.Parse("A\tB\tC\tD\na\tb\tc\td\te\tf\tg\nw\tx\ty\tz")
		require.True(t, ok)
		require.Len(t, parsed.Rows, 1)
		assert.Equal(t, []string{"w", "x", "y", "z"}, parsed.Rows[0])
	})

	t.Run("Minimum width floor rejects single-cell rows", func(t *testing.T) {
		// 2 headers with tolerance 1 would admit 1-cell rows, but the floor
		// of max(2, headers/2) keeps them out
		parsed, ok := parser.Parse("A\tB\nonly\nx\ty")
		require.True(t, ok)
		require.Len(t, parsed.Rows, 1)
		assert.Equal(t, []string{"x", "y"}, parsed.Rows[0])
	})

	t.Run("Single header column rejected", func(t *testing.T) {
		_, ok := parser.Parse("Value\n1000")
		assert.False(t, ok)
	})

	t.Run("No surviving rows rejected", func(t *testing.T) {
		_, ok := parser.Parse("A\tB\tC\tD\ta\tb\tc\td\te\tf\tg")
		assert.False(t, ok)
	})

	t.Run("Fewer than two lines rejected", func(t *testing.T) {
		_, ok := parser.Parse("A\tB\tC")
		assert.False(t, ok)
	})

	t.Run("Empty text rejected", func(t *testing.T) {
		_, ok := parser.Parse("")
		assert.False(t, ok)
	})
}
