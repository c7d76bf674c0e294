package detect

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/tabulae/internal/common"
)

func testDetectionConfig() common.DetectionConfig {
	return common.NewDefaultConfig().Detection
}

func TestSegmenter_IsTableLike(t *testing.T) {
	segmenter := NewSegmenter(testDetectionConfig())

	tests := []struct {
		name string
		line string
		want bool
	}{
		{
			name: "Four wide-gap segments",
			line: "Apple  AAPL  1000  25.5",
			want: true,
		},
		{
			name: "Three wide-gap segments below threshold",
			line: "Apple  AAPL  note",
			want: false,
		},
		{
			name: "Tab separated",
			line: "Apple\tAAPL",
			want: true,
		},
		{
			name: "Pipe delimited",
			line: "Name | ISIN | Value",
			want: true,
		},
		{
			name: "Single pipe is prose",
			line: "either this | or that",
			want: false,
		},
		{
			name: "Four short columns",
			line: "a  b  c  d",
			want: true,
		},
		{
			name: "Three numeric tokens",
			line: "values 100 and 200.5 and 300",
			want: true,
		},
		{
			name: "Two numeric tokens below threshold",
			line: "values 100 and 200 only",
			want: false,
		},
		{
			name: "Plain prose",
			line: "This portfolio statement covers the quarter.",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, segmenter.isTableLike(tt.line))
		})
	}
}

func TestSegmenter_Segment(t *testing.T) {
	segmenter := NewSegmenter(testDetectionConfig())

	t.Run("Groups contiguous table lines into one region", func(t *testing.T) {
		lines := []string{
			"Quarterly statement",
			"Name\tISIN\tValue",
			"Apple\tUS0378331005\t1000",
			"MSFT\tUS5949181045\t2000",
			"End of statement.",
		}

		regions := segmenter.Segment(lines)
		require.Len(t, regions, 1)
		assert.Equal(t, 1, regions[0].StartLine)
		assert.Equal(t, 3, regions[0].EndLine)
		assert.Equal(t, 3, len(strings.Split(regions[0].Text, "\n")))
	})

	t.Run("Single blank line does not close the region", func(t *testing.T) {
		lines := []string{
			"Name\tValue",
			"Apple\t1000",
			"",
			"MSFT\t2000",
		}

		regions := segmenter.Segment(lines)
		require.Len(t, regions, 1)
		assert.Equal(t, 3, regions[0].EndLine)
	})

	t.Run("Two consecutive blank lines close the region", func(t *testing.T) {
		lines := []string{
			"Name\tValue",
			"Apple\t1000",
			"",
			"",
			"Name\tValue",
			"MSFT\t2000",
		}

		regions := segmenter.Segment(lines)
		require.Len(t, regions, 2)
		assert.Equal(t, 0, regions[0].StartLine)
		assert.Equal(t, 1, regions[0].EndLine)
		assert.Equal(t, 4, regions[1].StartLine)
	})

	t.Run("Region open at end of input is closed", func(t *testing.T) {
		lines := []string{
			"Name\tValue",
			"Apple\t1000",
		}

		regions := segmenter.Segment(lines)
		require.Len(t, regions, 1)
	})

	t.Run("Wrapped continuation line is absorbed", func(t *testing.T) {
		lines := []string{
			"Security\tQty\tValue",
			"Very Long Security Name\t100\t5000",
			"continued name part 100", // similar length, has a numeric token
			"Short\t5\t100",
		}

		regions := segmenter.Segment(lines)
		require.Len(t, regions, 1)
		assert.Equal(t, 3, regions[0].EndLine)
	})

	t.Run("Prose line without numerics closes the region", func(t *testing.T) {
		lines := []string{
			"Name\tValue",
			"Apple\t1000",
			"All figures are stated in US dollars unless noted.",
			"More prose follows here.",
		}

		regions := segmenter.Segment(lines)
		require.Len(t, regions, 1)
		assert.Equal(t, 1, regions[0].EndLine)
	})

	t.Run("No table-like lines yields no regions", func(t *testing.T) {
		lines := []string{
			"Just prose.",
			"",
			"More prose without any structure at all.",
		}

		assert.Empty(t, segmenter.Segment(lines))
	})

	t.Run("Does not mutate input", func(t *testing.T) {
		lines := []string{"Name\tValue", "Apple\t1000"}
		original := make([]string, len(lines))
		copy(original, lines)

		segmenter.Segment(lines)
		assert.Equal(t, original, lines)
	})
}

func TestSegmenter_IsContinuation(t *testing.T) {
	segmenter := NewSegmenter(testDetectionConfig())

	t.Run("First line is never a continuation", func(t *testing.T) {
		assert.False(t, segmenter.isContinuation([]string{"abc 1"}, 0, "abc 1"))
	})

	t.Run("Requires a numeric token", func(t *testing.T) {
		lines := []string{"Apple  AAPL  100  200", "continued text"}
		assert.False(t, segmenter.isContinuation(lines, 1, "continued text"))
	})

	t.Run("Rejects large length delta", func(t *testing.T) {
		lines := []string{"short 1", "this continuation line is far longer than the previous 1"}
		assert.False(t, segmenter.isContinuation(lines, 1, lines[1]))
	})

	t.Run("Accepts similar-length numeric line", func(t *testing.T) {
		lines := []string{"Apple  AAPL  1000", "Apple Inc 2 1000x"}
		assert.True(t, segmenter.isContinuation(lines, 1, lines[1]))
	})
}
