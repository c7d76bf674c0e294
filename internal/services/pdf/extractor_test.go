package pdf

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

// makePDF renders a small single-page PDF for extraction tests
func makePDF(t *testing.T, text string) []byte {
	t.Helper()

	doc := fpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	doc.SetFont("Helvetica", "", 12)
	doc.Cell(40, 10, text)

	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func TestExtractPages(t *testing.T) {
	extractor := NewExtractor(arbor.NewLogger())
	ctx := context.Background()

	t.Run("Single page document", func(t *testing.T) {
		pages, err := extractor.ExtractPages(ctx, makePDF(t, "Holdings"))
		require.NoError(t, err)
		require.Len(t, pages, 1)
		assert.Equal(t, 1, pages[0].PageNumber)
	})

	t.Run("Invalid bytes rejected", func(t *testing.T) {
		_, err := extractor.ExtractPages(ctx, []byte("not a pdf"))
		assert.Error(t, err)
	})
}

// Concurrent extractions on one extractor must not share scratch files.
func TestExtractPagesConcurrent(t *testing.T) {
	extractor := NewExtractor(arbor.NewLogger())
	content := makePDF(t, "Holdings")

	const workers = 4
	errs := make(chan error, workers)
	counts := make(chan int, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pages, err := extractor.ExtractPages(context.Background(), content)
			errs <- err
			counts <- len(pages)
		}()
	}
	wg.Wait()
	close(errs)
	close(counts)

	for err := range errs {
		assert.NoError(t, err)
	}
	for count := range counts {
		assert.Equal(t, 1, count)
	}
}

func TestGetMetadata(t *testing.T) {
	extractor := NewExtractor(arbor.NewLogger())
	ctx := context.Background()

	t.Run("Page count and size", func(t *testing.T) {
		content := makePDF(t, "Holdings")

		meta, err := extractor.GetMetadata(ctx, content)
		require.NoError(t, err)
		assert.Equal(t, 1, meta.PageCount)
		assert.Equal(t, int64(len(content)), meta.FileSize)
		assert.False(t, meta.IsEncrypted)
	})

	t.Run("Invalid bytes rejected", func(t *testing.T) {
		_, err := extractor.GetMetadata(ctx, []byte("not a pdf"))
		assert.Error(t, err)
	})
}
