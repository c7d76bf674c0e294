package processing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tabulae/internal/common"
	"github.com/ternarybob/tabulae/internal/interfaces"
	"github.com/ternarybob/tabulae/internal/models"
	"github.com/ternarybob/tabulae/internal/services/detect"
	"github.com/ternarybob/tabulae/internal/services/normalize"
	"github.com/ternarybob/tabulae/internal/services/pdf"
)

// memoryStorage is an in-memory ResultStorage for tests
type memoryStorage struct {
	records map[string]*models.ExtractionRecord
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{records: make(map[string]*models.ExtractionRecord)}
}

func (s *memoryStorage) Save(ctx context.Context, record *models.ExtractionRecord) error {
	s.records[record.ID] = record
	return nil
}

func (s *memoryStorage) Get(ctx context.Context, id string) (*models.ExtractionRecord, error) {
	record, ok := s.records[id]
	if !ok {
		return nil, interfaces.ErrRecordNotFound
	}
	return record, nil
}

func (s *memoryStorage) List(ctx context.Context) ([]models.ExtractionRecord, error) {
	var records []models.ExtractionRecord
	for _, record := range s.records {
		records = append(records, *record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (s *memoryStorage) Delete(ctx context.Context, id string) error {
	if _, ok := s.records[id]; !ok {
		return interfaces.ErrRecordNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *memoryStorage) Count(ctx context.Context) (int, error) {
	return len(s.records), nil
}

// fakePDFExtractor serves canned pages so tests can exercise the PDF path
// without real PDF bytes
type fakePDFExtractor struct {
	pages []interfaces.PageText
	meta  *interfaces.PDFMetadata
}

func (f *fakePDFExtractor) ExtractPages(ctx context.Context, pdfContent []byte) ([]interfaces.PageText, error) {
	return f.pages, nil
}

func (f *fakePDFExtractor) ExtractText(ctx context.Context, pdfContent []byte) (string, error) {
	texts := make([]string, 0, len(f.pages))
	for _, page := range f.pages {
		texts = append(texts, page.Text)
	}
	return strings.Join(texts, "\n"), nil
}

func (f *fakePDFExtractor) GetMetadata(ctx context.Context, pdfContent []byte) (*interfaces.PDFMetadata, error) {
	if f.meta == nil {
		return nil, errors.New("metadata unavailable")
	}
	return f.meta, nil
}

func newTestService(t *testing.T, inputDir string) (*Service, *memoryStorage) {
	t.Helper()
	logger := arbor.NewLogger()
	return newTestServiceWith(t, inputDir, "financial", pdf.NewExtractor(logger))
}

func newTestServiceWith(t *testing.T, inputDir, documentType string, extractor interfaces.PDFExtractor) (*Service, *memoryStorage) {
	t.Helper()
	logger := arbor.NewLogger()

	config := common.NewDefaultConfig()
	config.Processing.InputDir = inputDir
	config.Processing.DocumentType = documentType

	tool := detect.NewExecTool(config.NativeTool, logger)
	detector := detect.NewService(config.Detection, tool, logger)
	storage := newMemoryStorage()

	service := NewService(config, detector, extractor, normalize.NewService(logger), storage, logger)
	return service, storage
}

func TestProcessFile(t *testing.T) {
	ctx := context.Background()

	t.Run("Text document with pipe table", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "statement.txt")
		content := "Name | ISIN | Value\nApple | US0378331005 | 1000\nMSFT | US5949181045 | 2000\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		service, storage := newTestService(t, dir)

		record, err := service.ProcessFile(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "statement.txt", record.FileName)
		assert.Equal(t, "financial", record.DocumentType)
		assert.Equal(t, 1, record.TableCount)
		assert.Contains(t, record.ID, "ext_")

		stored, err := storage.Get(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, record.TableCount, stored.TableCount)
	})

	t.Run("HTML document", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "statement.html")
		content := `<h1>Portfolio Statement</h1>
		<table>
			<tr><th>Name</th><th>Value</th></tr>
			<tr><td>Apple</td><td>1000</td></tr>
			<tr><td>MSFT</td><td>2000</td></tr>
		</table>`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		service, _ := newTestService(t, dir)

		record, err := service.ProcessFile(ctx, path)
		require.NoError(t, err)
		require.Equal(t, 1, record.TableCount)
		assert.Equal(t, []string{"Name", "Value"}, record.Tables[0].Headers)
		assert.Contains(t, record.Content, "# Portfolio Statement")
	})

	t.Run("Text document content persisted", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "statement.txt")
		content := "Name | ISIN | Value\nApple | US0378331005 | 1000\nMSFT | US5949181045 | 2000\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		service, _ := newTestService(t, dir)

		record, err := service.ProcessFile(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, content, record.Content)
	})

	t.Run("Document without tables still saved", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("Just prose, nothing tabular here.\n"), 0644))

		service, storage := newTestService(t, dir)

		record, err := service.ProcessFile(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, 0, record.TableCount)

		count, err := storage.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("Unsupported extension rejected", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "statement.docx")
		require.NoError(t, os.WriteFile(path, []byte("binary"), 0644))

		service, _ := newTestService(t, dir)

		_, err := service.ProcessFile(ctx, path)
		assert.Error(t, err)
	})
}

func TestProcessFilePDF(t *testing.T) {
	ctx := context.Background()

	holdingsPage := "Holdings\nApple  AAPL  1000\nMSFT  MSFT2  2000\nTotal  3000"

	t.Run("Page text reaches the pattern extractor", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "statement.pdf")
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0644))

		extractor := &fakePDFExtractor{
			pages: []interfaces.PageText{{PageNumber: 1, Text: holdingsPage}},
		}
		service, _ := newTestServiceWith(t, dir, "portfolio", extractor)

		record, err := service.ProcessFile(ctx, path)
		require.NoError(t, err)
		require.NotEmpty(t, record.Tables)

		var holdings *models.TableCandidate
		for i := range record.Tables {
			if record.Tables[i].TableNumber == models.TableNumberHoldings {
				holdings = &record.Tables[i]
			}
		}
		require.NotNil(t, holdings, "holdings section should be extracted from PDF page text")
		assert.Equal(t, models.MethodRegex, holdings.ExtractionMethod)
		assert.Equal(t, [][]string{{"MSFT", "MSFT2", "2000"}}, holdings.Rows)
	})

	t.Run("Multi-page text concatenated in page order", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "statement.pdf")
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0644))

		extractor := &fakePDFExtractor{
			pages: []interfaces.PageText{
				{PageNumber: 1, Text: "Portfolio overview"},
				{PageNumber: 2, Text: holdingsPage},
			},
		}
		service, _ := newTestServiceWith(t, dir, "portfolio", extractor)

		record, err := service.ProcessFile(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "Portfolio overview\n"+holdingsPage, record.Content)
	})

	t.Run("Page count persisted from metadata", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "statement.pdf")
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0644))

		extractor := &fakePDFExtractor{
			pages: []interfaces.PageText{{PageNumber: 1, Text: holdingsPage}},
			meta:  &interfaces.PDFMetadata{PageCount: 3, FileSize: 8},
		}
		service, storage := newTestServiceWith(t, dir, "portfolio", extractor)

		record, err := service.ProcessFile(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, 3, record.PageCount)

		stored, err := storage.Get(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, stored.PageCount)
	})

	t.Run("Metadata failure does not block processing", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "statement.pdf")
		require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0644))

		extractor := &fakePDFExtractor{
			pages: []interfaces.PageText{{PageNumber: 1, Text: holdingsPage}},
		}
		service, _ := newTestServiceWith(t, dir, "portfolio", extractor)

		record, err := service.ProcessFile(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, 0, record.PageCount)
	})
}

func TestProcessAll(t *testing.T) {
	ctx := context.Background()

	t.Run("Processes every supported file", func(t *testing.T) {
		dir := t.TempDir()
		table := "Name | ISIN | Value\nApple | US0378331005 | 1000\nMSFT | US5949181045 | 2000\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte(table), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte(table), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.docx"), []byte("x"), 0644))
		require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))

		service, storage := newTestService(t, dir)

		stats, err := service.ProcessAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.TotalProcessed)
		assert.Equal(t, 2, stats.TotalTables)
		assert.Equal(t, 0, stats.TotalErrors)

		count, err := storage.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("Stats carry the record IDs of this run only", func(t *testing.T) {
		dir := t.TempDir()
		table := "Name | ISIN | Value\nApple | US0378331005 | 1000\nMSFT | US5949181045 | 2000\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte(table), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte(table), 0644))

		service, storage := newTestService(t, dir)

		first, err := service.ProcessAll(ctx)
		require.NoError(t, err)
		require.Len(t, first.RecordIDs, 2)

		second, err := service.ProcessAll(ctx)
		require.NoError(t, err)
		require.Len(t, second.RecordIDs, 2)
		for _, id := range first.RecordIDs {
			assert.NotContains(t, second.RecordIDs, id)
		}

		for _, id := range second.RecordIDs {
			record, err := storage.Get(ctx, id)
			require.NoError(t, err)
			assert.NotEmpty(t, record.FileName)
		}
	})

	t.Run("Missing input directory is an error", func(t *testing.T) {
		service, _ := newTestService(t, "/nonexistent/documents")

		_, err := service.ProcessAll(ctx)
		assert.Error(t, err)
	})

	t.Run("Status reflects last run", func(t *testing.T) {
		dir := t.TempDir()
		service, _ := newTestService(t, dir)

		status, err := service.GetStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, "IDLE", status.EngineStatus)
		assert.Nil(t, status.LastRunTime)

		_, err = service.ProcessAll(ctx)
		require.NoError(t, err)

		status, err = service.GetStatus(ctx)
		require.NoError(t, err)
		assert.NotNil(t, status.LastRunTime)
		assert.Empty(t, status.LastRunError)
	})
}
