package processing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tabulae/internal/common"
	"github.com/ternarybob/tabulae/internal/interfaces"
	"github.com/ternarybob/tabulae/internal/models"
)

// Service scans the input directory, runs table detection over each
// supported document and persists the results
type Service struct {
	config       *common.Config
	detector     interfaces.TableDetector
	pdfExtractor interfaces.PDFExtractor
	normalizer   interfaces.TextNormalizer
	storage      interfaces.ResultStorage
	logger       arbor.ILogger
	isRunning    bool
	lastRunTime  *time.Time
	lastRunError error
}

// NewService creates a new processing service
func NewService(
	config *common.Config,
	detector interfaces.TableDetector,
	pdfExtractor interfaces.PDFExtractor,
	normalizer interfaces.TextNormalizer,
	storage interfaces.ResultStorage,
	logger arbor.ILogger,
) *Service {
	return &Service{
		config:       config,
		detector:     detector,
		pdfExtractor: pdfExtractor,
		normalizer:   normalizer,
		storage:      storage,
		logger:       logger,
	}
}

// ProcessingStats represents statistics from a processing run. RecordIDs
// holds the extraction records created by this run, in processing order.
type ProcessingStats struct {
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	TotalProcessed int
	TotalTables    int
	TotalErrors    int
	RecordIDs      []string
	Errors         []string
}

// ProcessingStatus represents the current state of the processing engine
type ProcessingStatus struct {
	IsRunning        bool       `json:"is_running"`
	LastRunTime      *time.Time `json:"last_run_time"`
	LastRunError     string     `json:"last_run_error,omitempty"`
	EngineStatus     string     `json:"engine_status"`
	TotalRecords     int        `json:"total_records"`
	LastRunTimestamp string     `json:"last_run_timestamp,omitempty"`
}

// GetStatus returns the current processing engine status
func (s *Service) GetStatus(ctx context.Context) (*ProcessingStatus, error) {
	status := &ProcessingStatus{
		IsRunning: s.isRunning,
	}

	if s.isRunning {
		status.EngineStatus = "RUNNING"
	} else {
		status.EngineStatus = "IDLE"
	}

	if s.lastRunTime != nil {
		status.LastRunTime = s.lastRunTime
		status.LastRunTimestamp = s.lastRunTime.Format(time.RFC3339)
	}

	if s.lastRunError != nil {
		status.LastRunError = s.lastRunError.Error()
	}

	count, err := s.storage.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count extraction records: %w", err)
	}
	status.TotalRecords = count

	return status, nil
}

// ProcessAll walks the input directory and processes every supported file
func (s *Service) ProcessAll(ctx context.Context) (*ProcessingStats, error) {
	s.isRunning = true
	defer func() {
		s.isRunning = false
	}()

	stats := &ProcessingStats{
		StartTime: time.Now(),
		RecordIDs: make([]string, 0),
		Errors:    make([]string, 0),
	}

	inputDir := s.config.Processing.InputDir
	s.logger.Info().Str("dir", inputDir).Msg("Starting document processing")

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		s.lastRunError = err
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isSupportedFile(entry.Name()) {
			continue
		}

		if ctx.Err() != nil {
			stats.Errors = append(stats.Errors, ctx.Err().Error())
			stats.TotalErrors++
			break
		}

		path := filepath.Join(inputDir, entry.Name())
		record, err := s.ProcessFile(ctx, path)
		if err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to process document")
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", entry.Name(), err))
			stats.TotalErrors++
			continue
		}

		stats.TotalProcessed++
		stats.TotalTables += record.TableCount
		stats.RecordIDs = append(stats.RecordIDs, record.ID)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	now := time.Now()
	s.lastRunTime = &now

	if len(stats.Errors) > 0 {
		s.lastRunError = fmt.Errorf("processing completed with %d errors", stats.TotalErrors)
	} else {
		s.lastRunError = nil
	}

	s.logger.Info().
		Int("processed", stats.TotalProcessed).
		Int("tables", stats.TotalTables).
		Int("errors", stats.TotalErrors).
		Dur("duration", stats.Duration).
		Msg("Document processing completed")

	return stats, nil
}

// ProcessFile runs detection over a single document and persists the result
func (s *Service) ProcessFile(ctx context.Context, path string) (*models.ExtractionRecord, error) {
	doc, err := s.loadDocument(ctx, path)
	if err != nil {
		return nil, err
	}

	result, err := s.detector.DetectTables(ctx, doc.input)
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}

	record := &models.ExtractionRecord{
		ID:           common.NewExtractionID(),
		FileName:     filepath.Base(path),
		DocumentType: doc.input.DocumentType,
		Tables:       result.Tables,
		TableCount:   result.TableCount,
		Content:      doc.content,
		PageCount:    doc.pageCount,
		CreatedAt:    time.Now(),
	}

	if err := s.storage.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save extraction record: %w", err)
	}

	s.logger.Info().
		Str("file", record.FileName).
		Str("id", record.ID).
		Int("tables", record.TableCount).
		Msg("Document processed")

	return record, nil
}

// sourceDocument is a loaded document: the detector input plus the
// normalized content and metadata persisted on the extraction record.
type sourceDocument struct {
	input     interfaces.DetectInput
	content   string
	pageCount int
}

// loadDocument reads a document and prepares detector input based on its
// file type. The native tool only understands PDF sources. PDF pages feed
// both the per-page input and the concatenated raw text, so every producer
// sees the document text.
func (s *Service) loadDocument(ctx context.Context, path string) (*sourceDocument, error) {
	doc := &sourceDocument{
		input: interfaces.DetectInput{
			DocumentType: s.config.Processing.DocumentType,
			SourcePath:   path,
		},
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read PDF: %w", err)
		}
		pages, err := s.pdfExtractor.ExtractPages(ctx, content)
		if err != nil {
			return nil, fmt.Errorf("failed to extract PDF pages: %w", err)
		}
		doc.input.Pages = pages
		doc.input.RawText = joinPages(pages)
		doc.input.NativeTool = len(s.config.NativeTool.Command) > 0
		doc.content = doc.input.RawText

		meta, err := s.pdfExtractor.GetMetadata(ctx, content)
		if err != nil {
			s.logger.Warn().Err(err).Str("file", filepath.Base(path)).Msg("Failed to read PDF metadata")
		} else {
			doc.pageCount = meta.PageCount
		}

	case ".html", ".htm":
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read HTML: %w", err)
		}
		lines, err := s.normalizer.HTMLToLines(string(content))
		if err != nil {
			return nil, fmt.Errorf("failed to normalize HTML: %w", err)
		}
		doc.input.RawText = strings.Join(lines, "\n")

		markdown, err := s.normalizer.HTMLToMarkdown(string(content), "")
		if err != nil {
			s.logger.Warn().Err(err).Str("file", filepath.Base(path)).Msg("Failed to convert HTML to markdown")
			markdown = doc.input.RawText
		}
		doc.content = markdown

	case ".txt", ".csv", ".tsv":
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		doc.input.RawText = string(content)
		doc.content = doc.input.RawText

	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}

	return doc, nil
}

// joinPages concatenates per-page text into a single raw text stream.
func joinPages(pages []interfaces.PageText) string {
	var builder strings.Builder
	for i, page := range pages {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(page.Text)
	}
	return builder.String()
}

func isSupportedFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".html", ".htm", ".txt", ".csv", ".tsv":
		return true
	}
	return false
}
