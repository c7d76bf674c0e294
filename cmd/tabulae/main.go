// -----------------------------------------------------------------------
// Tabulae - Multi-strategy table extraction from financial documents
// -----------------------------------------------------------------------

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tabulae/internal/common"
	"github.com/ternarybob/tabulae/internal/interfaces"
	"github.com/ternarybob/tabulae/internal/models"
	"github.com/ternarybob/tabulae/internal/services/detect"
	"github.com/ternarybob/tabulae/internal/services/normalize"
	"github.com/ternarybob/tabulae/internal/services/pdf"
	"github.com/ternarybob/tabulae/internal/services/processing"
	"github.com/ternarybob/tabulae/internal/services/report"
	"github.com/ternarybob/tabulae/internal/storage/badger"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	inputPath    = flag.String("input", "", "File or directory to process (overrides config)")
	documentType = flag.String("type", "", "Document type hint, e.g. financial (overrides config)")
	writeReport  = flag.Bool("report", false, "Write a PDF report per processed document")
	watch        = flag.Bool("watch", false, "Keep running and process the input directory on the configured schedule")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	// Register custom flag for multiple config files
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Tabulae version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner
	var err error

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("tabulae.toml"); err == nil {
			configFiles = append(configFiles, "tabulae.toml")
		} else if _, err := os.Stat("deployments/local/tabulae.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/tabulae.toml")
		}
	}

	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	// Apply command-line flag overrides (highest priority)
	inputDir := ""
	singleFile := ""
	if *inputPath != "" {
		info, err := os.Stat(*inputPath)
		if err != nil {
			tempLogger := arbor.NewLogger()
			tempLogger.Fatal().Str("input", *inputPath).Err(err).Msg("Input path not accessible")
			os.Exit(1)
		}
		if info.IsDir() {
			inputDir = *inputPath
		} else {
			singleFile = *inputPath
		}
	}
	common.ApplyFlagOverrides(config, inputDir, *documentType)

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetFullVersion())

	logger.Info().
		Strs("config_files", configFiles).
		Str("input_dir", config.Processing.InputDir).
		Str("document_type", config.Processing.DocumentType).
		Str("log_level", config.Logging.Level).
		Msg("Application configuration loaded")

	// Storage
	db, err := badger.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer db.Close()

	resultStorage := badger.NewResultStorage(db, logger)
	kvStorage := badger.NewKVStorage(db, logger)

	// Services
	normalizer := normalize.NewService(logger)
	pdfExtractor := pdf.NewExtractor(logger)
	nativeTool := detect.NewExecTool(config.NativeTool, logger)
	detector := detect.NewService(config.Detection, nativeTool, logger)
	processor := processing.NewService(config, detector, pdfExtractor, normalizer, resultStorage, logger)
	reporter := report.NewService(logger)

	ctx := context.Background()

	if singleFile != "" {
		record, err := processor.ProcessFile(ctx, singleFile)
		if err != nil {
			logger.Fatal().Err(err).Str("file", singleFile).Msg("Processing failed")
		}
		fmt.Printf("Processed %s: %d table(s) detected (record %s)\n",
			record.FileName, record.TableCount, record.ID)

		if *writeReport {
			if err := writePDFReport(reporter, record, config.Report.OutputDir); err != nil {
				logger.Fatal().Err(err).Msg("Failed to write report")
			}
		}
		return
	}

	if *watch {
		runScheduled(processor)
		return
	}

	stats, err := processor.ProcessAll(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Processing failed")
	}
	fmt.Printf("Processed %d document(s), %d table(s) detected, %d error(s)\n",
		stats.TotalProcessed, stats.TotalTables, stats.TotalErrors)

	if err := kvStorage.Set(ctx, "last_run", time.Now().Format(time.RFC3339), "timestamp of the last processing run"); err != nil {
		logger.Warn().Err(err).Msg("Failed to record last run")
	}

	if *writeReport {
		for _, id := range stats.RecordIDs {
			record, err := resultStorage.Get(ctx, id)
			if err != nil {
				logger.Error().Err(err).Str("id", id).Msg("Failed to load extraction record for report")
				continue
			}
			if err := writePDFReport(reporter, record, config.Report.OutputDir); err != nil {
				logger.Error().Err(err).Str("file", record.FileName).Msg("Failed to write report")
			}
		}
	}
}

// runScheduled starts the cron scheduler and blocks until interrupted
func runScheduled(processor *processing.Service) {
	scheduler := processing.NewScheduler(processor, logger)
	if err := scheduler.Start(config.Processing.Schedule); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	defer scheduler.Stop()

	// Immediate first pass so a fresh start does not wait for the schedule
	scheduler.RunNow()

	logger.Info().Msg("Watching for documents - Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Interrupt signal received, shutting down")
}

// writePDFReport renders the record as markdown, converts it to PDF and
// writes it next to the other reports as <name>.report.pdf
func writePDFReport(reporter interfaces.ReportService, record *models.ExtractionRecord, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	markdown := reporter.BuildMarkdown(record)
	title := fmt.Sprintf("Extraction Report: %s", record.FileName)
	content, err := reporter.ConvertMarkdownToPDF(markdown, title)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(record.FileName, filepath.Ext(record.FileName))
	outPath := filepath.Join(outputDir, base+".report.pdf")
	if err := os.WriteFile(outPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	logger.Info().Str("path", outPath).Msg("Report written")
	fmt.Printf("Report written to %s\n", outPath)
	return nil
}
