package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Logging     LoggingConfig    `toml:"logging"`
	Storage     StorageConfig    `toml:"storage"`
	Detection   DetectionConfig  `toml:"detection"`
	NativeTool  NativeToolConfig `toml:"native_tool"`
	Processing  ProcessingConfig `toml:"processing"`
	Report      ReportConfig     `toml:"report"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// DetectionConfig tunes the table detection heuristics.
//
// The confidence values are fixed heuristic constants, not learned
// quantities; they are exposed here so they can be calibrated against real
// document sets without a rebuild. The same goes for the segmentation
// thresholds: the defaults match behavior observed on flattened financial
// statements but have no empirical derivation.
type DetectionConfig struct {
	GridConfidence  float64 `toml:"grid_confidence" validate:"gte=0,lte=1"`  // Confidence assigned to grid-analysis candidates (default: 0.8)
	RegexConfidence float64 `toml:"regex_confidence" validate:"gte=0,lte=1"` // Confidence assigned to pattern-based candidates (default: 0.7)

	MinHeaderColumns      int `toml:"min_header_columns" validate:"gte=2"`  // Minimum header columns for a valid table (default: 2)
	RowCountTolerance     int `toml:"row_count_tolerance" validate:"gte=0"` // Accepted row width delta around header count (default: 1)
	MinWhitespaceSegments int `toml:"min_whitespace_segments"`              // Segments from a 2+-space split that mark a line table-like (default: 4)
	MinNumericTokens      int `toml:"min_numeric_tokens"`                   // Numeric tokens that mark a line table-like (default: 3)
	ContinuationMaxDelta  int `toml:"continuation_max_delta"`               // Max length difference for wrapped-cell continuation lines (default: 10)
	BlankLineLookahead    int `toml:"blank_line_lookahead"`                 // Consecutive blank lines tolerated inside a region (default: 1)
}

// NativeToolConfig configures the external table-extraction tool.
type NativeToolConfig struct {
	Command   []string `toml:"command"`    // Tool argv; the source file path is appended (empty = no native tool)
	Timeout   string   `toml:"timeout"`    // Per-invocation timeout as duration string (default: "30s")
	RateLimit float64  `toml:"rate_limit"` // Max tool invocations per second (default: 2)
	Retry     bool     `toml:"retry"`      // Retry once on transient spawn failure (default: true)
}

// ProcessingConfig configures the batch document scanner.
type ProcessingConfig struct {
	Enabled      bool   `toml:"enabled"`       // Enable scheduled processing
	InputDir     string `toml:"input_dir"`     // Directory scanned for documents
	Schedule     string `toml:"schedule"`      // Cron schedule (with seconds field)
	DocumentType string `toml:"document_type"` // Default document type hint for scanned files
}

// ReportConfig configures PDF report output.
type ReportConfig struct {
	OutputDir string `toml:"output_dir"` // Directory for generated PDF reports
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Detection: DetectionConfig{
			GridConfidence:        0.8,
			RegexConfidence:       0.7,
			MinHeaderColumns:      2,
			RowCountTolerance:     1,
			MinWhitespaceSegments: 4,
			MinNumericTokens:      3,
			ContinuationMaxDelta:  10,
			BlankLineLookahead:    1,
		},
		NativeTool: NativeToolConfig{
			Command:   nil, // No native tool by default - detection degrades to text heuristics
			Timeout:   "30s",
			RateLimit: 2,
			Retry:     true,
		},
		Processing: ProcessingConfig{
			Enabled:      false, // Disabled by default - user must explicitly opt-in
			InputDir:     "./documents",
			Schedule:     "0 */15 * * * *", // Every 15 minutes (cron format with seconds)
			DocumentType: "financial",
		},
		Report: ReportConfig{
			OutputDir: "./reports",
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier
// files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks value ranges on the loaded configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.NativeTool.Timeout != "" {
		if _, err := time.ParseDuration(c.NativeTool.Timeout); err != nil {
			return fmt.Errorf("native_tool.timeout: %w", err)
		}
	}
	return nil
}

// NativeToolTimeout returns the parsed tool timeout, falling back to the
// default on an empty value.
func (c *Config) NativeToolTimeout() time.Duration {
	d, err := time.ParseDuration(c.NativeTool.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: TABULAE_ENV, fallback: GO_ENV)
	if env := os.Getenv("TABULAE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Logging configuration
	if level := os.Getenv("TABULAE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("TABULAE_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("TABULAE_LOG_OUTPUT"); output != "" {
		// Split comma-separated output types
		outputs := []string{}
		for _, o := range splitString(output, ",") {
			trimmed := trimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Storage configuration
	if badgerPath := os.Getenv("TABULAE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Detection configuration
	if grid := os.Getenv("TABULAE_DETECTION_GRID_CONFIDENCE"); grid != "" {
		if g, err := strconv.ParseFloat(grid, 64); err == nil {
			config.Detection.GridConfidence = g
		}
	}
	if regex := os.Getenv("TABULAE_DETECTION_REGEX_CONFIDENCE"); regex != "" {
		if r, err := strconv.ParseFloat(regex, 64); err == nil {
			config.Detection.RegexConfidence = r
		}
	}

	// Native tool configuration
	if timeout := os.Getenv("TABULAE_NATIVE_TOOL_TIMEOUT"); timeout != "" {
		if _, err := time.ParseDuration(timeout); err == nil {
			config.NativeTool.Timeout = timeout
		}
	}
	if command := os.Getenv("TABULAE_NATIVE_TOOL_COMMAND"); command != "" {
		argv := []string{}
		for _, part := range splitString(command, " ") {
			trimmed := trimSpace(part)
			if trimmed != "" {
				argv = append(argv, trimmed)
			}
		}
		if len(argv) > 0 {
			config.NativeTool.Command = argv
		}
	}

	// Processing configuration
	if inputDir := os.Getenv("TABULAE_PROCESSING_INPUT_DIR"); inputDir != "" {
		config.Processing.InputDir = inputDir
	}
	if schedule := os.Getenv("TABULAE_PROCESSING_SCHEDULE"); schedule != "" {
		config.Processing.Schedule = schedule
	}
	if docType := os.Getenv("TABULAE_PROCESSING_DOCUMENT_TYPE"); docType != "" {
		config.Processing.DocumentType = docType
	}

	// Report configuration
	if reportDir := os.Getenv("TABULAE_REPORT_OUTPUT_DIR"); reportDir != "" {
		config.Report.OutputDir = reportDir
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, inputDir string, documentType string) {
	// Command-line flags have highest priority
	if inputDir != "" {
		config.Processing.InputDir = inputDir
	}
	if documentType != "" {
		config.Processing.DocumentType = documentType
	}
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := trimSpace(c.Environment)
	return env == "production" || env == "prod"
}

// Helper functions for string manipulation
func splitString(s, sep string) []string {
	result := []string{}
	start := 0
	for i := 0; i < len(s); i++ {
		if i+len(sep) <= len(s) && s[i:i+len(sep)] == sep {
			result = append(result, s[start:i])
			start = i + len(sep)
			i = start - 1
		}
	}
	result = append(result, s[start:])
	return result
}

func trimSpace(s string) string {
	start := 0
	end := len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t' || s[start] == '\n' || s[start] == '\r') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\n' || s[end-1] == '\r') {
		end--
	}
	return s[start:end]
}
