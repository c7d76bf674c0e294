package interfaces

import (
	"context"
	"errors"
)

// ErrToolUnavailable is returned when no native extraction tool is
// configured or the configured one cannot be executed. Callers treat it the
// same as any other producer failure.
var ErrToolUnavailable = errors.New("native extraction tool unavailable")

// NativeTable is one table as reported by an external extraction tool.
// Data[0] is the header row, Data[1:] are the data rows.
type NativeTable struct {
	Page     int          `json:"page"`
	Data     [][]string   `json:"data"`
	Accuracy float64      `json:"accuracy"`
	Bounds   *NativeBound `json:"bounds,omitempty"`
}

// NativeBound is the reported table geometry, when the tool provides one.
type NativeBound struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NativeTool wraps an external table-extraction command.
type NativeTool interface {
	// Available reports whether a tool is configured and worth invoking.
	Available() bool

	// Extract runs the tool against the source file and parses its output.
	// Returns ErrToolUnavailable when no tool is configured.
	Extract(ctx context.Context, sourcePath string) ([]NativeTable, error)
}
