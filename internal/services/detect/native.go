// -----------------------------------------------------------------------
// Native-Tool Adapter - Wrap an external table-extraction command and map
// its output into the candidate schema
// -----------------------------------------------------------------------

package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tabulae/internal/common"
	"github.com/ternarybob/tabulae/internal/interfaces"
	"github.com/ternarybob/tabulae/internal/models"
	"golang.org/x/time/rate"
)

// ExecTool invokes a configured external extraction command with the source
// file path appended to its argv and parses the JSON table list it prints
// to stdout. Invocations are rate-limited so batch runs cannot flood the
// host with processes.
type ExecTool struct {
	command []string
	cfg     common.NativeToolConfig
	limiter *rate.Limiter
	logger  arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.NativeTool = (*ExecTool)(nil)

// NewExecTool creates the external tool wrapper. An empty command means no
// tool is configured; Extract then reports ErrToolUnavailable.
func NewExecTool(cfg common.NativeToolConfig, logger arbor.ILogger) *ExecTool {
	perSecond := cfg.RateLimit
	if perSecond <= 0 {
		perSecond = 2
	}

	return &ExecTool{
		command: cfg.Command,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		logger:  logger,
	}
}

// Available reports whether a tool command is configured.
func (t *ExecTool) Available() bool {
	return len(t.command) > 0
}

// Extract runs the tool under the configured timeout. A spawn failure is
// retried once when retry is enabled; any further failure surfaces to the
// caller, which treats it as "no native tables".
func (t *ExecTool) Extract(ctx context.Context, sourcePath string) ([]interfaces.NativeTable, error) {
	if !t.Available() {
		return nil, interfaces.ErrToolUnavailable
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	output, err := t.run(ctx, sourcePath)
	if err != nil && t.cfg.Retry && ctx.Err() == nil {
		t.logger.Warn().Err(err).Str("source", sourcePath).Msg("Native tool failed, retrying once")
		output, err = t.run(ctx, sourcePath)
	}
	if err != nil {
		return nil, err
	}

	var tables []interfaces.NativeTable
	if err := json.Unmarshal(output, &tables); err != nil {
		return nil, fmt.Errorf("failed to parse native tool output: %w", err)
	}

	return tables, nil
}

func (t *ExecTool) run(ctx context.Context, sourcePath string) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeoutOrDefault(t.cfg))
	defer cancel()

	args := append(append([]string{}, t.command[1:]...), sourcePath)
	cmd := exec.CommandContext(runCtx, t.command[0], args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("native tool timed out: %w", runCtx.Err())
		}
		return nil, fmt.Errorf("native tool failed: %w (stderr: %s)", err, stderr.String())
	}

	return stdout.Bytes(), nil
}

func timeoutOrDefault(cfg common.NativeToolConfig) time.Duration {
	d, err := time.ParseDuration(cfg.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// NativeProducer maps the wrapped tool's output 1:1 into table candidates.
type NativeProducer struct {
	tool   interfaces.NativeTool
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.TableProducer = (*NativeProducer)(nil)

// NewNativeProducer creates the native producer around a tool wrapper.
func NewNativeProducer(tool interfaces.NativeTool, logger arbor.ILogger) *NativeProducer {
	return &NativeProducer{
		tool:   tool,
		logger: logger,
	}
}

// Method returns the extraction method this producer tags candidates with.
func (p *NativeProducer) Method() string {
	return models.MethodNative
}

// Produce invokes the external tool for tool-compatible sources. A missing
// or unconfigured tool is the expected non-fatal path and yields an empty
// list without error.
func (p *NativeProducer) Produce(ctx context.Context, input interfaces.DetectInput) ([]models.TableCandidate, error) {
	if !input.NativeTool || input.SourcePath == "" {
		return nil, nil
	}
	if !p.tool.Available() {
		p.logger.Debug().Msg("No native extraction tool configured")
		return nil, nil
	}

	tables, err := p.tool.Extract(ctx, input.SourcePath)
	if err != nil {
		return nil, err
	}

	var candidates []models.TableCandidate
	sequence := 0
	for _, table := range tables {
		if len(table.Data) < 2 {
			continue
		}

		headers := splitNonEmpty(table.Data[0])
		if len(headers) < 2 {
			continue
		}

		rows := make([][]string, 0, len(table.Data)-1)
		for _, cells := range table.Data[1:] {
			rows = append(rows, fitWidth(cells, len(headers)))
		}

		sequence++
		candidates = append(candidates, models.TableCandidate{
			ID:               common.NewCandidateID(models.MethodNative, table.Page, sequence),
			Page:             table.Page,
			ExtractionMethod: models.MethodNative,
			Accuracy:         clamp01(table.Accuracy),
			Headers:          headers,
			Rows:             rows,
			BoundingBox:      mapBounds(table.Bounds),
		})
	}

	p.logger.Debug().
		Int("reported", len(tables)).
		Int("mapped", len(candidates)).
		Msg("Native tool output mapped")

	return candidates, nil
}

func mapBounds(b *interfaces.NativeBound) *models.BoundingBox {
	if b == nil {
		return nil
	}
	return &models.BoundingBox{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
