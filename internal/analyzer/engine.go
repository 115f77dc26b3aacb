package analyzer

import (
	"context"
	"strings"
	"time"

	"github.com/yildizm/go-logparser"

	"github.com/logsleuth/logsleuth/internal/grouping"
	"github.com/logsleuth/logsleuth/internal/traceback"
)

// PipelineEngine is the default Engine implementation.
type PipelineEngine struct {
	levelStats bool
	typePrefix bool
}

// NewEngine creates an engine with level stats enabled.
func NewEngine() Engine {
	return &PipelineEngine{levelStats: true}
}

// WithLevelStats toggles log level counting.
func (e *PipelineEngine) WithLevelStats(enabled bool) Engine {
	e.levelStats = enabled
	return e
}

// WithTypePrefix toggles type-prefixed messages.
func (e *PipelineEngine) WithTypePrefix(enabled bool) Engine {
	e.typePrefix = enabled
	return e
}

// Analyze runs segmentation, extraction, grouping and ranking over text.
// The context is checked between stages so a canceled run stops without
// finishing later stages.
func (e *PipelineEngine) Analyze(ctx context.Context, source, text string) (*Analysis, error) {
	start := time.Now()
	analysis := &Analysis{
		Source:    source,
		StartTime: start,
	}

	if text == "" {
		analysis.Elapsed = time.Since(start)
		return analysis, nil
	}

	analysis.TotalLines = countLines(text)

	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	blocks := traceback.Segment(text)
	analysis.TotalBlocks = len(blocks)

	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	extractor := e.newExtractor()
	records := make([]*traceback.ErrorRecord, 0, len(blocks))
	for _, block := range blocks {
		rec, ok := extractor.Extract(block)
		if !ok {
			analysis.DroppedBlocks++
			continue
		}
		records = append(records, rec)
	}
	analysis.Records = records

	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	analysis.Patterns = grouping.Rank(grouping.Group(records))

	if e.levelStats {
		if err := checkContext(ctx); err != nil {
			return nil, err
		}
		analysis.LevelCounts = countLevels(text)
	}

	analysis.Elapsed = time.Since(start)
	return analysis, nil
}

func (e *PipelineEngine) newExtractor() *traceback.Extractor {
	if e.typePrefix {
		return traceback.NewExtractor(traceback.WithTypePrefix())
	}
	return traceback.NewExtractor()
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func countLines(text string) int {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}

// countLevels runs the line parser over the text and tallies entries per
// level. Parse failures just leave the tally empty; level stats are a
// best-effort garnish on the analysis.
func countLevels(text string) map[string]int {
	lines := make([]string, 0, 64)
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	p := logparser.New()
	entries, err := p.ParseString(strings.Join(lines, "\n"))
	if err != nil || len(entries) == 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, entry := range entries {
		level := strings.ToUpper(strings.TrimSpace(entry.Level))
		if level == "" {
			level = "UNKNOWN"
		}
		counts[level]++
	}
	return counts
}
