package formatter

import (
	"encoding/json"
	"time"

	"github.com/logsleuth/logsleuth/internal/analyzer"
	"github.com/logsleuth/logsleuth/internal/grouping"
)

// jsonFormatter formats output as JSON
type jsonFormatter struct{}

// NewJSON creates a new JSON formatter
func NewJSON() Formatter {
	return &jsonFormatter{}
}

func (f *jsonFormatter) Format(analysis *analyzer.Analysis) ([]byte, error) {
	output := &JSONReport{
		Summary:  createSummary(analysis),
		Patterns: createPatternOutputs(analysis.Patterns),
	}

	return json.MarshalIndent(output, "", "  ")
}

// JSONReport is the machine-readable analysis report.
type JSONReport struct {
	Summary  *SummaryOutput   `json:"summary"`
	Patterns []*PatternOutput `json:"patterns"`
}

// SummaryOutput represents the summary section
type SummaryOutput struct {
	Source        string         `json:"source,omitempty"`
	TotalLines    int            `json:"total_lines"`
	TotalBlocks   int            `json:"total_blocks"`
	DroppedBlocks int            `json:"dropped_blocks"`
	ErrorCount    int            `json:"error_count"`
	LevelCounts   map[string]int `json:"level_counts,omitempty"`
	Elapsed       string         `json:"elapsed"`
	GeneratedAt   time.Time      `json:"generated_at"`
}

// PatternOutput represents one ranked error pattern
type PatternOutput struct {
	Signature   string               `json:"signature"`
	ErrorType   string               `json:"error_type"`
	Count       int                  `json:"count"`
	Location    string               `json:"location,omitempty"`
	Message     string               `json:"message,omitempty"`
	CommonFiles []grouping.FileCount `json:"common_files,omitempty"`
	Traceback   string               `json:"traceback,omitempty"`
}

// PatternExport is the standalone pattern dump written by --export.
type PatternExport struct {
	GeneratedAt   time.Time        `json:"generated_at"`
	TotalPatterns int              `json:"total_patterns"`
	Patterns      []*PatternOutput `json:"patterns"`
}

// ExportPatterns marshals ranked patterns for a standalone JSON export
// file.
func ExportPatterns(patterns []*grouping.ErrorPattern) ([]byte, error) {
	export := &PatternExport{
		GeneratedAt:   time.Now(),
		TotalPatterns: len(patterns),
		Patterns:      createPatternOutputs(patterns),
	}
	return json.MarshalIndent(export, "", "  ")
}

// createSummary creates the summary output section
func createSummary(analysis *analyzer.Analysis) *SummaryOutput {
	return &SummaryOutput{
		Source:        analysis.Source,
		TotalLines:    analysis.TotalLines,
		TotalBlocks:   analysis.TotalBlocks,
		DroppedBlocks: analysis.DroppedBlocks,
		ErrorCount:    analysis.ErrorCount(),
		LevelCounts:   analysis.LevelCounts,
		Elapsed:       analysis.Elapsed.String(),
		GeneratedAt:   time.Now(),
	}
}

// createPatternOutputs flattens ranked patterns for serialization
func createPatternOutputs(patterns []*grouping.ErrorPattern) []*PatternOutput {
	outputs := make([]*PatternOutput, 0, len(patterns))

	for _, pattern := range patterns {
		output := &PatternOutput{
			Signature:   pattern.Signature,
			ErrorType:   pattern.ErrorType,
			Count:       pattern.Count,
			CommonFiles: pattern.CommonFiles,
		}
		if rep := pattern.Representative; rep != nil {
			output.Location = rep.Location()
			output.Message = rep.ErrorMessage
			output.Traceback = rep.FullTraceback
		}
		outputs = append(outputs, output)
	}

	return outputs
}
