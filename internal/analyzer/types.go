package analyzer

import (
	"time"

	"github.com/logsleuth/logsleuth/internal/grouping"
	"github.com/logsleuth/logsleuth/internal/traceback"
)

// Analysis is the result of one pipeline run over one piece of log text.
type Analysis struct {
	// Source labels where the text came from.
	Source string `json:"source,omitempty"`

	// StartTime is when the analysis began.
	StartTime time.Time `json:"start_time"`

	// Elapsed is how long the pipeline took.
	Elapsed time.Duration `json:"elapsed"`

	// TotalLines counts non-blank input lines.
	TotalLines int `json:"total_lines"`

	// LevelCounts tallies log lines per level when level stats are on.
	LevelCounts map[string]int `json:"level_counts,omitempty"`

	// TotalBlocks is the number of traceback blocks segmented.
	TotalBlocks int `json:"total_blocks"`

	// DroppedBlocks counts blocks without a usable file and line.
	DroppedBlocks int `json:"dropped_blocks"`

	// Records are the extracted error occurrences, in input order.
	Records []*traceback.ErrorRecord `json:"-"`

	// Patterns are the ranked error groups, most frequent first.
	Patterns []*grouping.ErrorPattern `json:"patterns"`
}

// ErrorCount returns the number of extracted error records.
func (a *Analysis) ErrorCount() int {
	return len(a.Records)
}

// TopPatterns returns at most n leading patterns.
func (a *Analysis) TopPatterns(n int) []*grouping.ErrorPattern {
	if n < 0 || n > len(a.Patterns) {
		n = len(a.Patterns)
	}
	return a.Patterns[:n]
}

// HasErrors reports whether any record was extracted.
func (a *Analysis) HasErrors() bool {
	return len(a.Records) > 0
}
