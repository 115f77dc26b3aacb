package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yildizm/go-termfmt"

	"github.com/logsleuth/logsleuth/internal/grouping"
)

// formatNumber formats numbers with commas for readability
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return addCommas(fmt.Sprintf("%d", n))
}

// addCommas adds commas to number strings
func addCommas(s string) string {
	if len(s) <= 3 {
		return s
	}
	return addCommas(s[:len(s)-3]) + "," + s[len(s)-3:]
}

// patternEmoji returns the marker for an error type using go-termfmt
func patternEmoji(errorType string, opts *termfmt.TerminalOptions) string {
	if opts == nil {
		opts = termfmt.DefaultOptions()
	}
	switch {
	case strings.HasSuffix(errorType, "Exception"):
		return termfmt.GetEmoji("anomaly_pattern", opts)
	case errorType == "Unknown":
		return termfmt.GetEmoji("pattern", opts)
	default:
		return termfmt.GetEmoji("error_pattern", opts)
	}
}

// levelEmoji returns the marker for a log level using go-termfmt
func levelEmoji(level string, opts *termfmt.TerminalOptions) string {
	if opts == nil {
		opts = termfmt.DefaultOptions()
	}
	switch level {
	case "ERROR", "CRITICAL", "FATAL":
		return termfmt.GetEmoji("error", opts)
	case "WARN", "WARNING":
		return termfmt.GetEmoji("warning", opts)
	case "INFO":
		return termfmt.GetEmoji("info", opts)
	default:
		return termfmt.GetEmoji("insight", opts)
	}
}

// patternLabel builds the one-line label shown for a pattern.
func patternLabel(p *grouping.ErrorPattern) string {
	rep := p.Representative
	if rep == nil || rep.ErrorMessage == "" {
		return p.ErrorType
	}
	return p.ErrorType + ": " + flattenMessage(rep.ErrorMessage, 60)
}

// flattenMessage collapses newlines and truncates long messages so they fit
// a single output cell or line.
func flattenMessage(s string, limit int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	if limit > 3 && len(s) > limit {
		s = s[:limit-3] + "..."
	}
	return s
}

// truncateLines bounds multi-line text to its first n lines.
func truncateLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n") + "\n..."
}

// commonFilesLabel renders "a.py (3), b.py (1)" for a pattern's top files.
func commonFilesLabel(files []grouping.FileCount) string {
	parts := make([]string, 0, len(files))
	for _, fc := range files {
		parts = append(parts, fmt.Sprintf("%s (%d)", fc.Path, fc.Count))
	}
	return strings.Join(parts, ", ")
}

// sortedLevels returns level names ordered by count descending, ties
// alphabetical, so output stays deterministic across runs.
func sortedLevels(counts map[string]int) []string {
	levels := make([]string, 0, len(counts))
	for level := range counts {
		levels = append(levels, level)
	}
	sort.Slice(levels, func(i, j int) bool {
		if counts[levels[i]] != counts[levels[j]] {
			return counts[levels[i]] > counts[levels[j]]
		}
		return levels[i] < levels[j]
	})
	return levels
}
