package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/logsleuth/logsleuth/internal/analyzer"
	"github.com/logsleuth/logsleuth/internal/grouping"
)

// markdownFormatter formats output as Markdown
type markdownFormatter struct{}

// NewMarkdown creates a new Markdown formatter
func NewMarkdown() Formatter {
	return &markdownFormatter{}
}

func (f *markdownFormatter) Format(analysis *analyzer.Analysis) ([]byte, error) {
	var b strings.Builder

	b.WriteString("# Traceback Analysis Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	f.writeTableOfContents(&b, analysis)
	f.writeSummaryTable(&b, analysis)

	if len(analysis.LevelCounts) > 0 {
		f.writeLevelTable(&b, analysis.LevelCounts)
	}

	if len(analysis.Patterns) > 0 {
		f.writePatternSections(&b, analysis.Patterns)
	} else {
		b.WriteString("## Error Patterns\n\nNo Python tracebacks found.\n\n")
	}

	b.WriteString("---\n")
	b.WriteString("*Report generated by logsleuth - Python traceback analysis*\n")

	return []byte(b.String()), nil
}

// writeTableOfContents writes the table of contents
func (f *markdownFormatter) writeTableOfContents(b *strings.Builder, analysis *analyzer.Analysis) {
	b.WriteString("## Table of Contents\n")
	b.WriteString("- [Summary](#summary)\n")
	if len(analysis.LevelCounts) > 0 {
		b.WriteString("- [Log Levels](#log-levels)\n")
	}
	b.WriteString("- [Error Patterns](#error-patterns)\n\n")
}

// writeSummaryTable writes the run summary table
func (f *markdownFormatter) writeSummaryTable(b *strings.Builder, analysis *analyzer.Analysis) {
	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	if analysis.Source != "" {
		fmt.Fprintf(b, "| Source | %s |\n", analysis.Source)
	}
	fmt.Fprintf(b, "| Lines Scanned | %s |\n", formatNumber(analysis.TotalLines))
	fmt.Fprintf(b, "| Traceback Blocks | %d |\n", analysis.TotalBlocks)
	fmt.Fprintf(b, "| Dropped Blocks | %d |\n", analysis.DroppedBlocks)
	fmt.Fprintf(b, "| Errors Extracted | %s |\n", formatNumber(analysis.ErrorCount()))
	fmt.Fprintf(b, "| Unique Patterns | %d |\n", len(analysis.Patterns))
	fmt.Fprintf(b, "| Elapsed | %s |\n\n", analysis.Elapsed)
}

// writeLevelTable writes per-level line counts
func (f *markdownFormatter) writeLevelTable(b *strings.Builder, counts map[string]int) {
	b.WriteString("## Log Levels\n\n")
	b.WriteString("| Level | Lines |\n")
	b.WriteString("|-------|-------|\n")
	for _, level := range sortedLevels(counts) {
		fmt.Fprintf(b, "| %s | %s |\n", level, formatNumber(counts[level]))
	}
	b.WriteString("\n")
}

// writePatternSections writes one section per ranked pattern with its
// representative traceback
func (f *markdownFormatter) writePatternSections(b *strings.Builder, patterns []*grouping.ErrorPattern) {
	b.WriteString("## Error Patterns\n\n")

	for _, pattern := range patterns {
		fmt.Fprintf(b, "### %s (%d occurrences)\n\n", patternLabel(pattern), pattern.Count)

		rep := pattern.Representative
		if rep != nil {
			fmt.Fprintf(b, "**Location**: `%s`\n\n", rep.Location())
		}

		if len(pattern.CommonFiles) > 0 {
			b.WriteString("| File | Occurrences |\n")
			b.WriteString("|------|-------------|\n")
			for _, fc := range pattern.CommonFiles {
				fmt.Fprintf(b, "| %s | %d |\n", fc.Path, fc.Count)
			}
			b.WriteString("\n")
		}

		if rep != nil && rep.FullTraceback != "" {
			b.WriteString("Representative traceback:\n")
			b.WriteString("```\n")
			b.WriteString(truncateLines(rep.FullTraceback, 30))
			b.WriteString("\n```\n\n")
		}
	}
}
