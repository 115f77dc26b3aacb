package formatter

import (
	"strings"
	"testing"
)

func TestMarkdownFormatSections(t *testing.T) {
	out, err := NewMarkdown().Format(sampleAnalysis())
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	output := string(out)

	for _, want := range []string{
		"# Traceback Analysis Report",
		"## Table of Contents",
		"## Summary",
		"| Lines Scanned | 120 |",
		"## Log Levels",
		"| ERROR | 4 |",
		"## Error Patterns",
		"### KeyError: 'user_id' (3 occurrences)",
		"**Location**: `services/api.py:31`",
		"```\nTraceback (most recent call last):",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output misses %q", want)
		}
	}
}

func TestMarkdownFormatNoPatterns(t *testing.T) {
	out, err := NewMarkdown().Format(sampleAnalysis())
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if strings.Contains(string(out), "No Python tracebacks found.") {
		t.Error("populated report should not show the empty notice")
	}

	empty, err := NewMarkdown().Format(sampleAnalysisWithoutPatterns())
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(string(empty), "No Python tracebacks found.") {
		t.Error("empty report should show the empty notice")
	}
}
