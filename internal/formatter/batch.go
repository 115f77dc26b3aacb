package formatter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/yildizm/go-termfmt"

	"github.com/logsleuth/logsleuth/internal/grouping"
	"github.com/logsleuth/logsleuth/internal/scan"
)

// BatchReport is the machine-readable directory scan report.
type BatchReport struct {
	Root         string             `json:"root"`
	FilesScanned int                `json:"files_scanned"`
	FilesFailed  int                `json:"files_failed"`
	TotalRecords int                `json:"total_records"`
	Elapsed      string             `json:"elapsed"`
	GeneratedAt  time.Time          `json:"generated_at"`
	Files        []*FileReportEntry `json:"files"`
	Patterns     []*PatternOutput   `json:"patterns"`
}

// FileReportEntry summarizes one scanned file.
type FileReportEntry struct {
	Path       string `json:"path"`
	ErrorCount int    `json:"error_count"`
	Error      string `json:"error,omitempty"`
}

// BatchJSON marshals a scan batch for JSON output.
func BatchJSON(batch *scan.Batch) ([]byte, error) {
	report := &BatchReport{
		Root:         batch.Root,
		FilesScanned: len(batch.Reports),
		FilesFailed:  batch.FailedCount(),
		TotalRecords: batch.TotalRecords,
		Elapsed:      batch.Elapsed.String(),
		GeneratedAt:  time.Now(),
		Files:        make([]*FileReportEntry, 0, len(batch.Reports)),
		Patterns:     createPatternOutputs(batch.Patterns),
	}

	for i := range batch.Reports {
		entry := &FileReportEntry{Path: batch.Reports[i].Path}
		if batch.Reports[i].Analysis != nil {
			entry.ErrorCount = batch.Reports[i].Analysis.ErrorCount()
		}
		if batch.Reports[i].Err != nil {
			entry.Error = batch.Reports[i].Err.Error()
		}
		report.Files = append(report.Files, entry)
	}

	return json.MarshalIndent(report, "", "  ")
}

// RenderBatch renders a scan batch summary for terminal output.
func RenderBatch(batch *scan.Batch, color, emoji bool) []byte {
	opts := termfmt.DefaultOptions()
	opts.Color = color
	opts.Emoji = emoji

	var b strings.Builder

	header := "Directory Scan Summary"
	headerLen := len(header)
	b.WriteString("╔" + strings.Repeat("═", headerLen+2) + "╗\n")
	b.WriteString("║ " + header + " ║\n")
	b.WriteString("╚" + strings.Repeat("═", headerLen+2) + "╝\n\n")

	symbol := termfmt.GetEmoji("statistics", opts)
	b.WriteString(symbol + " Statistics\n")

	items := []termfmt.TreeItem{
		{Label: "Root", Value: batch.Root},
		{Label: "Files Scanned", Value: formatNumber(len(batch.Reports))},
		{Label: "Files Failed", Value: formatNumber(batch.FailedCount())},
		{Label: "Errors Extracted", Value: formatNumber(batch.TotalRecords)},
		{Label: "Unique Patterns", Value: formatNumber(len(batch.Patterns))},
		{Label: "Elapsed", Value: batch.Elapsed.String(), Last: true},
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, opts) + "\n\n")

	writeBatchFiles(&b, batch, opts)
	writeBatchPatterns(&b, batch.Patterns, opts)

	return []byte(b.String())
}

// writeBatchFiles lists the files carrying errors plus every failed file,
// in scan order.
func writeBatchFiles(b *strings.Builder, batch *scan.Batch, opts *termfmt.TerminalOptions) {
	type fileLine struct {
		path  string
		count int
		err   error
	}

	var lines []fileLine
	for i := range batch.Reports {
		report := &batch.Reports[i]
		switch {
		case report.Err != nil:
			lines = append(lines, fileLine{path: report.Path, err: report.Err})
		case report.Analysis != nil && report.Analysis.HasErrors():
			lines = append(lines, fileLine{path: report.Path, count: report.Analysis.ErrorCount()})
		}
	}
	if len(lines) == 0 {
		b.WriteString("No Python tracebacks found in any file.\n")
		return
	}

	symbol := termfmt.GetEmoji("summary", opts)
	b.WriteString(symbol + " Files\n")

	items := make([]termfmt.TreeItem, 0, len(lines))
	for i, line := range lines {
		item := termfmt.TreeItem{Label: line.path, Last: i == len(lines)-1}
		if line.err != nil {
			item.Value = "failed: " + line.err.Error()
		} else {
			item.Value = fmt.Sprintf("%d errors", line.count)
		}
		items = append(items, item)
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, opts) + "\n\n")
}

// writeBatchPatterns lists the cross-file ranked patterns.
func writeBatchPatterns(b *strings.Builder, patterns []*grouping.ErrorPattern, opts *termfmt.TerminalOptions) {
	if len(patterns) == 0 {
		return
	}

	symbol := termfmt.GetEmoji("insights", opts)
	b.WriteString(symbol + " Patterns Across Files\n")

	items := make([]termfmt.TreeItem, 0, len(patterns))
	for i, pattern := range patterns {
		children := []termfmt.TreeItem{}
		if rep := pattern.Representative; rep != nil {
			children = append(children, termfmt.TreeItem{Label: "Location", Value: rep.Location()})
		}
		if len(pattern.CommonFiles) > 0 {
			children = append(children, termfmt.TreeItem{Label: "Files", Value: commonFilesLabel(pattern.CommonFiles)})
		}

		items = append(items, termfmt.TreeItem{
			Label:    patternEmoji(pattern.ErrorType, opts) + " " + patternLabel(pattern),
			Value:    fmt.Sprintf("(%d occurrences)", pattern.Count),
			Children: children,
			Last:     i == len(patterns)-1,
		})
	}
	b.WriteString(termfmt.TreeViewWithOptions(items, opts) + "\n")
}
