package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yildizm/go-termfmt"

	"github.com/logsleuth/logsleuth/internal/advisor"
	"github.com/logsleuth/logsleuth/internal/analyzer"
	"github.com/logsleuth/logsleuth/internal/codectx"
	"github.com/logsleuth/logsleuth/internal/grouping"
)

// terminalFormatter formats output as plain text for terminal display using go-termfmt
type terminalFormatter struct {
	opts *termfmt.TerminalOptions
}

// NewTerminal creates a new terminal formatter with optional color and
// emoji support
func NewTerminal(color, emoji bool) Formatter {
	opts := termfmt.DefaultOptions()
	opts.Color = color
	opts.Emoji = emoji
	return &terminalFormatter{opts: opts}
}

func (f *terminalFormatter) Format(analysis *analyzer.Analysis) ([]byte, error) {
	var b strings.Builder

	f.writeHeader(&b)
	f.writeStatistics(&b, analysis)

	if len(analysis.LevelCounts) > 0 {
		f.writeLevelCounts(&b, analysis.LevelCounts)
	}

	if len(analysis.Patterns) > 0 {
		f.writeTopPatterns(&b, analysis.Patterns)
		f.writePatternDetails(&b, analysis.TopPatterns(3))
	} else {
		b.WriteString("No Python tracebacks found.\n")
	}

	return []byte(b.String()), nil
}

// writeHeader writes a header with box drawing
func (f *terminalFormatter) writeHeader(b *strings.Builder) {
	header := "Traceback Analysis Summary"
	headerLen := len(header)

	b.WriteString("╔" + strings.Repeat("═", headerLen+2) + "╗\n")
	b.WriteString("║ " + header + " ║\n")
	b.WriteString("╚" + strings.Repeat("═", headerLen+2) + "╝\n\n")
}

// writeStatistics writes run statistics with tree-style formatting using go-termfmt
func (f *terminalFormatter) writeStatistics(b *strings.Builder, analysis *analyzer.Analysis) {
	symbol := termfmt.GetEmoji("statistics", f.opts)
	b.WriteString(symbol + " Statistics\n")

	blocks := fmt.Sprintf("%d", analysis.TotalBlocks)
	if analysis.DroppedBlocks > 0 {
		blocks = fmt.Sprintf("%d (%d dropped)", analysis.TotalBlocks, analysis.DroppedBlocks)
	}

	items := []termfmt.TreeItem{
		{Label: "Lines Scanned", Value: formatNumber(analysis.TotalLines)},
		{Label: "Traceback Blocks", Value: blocks},
		{Label: "Errors Extracted", Value: formatNumber(analysis.ErrorCount())},
		{Label: "Unique Patterns", Value: formatNumber(len(analysis.Patterns))},
	}
	if analysis.Source != "" {
		items = append([]termfmt.TreeItem{{Label: "Source", Value: analysis.Source}}, items...)
	}
	items = append(items, termfmt.TreeItem{Label: "Elapsed", Value: analysis.Elapsed.String(), Last: true})

	tree := termfmt.TreeViewWithOptions(items, f.opts)
	b.WriteString(tree + "\n\n")
}

// writeLevelCounts writes the per-level line counts
func (f *terminalFormatter) writeLevelCounts(b *strings.Builder, counts map[string]int) {
	symbol := termfmt.GetEmoji("summary", f.opts)
	b.WriteString(symbol + " Log Levels\n")

	levels := sortedLevels(counts)
	items := make([]termfmt.TreeItem, 0, len(levels))
	for i, level := range levels {
		items = append(items, termfmt.TreeItem{
			Label: levelEmoji(level, f.opts) + " " + level,
			Value: formatNumber(counts[level]),
			Last:  i == len(levels)-1,
		})
	}

	tree := termfmt.TreeViewWithOptions(items, f.opts)
	b.WriteString(tree + "\n\n")
}

// writeTopPatterns writes the five most frequent patterns with visual markers
func (f *terminalFormatter) writeTopPatterns(b *strings.Builder, patterns []*grouping.ErrorPattern) {
	// Use fallback symbol so the section marker stays plain ASCII
	opts := termfmt.DefaultOptions()
	opts.Emoji = false
	symbol := termfmt.GetEmoji("help", opts)
	b.WriteString(symbol + " Top Patterns\n")

	sorted := make([]*grouping.ErrorPattern, len(patterns))
	copy(sorted, patterns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})

	maxPatterns := 5
	if len(sorted) < maxPatterns {
		maxPatterns = len(sorted)
	}

	for i := 0; i < maxPatterns; i++ {
		pattern := sorted[i]
		emoji := patternEmoji(pattern.ErrorType, f.opts)

		if i == maxPatterns-1 {
			fmt.Fprintf(b, "└─ %s %s (%d)\n", emoji, patternLabel(pattern), pattern.Count)
		} else {
			fmt.Fprintf(b, "├─ %s %s (%d)\n", emoji, patternLabel(pattern), pattern.Count)
		}
	}
	b.WriteString("\n")
}

// writePatternDetails expands the leading patterns with their location and
// affected files
func (f *terminalFormatter) writePatternDetails(b *strings.Builder, patterns []*grouping.ErrorPattern) {
	if len(patterns) == 0 {
		return
	}

	symbol := termfmt.GetEmoji("insights", f.opts)
	b.WriteString(symbol + " Pattern Details\n")

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
			Label:    patternEmoji(pattern.ErrorType, f.opts) + " " + patternLabel(pattern),
			Value:    fmt.Sprintf("(%d occurrences)", pattern.Count),
			Children: children,
			Last:     i == len(patterns)-1,
		})
	}

	tree := termfmt.TreeViewWithOptions(items, f.opts)
	b.WriteString(tree + "\n")
}

// RenderAdvices renders LLM explanations for appending after a terminal
// report.
func RenderAdvices(advices []*advisor.Advice, color, emoji bool) []byte {
	if len(advices) == 0 {
		return nil
	}

	opts := termfmt.DefaultOptions()
	opts.Color = color
	opts.Emoji = emoji

	var b strings.Builder

	aiSymbol := termfmt.GetEmoji("ai", opts)
	if aiSymbol == "" {
		aiSymbol = "AI"
	}
	fmt.Fprintf(&b, "\n%s AI Analysis\n", aiSymbol)
	b.WriteString(strings.Repeat("─", 50) + "\n\n")

	for _, advice := range advices {
		if advice.Pattern != nil {
			fmt.Fprintf(&b, "%s %s (%d occurrences)\n",
				patternEmoji(advice.Pattern.ErrorType, opts),
				patternLabel(advice.Pattern), advice.Pattern.Count)
		}
		if advice.Explanation != "" {
			b.WriteString(advice.Explanation + "\n")
		}
		if advice.RootCause != "" {
			b.WriteString("Root cause: " + advice.RootCause + "\n")
		}
		if len(advice.Suggestions) > 0 {
			symbol := termfmt.GetEmoji("recommendations", opts)
			b.WriteString(symbol + " Suggestions\n")
			for _, suggestion := range advice.Suggestions {
				b.WriteString("• " + suggestion + "\n")
			}
		}
		b.WriteString("\n")
	}

	return []byte(b.String())
}

// RenderFix renders a suggested code fix next to the current window
// content.
func RenderFix(path string, window *codectx.CodeWindow, fix string, color, emoji bool) []byte {
	opts := termfmt.DefaultOptions()
	opts.Color = color
	opts.Emoji = emoji

	var b strings.Builder

	aiSymbol := termfmt.GetEmoji("ai", opts)
	if aiSymbol == "" {
		aiSymbol = "AI"
	}
	fmt.Fprintf(&b, "%s Suggested Fix: %s\n", aiSymbol, path)
	b.WriteString(strings.Repeat("─", 50) + "\n\n")

	if window != nil && window.Code != "" {
		fmt.Fprintf(&b, "Current code (lines %d-%d):\n%s\n\n", window.StartLine+1, window.EndLine, window.Code)
	}
	b.WriteString("Proposed replacement:\n" + fix + "\n")

	return []byte(b.String())
}
