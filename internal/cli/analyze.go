package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/logsleuth/logsleuth/internal/analyzer"
	"github.com/logsleuth/logsleuth/internal/formatter"
	"github.com/logsleuth/logsleuth/internal/grouping"
)

var (
	analyzeTimeout    time.Duration
	analyzeMaxLines   int
	analyzeExplain    bool
	analyzeTop        int
	analyzeExportFile string
	analyzeOutputFile string
	analyzeTypePrefix bool
	analyzeNoLevels   bool
)

func newAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Extract and rank Python tracebacks from a log file or stdin",
		Long: `Extract Python exception tracebacks from a log file, group recurring
errors by normalized signature, and rank the patterns by frequency.

If no file is specified, reads from stdin.

Examples:
  logsleuth analyze app.log
  cat app.log | logsleuth analyze
  logsleuth analyze --output json app.log
  logsleuth analyze --explain --top 3 app.log
  logsleuth analyze --export patterns.json app.log`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().DurationVar(&analyzeTimeout, "timeout", 60*time.Second, "analysis timeout")
	cmd.Flags().IntVar(&analyzeMaxLines, "max-lines", 100000, "maximum lines to analyze")
	cmd.Flags().BoolVar(&analyzeExplain, "explain", false, "explain top patterns with the configured AI provider")
	cmd.Flags().IntVar(&analyzeTop, "top", 0, "number of leading patterns to explain (0 uses config)")
	cmd.Flags().StringVar(&analyzeExportFile, "export", "", "write ranked patterns as JSON to a file")
	cmd.Flags().StringVar(&analyzeOutputFile, "output-file", "", "save output to file instead of stdout")
	cmd.Flags().BoolVar(&analyzeTypePrefix, "type-prefix", false, "keep the error type prefix on extracted messages")
	cmd.Flags().BoolVar(&analyzeNoLevels, "no-levels", false, "skip log level statistics")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	// Get configuration
	cfg := GetGlobalConfig()

	// Use config values if flags weren't explicitly set
	if !cmd.Flag("timeout").Changed {
		analyzeTimeout = cfg.Analysis.Timeout
	}
	if !cmd.Flag("max-lines").Changed {
		analyzeMaxLines = cfg.Analysis.MaxLines
	}
	if !cmd.Flag("type-prefix").Changed {
		analyzeTypePrefix = cfg.Analysis.TypePrefix
	}
	if !cmd.Flag("top").Changed || analyzeTop <= 0 {
		analyzeTop = cfg.Advisor.ExplainTop
	}

	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	// Get input reader
	reader, source, cleanup, err := setupInputReader(args)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}
	if source == "" {
		source = "stdin"
	}

	text, err := readInput(reader, analyzeMaxLines)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no input to analyze")
	}

	engine := analyzer.NewEngine().
		WithLevelStats(cfg.Analysis.LevelStats && !analyzeNoLevels).
		WithTypePrefix(analyzeTypePrefix)

	analysis, err := engine.Analyze(ctx, source, text)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if analyzeExportFile != "" {
		if err := exportPatterns(analysis.Patterns, analyzeExportFile); err != nil {
			return err
		}
	}

	output, err := formatAnalysis(analysis)
	if err != nil {
		return err
	}

	if analyzeExplain && analysis.HasErrors() {
		adviceOutput, err := explainPatterns(ctx, analysis.TopPatterns(analyzeTop))
		if err != nil {
			return err
		}
		output = append(output, adviceOutput...)
	}

	return handleOutputDestination(output, analyzeOutputFile)
}

// readInput reads up to maxLines lines from the reader, keeping each line
// verbatim. Trimming or dropping lines here would corrupt traceback blocks
// before segmentation sees them.
func readInput(reader io.Reader, maxLines int) (string, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB buffer

	var text strings.Builder
	lineCount := 0
	for lineCount < maxLines && scanner.Scan() {
		text.WriteString(scanner.Text())
		text.WriteByte('\n')
		lineCount++
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scanner error: %w", err)
	}

	if isVerbose() {
		fmt.Fprintf(os.Stderr, "Read %d lines\n", lineCount)
	}

	return text.String(), nil
}

// setupInputReader sets up the input reader based on command args
func setupInputReader(args []string) (reader io.Reader, source string, cleanup func(), err error) {
	if len(args) == 0 {
		// Read from stdin
		if isVerbose() {
			fmt.Fprintf(os.Stderr, "Reading from stdin...\n")
		}
		return os.Stdin, "", nil, nil
	}

	// Read from file
	filename := args[0]

	// Validate and sanitize file path for security
	if err := validateFilePath(filename); err != nil {
		return nil, "", nil, fmt.Errorf("invalid file path: %w", err)
	}

	// Clean the path to handle Windows path separators and trailing slashes
	cleanPath := filepath.Clean(filename)

	// #nosec G304 - path is validated above
	file, err := os.Open(cleanPath)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to open file %s: %w", filename, err)
	}

	cleanup = func() {
		if err := file.Close(); err != nil && isVerbose() {
			fmt.Fprintf(os.Stderr, "Warning: failed to close file: %v\n", err)
		}
	}

	if isVerbose() {
		fmt.Fprintf(os.Stderr, "Analyzing file: %s\n", cleanPath)
	}

	return file, cleanPath, cleanup, nil
}

// exportPatterns writes the ranked patterns as a JSON document.
func exportPatterns(patterns []*grouping.ErrorPattern, path string) error {
	data, err := formatter.ExportPatterns(patterns)
	if err != nil {
		return fmt.Errorf("failed to export patterns: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, 0o600); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	if isVerbose() {
		fmt.Fprintf(os.Stderr, "Exported %d patterns to %s\n", len(patterns), path)
	}
	return nil
}

// explainPatterns asks the configured provider to explain the given patterns
// and renders the advice for terminal output.
func explainPatterns(ctx context.Context, patterns []*grouping.ErrorPattern) ([]byte, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	cfg := GetGlobalConfig()
	provider, err := createAIProvider(&cfg.AI)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := provider.Close(); err != nil && isVerbose() {
			fmt.Fprintf(os.Stderr, "Warning: failed to close provider: %v\n", err)
		}
	}()

	adv, _, cleanup := newAdvisor(provider)
	defer cleanup()

	if isVerbose() {
		fmt.Fprintf(os.Stderr, "Requesting explanations for %d patterns...\n", len(patterns))
	}

	advices := adv.ExplainPatterns(ctx, patterns)
	return formatter.RenderAdvices(advices, isColorEnabled(), isEmojiEnabled()), nil
}

// formatAnalysis renders an analysis in the selected output format.
func formatAnalysis(analysis *analyzer.Analysis) ([]byte, error) {
	formatterInstance, err := getFormatter(getOutputFormat(), isColorEnabled(), isEmojiEnabled())
	if err != nil {
		return nil, fmt.Errorf("failed to get formatter: %w", err)
	}

	output, err := formatterInstance.Format(analysis)
	if err != nil {
		return nil, fmt.Errorf("failed to format output: %w", err)
	}

	return output, nil
}

// handleOutputDestination writes output to file or stdout
func handleOutputDestination(output []byte, outputFile string) error {
	if outputFile != "" {
		if err := validateOutputFilePath(outputFile); err != nil {
			return fmt.Errorf("invalid output file path: %w", err)
		}

		if err := writeOutputBytesToFile(output, outputFile); err != nil {
			return fmt.Errorf("failed to write output to file: %w", err)
		}

		if isVerbose() {
			fmt.Fprintf(os.Stderr, "Output saved to: %s\n", outputFile)
		}
	} else {
		fmt.Print(string(output))
	}

	return nil
}

func validateFilePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty file path")
	}

	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", cleanPath)
		}
		return fmt.Errorf("cannot access file: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", cleanPath)
	}

	return nil
}

func validateOutputFilePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty file path")
	}
	return nil
}

// getFormatter returns the appropriate formatter for the given format
func getFormatter(format string, color, emoji bool) (formatter.Formatter, error) {
	switch format {
	case "json":
		return formatter.NewJSON(), nil
	case "markdown", "md":
		return formatter.NewMarkdown(), nil
	case "csv":
		return formatter.NewCSV(), nil
	case "text", "terminal", "":
		return formatter.NewTerminal(color, emoji), nil
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// writeOutputBytesToFile writes output to a file with proper error handling
func writeOutputBytesToFile(output []byte, filePath string) error {
	// Validate file path again for security
	cleanPath := filepath.Clean(filePath)

	// Create or truncate the file
	file, err := os.Create(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && isVerbose() {
			fmt.Fprintf(os.Stderr, "Warning: failed to close output file: %v\n", closeErr)
		}
	}()

	// Write the output
	if _, err := file.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	// Sync to ensure data is written
	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync output file: %w", err)
	}

	return nil
}
