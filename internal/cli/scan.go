package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/logsleuth/logsleuth/internal/analyzer"
	"github.com/logsleuth/logsleuth/internal/formatter"
	"github.com/logsleuth/logsleuth/internal/scan"
)

var (
	scanWorkers    int
	scanMaxDepth   int
	scanExtensions []string
	scanTimeout    time.Duration
	scanExportFile string
	scanOutputFile string
)

func newScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [directory]",
		Short: "Discover log files under a directory and analyze them",
		Long: `Walk a directory tree, pick out files that look like logs, and run
traceback analysis over them with a worker pool. Patterns are re-grouped
across all files, so an error recurring in several logs ranks by its
total count.

Hidden entries and vendor directories are skipped. Candidate files must
carry a log extension and pass a content sniff.

Examples:
  logsleuth scan /var/log/myapp
  logsleuth scan --ext .log --ext .out /var/log/myapp
  logsleuth scan --workers 8 --max-depth 6 .
  logsleuth scan --output json /var/log/myapp`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScan,
	}

	cmd.Flags().IntVar(&scanWorkers, "workers", scan.DefaultWorkers, "analysis worker pool size")
	cmd.Flags().IntVar(&scanMaxDepth, "max-depth", scan.DefaultMaxDepth, "directory recursion depth")
	cmd.Flags().StringSliceVar(&scanExtensions, "ext", nil, "file extensions to consider (default .log,.txt)")
	cmd.Flags().DurationVar(&scanTimeout, "timeout", 5*time.Minute, "scan timeout")
	cmd.Flags().StringVar(&scanExportFile, "export", "", "write cross-file patterns as JSON to a file")
	cmd.Flags().StringVar(&scanOutputFile, "output-file", "", "save output to file instead of stdout")

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg := GetGlobalConfig()

	// Use config values if flags weren't explicitly set
	if !cmd.Flag("workers").Changed {
		scanWorkers = cfg.Scan.Workers
	}
	if !cmd.Flag("max-depth").Changed {
		scanMaxDepth = cfg.Scan.MaxDepth
	}
	if len(scanExtensions) == 0 {
		scanExtensions = cfg.Scan.Extensions
	}

	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", root)
	}

	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	engine := analyzer.NewEngine().
		WithLevelStats(cfg.Analysis.LevelStats).
		WithTypePrefix(cfg.Analysis.TypePrefix)

	scanner := scan.New(engine, scan.Options{
		Extensions: scanExtensions,
		MaxDepth:   scanMaxDepth,
		Workers:    scanWorkers,
		Verbose:    isVerbose,
	})

	if isVerbose() {
		fmt.Fprintf(os.Stderr, "Scanning %s...\n", root)
	}

	batch, err := scanner.ScanAndAnalyze(ctx, root)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if scanExportFile != "" {
		if err := exportPatterns(batch.Patterns, scanExportFile); err != nil {
			return err
		}
	}

	output, err := formatBatch(batch)
	if err != nil {
		return err
	}
	return handleOutputDestination(output, scanOutputFile)
}

// formatBatch renders a scan batch. Directory scans support the text and
// json formats only.
func formatBatch(batch *scan.Batch) ([]byte, error) {
	switch getOutputFormat() {
	case "json":
		output, err := formatter.BatchJSON(batch)
		if err != nil {
			return nil, fmt.Errorf("failed to format output: %w", err)
		}
		return output, nil
	case "text", "terminal", "":
		return formatter.RenderBatch(batch, isColorEnabled(), isEmojiEnabled()), nil
	default:
		return nil, fmt.Errorf("scan supports text or json output, not %s", getOutputFormat())
	}
}
