package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/logsleuth/logsleuth/internal/analyzer"
	"github.com/logsleuth/logsleuth/internal/codectx"
	"github.com/logsleuth/logsleuth/internal/formatter"
)

var (
	fixPatternRank int
	fixContext     int
	fixApply       bool
	fixTimeout     time.Duration
)

func newFixCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix <logfile>",
		Short: "Ask the AI provider for a code fix for a ranked error pattern",
		Long: `Analyze a log file, pick one ranked error pattern, and ask the configured
AI provider for a corrected replacement of the code around the error line.

The source file is resolved from the traceback path: an exact match first,
then a recursive search by file name under the configured source root.
With --apply the replacement is spliced into the file in place.

Examples:
  logsleuth fix app.log
  logsleuth fix --pattern 2 app.log
  logsleuth fix --context 10 --apply app.log`,
		Args: cobra.ExactArgs(1),
		RunE: runFix,
	}

	cmd.Flags().IntVar(&fixPatternRank, "pattern", 1, "1-based rank of the pattern to fix")
	cmd.Flags().IntVar(&fixContext, "context", codectx.DefaultContextLines, "code lines on each side of the error line")
	cmd.Flags().BoolVar(&fixApply, "apply", false, "write the suggested fix into the source file")
	cmd.Flags().DurationVar(&fixTimeout, "timeout", 60*time.Second, "fix generation timeout")

	return cmd
}

func runFix(cmd *cobra.Command, args []string) error {
	cfg := GetGlobalConfig()

	// Use config values if flags weren't explicitly set
	if !cmd.Flag("context").Changed {
		fixContext = cfg.Advisor.ContextLines
	}
	if !cmd.Flag("timeout").Changed {
		fixTimeout = cfg.AI.Timeout
	}
	if fixPatternRank < 1 {
		return fmt.Errorf("--pattern must be at least 1")
	}

	logPath := args[0]
	if err := validateFilePath(logPath); err != nil {
		return fmt.Errorf("invalid file path: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), fixTimeout)
	defer cancel()

	data, err := os.ReadFile(filepath.Clean(logPath)) // #nosec G304 - path is validated above
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", logPath, err)
	}

	engine := analyzer.NewEngine().
		WithLevelStats(false).
		WithTypePrefix(cfg.Analysis.TypePrefix)

	analysis, err := engine.Analyze(ctx, logPath, string(data))
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	if !analysis.HasErrors() {
		return fmt.Errorf("no Python tracebacks found in %s", logPath)
	}
	if fixPatternRank > len(analysis.Patterns) {
		return fmt.Errorf("pattern %d does not exist: the log has %d patterns", fixPatternRank, len(analysis.Patterns))
	}

	pattern := analysis.Patterns[fixPatternRank-1]
	rec := pattern.Representative
	if rec == nil {
		return fmt.Errorf("pattern %d has no representative record", fixPatternRank)
	}
	if isVerbose() {
		fmt.Fprintf(os.Stderr, "Fixing pattern %d: %s at %s\n", fixPatternRank, pattern.ErrorType, rec.Location())
	}

	provider, err := createAIProvider(&cfg.AI)
	if err != nil {
		return err
	}
	defer func() {
		if err := provider.Close(); err != nil && isVerbose() {
			fmt.Fprintf(os.Stderr, "Warning: failed to close provider: %v\n", err)
		}
	}()

	adv, reader, cleanup := newAdvisor(provider)
	defer cleanup()

	window, err := reader.Window(rec.FilePath, rec.LineNumber, fixContext)
	if err != nil {
		return fmt.Errorf("no code context for %s: %w", rec.Location(), err)
	}

	fix := adv.Fix(ctx, rec, window)

	output := formatter.RenderFix(rec.FilePath, window, fix, isColorEnabled(), isEmojiEnabled())
	fmt.Print(string(output))

	if fixApply {
		if strings.HasPrefix(fix, "fix unavailable:") {
			return fmt.Errorf("no fix to apply")
		}
		if err := reader.Apply(rec.FilePath, window, fix); err != nil {
			return fmt.Errorf("failed to apply fix: %w", err)
		}
		fmt.Printf("Applied fix to %s (lines %d-%d)\n", rec.FilePath, window.StartLine+1, window.EndLine)
	}

	return nil
}
