package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/logsleuth/logsleuth/internal/analyzer"
	"github.com/logsleuth/logsleuth/internal/loki"
)

var (
	lokiURL        string
	lokiQuery      string
	lokiSince      string
	lokiLimit      int
	lokiUsername   string
	lokiPassword   string
	lokiInsecure   bool
	lokiTest       bool
	lokiExplain    bool
	lokiTop        int
	lokiExportFile string
	lokiOutputFile string
)

func newLokiCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loki",
		Short: "Fetch logs from Grafana Loki and analyze them",
		Long: `Query a Grafana Loki instance over its HTTP range API and run traceback
analysis on the returned entries.

The --since flag takes a preset window: ` + strings.Join(loki.SinceValues(), ", ") + `.

Examples:
  logsleuth loki --since 24h
  logsleuth loki --query '{job="backend"}' --since 7d --limit 5000
  logsleuth loki --url https://loki.internal:3100 --username ops --password secret
  logsleuth loki --test`,
		Args: cobra.NoArgs,
		RunE: runLoki,
	}

	cmd.Flags().StringVar(&lokiURL, "url", "", "Loki base URL (default from config)")
	cmd.Flags().StringVar(&lokiQuery, "query", "", "LogQL query (default from config)")
	cmd.Flags().StringVar(&lokiSince, "since", "1h", "time window to fetch ("+strings.Join(loki.SinceValues(), ", ")+")")
	cmd.Flags().IntVar(&lokiLimit, "limit", 0, "maximum entries to fetch (default from config)")
	cmd.Flags().StringVar(&lokiUsername, "username", "", "basic auth username")
	cmd.Flags().StringVar(&lokiPassword, "password", "", "basic auth password")
	cmd.Flags().BoolVar(&lokiInsecure, "insecure", false, "skip TLS certificate verification")
	cmd.Flags().BoolVar(&lokiTest, "test", false, "test the connection and exit")
	cmd.Flags().BoolVar(&lokiExplain, "explain", false, "explain top patterns with the configured AI provider")
	cmd.Flags().IntVar(&lokiTop, "top", 0, "number of leading patterns to explain (0 uses config)")
	cmd.Flags().StringVar(&lokiExportFile, "export", "", "write ranked patterns as JSON to a file")
	cmd.Flags().StringVar(&lokiOutputFile, "output-file", "", "save output to file instead of stdout")

	return cmd
}

func runLoki(cmd *cobra.Command, args []string) error {
	cfg := GetGlobalConfig()

	// Use config values if flags weren't explicitly set
	if lokiURL == "" {
		lokiURL = cfg.Loki.URL
	}
	if lokiQuery == "" {
		lokiQuery = cfg.Loki.Query
	}
	if lokiLimit <= 0 {
		lokiLimit = cfg.Loki.Limit
	}
	if lokiUsername == "" {
		lokiUsername = cfg.Loki.Username
	}
	if lokiPassword == "" {
		lokiPassword = cfg.Loki.Password
	}
	if !cmd.Flag("insecure").Changed {
		lokiInsecure = cfg.Loki.InsecureSkipVerify
	}
	if !cmd.Flag("top").Changed || lokiTop <= 0 {
		lokiTop = cfg.Advisor.ExplainTop
	}

	if _, ok := loki.Since(lokiSince); !ok {
		return fmt.Errorf("invalid --since value %q (valid: %s)", lokiSince, strings.Join(loki.SinceValues(), ", "))
	}

	client, err := loki.New(loki.Config{
		URL:                lokiURL,
		Username:           lokiUsername,
		Password:           lokiPassword,
		Timeout:            cfg.Loki.Timeout,
		InsecureSkipVerify: lokiInsecure,
	})
	if err != nil {
		return err
	}
	client.SetVerbose(isVerbose)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Analysis.Timeout)
	defer cancel()

	if lokiTest {
		if client.TestConnection(ctx) {
			fmt.Printf("Successfully connected to Loki at %s\n", lokiURL)
			return nil
		}
		return fmt.Errorf("could not reach Loki at %s", lokiURL)
	}

	if isVerbose() {
		fmt.Fprintf(os.Stderr, "Querying %s over the last %s...\n", lokiURL, lokiSince)
	}

	entries, err := client.Fetch(ctx, lokiSince, lokiQuery, lokiLimit)
	if err != nil {
		return fmt.Errorf("loki query failed: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("No log entries returned for the given query and window.")
		return nil
	}
	if isVerbose() {
		fmt.Fprintf(os.Stderr, "Fetched %d entries\n", len(entries))
	}

	engine := analyzer.NewEngine().
		WithLevelStats(cfg.Analysis.LevelStats).
		WithTypePrefix(cfg.Analysis.TypePrefix)

	source := fmt.Sprintf("loki:%s", lokiQuery)
	analysis, err := engine.Analyze(ctx, source, loki.ToLogText(entries))
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if lokiExportFile != "" {
		if err := exportPatterns(analysis.Patterns, lokiExportFile); err != nil {
			return err
		}
	}

	output, err := formatAnalysis(analysis)
	if err != nil {
		return err
	}

	if lokiExplain && analysis.HasErrors() {
		adviceOutput, err := explainPatterns(ctx, analysis.TopPatterns(lokiTop))
		if err != nil {
			return err
		}
		output = append(output, adviceOutput...)
	}

	return handleOutputDestination(output, lokiOutputFile)
}
