package scan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/logsleuth/logsleuth/internal/analyzer"
)

const logLine = "2024-01-15 10:00:00 ERROR request failed\n"

func tb(file, line, errLine string) string {
	return "Traceback (most recent call last):\n" +
		"  File \"" + file + "\", line " + line + ", in handle\n" +
		"    do()\n" +
		errLine + "\n"
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func relPaths(t *testing.T, root string, paths []string) []string {
	t.Helper()
	rels := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatal(err)
		}
		rels = append(rels, filepath.ToSlash(rel))
	}
	return rels
}

func TestDiscoverFiltersByExtensionAndContent(t *testing.T) {
	root := writeTree(t, map[string]string{
		"app.log":              logLine,
		"notes.txt":            logLine,
		"readme.md":            logLine,
		"prose.txt":            "Dear diary, nothing structured here today.",
		".hidden.log":          logLine,
		"node_modules/dep.log": logLine,
		"sub/.git/obj.log":     logLine,
		"a/b/c/ok.log":         logLine,
		"a/b/c/d/deep.log":     logLine,
	})

	scanner := New(analyzer.NewEngine(), Options{})

	files, err := scanner.Discover(root)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	got := relPaths(t, root, files)
	want := []string{"a/b/c/ok.log", "app.log", "notes.txt"}
	if len(got) != len(want) {
		t.Fatalf("discovered %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("discovered[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDiscoverMissingRoot(t *testing.T) {
	scanner := New(analyzer.NewEngine(), Options{})
	if _, err := scanner.Discover(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected an error for a missing root")
	}
}

func TestScanAndAnalyzeAggregates(t *testing.T) {
	root := writeTree(t, map[string]string{
		"one.log": logLine + tb("services/api.py", "31", "KeyError: 'u-1001'"),
		"two.log": logLine +
			tb("services/api.py", "31", "KeyError: 'u-2002'") +
			tb("jobs/sync.py", "12", "ValueError: invalid literal for int() with base 10: 'x'"),
	})

	scanner := New(analyzer.NewEngine().WithLevelStats(false), Options{Workers: 2})

	batch, err := scanner.ScanAndAnalyze(context.Background(), root)
	if err != nil {
		t.Fatalf("ScanAndAnalyze() error = %v", err)
	}

	if len(batch.Reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(batch.Reports))
	}
	got := relPaths(t, root, []string{batch.Reports[0].Path, batch.Reports[1].Path})
	if got[0] != "one.log" || got[1] != "two.log" {
		t.Errorf("report order = %v", got)
	}
	for _, report := range batch.Reports {
		if report.Err != nil || report.Analysis == nil {
			t.Errorf("report %s: err=%v analysis=%v", report.Path, report.Err, report.Analysis)
		}
	}

	if batch.TotalRecords != 3 {
		t.Errorf("TotalRecords = %d, want 3", batch.TotalRecords)
	}
	if batch.FailedCount() != 0 {
		t.Errorf("FailedCount() = %d", batch.FailedCount())
	}

	if len(batch.Patterns) != 2 {
		t.Fatalf("got %d global patterns, want 2", len(batch.Patterns))
	}
	if batch.Patterns[0].ErrorType != "KeyError" || batch.Patterns[0].Count != 2 {
		t.Errorf("top pattern = %s x%d, want KeyError x2",
			batch.Patterns[0].ErrorType, batch.Patterns[0].Count)
	}
	if batch.Patterns[1].ErrorType != "ValueError" || batch.Patterns[1].Count != 1 {
		t.Errorf("second pattern = %s x%d, want ValueError x1",
			batch.Patterns[1].ErrorType, batch.Patterns[1].Count)
	}
}

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(_ context.Context, source, _ string) (*analyzer.Analysis, error) {
	if strings.Contains(source, "bad") {
		return nil, errors.New("analysis blew up")
	}
	return &analyzer.Analysis{Source: source}, nil
}

func TestScanAndAnalyzeContinuesPastFailures(t *testing.T) {
	root := writeTree(t, map[string]string{
		"bad.log":  logLine,
		"good.log": logLine,
	})

	scanner := New(stubAnalyzer{}, Options{})

	batch, err := scanner.ScanAndAnalyze(context.Background(), root)
	if err != nil {
		t.Fatalf("ScanAndAnalyze() error = %v", err)
	}
	if batch.FailedCount() != 1 {
		t.Fatalf("FailedCount() = %d, want 1", batch.FailedCount())
	}

	for _, report := range batch.Reports {
		switch filepath.Base(report.Path) {
		case "bad.log":
			if report.Err == nil {
				t.Error("bad.log should carry an error")
			}
		case "good.log":
			if report.Err != nil || report.Analysis == nil {
				t.Errorf("good.log: err=%v analysis=%v", report.Err, report.Analysis)
			}
		}
	}
}

func TestScanAndAnalyzeCanceledContext(t *testing.T) {
	root := writeTree(t, map[string]string{"app.log": logLine})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scanner := New(analyzer.NewEngine(), Options{})
	if _, err := scanner.ScanAndAnalyze(ctx, root); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestScanAndAnalyzeEmptyDir(t *testing.T) {
	scanner := New(analyzer.NewEngine(), Options{})

	batch, err := scanner.ScanAndAnalyze(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("ScanAndAnalyze() error = %v", err)
	}
	if len(batch.Reports) != 0 || batch.Patterns != nil || batch.TotalRecords != 0 {
		t.Errorf("expected an empty batch, got %+v", batch)
	}
}
