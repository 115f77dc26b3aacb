package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleLog = `2024-01-15 08:30:00 INFO Starting worker
Traceback (most recent call last):
  File "app.py", line 10, in <module>
    main()
  File "app.py", line 7, in main
    process()
ValueError: invalid literal for int() with base 10: 'abc'
2024-01-15 08:30:05 ERROR worker crashed
Traceback (most recent call last):
  File "app.py", line 10, in <module>
    main()
  File "app.py", line 7, in main
    process()
ValueError: invalid literal for int() with base 10: 'xyz'
2024-01-15 08:30:10 INFO worker restarted
`

func TestReadInput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLines int
		validate func(t *testing.T, text string)
	}{
		{
			name:     "keeps lines verbatim",
			input:    "  File \"app.py\", line 10, in <module>\n    main()\n",
			maxLines: 100,
			validate: func(t *testing.T, text string) {
				if !strings.Contains(text, "  File \"app.py\"") {
					t.Error("Expected leading indentation to survive reading")
				}
			},
		},
		{
			name:     "keeps blank lines",
			input:    "one\n\nthree\n",
			maxLines: 100,
			validate: func(t *testing.T, text string) {
				if text != "one\n\nthree\n" {
					t.Errorf("Expected input preserved, got %q", text)
				}
			},
		},
		{
			name:     "caps at max lines",
			input:    "one\ntwo\nthree\nfour\n",
			maxLines: 2,
			validate: func(t *testing.T, text string) {
				if text != "one\ntwo\n" {
					t.Errorf("Expected first 2 lines, got %q", text)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := readInput(strings.NewReader(tt.input), tt.maxLines)
			if err != nil {
				t.Fatalf("readInput() error = %v", err)
			}
			tt.validate(t, text)
		})
	}
}

func TestGetFormatter(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		expectErr bool
	}{
		{"text format", "text", false},
		{"terminal alias", "terminal", false},
		{"empty defaults to terminal", "", false},
		{"json format", "json", false},
		{"markdown format", "markdown", false},
		{"md alias", "md", false},
		{"csv format", "csv", false},
		{"unknown format", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := getFormatter(tt.format, false, false)
			if tt.expectErr {
				if err == nil {
					t.Errorf("Expected error for format %q", tt.format)
				}
				return
			}
			if err != nil {
				t.Errorf("getFormatter(%q) error = %v", tt.format, err)
			}
			if f == nil {
				t.Errorf("Expected formatter for %q, got nil", tt.format)
			}
		})
	}
}

func TestValidateFilePath(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "app.log")
	if err := os.WriteFile(existing, []byte("hello\n"), 0o600); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	tests := []struct {
		name      string
		path      string
		expectErr bool
	}{
		{"existing file", existing, false},
		{"empty path", "", true},
		{"missing file", filepath.Join(dir, "missing.log"), true},
		{"directory", dir, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFilePath(tt.path)
			if tt.expectErr && err == nil {
				t.Errorf("Expected error for path %q", tt.path)
			}
			if !tt.expectErr && err != nil {
				t.Errorf("validateFilePath(%q) error = %v", tt.path, err)
			}
		})
	}
}

func TestHandleOutputDestinationFile(t *testing.T) {
	oldVerbose := verbose
	verbose = false
	defer func() { verbose = oldVerbose }()

	out := filepath.Join(t.TempDir(), "report.txt")
	if err := handleOutputDestination([]byte("report body\n"), out); err != nil {
		t.Fatalf("handleOutputDestination() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("Failed to read output file: %v", err)
	}
	if string(data) != "report body\n" {
		t.Errorf("Expected output file content %q, got %q", "report body\n", string(data))
	}
}

func TestAnalyzeCommandEndToEnd(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "app.log")
	if err := os.WriteFile(logPath, []byte(sampleLog), 0o600); err != nil {
		t.Fatalf("Failed to write log file: %v", err)
	}

	outPath := filepath.Join(dir, "report.txt")
	exportPath := filepath.Join(dir, "patterns.json")

	oldConfig := globalConfig
	defer func() { globalConfig = oldConfig }()

	cmd := NewRootCommand("test", "none", "unknown")
	cmd.SetArgs([]string{
		"analyze", logPath,
		"--output-file", outPath,
		"--export", exportPath,
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("analyze command failed: %v", err)
	}

	report, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	if !strings.Contains(string(report), "ValueError") {
		t.Errorf("Expected report to mention ValueError, got:\n%s", report)
	}

	export, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}
	if !strings.Contains(string(export), `"error_type": "ValueError"`) {
		t.Errorf("Expected export to carry the pattern error type, got:\n%s", export)
	}
	if !strings.Contains(string(export), `"total_patterns": 1`) {
		t.Errorf("Expected both tracebacks to collapse into one pattern, got:\n%s", export)
	}
}

func TestAnalyzeCommandJSONOutput(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "app.log")
	if err := os.WriteFile(logPath, []byte(sampleLog), 0o600); err != nil {
		t.Fatalf("Failed to write log file: %v", err)
	}
	outPath := filepath.Join(dir, "report.json")

	oldConfig := globalConfig
	oldOutputFmt := outputFmt
	defer func() {
		globalConfig = oldConfig
		outputFmt = oldOutputFmt
	}()

	cmd := NewRootCommand("test", "none", "unknown")
	cmd.SetArgs([]string{
		"analyze", logPath,
		"--output", "json",
		"--output-file", outPath,
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("analyze command failed: %v", err)
	}

	report, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	if !strings.Contains(string(report), `"error_count": 2`) {
		t.Errorf("Expected JSON report with 2 errors, got:\n%s", report)
	}
}
