package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewLoader(t *testing.T) {
	loader := NewLoader()
	if loader == nil {
		t.Fatal("NewLoader returned nil")
	}
	if len(loader.configPaths) != 3 {
		t.Errorf("Expected 3 config paths, got %d", len(loader.configPaths))
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	loader := NewLoader()

	// Test loading with no config files (should use defaults)
	cfg, err := loader.LoadConfig("")
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}

	// Verify it's using defaults
	if cfg.AI.Provider != "openai" {
		t.Errorf("Expected default AI provider openai, got %s", cfg.AI.Provider)
	}
	if cfg.Output.DefaultFormat != "text" {
		t.Errorf("Expected default output format text, got %s", cfg.Output.DefaultFormat)
	}
	if cfg.Scan.MaxDepth != 4 {
		t.Errorf("Expected default scan max depth 4, got %d", cfg.Scan.MaxDepth)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	// Create a temporary config file
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test-config.yaml")

	configContent := `version: "1.0"
ai:
  provider: "ollama"
  model: "llama3.2"
  timeout: 45s
advisor:
  max_concurrent: 2
  explain_top: 5
loki:
  url: "https://loki.example.com"
  username: "reader"
  password: "secret"
output:
  default_format: "json"
  verbose: true
analysis:
  max_lines: 50000
  level_stats: true
`

	err := os.WriteFile(configPath, []byte(configContent), 0o600)
	if err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	loader := NewLoader()
	cfg, err := loader.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config from file: %v", err)
	}

	// Verify the config was loaded correctly
	if cfg.AI.Provider != "ollama" {
		t.Errorf("Expected AI provider ollama, got %s", cfg.AI.Provider)
	}
	if cfg.AI.Model != "llama3.2" {
		t.Errorf("Expected AI model llama3.2, got %s", cfg.AI.Model)
	}
	if cfg.AI.Timeout != 45*time.Second {
		t.Errorf("Expected AI timeout 45s, got %v", cfg.AI.Timeout)
	}
	if cfg.Advisor.MaxConcurrent != 2 {
		t.Errorf("Expected advisor max concurrent 2, got %d", cfg.Advisor.MaxConcurrent)
	}
	if cfg.Advisor.ExplainTop != 5 {
		t.Errorf("Expected advisor explain top 5, got %d", cfg.Advisor.ExplainTop)
	}
	if cfg.Loki.URL != "https://loki.example.com" {
		t.Errorf("Expected Loki URL from file, got %s", cfg.Loki.URL)
	}
	if cfg.Loki.Username != "reader" || cfg.Loki.Password != "secret" {
		t.Error("Expected Loki credentials from file")
	}
	if cfg.Output.DefaultFormat != "json" {
		t.Errorf("Expected output format json, got %s", cfg.Output.DefaultFormat)
	}
	if !cfg.Output.Verbose {
		t.Errorf("Expected verbose to be true")
	}
	if cfg.Analysis.MaxLines != 50000 {
		t.Errorf("Expected max lines 50000, got %d", cfg.Analysis.MaxLines)
	}

	// Sections the file does not mention keep their defaults
	if cfg.Scan.Workers != 4 {
		t.Errorf("Expected scan workers to remain 4, got %d", cfg.Scan.Workers)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	// Create a temporary config file with invalid YAML
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid-config.yaml")

	invalidConfigContent := `version: "1.0"
ai:
  provider: "openai"
  model: "gpt-4o"
  timeout: 60s
  # Invalid YAML - missing closing quote
output:
  default_format: "json
  verbose: true
`

	err := os.WriteFile(configPath, []byte(invalidConfigContent), 0o600)
	if err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	loader := NewLoader()
	_, err = loader.LoadConfig(configPath)
	if err == nil {
		t.Error("Expected error loading invalid YAML config, but got none")
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "bad-values.yaml")

	configContent := `version: "1.0"
ai:
  provider: "carrier-pigeon"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	loader := NewLoader()
	if _, err := loader.LoadConfig(configPath); err == nil {
		t.Error("Expected validation error for unknown provider, but got none")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	// Set environment variables
	envVars := map[string]string{
		"LOGSLEUTH_AI_PROVIDER":            "ollama",
		"LOGSLEUTH_AI_MODEL":               "codellama",
		"LOGSLEUTH_OUTPUT_VERBOSE":         "true",
		"LOGSLEUTH_ANALYSIS_MAX_LINES":     "25000",
		"LOGSLEUTH_LOKI_URL":               "http://loki:3100",
		"LOGSLEUTH_ADVISOR_MAX_CONCURRENT": "6",
		"LOGSLEUTH_SCAN_EXTENSIONS":        ".log, .txt, .out",
	}

	// Set environment variables
	for key, value := range envVars {
		_ = os.Setenv(key, value)
	}

	// Clean up environment variables after test
	defer func() {
		for key := range envVars {
			_ = os.Unsetenv(key)
		}
	}()

	loader := NewLoader()
	cfg := DefaultConfig()

	err := loader.applyEnvOverrides(cfg)
	if err != nil {
		t.Fatalf("Failed to apply env overrides: %v", err)
	}

	// Check that environment variables were applied
	if cfg.AI.Provider != "ollama" {
		t.Errorf("Expected AI provider ollama, got %s", cfg.AI.Provider)
	}
	if cfg.AI.Model != "codellama" {
		t.Errorf("Expected AI model codellama, got %s", cfg.AI.Model)
	}
	if !cfg.Output.Verbose {
		t.Errorf("Expected verbose to be true")
	}
	if cfg.Analysis.MaxLines != 25000 {
		t.Errorf("Expected max lines 25000, got %d", cfg.Analysis.MaxLines)
	}
	if cfg.Loki.URL != "http://loki:3100" {
		t.Errorf("Expected Loki URL http://loki:3100, got %s", cfg.Loki.URL)
	}
	if cfg.Advisor.MaxConcurrent != 6 {
		t.Errorf("Expected advisor max concurrent 6, got %d", cfg.Advisor.MaxConcurrent)
	}
	if len(cfg.Scan.Extensions) != 3 {
		t.Errorf("Expected 3 scan extensions, got %d", len(cfg.Scan.Extensions))
	}
	expectedExts := []string{".log", ".txt", ".out"}
	for i, expectedExt := range expectedExts {
		if i < len(cfg.Scan.Extensions) && cfg.Scan.Extensions[i] != expectedExt {
			t.Errorf("Expected scan extension %s, got %s", expectedExt, cfg.Scan.Extensions[i])
		}
	}
}

func TestApplyEnvOverridesInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		envVar string
		value  string
	}{
		{"invalid int", "LOGSLEUTH_ANALYSIS_MAX_LINES", "not-a-number"},
		{"invalid bool", "LOGSLEUTH_OUTPUT_VERBOSE", "not-a-bool"},
		{"invalid duration", "LOGSLEUTH_AI_TIMEOUT", "not-a-duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_ = os.Setenv(tt.envVar, tt.value)
			defer func() { _ = os.Unsetenv(tt.envVar) }()

			loader := NewLoader()
			cfg := DefaultConfig()

			err := loader.applyEnvOverrides(cfg)
			if err == nil {
				t.Error("Expected error for invalid env var value, but got none")
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	var duration time.Duration

	err := parseDuration("30s", &duration)
	if err != nil {
		t.Errorf("Failed to parse duration: %v", err)
	}
	if duration != 30*time.Second {
		t.Errorf("Expected 30s, got %v", duration)
	}

	err = parseDuration("invalid", &duration)
	if err == nil {
		t.Error("Expected error for invalid duration, but got none")
	}
}

func TestParseInt(t *testing.T) {
	var value int

	err := parseInt("42", &value)
	if err != nil {
		t.Errorf("Failed to parse int: %v", err)
	}
	if value != 42 {
		t.Errorf("Expected 42, got %d", value)
	}

	err = parseInt("not-a-number", &value)
	if err == nil {
		t.Error("Expected error for invalid int, but got none")
	}
}

func TestParseBool(t *testing.T) {
	var value bool

	err := parseBool("true", &value)
	if err != nil {
		t.Errorf("Failed to parse bool: %v", err)
	}
	if !value {
		t.Errorf("Expected true, got %v", value)
	}

	err = parseBool("false", &value)
	if err != nil {
		t.Errorf("Failed to parse bool: %v", err)
	}
	if value {
		t.Errorf("Expected false, got %v", value)
	}

	err = parseBool("not-a-bool", &value)
	if err == nil {
		t.Error("Expected error for invalid bool, but got none")
	}
}

func TestValidateConfigPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"yaml file", "config.yaml", false},
		{"yml file", "config.yml", false},
		{"wrong extension", "config.toml", true},
		{"path traversal", "../../etc/config.yaml", true},
		{"proc path", "/proc/self/config.yaml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfigPath(tt.path)
			if tt.wantErr && err == nil {
				t.Errorf("Expected error for path %s, but got none", tt.path)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error for path %s: %v", tt.path, err)
			}
		})
	}
}
