package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPaths defines the config file search paths in priority order
var ConfigPaths = []string{
	"./.logsleuth.yaml",               // Project-specific config (highest priority)
	"~/.config/logsleuth/config.yaml", // User config
	"/etc/logsleuth/config.yaml",      // System config (lowest priority)
}

// Loader handles configuration loading with priority merging
type Loader struct {
	configPaths []string
}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return &Loader{
		configPaths: ConfigPaths,
	}
}

// LoadConfig loads configuration from multiple sources with priority order:
// 1. Command line flags (handled by caller)
// 2. Environment variables
// 3. ./.logsleuth.yaml
// 4. ~/.config/logsleuth/config.yaml
// 5. /etc/logsleuth/config.yaml
// 6. Built-in defaults
func (l *Loader) LoadConfig(customPath string) (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// If custom path is provided, use only that path
	if customPath != "" {
		// Validate the custom path for security
		if err := validateConfigPath(customPath); err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		if err := l.loadFromFile(config, customPath); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", customPath, err)
		}
	} else {
		// Load from standard paths in reverse priority order (lowest to highest)
		paths := make([]string, len(l.configPaths))
		copy(paths, l.configPaths)
		// Reverse the slice to load lowest priority first
		for i := len(paths)/2 - 1; i >= 0; i-- {
			opp := len(paths) - 1 - i
			paths[i], paths[opp] = paths[opp], paths[i]
		}

		for _, path := range paths {
			expandedPath := expandPath(path)
			if fileExists(expandedPath) {
				if err := l.loadFromFile(config, expandedPath); err != nil {
					// Log warning but continue with other config files
					fmt.Fprintf(os.Stderr, "Warning: Failed to load config from %s: %v\n", expandedPath, err)
				}
			}
		}
	}

	// Apply environment variable overrides
	if err := l.applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	// Validate the final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file and merges it with existing config
func (l *Loader) loadFromFile(config *Config, path string) error {
	// #nosec G304 - path is validated by validateConfigPath() before reaching here
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	// Create a temporary config to unmarshal into
	var fileConfig Config
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Merge the file config into the existing config
	mergeConfigs(config, &fileConfig)

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func (l *Loader) applyEnvOverrides(config *Config) error {
	envMappings := map[string]func(string) error{
		// AI Config
		"LOGSLEUTH_AI_PROVIDER":    func(v string) error { config.AI.Provider = v; return nil },
		"LOGSLEUTH_AI_MODEL":       func(v string) error { config.AI.Model = v; return nil },
		"LOGSLEUTH_AI_ENDPOINT":    func(v string) error { config.AI.Endpoint = v; return nil },
		"LOGSLEUTH_AI_API_KEY":     func(v string) error { config.AI.APIKey = v; return nil },
		"LOGSLEUTH_AI_TIMEOUT":     func(v string) error { return parseDuration(v, &config.AI.Timeout) },
		"LOGSLEUTH_AI_MAX_RETRIES": func(v string) error { return parseInt(v, &config.AI.MaxRetries) },

		// Advisor Config
		"LOGSLEUTH_ADVISOR_MAX_CONCURRENT": func(v string) error { return parseInt(v, &config.Advisor.MaxConcurrent) },
		"LOGSLEUTH_ADVISOR_CONTEXT_LINES":  func(v string) error { return parseInt(v, &config.Advisor.ContextLines) },
		"LOGSLEUTH_ADVISOR_MAX_TOKENS":     func(v string) error { return parseInt(v, &config.Advisor.MaxTokens) },
		"LOGSLEUTH_ADVISOR_EXPLAIN_TOP":    func(v string) error { return parseInt(v, &config.Advisor.ExplainTop) },

		// Loki Config
		"LOGSLEUTH_LOKI_URL":      func(v string) error { config.Loki.URL = v; return nil },
		"LOGSLEUTH_LOKI_USERNAME": func(v string) error { config.Loki.Username = v; return nil },
		"LOGSLEUTH_LOKI_PASSWORD": func(v string) error { config.Loki.Password = v; return nil },
		"LOGSLEUTH_LOKI_QUERY":    func(v string) error { config.Loki.Query = v; return nil },
		"LOGSLEUTH_LOKI_LIMIT":    func(v string) error { return parseInt(v, &config.Loki.Limit) },
		"LOGSLEUTH_LOKI_TIMEOUT":  func(v string) error { return parseDuration(v, &config.Loki.Timeout) },
		"LOGSLEUTH_LOKI_INSECURE_SKIP_VERIFY": func(v string) error {
			return parseBool(v, &config.Loki.InsecureSkipVerify)
		},

		// Scan Config
		"LOGSLEUTH_SCAN_MAX_DEPTH": func(v string) error { return parseInt(v, &config.Scan.MaxDepth) },
		"LOGSLEUTH_SCAN_WORKERS":   func(v string) error { return parseInt(v, &config.Scan.Workers) },

		// Source Config
		"LOGSLEUTH_SOURCE_ROOT":  func(v string) error { config.Source.Root = v; return nil },
		"LOGSLEUTH_SOURCE_WATCH": func(v string) error { return parseBool(v, &config.Source.Watch) },

		// Output Config
		"LOGSLEUTH_OUTPUT_DEFAULT_FORMAT": func(v string) error { config.Output.DefaultFormat = v; return nil },
		"LOGSLEUTH_OUTPUT_COLOR_MODE":     func(v string) error { config.Output.ColorMode = v; return nil },
		"LOGSLEUTH_OUTPUT_VERBOSE":        func(v string) error { return parseBool(v, &config.Output.Verbose) },

		// Analysis Config
		"LOGSLEUTH_ANALYSIS_TIMEOUT":     func(v string) error { return parseDuration(v, &config.Analysis.Timeout) },
		"LOGSLEUTH_ANALYSIS_MAX_LINES":   func(v string) error { return parseInt(v, &config.Analysis.MaxLines) },
		"LOGSLEUTH_ANALYSIS_LEVEL_STATS": func(v string) error { return parseBool(v, &config.Analysis.LevelStats) },
		"LOGSLEUTH_ANALYSIS_TYPE_PREFIX": func(v string) error { return parseBool(v, &config.Analysis.TypePrefix) },
	}

	for envVar, setter := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			if err := setter(value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar, err)
			}
		}
	}

	// Handle special case for scan extensions (comma-separated list)
	if exts := os.Getenv("LOGSLEUTH_SCAN_EXTENSIONS"); exts != "" {
		config.Scan.Extensions = strings.Split(exts, ",")
		// Trim whitespace from each extension
		for i, ext := range config.Scan.Extensions {
			config.Scan.Extensions[i] = strings.TrimSpace(ext)
		}
	}

	return nil
}

// GetConfigPaths returns the list of configuration file paths that will be searched
func GetConfigPaths() []string {
	paths := make([]string, 0, len(ConfigPaths))
	for _, path := range ConfigPaths {
		paths = append(paths, expandPath(path))
	}
	return paths
}

// FindConfigFile finds the first existing config file in the search paths
func FindConfigFile() (string, bool) {
	for _, path := range ConfigPaths {
		expandedPath := expandPath(path)
		if fileExists(expandedPath) {
			return expandedPath, true
		}
	}
	return "", false
}

// Helper functions

// validateConfigPath validates that a config path is safe to read
func validateConfigPath(path string) error {
	// Clean the path to resolve any ".." components
	cleanPath := filepath.Clean(path)

	// Check for path traversal attempts
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	// Ensure it's a YAML file
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("config file must have .yaml or .yml extension")
	}

	// Convert to absolute path for additional validation
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	// Basic sanity check - ensure it's not in sensitive system directories
	if strings.HasPrefix(absPath, "/etc/passwd") ||
		strings.HasPrefix(absPath, "/etc/shadow") ||
		strings.HasPrefix(absPath, "/proc/") ||
		strings.HasPrefix(absPath, "/sys/") {
		return fmt.Errorf("access to system files not allowed")
	}

	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// mergeConfigs merges source config into destination config
// Only non-zero values from source overwrite destination
func mergeConfigs(dst, src *Config) {
	// Version
	if src.Version != "" {
		dst.Version = src.Version
	}

	mergeAIConfig(&dst.AI, &src.AI)
	mergeAdvisorConfig(&dst.Advisor, &src.Advisor)
	mergeLokiConfig(&dst.Loki, &src.Loki)
	mergeScanConfig(&dst.Scan, &src.Scan)
	mergeSourceConfig(&dst.Source, &src.Source)
	mergeOutputConfig(&dst.Output, &src.Output)
	mergeAnalysisConfig(&dst.Analysis, &src.Analysis)
}

// mergeAIConfig merges AI configuration
func mergeAIConfig(dst, src *AIConfig) {
	if src.Provider != "" {
		dst.Provider = src.Provider
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.Endpoint != "" {
		dst.Endpoint = src.Endpoint
	}
	if src.APIKey != "" {
		dst.APIKey = src.APIKey
	}
	if src.Timeout != 0 {
		dst.Timeout = src.Timeout
	}
	if src.MaxRetries != 0 {
		dst.MaxRetries = src.MaxRetries
	}
}

// mergeAdvisorConfig merges advisor configuration
func mergeAdvisorConfig(dst, src *AdvisorConfig) {
	if src.MaxConcurrent != 0 {
		dst.MaxConcurrent = src.MaxConcurrent
	}
	if src.ContextLines != 0 {
		dst.ContextLines = src.ContextLines
	}
	if src.MaxTokens != 0 {
		dst.MaxTokens = src.MaxTokens
	}
	if src.Temperature != 0 {
		dst.Temperature = src.Temperature
	}
	if src.ExplainTop != 0 {
		dst.ExplainTop = src.ExplainTop
	}
}

// mergeLokiConfig merges Loki configuration
func mergeLokiConfig(dst, src *LokiConfig) {
	if src.URL != "" {
		dst.URL = src.URL
	}
	if src.Username != "" {
		dst.Username = src.Username
	}
	if src.Password != "" {
		dst.Password = src.Password
	}
	if src.Query != "" {
		dst.Query = src.Query
	}
	if src.Limit != 0 {
		dst.Limit = src.Limit
	}
	if src.Timeout != 0 {
		dst.Timeout = src.Timeout
	}
	mergeIfSet(&dst.InsecureSkipVerify, src.InsecureSkipVerify)
}

// mergeScanConfig merges scan configuration
func mergeScanConfig(dst, src *ScanConfig) {
	if len(src.Extensions) > 0 {
		dst.Extensions = src.Extensions
	}
	if src.MaxDepth != 0 {
		dst.MaxDepth = src.MaxDepth
	}
	if src.Workers != 0 {
		dst.Workers = src.Workers
	}
}

// mergeSourceConfig merges source configuration
func mergeSourceConfig(dst, src *SourceConfig) {
	if src.Root != "" {
		dst.Root = src.Root
	}
	mergeIfSet(&dst.Watch, src.Watch)
}

// mergeOutputConfig merges output configuration
func mergeOutputConfig(dst, src *OutputConfig) {
	if src.DefaultFormat != "" {
		dst.DefaultFormat = src.DefaultFormat
	}
	if src.ColorMode != "" {
		dst.ColorMode = src.ColorMode
	}
	// For boolean fields, we need to check if they were explicitly set
	// This is a limitation of YAML unmarshaling, but we'll handle it in env overrides
	mergeIfSet(&dst.Verbose, src.Verbose)
}

// mergeAnalysisConfig merges analysis configuration
func mergeAnalysisConfig(dst, src *AnalysisConfig) {
	if src.Timeout != 0 {
		dst.Timeout = src.Timeout
	}
	if src.MaxLines != 0 {
		dst.MaxLines = src.MaxLines
	}
	mergeIfSet(&dst.LevelStats, src.LevelStats)
	mergeIfSet(&dst.TypePrefix, src.TypePrefix)
}

// mergeIfSet only merges boolean values if they appear to be explicitly set
// This is a simple heuristic, but works for most cases
func mergeIfSet(dst *bool, src bool) {
	// For now, always merge - this could be improved with custom unmarshaling
	*dst = src
}

// Type conversion helpers

func parseInt(s string, dst *int) error {
	val, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseBool(s string, dst *bool) error {
	val, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseDuration(s string, dst *time.Duration) error {
	val, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}
