package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds the complete application configuration
type Config struct {
	Version  string         `yaml:"version" json:"version"`
	AI       AIConfig       `yaml:"ai" json:"ai"`
	Advisor  AdvisorConfig  `yaml:"advisor" json:"advisor"`
	Loki     LokiConfig     `yaml:"loki" json:"loki"`
	Scan     ScanConfig     `yaml:"scan" json:"scan"`
	Source   SourceConfig   `yaml:"source" json:"source"`
	Output   OutputConfig   `yaml:"output" json:"output"`
	Analysis AnalysisConfig `yaml:"analysis" json:"analysis"`
}

// AIConfig configures the LLM provider used for explanations and fixes
type AIConfig struct {
	Provider   string        `yaml:"provider" json:"provider"`       // ollama|openai
	Model      string        `yaml:"model" json:"model"`             // model name/identifier
	Endpoint   string        `yaml:"endpoint" json:"endpoint"`       // API endpoint URL (empty = provider default)
	APIKey     string        `yaml:"api_key" json:"api_key"`         // API key (or LOGSLEUTH_AI_API_KEY)
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`         // request timeout
	MaxRetries int           `yaml:"max_retries" json:"max_retries"` // retry count for retryable failures
}

// AdvisorConfig configures explanation and fix generation
type AdvisorConfig struct {
	MaxConcurrent int     `yaml:"max_concurrent" json:"max_concurrent"` // parallel provider calls
	ContextLines  int     `yaml:"context_lines" json:"context_lines"`   // code lines around the error line
	MaxTokens     int     `yaml:"max_tokens" json:"max_tokens"`         // completion response cap
	Temperature   float64 `yaml:"temperature" json:"temperature"`       // completion temperature
	ExplainTop    int     `yaml:"explain_top" json:"explain_top"`       // how many leading patterns get explained
}

// LokiConfig configures the Loki log source
type LokiConfig struct {
	URL                string        `yaml:"url" json:"url"`
	Username           string        `yaml:"username" json:"username"`
	Password           string        `yaml:"password" json:"password"`
	Query              string        `yaml:"query" json:"query"`   // default LogQL selector
	Limit              int           `yaml:"limit" json:"limit"`   // max entries per query
	Timeout            time.Duration `yaml:"timeout" json:"timeout"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify" json:"insecure_skip_verify"`
}

// ScanConfig configures directory scanning
type ScanConfig struct {
	Extensions []string `yaml:"extensions" json:"extensions"` // candidate file extensions
	MaxDepth   int      `yaml:"max_depth" json:"max_depth"`   // directory recursion bound
	Workers    int      `yaml:"workers" json:"workers"`       // analysis worker pool size
}

// SourceConfig configures source code lookup for code context
type SourceConfig struct {
	Root  string `yaml:"root" json:"root"`   // search root for traceback file references
	Watch bool   `yaml:"watch" json:"watch"` // invalidate cached file contents on outside writes
}

// OutputConfig configures output formatting and display
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" json:"default_format"` // text|json|markdown|csv
	ColorMode     string `yaml:"color_mode" json:"color_mode"`         // auto|always|never
	Verbose       bool   `yaml:"verbose" json:"verbose"`               // default verbosity
}

// AnalysisConfig configures pipeline behavior
type AnalysisConfig struct {
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`         // per-run analysis timeout
	MaxLines   int           `yaml:"max_lines" json:"max_lines"`     // maximum input lines per run
	LevelStats bool          `yaml:"level_stats" json:"level_stats"` // count log lines per level
	TypePrefix bool          `yaml:"type_prefix" json:"type_prefix"` // keep "Type: " prefix on messages
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		AI: AIConfig{
			Provider:   "openai",
			Model:      "gpt-4o",
			Endpoint:   "",
			APIKey:     "",
			Timeout:    60 * time.Second,
			MaxRetries: 3,
		},
		Advisor: AdvisorConfig{
			MaxConcurrent: 3,
			ContextLines:  5,
			MaxTokens:     1024,
			Temperature:   0,
			ExplainTop:    3,
		},
		Loki: LokiConfig{
			URL:     "http://localhost:3100",
			Query:   `{job="application"}`,
			Limit:   1000,
			Timeout: 30 * time.Second,
		},
		Scan: ScanConfig{
			Extensions: []string{".log", ".txt"},
			MaxDepth:   4,
			Workers:    4,
		},
		Source: SourceConfig{
			Root:  ".",
			Watch: false,
		},
		Output: OutputConfig{
			DefaultFormat: "text",
			ColorMode:     "auto",
			Verbose:       false,
		},
		Analysis: AnalysisConfig{
			Timeout:    60 * time.Second,
			MaxLines:   100000,
			LevelStats: true,
			TypePrefix: false,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateAIConfig(); err != nil {
		return err
	}
	if err := c.validateAdvisorConfig(); err != nil {
		return err
	}
	if err := c.validateLokiConfig(); err != nil {
		return err
	}
	if err := c.validateScanConfig(); err != nil {
		return err
	}
	if err := c.validateOutputConfig(); err != nil {
		return err
	}
	if err := c.validateAnalysisConfig(); err != nil {
		return err
	}
	return nil
}

// validateAIConfig validates AI-related configuration
func (c *Config) validateAIConfig() error {
	if c.AI.Provider != "" {
		validProviders := map[string]bool{
			"ollama": true,
			"openai": true,
		}
		if !validProviders[c.AI.Provider] {
			return fmt.Errorf("invalid AI provider: %s (must be one of: ollama, openai)", c.AI.Provider)
		}
	}
	if c.AI.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.AI.Timeout < 0 {
		return fmt.Errorf("ai timeout must be non-negative")
	}
	return nil
}

// validateAdvisorConfig validates advisor-related configuration
func (c *Config) validateAdvisorConfig() error {
	if c.Advisor.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be greater than 0")
	}
	if c.Advisor.ContextLines < 0 {
		return fmt.Errorf("context_lines must be non-negative")
	}
	if c.Advisor.MaxTokens < 1 {
		return fmt.Errorf("max_tokens must be greater than 0")
	}
	if c.Advisor.Temperature < 0 || c.Advisor.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.Advisor.ExplainTop < 1 {
		return fmt.Errorf("explain_top must be greater than 0")
	}
	return nil
}

// validateLokiConfig validates Loki-related configuration
func (c *Config) validateLokiConfig() error {
	if c.Loki.Limit < 1 {
		return fmt.Errorf("loki limit must be greater than 0")
	}
	if c.Loki.Timeout < 0 {
		return fmt.Errorf("loki timeout must be non-negative")
	}
	if (c.Loki.Username == "") != (c.Loki.Password == "") {
		return fmt.Errorf("loki username and password must be set together")
	}
	return nil
}

// validateScanConfig validates scan-related configuration
func (c *Config) validateScanConfig() error {
	if c.Scan.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be greater than 0")
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("workers must be greater than 0")
	}
	for _, ext := range c.Scan.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("invalid scan extension: %s (must start with a dot)", ext)
		}
	}
	return nil
}

// validateOutputConfig validates output-related configuration
func (c *Config) validateOutputConfig() error {
	if c.Output.DefaultFormat != "" {
		validFormats := map[string]bool{
			"json":     true,
			"text":     true,
			"markdown": true,
			"csv":      true,
		}
		if !validFormats[c.Output.DefaultFormat] {
			return fmt.Errorf("invalid output format: %s (must be one of: json, text, markdown, csv)", c.Output.DefaultFormat)
		}
	}
	if c.Output.ColorMode != "" {
		validColorModes := map[string]bool{
			"auto":   true,
			"always": true,
			"never":  true,
		}
		if !validColorModes[c.Output.ColorMode] {
			return fmt.Errorf("invalid color mode: %s (must be one of: auto, always, never)", c.Output.ColorMode)
		}
	}
	return nil
}

// validateAnalysisConfig validates analysis-related configuration
func (c *Config) validateAnalysisConfig() error {
	if c.Analysis.MaxLines < 1 {
		return fmt.Errorf("max_lines must be greater than 0")
	}
	if c.Analysis.Timeout < 0 {
		return fmt.Errorf("analysis timeout must be non-negative")
	}
	return nil
}
