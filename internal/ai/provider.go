// Package ai defines the provider abstraction the advisor talks to and a
// registry for creating providers by name. Concrete backends live under
// providers/ and register themselves with factories.
package ai

import (
	"context"
	"io"
)

// LLMProvider is the core completion surface of an LLM backend.
type LLMProvider interface {
	// Name returns the provider name (e.g., "ollama", "openai")
	Name() string

	// Complete performs one text completion
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// CountTokens estimates token count for the given text
	CountTokens(text string) (int, error)

	// MaxTokens returns the maximum context window size
	MaxTokens() int

	// ValidateConfig validates the provider configuration
	ValidateConfig() error
}

// ContextSizer fits text into a provider's context window.
type ContextSizer interface {
	// TruncateToFit truncates text to fit within token limits
	TruncateToFit(text string, maxTokens int) (string, error)
}

// HealthChecker provides health checking capabilities.
type HealthChecker interface {
	// HealthCheck verifies provider connectivity and status
	HealthCheck(ctx context.Context) error

	// IsHealthy returns the result of the last health check
	IsHealthy() bool
}

// Provider combines all provider capabilities.
type Provider interface {
	LLMProvider
	ContextSizer
	HealthChecker
	io.Closer
}
