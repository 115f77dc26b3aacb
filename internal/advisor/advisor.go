// Package advisor turns ranked error patterns into LLM backed explanations
// and fix suggestions. Provider failures degrade to placeholder text so one
// bad call never aborts a batch.
package advisor

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/yildizm/go-promptfmt"

	"github.com/logsleuth/logsleuth/internal/ai"
	"github.com/logsleuth/logsleuth/internal/codectx"
	"github.com/logsleuth/logsleuth/internal/grouping"
	"github.com/logsleuth/logsleuth/internal/logger"
	"github.com/logsleuth/logsleuth/internal/traceback"
)

const (
	// DefaultMaxConcurrent bounds parallel provider calls in ExplainPatterns.
	DefaultMaxConcurrent = 3

	// DefaultMaxTokens caps each completion response.
	DefaultMaxTokens = 1024

	// Token budgets for prompt sections. Tracebacks and code windows from
	// real incidents can be arbitrarily long.
	tracebackTokenBudget = 1024
	codeTokenBudget      = 512
)

// Options configure advice generation.
type Options struct {
	// MaxConcurrent is the worker bound for ExplainPatterns.
	MaxConcurrent int

	// ContextLines is the code window half-size around the error line.
	ContextLines int

	// MaxTokens caps each completion response.
	MaxTokens int

	// Temperature for completions.
	Temperature float64

	// Model overrides the provider default when set.
	Model string

	// Verbose gates debug logging, wired to the CLI flag.
	Verbose func() bool
}

// DefaultOptions returns the advisor defaults.
func DefaultOptions() Options {
	return Options{
		MaxConcurrent: DefaultMaxConcurrent,
		ContextLines:  codectx.DefaultContextLines,
		MaxTokens:     DefaultMaxTokens,
		Temperature:   0,
	}
}

// Advice is the advisor's verdict on one error pattern.
type Advice struct {
	Pattern     *grouping.ErrorPattern `json:"pattern"`
	Explanation string                 `json:"explanation"`
	RootCause   string                 `json:"root_cause,omitempty"`
	Suggestions []string               `json:"suggestions,omitempty"`
	Window      *codectx.CodeWindow    `json:"window,omitempty"`
}

// Advisor asks an LLM provider to explain error patterns and draft fixes,
// enriching prompts with code context when a Reader can resolve the source
// file.
type Advisor struct {
	provider ai.Provider
	reader   *codectx.Reader
	opts     Options
	log      *logger.Logger
}

// New creates an Advisor. The reader may be nil, in which case advice
// carries no code context.
func New(provider ai.Provider, reader *codectx.Reader, opts Options) *Advisor {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	if opts.ContextLines <= 0 {
		opts.ContextLines = codectx.DefaultContextLines
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}

	return &Advisor{
		provider: provider,
		reader:   reader,
		opts:     opts,
		log:      logger.NewWithCallback("advisor", opts.Verbose),
	}
}

// Explain asks the provider to explain one pattern through its
// representative record. A provider failure yields placeholder text in the
// returned advice, never an error, so callers can keep going through a
// batch.
func (a *Advisor) Explain(ctx context.Context, pattern *grouping.ErrorPattern) *Advice {
	advice := &Advice{Pattern: pattern}

	rec := pattern.Representative
	if rec == nil {
		advice.Explanation = "explanation unavailable: pattern has no representative record"
		return advice
	}

	advice.Window = a.windowFor(rec)

	resp, err := a.provider.Complete(ctx, a.request(a.buildExplainPrompt(pattern, rec, advice.Window)))
	if err != nil {
		a.log.Warn("explain failed for %s: %v", rec.Location(), err)
		advice.Explanation = fmt.Sprintf("explanation unavailable: %v", err)
		return advice
	}

	var parsed explainResponse
	if result := promptfmt.NewResponse(resp.Content).TryParseJSON(&parsed); result.Success {
		advice.Explanation = strings.TrimSpace(parsed.Summary)
		advice.RootCause = strings.TrimSpace(parsed.RootCause)
		advice.Suggestions = parsed.Suggestions
	}
	if advice.Explanation == "" {
		advice.Explanation = strings.TrimSpace(resp.Content)
	}

	return advice
}

// ExplainPatterns explains every pattern with at most MaxConcurrent
// provider calls in flight. Results keep the input order.
func (a *Advisor) ExplainPatterns(ctx context.Context, patterns []*grouping.ErrorPattern) []*Advice {
	if len(patterns) == 0 {
		return nil
	}

	results := make([]*Advice, len(patterns))
	sem := make(chan struct{}, a.opts.MaxConcurrent)
	var wg sync.WaitGroup

	for i, pattern := range patterns {
		wg.Add(1)
		go func(i int, pattern *grouping.ErrorPattern) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = a.Explain(ctx, pattern)
		}(i, pattern)
	}
	wg.Wait()

	return results
}

// Fix asks the provider for a corrected replacement of the window's code.
// The reply is code only, with any markdown fence stripped. Failures come
// back as placeholder text, never an error.
func (a *Advisor) Fix(ctx context.Context, rec *traceback.ErrorRecord, window *codectx.CodeWindow) string {
	if window == nil || window.Code == "" {
		return "fix unavailable: no code context"
	}

	resp, err := a.provider.Complete(ctx, a.request(a.buildFixPrompt(rec, window)))
	if err != nil {
		a.log.Warn("fix failed for %s: %v", rec.Location(), err)
		return fmt.Sprintf("fix unavailable: %v", err)
	}

	fix := stripCodeFence(resp.Content)
	if fix == "" {
		return "fix unavailable: provider returned an empty response"
	}
	return fix
}

func (a *Advisor) windowFor(rec *traceback.ErrorRecord) *codectx.CodeWindow {
	if a.reader == nil {
		return nil
	}
	window, err := a.reader.Window(rec.FilePath, rec.LineNumber, a.opts.ContextLines)
	if err != nil {
		a.log.Debug("no code context for %s: %v", rec.Location(), err)
		return nil
	}
	return window
}

func (a *Advisor) request(prompt *promptfmt.Prompt) *ai.CompletionRequest {
	return &ai.CompletionRequest{
		Prompt:       prompt.String(),
		SystemPrompt: prompt.SystemPrompt,
		MaxTokens:    a.opts.MaxTokens,
		Temperature:  a.opts.Temperature,
		Model:        a.opts.Model,
	}
}

// fit bounds a prompt section using the provider's own token estimate. On
// estimation failure the text passes through unchanged.
func (a *Advisor) fit(text string, budget int) string {
	fitted, err := a.provider.TruncateToFit(text, budget)
	if err != nil {
		return text
	}
	return fitted
}

// stripCodeFence removes a surrounding markdown code fence, with or without
// a language tag. Models add fences even when told not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return ""
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
