package cli

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/logsleuth/logsleuth/internal/advisor"
	"github.com/logsleuth/logsleuth/internal/ai"
	"github.com/logsleuth/logsleuth/internal/ai/providers/ollama"
	"github.com/logsleuth/logsleuth/internal/ai/providers/openai"
	"github.com/logsleuth/logsleuth/internal/codectx"
	"github.com/logsleuth/logsleuth/internal/config"
)

var registerProvidersOnce sync.Once

// createAIProvider resolves the configured provider through the registry.
// Blank config fields are left for the factory defaults to fill.
func createAIProvider(aiConfig *config.AIConfig) (ai.Provider, error) {
	registerProvidersOnce.Do(func() {
		_ = ollama.Register()
		_ = openai.Register()
	})

	name := strings.ToLower(aiConfig.Provider)
	if !ai.IsProviderRegistered(name) {
		return nil, fmt.Errorf("unsupported AI provider: %s (available: %s)",
			aiConfig.Provider, strings.Join(ai.ListProviders(), ", "))
	}

	provider, err := ai.GetProviderWithConfig(name, &ai.ProviderConfig{
		Name:         name,
		Type:         name,
		APIKey:       aiConfig.APIKey,
		BaseURL:      aiConfig.Endpoint,
		DefaultModel: aiConfig.Model,
		Timeout:      aiConfig.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AI provider: %w", err)
	}
	return provider, nil
}

// newAdvisor wires an Advisor with code context resolution rooted at the
// configured source tree. The returned cleanup releases the content cache.
func newAdvisor(provider ai.Provider) (*advisor.Advisor, *codectx.Reader, func()) {
	cfg := GetGlobalConfig()

	cache := codectx.NewContentCache()
	if cfg.Source.Watch {
		if err := cache.WithWatcher(); err != nil && isVerbose() {
			fmt.Fprintf(os.Stderr, "Warning: source watcher unavailable: %v\n", err)
		}
	}
	cleanup := func() { _ = cache.Close() }

	reader := codectx.NewReader(codectx.NewLocator(cfg.Source.Root), cache)
	adv := advisor.New(provider, reader, advisor.Options{
		MaxConcurrent: cfg.Advisor.MaxConcurrent,
		ContextLines:  cfg.Advisor.ContextLines,
		MaxTokens:     cfg.Advisor.MaxTokens,
		Temperature:   cfg.Advisor.Temperature,
		Model:         cfg.AI.Model,
		Verbose:       isVerbose,
	})
	return adv, reader, cleanup
}
