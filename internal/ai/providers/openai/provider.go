// Package openai implements the provider interface against the OpenAI chat
// completions API, or any compatible endpoint reachable under the same
// paths. Rate limited requests are retried with backoff before giving up.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/logsleuth/logsleuth/internal/ai"
)

const maxRetries = 3

// Provider implements the AI provider interface for OpenAI
type Provider struct {
	config  *Config
	client  *http.Client
	baseURL *url.URL
	healthy bool
	mu      sync.RWMutex
}

// New creates a new OpenAI provider instance
func New(config *Config) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, ai.NewConfigurationError("openai", "base_url", "invalid base URL: "+err.Error())
	}

	return &Provider{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		baseURL: baseURL,
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "openai"
}

// Complete performs text completion
func (p *Provider) Complete(ctx context.Context, req *ai.CompletionRequest) (*ai.CompletionResponse, error) {
	if req == nil {
		return nil, ai.NewProviderError(ai.ErrTypeInternal, "completion request is required", "openai")
	}

	chatReq := p.buildChatRequest(req)
	response, err := p.sendChatRequest(ctx, chatReq)
	if err != nil {
		return nil, err
	}

	return response.ToAIResponse(), nil
}

// CountTokens estimates token count for the given text
func (p *Provider) CountTokens(text string) (int, error) {
	// Rough heuristic of 4 characters per token, close enough for
	// truncation decisions.
	return len(text) / 4, nil
}

// MaxTokens returns the maximum context window size
func (p *Provider) MaxTokens() int {
	return p.config.MaxTokens
}

// TruncateToFit truncates text to fit within token limits
func (p *Provider) TruncateToFit(text string, maxTokens int) (string, error) {
	estimated, err := p.CountTokens(text)
	if err != nil {
		return "", err
	}
	if estimated <= maxTokens {
		return text, nil
	}

	ratio := float64(maxTokens) / float64(estimated)
	targetLength := int(float64(len(text)) * ratio)
	if targetLength >= len(text) {
		return text, nil
	}
	return text[:targetLength], nil
}

// ValidateConfig validates the provider configuration
func (p *Provider) ValidateConfig() error {
	return p.config.Validate()
}

// HealthCheck verifies connectivity and credentials via the models listing
func (p *Provider) HealthCheck(ctx context.Context) error {
	endpoint := p.baseURL.JoinPath("/v1/models")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), http.NoBody)
	if err != nil {
		p.setHealthy(false)
		return ai.NewProviderErrorWithCause(ai.ErrTypeNetwork, "failed to create health check request", "openai", err)
	}
	p.setHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		p.setHealthy(false)
		return ai.NewProviderErrorWithCause(ai.ErrTypeNetwork, "health check request failed", "openai", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusOK {
		p.setHealthy(true)
		return nil
	}

	p.setHealthy(false)
	if resp.StatusCode == http.StatusUnauthorized {
		return ai.NewProviderError(ai.ErrTypeAuthentication, "invalid API key", "openai")
	}
	return ai.NewProviderError(ai.ErrTypeProvider, fmt.Sprintf("health check failed with status %d", resp.StatusCode), "openai")
}

// IsHealthy returns the result of the last health check
func (p *Provider) IsHealthy() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.healthy
}

// Close cleans up provider resources
func (p *Provider) Close() error {
	return nil
}

func (p *Provider) setHealthy(healthy bool) {
	p.mu.Lock()
	p.healthy = healthy
	p.mu.Unlock()
}

func (p *Provider) buildChatRequest(req *ai.CompletionRequest) *ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = p.config.DefaultModel
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = p.config.DefaultTemperature
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens / 2
	}

	chatReq := &ChatCompletionRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
	chatReq.ToMessages(req.SystemPrompt, req.Prompt)
	return chatReq
}

func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if p.config.OrganizationID != "" {
		req.Header.Set("OpenAI-Organization", p.config.OrganizationID)
	}
}

func (p *Provider) sendChatRequest(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	endpoint := p.baseURL.JoinPath("/v1/chat/completions")

	body, err := json.Marshal(req)
	if err != nil {
		return nil, ai.NewProviderErrorWithCause(ai.ErrTypeInternal, "failed to marshal request", "openai", err)
	}

	resp, err := p.doRequestWithRetry(ctx, endpoint.String(), body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleErrorResponse(resp)
	}

	var chatResp ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, ai.NewProviderErrorWithCause(ai.ErrTypeInternal, "failed to decode response", "openai", err)
	}
	return &chatResp, nil
}

// doRequestWithRetry posts the body, retrying transport failures and 429
// responses with exponential backoff.
func (p *Provider) doRequestWithRetry(ctx context.Context, endpoint string, body []byte) (*http.Response, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, ai.NewProviderErrorWithCause(ai.ErrTypeInternal, "failed to create request", "openai", err)
		}
		p.setHeaders(req)

		resp, err := p.client.Do(req)
		if err != nil {
			if attempt == maxRetries-1 {
				return nil, ai.NewProviderErrorWithCause(ai.ErrTypeNetwork, "request failed after retries", "openai", err)
			}
			if sleepErr := sleepWithContext(ctx, time.Duration(1<<attempt)*time.Second); sleepErr != nil {
				return nil, ai.NewProviderErrorWithCause(ai.ErrTypeTimeout, "request canceled", "openai", sleepErr)
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			_ = resp.Body.Close()
			if attempt == maxRetries-1 {
				return nil, ai.NewProviderError(ai.ErrTypeRateLimit, "rate limit exceeded", "openai")
			}

			retryAfter := 1
			if header := resp.Header.Get("Retry-After"); header != "" {
				if seconds, err := strconv.Atoi(header); err == nil {
					retryAfter = seconds
				}
			}
			if sleepErr := sleepWithContext(ctx, time.Duration(retryAfter)*time.Second); sleepErr != nil {
				return nil, ai.NewProviderErrorWithCause(ai.ErrTypeTimeout, "request canceled", "openai", sleepErr)
			}
			continue
		}

		return resp, nil
	}

	return nil, ai.NewProviderError(ai.ErrTypeNetwork, "max retries exceeded", "openai")
}

func (p *Provider) handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp ErrorResponse
	message := fmt.Sprintf("request failed with status %d", resp.StatusCode)
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	errType := ai.ErrTypeProvider
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		errType = ai.ErrTypeAuthentication
	case http.StatusTooManyRequests:
		errType = ai.ErrTypeRateLimit
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		errType = ai.ErrTypeTimeout
	}

	err := ai.NewProviderError(errType, message, "openai")
	err.StatusCode = resp.StatusCode
	return err
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
