package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/logsleuth/logsleuth/internal/ai"
)

func testConfig(baseURL string) *Config {
	config := DefaultConfig()
	config.APIKey = "test-key"
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return config
}

func TestProvider_NewRequiresAPIKey(t *testing.T) {
	if _, err := New(DefaultConfig()); err == nil {
		t.Fatal("Expected an error for a config without an API key")
	} else if !ai.IsConfigurationError(err) {
		t.Errorf("Expected a configuration error, got %v", err)
	}
}

func TestProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Expected path '/v1/chat/completions', got '%s'", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Expected bearer auth header, got '%s'", auth)
		}

		var req ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if len(req.Messages) != 2 {
			t.Errorf("Expected system+user messages, got %d", len(req.Messages))
		}
		if req.Messages[0].Role != "system" {
			t.Errorf("Expected first message role 'system', got '%s'", req.Messages[0].Role)
		}

		resp := ChatCompletionResponse{
			ID:      "chatcmpl-1",
			Object:  "chat.completion",
			Created: 1700000000,
			Model:   req.Model,
			Choices: []ChatCompletionChoice{{
				Message:      ChatMessage{Role: "assistant", Content: "KeyError means the key is absent."},
				FinishReason: "stop",
			}},
			Usage: ChatCompletionUsage{PromptTokens: 20, CompletionTokens: 8, TotalTokens: 28},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Complete(context.Background(), &ai.CompletionRequest{
		Prompt:       "Explain KeyError: 'user_id'",
		SystemPrompt: "You analyze Python tracebacks.",
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if resp.Content != "KeyError means the key is absent." {
		t.Errorf("Unexpected content: %q", resp.Content)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("Unexpected finish reason: %q", resp.FinishReason)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 28 {
		t.Errorf("Expected total tokens 28, got %+v", resp.Usage)
	}
}

func TestProvider_CompleteAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Error: ErrorDetail{Message: "Incorrect API key provided"}})
	}))
	defer server.Close()

	provider, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Complete(context.Background(), &ai.CompletionRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("Expected an auth error")
	}

	var pe *ai.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected a ProviderError, got %T", err)
	}
	if pe.Type != ai.ErrTypeAuthentication {
		t.Errorf("Expected authentication error type, got %s", pe.Type)
	}
	if pe.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", pe.StatusCode)
	}
}

func TestProvider_CompleteRetriesRateLimit(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		resp := ChatCompletionResponse{
			Model:   "gpt-4o",
			Choices: []ChatCompletionChoice{{Message: ChatMessage{Content: "ok"}, FinishReason: "stop"}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Complete(context.Background(), &ai.CompletionRequest{Prompt: "x"})
	if err != nil {
		t.Fatalf("Complete failed after retry: %v", err)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
	if resp.Content != "ok" {
		t.Errorf("Unexpected content: %q", resp.Content)
	}
}

func TestProvider_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("Expected path '/v1/models', got '%s'", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(ModelListResponse{Object: "list", Data: []Model{{ID: "gpt-4o"}}})
	}))
	defer server.Close()

	provider, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if err := provider.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
	if !provider.IsHealthy() {
		t.Error("Provider should report healthy after a passing check")
	}
}
