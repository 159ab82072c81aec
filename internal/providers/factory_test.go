package providers

import (
	"errors"
	"net/http"
	"testing"
)

func TestExtractErrorMetadata(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantRetry  string
	}{
		{
			name:       "rate limit with retry-after header",
			err:        errors.New("API returned 429 Too Many Requests, Retry-After: 30"),
			wantStatus: http.StatusTooManyRequests,
			wantRetry:  "30",
		},
		{
			name:       "rate limit with prose retry hint",
			err:        errors.New("rate limited (429), please retry after 15 seconds"),
			wantStatus: http.StatusTooManyRequests,
			wantRetry:  "15",
		},
		{
			name:       "server error",
			err:        errors.New("unexpected status code: 503 Service Unavailable"),
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "auth failure",
			err:        errors.New("401 Unauthorized: invalid api key"),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "plain network error",
			err:  errors.New("dial tcp: connection refused"),
		},
		{
			name: "nil error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, retry := extractErrorMetadata(tt.err)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if retry != tt.wantRetry {
				t.Errorf("retryAfter = %q, want %q", retry, tt.wantRetry)
			}
		})
	}
}

func TestNewClientDefaults(t *testing.T) {
	tests := []struct {
		name      string
		provider  string
		apiKey    string
		wantModel string
		wantErr   bool
	}{
		{name: "openai default model", provider: "openai", apiKey: "sk-test", wantModel: "gpt-4o-mini"},
		{name: "empty provider means openai", provider: "", apiKey: "sk-test", wantModel: "gpt-4o-mini"},
		{name: "openrouter default model", provider: "openrouter", apiKey: "sk-or-test", wantModel: "openai/gpt-4o-mini"},
		{name: "anthropic default model", provider: "anthropic", apiKey: "sk-ant-test", wantModel: "claude-3-5-sonnet-20241022"},
		{name: "ollama needs no key", provider: "ollama", wantModel: "llama3.1"},
		{name: "lmstudio needs no key", provider: "lmstudio", wantModel: "local-model"},
		{name: "openai missing key", provider: "openai", wantErr: true},
		{name: "unknown provider", provider: "bedrock", apiKey: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, model, err := NewClient(tt.provider, tt.apiKey, "", "")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}
			if client == nil {
				t.Fatal("client is nil")
			}
			if model != tt.wantModel {
				t.Errorf("model = %q, want %q", model, tt.wantModel)
			}
		})
	}
}

func TestNewClientKeepsExplicitModel(t *testing.T) {
	_, model, err := NewClient("openai", "sk-test", "gpt-4.1", "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if model != "gpt-4.1" {
		t.Errorf("model = %q, want gpt-4.1", model)
	}
}
