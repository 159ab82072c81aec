package providers

import (
	"fmt"
	"os"

	"github.com/AiWaldoh/a-i-d-a/internal/engine"
)

// Default base URLs for the OpenAI-compatible providers.
const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	ollamaBaseURL     = "http://localhost:11434/v1"
	lmStudioBaseURL   = "http://localhost:1234/v1"
)

// NewClient creates an engine.LLMClient for the named provider. An empty
// model or base URL falls back to the provider default; the resolved model
// name is returned alongside the client so callers can feed it into the
// engine config.
func NewClient(provider, apiKey, model, baseURL string) (engine.LLMClient, string, error) {
	switch provider {
	case "", "openai":
		if apiKey == "" {
			return nil, "", fmt.Errorf("openai: api key not set")
		}
		if model == "" {
			model = "gpt-4o-mini"
		}

		client, err := NewOpenAIClient(apiKey, model, baseURL)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create OpenAI client: %w", err)
		}
		return client, model, nil

	case "openrouter":
		if apiKey == "" {
			return nil, "", fmt.Errorf("openrouter: api key not set")
		}
		if model == "" {
			model = "openai/gpt-4o-mini"
		}
		if baseURL == "" {
			baseURL = openRouterBaseURL
		}

		client, err := NewOpenAIClient(apiKey, model, baseURL)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create OpenRouter client: %w", err)
		}
		return client, model, nil

	case "anthropic":
		if apiKey == "" {
			return nil, "", fmt.Errorf("anthropic: api key not set")
		}
		if model == "" {
			model = "claude-3-5-sonnet-20241022"
		}

		client, err := NewAnthropicClient(apiKey, model)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create Anthropic client: %w", err)
		}
		return client, model, nil

	case "ollama":
		// Local server, OpenAI-compatible. The API key can be anything.
		if apiKey == "" {
			apiKey = "ollama"
		}
		if model == "" {
			model = "llama3.1"
		}
		if baseURL == "" {
			baseURL = ollamaBaseURL
		}

		client, err := NewOpenAIClient(apiKey, model, baseURL)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return client, model, nil

	case "lmstudio":
		if apiKey == "" {
			apiKey = "lm-studio"
		}
		if model == "" {
			model = "local-model"
		}
		if baseURL == "" {
			baseURL = lmStudioBaseURL
		}

		client, err := NewOpenAIClient(apiKey, model, baseURL)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create LM Studio client: %w", err)
		}
		return client, model, nil

	default:
		return nil, "", fmt.Errorf("unknown provider: %s (supported: openai, openrouter, anthropic, ollama, lmstudio)", provider)
	}
}

// NewClientFromEnv creates an engine.LLMClient based on environment
// variables. LLM_PROVIDER selects the provider and defaults to openai;
// each provider reads its own key, model, and base URL variables.
func NewClientFromEnv() (engine.LLMClient, string, error) {
	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		provider = "openai"
	}

	switch provider {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, "", fmt.Errorf("OPENAI_API_KEY not set")
		}
		return NewClient(provider, apiKey, os.Getenv("OPENAI_MODEL"), os.Getenv("OPENAI_BASE_URL"))

	case "openrouter":
		apiKey := os.Getenv("OPENROUTER_API_KEY")
		if apiKey == "" {
			return nil, "", fmt.Errorf("OPENROUTER_API_KEY not set")
		}
		return NewClient(provider, apiKey, os.Getenv("OPENROUTER_MODEL"), os.Getenv("OPENROUTER_BASE_URL"))

	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, "", fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
		return NewClient(provider, apiKey, os.Getenv("ANTHROPIC_MODEL"), "")

	case "ollama":
		return NewClient(provider, os.Getenv("OLLAMA_API_KEY"), os.Getenv("OLLAMA_MODEL"), os.Getenv("OLLAMA_BASE_URL"))

	case "lmstudio":
		return NewClient(provider, os.Getenv("LMSTUDIO_API_KEY"), os.Getenv("LMSTUDIO_MODEL"), os.Getenv("LMSTUDIO_BASE_URL"))

	default:
		return nil, "", fmt.Errorf("unknown LLM_PROVIDER: %s (supported: openai, openrouter, anthropic, ollama, lmstudio)", provider)
	}
}
