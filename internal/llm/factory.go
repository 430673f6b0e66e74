package llm

import "fmt"

// NewProvider creates an LLM provider. The credential is an API key for
// hosted providers and a base URL for ollama; an empty credential for a
// hosted provider is an error so callers can decide to run without a model.
// Supported provider types: "anthropic", "openai", "ollama".
func NewProvider(providerType, credential, model string) (Provider, error) {
	switch providerType {
	case "anthropic":
		if credential == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		return NewAnthropicProvider(credential, model), nil

	case "openai":
		if credential == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return NewOpenAIProvider(credential, model), nil

	case "ollama":
		if credential == "" {
			credential = "http://localhost:11434"
		}
		return NewOllamaProvider(credential, model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
