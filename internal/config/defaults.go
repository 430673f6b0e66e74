package config

// defaultModels maps each provider to its default chat model.
var defaultModels = map[ProviderType]string{
	ProviderAnthropic: "claude-sonnet-4-5-20250929",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderOllama:    "llama3",
}

// DefaultAllowPatterns are the upload filename globs accepted by default.
var DefaultAllowPatterns = []string{
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp",
	"*.pdf", "*.docx", "*.txt", "*.md",
}

// DefaultConfig returns a Config with sensible defaults. The RAG service
// URL is empty by default, which leaves the semantic-enhancement path
// disabled until one is configured.
func DefaultConfig() *Config {
	return &Config{
		Port:              8080,
		DataDir:           ".threadchat",
		Provider:          ProviderOpenAI,
		Model:             defaultModels[ProviderOpenAI],
		RAGServiceURL:     "",
		RequestsPerMinute: 60,
		Pipeline: PipelineConfig{
			HistoryLimit: 10,
			MaxTurnChars: 4000,
			MaxTokens:    1000,
			Temperature:  0.7,
		},
		Uploads: UploadConfig{
			MaxSizeMB:     20,
			AllowPatterns: DefaultAllowPatterns,
		},
	}
}

// DefaultModel returns the default chat model for the given provider.
func DefaultModel(provider ProviderType) string {
	return defaultModels[provider]
}

// APIKeyEnvVar returns the environment variable holding the API key for
// the given provider, or "" for providers that need none.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}
