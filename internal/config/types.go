package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderOllama    ProviderType = "ollama"
	// ProviderNone runs the server without a generative model; every
	// reply comes from the deterministic fallback responder.
	ProviderNone ProviderType = "none"
)

// PipelineConfig holds the response-pipeline tunables.
type PipelineConfig struct {
	HistoryLimit int     `yaml:"history_limit" koanf:"history_limit"`
	MaxTurnChars int     `yaml:"max_turn_chars" koanf:"max_turn_chars"`
	MaxTokens    int     `yaml:"max_tokens" koanf:"max_tokens"`
	Temperature  float64 `yaml:"temperature" koanf:"temperature"`
}

// UploadConfig controls file ingestion.
type UploadConfig struct {
	MaxSizeMB     int      `yaml:"max_size_mb" koanf:"max_size_mb"`
	AllowPatterns []string `yaml:"allow_patterns" koanf:"allow_patterns"`
}

// Config is the top-level threadchat configuration, corresponding to
// .threadchat.yml.
type Config struct {
	Port              int            `yaml:"port" koanf:"port"`
	DataDir           string         `yaml:"data_dir" koanf:"data_dir"`
	Provider          ProviderType   `yaml:"provider" koanf:"provider"`
	Model             string         `yaml:"model" koanf:"model"`
	OllamaHost        string         `yaml:"ollama_host" koanf:"ollama_host"`
	RAGServiceURL     string         `yaml:"rag_service_url" koanf:"rag_service_url"`
	RequestsPerMinute int            `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	Pipeline          PipelineConfig `yaml:"pipeline" koanf:"pipeline"`
	Uploads           UploadConfig   `yaml:"uploads" koanf:"uploads"`
}
