package cmd

import (
	"fmt"
	"os"

	"github.com/ziadkadry99/threadchat/internal/config"
	"github.com/ziadkadry99/threadchat/internal/llm"
)

// buildProvider creates the generative provider described by the config,
// wrapped in a rate limiter when requests_per_minute is set. Provider
// "none" yields a nil provider, which the engine treats as permanent
// mock mode.
func buildProvider(cfg *config.Config) (llm.Provider, error) {
	if cfg.Provider == config.ProviderNone {
		return nil, nil
	}

	credential := ""
	switch cfg.Provider {
	case config.ProviderOllama:
		credential = cfg.OllamaHost
	default:
		envVar := config.APIKeyEnvVar(cfg.Provider)
		credential = os.Getenv(envVar)
		if credential == "" {
			return nil, fmt.Errorf("%s is not set (required for provider %q)", envVar, cfg.Provider)
		}
	}

	provider, err := llm.NewProvider(string(cfg.Provider), credential, cfg.Model)
	if err != nil {
		return nil, err
	}

	if cfg.RequestsPerMinute > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.RequestsPerMinute)
	}
	return provider, nil
}
