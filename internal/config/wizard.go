package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to the given path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to threadchat! Let's configure your server.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"openai", "anthropic", "ollama", "none (fallback responder only)"},
	}
	idx, _, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = []ProviderType{ProviderOpenAI, ProviderAnthropic, ProviderOllama, ProviderNone}[idx]

	// 2. Model.
	if cfg.Provider != ProviderNone {
		modelPrompt := promptui.Prompt{
			Label:   "Chat model",
			Default: DefaultModel(cfg.Provider),
		}
		model, err := modelPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("model prompt: %w", err)
		}
		cfg.Model = model
	} else {
		cfg.Model = ""
	}

	// 3. RAG service URL (optional).
	ragPrompt := promptui.Prompt{
		Label:   "Embedding/RAG service URL (empty to disable semantic enhancement)",
		Default: "",
	}
	ragURL, err := ragPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("RAG URL prompt: %w", err)
	}
	cfg.RAGServiceURL = ragURL

	// 4. Port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port prompt: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, err
	}

	fmt.Println()
	fmt.Printf("Configuration written to %s\n", path)
	if envVar := APIKeyEnvVar(cfg.Provider); envVar != "" {
		fmt.Printf("Remember to set %s before starting the server.\n", envVar)
	}
	fmt.Println("Start the server with: threadchat serve")

	return cfg, nil
}
