package chat

import (
	"context"
	"log"

	"github.com/ziadkadry99/threadchat/internal/llm"
)

const (
	defaultMaxTokens   = 1000
	defaultTemperature = 0.7

	// apologyReply replaces an empty model response so the user never
	// receives an empty string.
	apologyReply = "I'm sorry, I wasn't able to come up with a response. Could you rephrase that?"
)

// EngineConfig carries the generation tunables. Zero values fall back to
// defaults.
type EngineConfig struct {
	Model        string
	MaxTokens    int
	Temperature  float64
	HistoryLimit int
	MaxTurnChars int
}

// Engine produces the assistant reply for a composed prompt. A nil provider
// puts the engine in permanent mock mode for its lifetime; this is not
// re-checked per call. No error ever escapes GenerateResponse: every
// failure path terminates in a model reply, a retried reply or a mock
// reply.
type Engine struct {
	provider     llm.Provider
	model        string
	maxTokens    int
	temperature  float64
	historyLimit int
	maxTurnChars int
}

// NewEngine creates an Engine. Pass a nil provider to run in mock mode.
func NewEngine(provider llm.Provider, cfg EngineConfig) *Engine {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if cfg.MaxTurnChars <= 0 {
		cfg.MaxTurnChars = defaultMaxTurnChars
	}
	return &Engine{
		provider:     provider,
		model:        cfg.Model,
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
		historyLimit: cfg.HistoryLimit,
		maxTurnChars: cfg.MaxTurnChars,
	}
}

// MockMode reports whether the engine runs without a generative model.
func (e *Engine) MockMode() bool {
	return e.provider == nil
}

// GenerateResponse returns reply text for the prompt given the thread's
// prior turns. The prompt is always the final user message in the request.
func (e *Engine) GenerateResponse(ctx context.Context, threadID, prompt string, history []Turn) string {
	if e.provider == nil {
		return MockResponse(prompt)
	}

	messages := FormatHistory(history, e.historyLimit, e.maxTurnChars)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})

	if reply, err := e.complete(ctx, messages); err == nil {
		return reply
	} else {
		log.Printf("chat: generation failed for thread %s: %v", threadID, err)
	}

	// Retry once with simplified context: system instruction plus the
	// final user turn only. This recovers from oversized-input rejections.
	simplified := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPersona},
		{Role: llm.RoleUser, Content: prompt},
	}
	if reply, err := e.complete(ctx, simplified); err == nil {
		return reply
	} else {
		log.Printf("chat: simplified retry failed for thread %s: %v", threadID, err)
	}

	return MockResponse(prompt)
}

func (e *Engine) complete(ctx context.Context, messages []llm.Message) (string, error) {
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Model:       e.model,
		Messages:    messages,
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
	})
	if err != nil {
		return "", err
	}
	if resp.Content == "" {
		return apologyReply, nil
	}
	return resp.Content, nil
}
