package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/ziadkadry99/threadchat/internal/embedding"
	"github.com/ziadkadry99/threadchat/internal/llm"
)

const (
	contextLabel = "Relevant previous information:"
	queryLabel   = "Current user query:"

	// systemPersona is the fixed instruction prepended to every
	// generation request.
	systemPersona = "You are the assistant for a threaded chat workspace. " +
		"Answer clearly and concisely. When a message includes relevant " +
		"previous information, use it; otherwise answer from the " +
		"conversation alone."

	// defaultHistoryLimit caps how many recent turns are replayed to the model.
	defaultHistoryLimit = 10

	// defaultMaxTurnChars caps one turn's content in the composed prompt.
	defaultMaxTurnChars = 4000

	truncationMarker = "... [truncated]"
)

// Composer builds the enhanced prompt for a user query by merging retrieved
// context with the raw query. Retrieval failures degrade to the raw query;
// they never propagate.
type Composer struct {
	rag *embedding.Client
}

// NewComposer creates a Composer backed by the given embedding client.
func NewComposer(rag *embedding.Client) *Composer {
	return &Composer{rag: rag}
}

// ComposePrompt returns the prompt to hand to the generative model for
// query. Ineligible queries (trivial, short, declarative) pass through
// unchanged. Eligible ones get a labeled context section ahead of a labeled
// query section; the query text itself is always present verbatim.
func (c *Composer) ComposePrompt(ctx context.Context, userID, query, threadID string) string {
	if !ShouldUseSemanticSearch(query) {
		return query
	}

	result := c.rag.RAGResponse(ctx, userID, query, threadID)
	if result.Degraded() || strings.TrimSpace(result.Context) == "" {
		return query
	}

	return fmt.Sprintf("%s\n%s\n\n%s\n%s", contextLabel, result.Context, queryLabel, query)
}

// FormatHistory converts prior turns into role-tagged model messages. The
// most recent limit turns are kept in their original order, each capped at
// maxChars with a truncation marker, behind a leading system persona turn.
func FormatHistory(turns []Turn, limit, maxChars int) []llm.Message {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if maxChars <= 0 {
		maxChars = defaultMaxTurnChars
	}

	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	messages := make([]llm.Message, 0, len(turns)+1)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPersona})

	for _, turn := range turns {
		content := turn.Content
		if len(content) > maxChars {
			content = content[:maxChars] + truncationMarker
		}
		messages = append(messages, llm.Message{Role: turn.Role(), Content: content})
	}
	return messages
}
