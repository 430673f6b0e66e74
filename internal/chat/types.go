package chat

import (
	"time"

	"github.com/ziadkadry99/threadchat/internal/llm"
)

// Turn is one prior message in a thread. The persistence layer supplies
// turns in ascending creation-time order; the pipeline never reorders them.
type Turn struct {
	Sender    string
	Content   string
	CreatedAt time.Time
}

// Role maps the stored sender marker onto the model's role vocabulary.
// Assistant-authored turns may be recorded as "assistant", "ai" or "system"
// depending on which client wrote them; everything else is treated as user.
func (t Turn) Role() llm.Role {
	switch t.Sender {
	case "assistant", "ai", "system":
		return llm.RoleAssistant
	default:
		return llm.RoleUser
	}
}

// Reply is the pipeline's output for one inbound user message.
// UsedFallback is set when the reply was produced on a degraded path so the
// caller can surface a subtle indicator instead of a hard error.
type Reply struct {
	Content      string `json:"content"`
	UsedFallback bool   `json:"used_fallback"`
}
