package chat

import "strings"

// Canned replies for the deterministic fallback responder.
const (
	mockGreeting     = "Hello! How can I help you today?"
	mockHelp         = "I can help with that. Tell me a bit more about what you're trying to do."
	mockFarewell     = "Goodbye! Feel free to start a new thread any time."
	mockThanks       = "You're welcome!"
	mockNeedDetail   = "Could you give me a bit more detail?"
	mockAcknowledged = "I understand. Could you tell me more so I can give you a proper answer?"
)

// MockResponse is the deterministic last-resort responder used when no
// generative model is configured or every generation attempt failed. It is
// a pure keyword classifier over the lowercased input, safe to call from
// any failure branch.
func MockResponse(input string) string {
	lower := strings.ToLower(strings.TrimSpace(input))
	words := fieldSet(lower)

	switch {
	case words["hi"] || words["hello"] || words["hey"]:
		return mockGreeting
	case strings.Contains(lower, "help"):
		return mockHelp
	case words["bye"] || words["goodbye"]:
		return mockFarewell
	case strings.Contains(lower, "thanks") || strings.Contains(lower, "thank you"):
		return mockThanks
	case len(lower) < 10:
		return mockNeedDetail
	default:
		return mockAcknowledged
	}
}

// fieldSet splits s on whitespace, strips surrounding punctuation, and
// returns the resulting word set.
func fieldSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, f := range strings.Fields(s) {
		set[strings.Trim(f, "!?.,;:")] = true
	}
	return set
}
