package chat

import "strings"

// trivialPhrases are short conversational fillers that never warrant
// semantic enhancement. Matching is whole-string over the normalized input,
// not substring containment. Treat the list as configuration, not law.
var trivialPhrases = []string{
	"hi", "hello", "hey", "yo", "sup",
	"ok", "okay", "k", "test", "ping",
	"how are you", "what's up", "whats up",
	"good morning", "good evening", "good night",
	"thanks", "thank you", "bye", "goodbye",
}

// semanticIndicators mark an input as a question or request worth paying
// for a semantic search. Checked as case-insensitive substrings.
var semanticIndicators = []string{
	"?", "what", "how", "why", "when", "where", "who", "which",
	"can you", "could you", "tell me", "explain", "describe",
	"find", "search", "help me with",
}

// minSemanticLength is the shortest input eligible for semantic search.
const minSemanticLength = 10

// IsTrivial reports whether content is a short greeting-like filler.
// Inputs are trimmed, case-folded and stripped of trailing punctuation, and
// repeated-letter variants ("hii", "heyyy") match their base phrase. Pure
// function, no I/O.
func IsTrivial(content string) bool {
	normalized := normalize(content)
	if normalized == "" {
		return true
	}

	for _, phrase := range trivialPhrases {
		if normalized == phrase {
			return true
		}
	}

	collapsed := collapseRepeats(normalized)
	for _, phrase := range trivialPhrases {
		if collapsed == collapseRepeats(phrase) {
			return true
		}
	}
	return false
}

// ShouldUseSemanticSearch reports whether RAG enhancement should be
// attempted for content. Trivial or very short inputs are excluded; the
// rest qualify only when they contain an interrogative indicator, so purely
// declarative statements don't pay for retrieval.
func ShouldUseSemanticSearch(content string) bool {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) < minSemanticLength {
		return false
	}
	if IsTrivial(trimmed) {
		return false
	}

	lower := strings.ToLower(trimmed)
	for _, indicator := range semanticIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// normalize lowercases, trims whitespace and strips trailing punctuation
// so "HELLO!!" and "hello" compare equal.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimRight(s, "!?. ")
}

// collapseRepeats reduces runs of the same letter to a single letter, so
// "heyyy" and "hey" collapse to the same form.
func collapseRepeats(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune = -1
	for _, r := range s {
		if r != prev {
			b.WriteRune(r)
		}
		prev = r
	}
	return b.String()
}
