package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ziadkadry99/threadchat/internal/embedding"
	"github.com/ziadkadry99/threadchat/internal/llm"
)

// newRAGServer returns a test server answering /rag-generate with the given
// context string.
func newRAGServer(t *testing.T, ragContext string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rag-generate":
			json.NewEncoder(w).Encode(map[string]any{
				"answer":  "an answer",
				"context": ragContext,
			})
		case "/embed":
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestComposePromptMergesContext(t *testing.T) {
	srv := newRAGServer(t, "X")
	composer := NewComposer(embedding.New(srv.URL))

	prompt := composer.ComposePrompt(context.Background(), "u1", "what about Y?", "t1")

	ctxIdx := strings.Index(prompt, contextLabel)
	queryIdx := strings.Index(prompt, queryLabel)
	if ctxIdx == -1 || queryIdx == -1 {
		t.Fatalf("missing section labels in prompt: %q", prompt)
	}
	if ctxIdx > queryIdx {
		t.Error("context section must precede query section")
	}
	if !strings.Contains(prompt, "X") {
		t.Error("retrieved context missing from prompt")
	}
	if !strings.Contains(prompt, "what about Y?") {
		t.Error("query must appear verbatim in prompt")
	}
}

func TestComposePromptSkipsIneligibleQueries(t *testing.T) {
	srv := newRAGServer(t, "should never be fetched")
	composer := NewComposer(embedding.New(srv.URL))

	for _, query := range []string{"hi", "short", "the deploy finished cleanly today"} {
		if got := composer.ComposePrompt(context.Background(), "u1", query, "t1"); got != query {
			t.Errorf("ComposePrompt(%q) = %q, want unchanged query", query, got)
		}
	}
}

func TestComposePromptFallsBackOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	composer := NewComposer(embedding.New(srv.URL))
	query := "what happened to the nightly sync job?"
	if got := composer.ComposePrompt(context.Background(), "u1", query, "t1"); got != query {
		t.Errorf("expected raw query on retrieval failure, got %q", got)
	}
}

func TestComposePromptIgnoresEmptyContext(t *testing.T) {
	srv := newRAGServer(t, "   ")
	composer := NewComposer(embedding.New(srv.URL))

	query := "what happened to the nightly sync job?"
	if got := composer.ComposePrompt(context.Background(), "u1", query, "t1"); got != query {
		t.Errorf("expected raw query for empty context, got %q", got)
	}
}

func TestFormatHistoryOrderingAndRoles(t *testing.T) {
	base := time.Now().Add(-time.Hour)
	turns := []Turn{
		{Sender: "user", Content: "first", CreatedAt: base},
		{Sender: "ai", Content: "second", CreatedAt: base.Add(time.Minute)},
		{Sender: "user", Content: "third", CreatedAt: base.Add(2 * time.Minute)},
	}

	messages := FormatHistory(turns, 10, 4000)
	if len(messages) != 4 {
		t.Fatalf("expected system + 3 turns, got %d messages", len(messages))
	}
	if messages[0].Role != llm.RoleSystem {
		t.Error("first message must be the system persona")
	}

	wantContents := []string{"first", "second", "third"}
	wantRoles := []llm.Role{llm.RoleUser, llm.RoleAssistant, llm.RoleUser}
	for i, msg := range messages[1:] {
		if msg.Content != wantContents[i] {
			t.Errorf("message %d: got %q, want %q (order must be preserved)", i, msg.Content, wantContents[i])
		}
		if msg.Role != wantRoles[i] {
			t.Errorf("message %d: role %q, want %q", i, msg.Role, wantRoles[i])
		}
	}
}

func TestFormatHistoryCapsTurns(t *testing.T) {
	var turns []Turn
	for i := 0; i < 25; i++ {
		turns = append(turns, Turn{Sender: "user", Content: string(rune('a' + i))})
	}

	messages := FormatHistory(turns, 10, 4000)
	if len(messages) != 11 {
		t.Fatalf("expected system + 10 most recent, got %d", len(messages))
	}
	// The cap keeps the most recent turns.
	if messages[1].Content != string(rune('a'+15)) {
		t.Errorf("expected the 16th turn first after capping, got %q", messages[1].Content)
	}
}

func TestFormatHistoryTruncatesLongTurns(t *testing.T) {
	long := strings.Repeat("x", 5000)
	messages := FormatHistory([]Turn{{Sender: "user", Content: long}}, 10, 4000)

	got := messages[1].Content
	if !strings.HasSuffix(got, truncationMarker) {
		t.Error("expected truncation marker on oversized turn")
	}
	if len(got) != 4000+len(truncationMarker) {
		t.Errorf("unexpected truncated length %d", len(got))
	}
}
