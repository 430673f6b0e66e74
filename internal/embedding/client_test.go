package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestDisabledClient(t *testing.T) {
	c := New("")

	if c.Enabled() {
		t.Fatal("client with no base URL should be disabled")
	}

	err := c.CreateEmbedding(context.Background(), "u1", "some content", "t1", "m1")
	if err != ErrDisabled {
		t.Errorf("expected ErrDisabled, got %v", err)
	}

	res := c.RAGResponse(context.Background(), "u1", "what is this?", "t1")
	if !res.Degraded() {
		t.Error("expected degraded result from disabled client")
	}
	if res.Answer != DegradedAnswer {
		t.Errorf("unexpected degraded answer: %q", res.Answer)
	}
}

func TestCreateEmbedding(t *testing.T) {
	var got embedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		json.NewEncoder(w).Encode(embedResponse{Status: "ok"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.CreateEmbedding(context.Background(), "u1", "hello world, semantically", "t1", "m1")
	if err != nil {
		t.Fatalf("CreateEmbedding: %v", err)
	}

	if got.UserID != "u1" || got.ThreadID != "t1" || got.MessageID != "m1" {
		t.Errorf("identifiers not forwarded: %+v", got)
	}
	if got.Content != "hello world, semantically" {
		t.Errorf("content not forwarded: %q", got.Content)
	}
}

func TestCreateEmbeddingServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Status: "error", Error: "model overloaded"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.CreateEmbedding(context.Background(), "u1", "content", "", "")
	if err == nil {
		t.Fatal("expected error for error-status response")
	}
}

func TestRAGResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rag-generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(RAGResult{
			Answer:  "vectors capture meaning",
			Context: "past discussion about vectors",
			Matches: []Match{{Content: "vectors", Score: 0.91}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	res := c.RAGResponse(context.Background(), "u1", "what are vectors?", "t1")

	if res.Degraded() {
		t.Fatal("unexpected degraded result")
	}
	if res.Context != "past discussion about vectors" {
		t.Errorf("unexpected context: %q", res.Context)
	}
	if len(res.Matches) != 1 || res.Matches[0].Score != 0.91 {
		t.Errorf("unexpected matches: %+v", res.Matches)
	}
}

func TestRAGResponseDegradesOnFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)
	res := c.RAGResponse(context.Background(), "u1", "what happened?", "")

	if !res.Degraded() {
		t.Error("expected degraded result for 500 response")
	}
	// Best-effort means exactly one attempt, no retry.
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestRAGResponseDegradesOnUnreachable(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url)
	res := c.RAGResponse(context.Background(), "u1", "anyone there?", "")
	if !res.Degraded() {
		t.Error("expected degraded result when service is unreachable")
	}
}
