package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrDisabled is returned by CreateEmbedding when the client has no
// configured base URL. Callers treat it like any other best-effort failure.
var ErrDisabled = errors.New("embedding service not configured")

const (
	// DegradedAnswer is the canned answer returned when the RAG service
	// cannot be reached. Callers must treat it as "no enhancement
	// available", never as a hard failure.
	DegradedAnswer = "I'm sorry, I couldn't retrieve any related context right now."

	// DegradedContext marks a RAG result that carries no usable context.
	DegradedContext = "[context unavailable]"

	defaultTimeout = 15 * time.Second
)

// Match is a single retrieved passage with its similarity score.
type Match struct {
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// RAGResult is the answer/context blob returned by the retrieval service
// for one query. It is consumed once to build a prompt and discarded.
type RAGResult struct {
	Answer  string  `json:"answer"`
	Context string  `json:"context"`
	Matches []Match `json:"matches,omitempty"`
}

// Degraded reports whether this result is the canned fallback rather than
// a real retrieval.
func (r RAGResult) Degraded() bool {
	return r.Context == DegradedContext
}

// Client talks to the external embedding/RAG microservice. A Client with no
// base URL is permanently disabled: both operations become no-ops without
// attempting network calls, which makes the whole RAG path opt-in.
//
// The client is safe for concurrent use; it holds no mutable state after
// construction.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the service at baseURL. An empty baseURL yields
// a disabled client.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// Enabled reports whether a base URL was configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

type embedRequest struct {
	UserID    string `json:"userId"`
	ThreadID  string `json:"threadId,omitempty"`
	Content   string `json:"content"`
	MessageID string `json:"messageId,omitempty"`
}

type embedResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// CreateEmbedding submits text for embedding, keyed by user, thread and
// message identifiers. It is best-effort: transport and service failures
// come back as ordinary errors for the caller to log and ignore, and the
// call is never retried.
func (c *Client) CreateEmbedding(ctx context.Context, userID, content, threadID, messageID string) error {
	if !c.Enabled() {
		return ErrDisabled
	}

	resp, err := c.post(ctx, "/embed", embedRequest{
		UserID:    userID,
		ThreadID:  threadID,
		Content:   content,
		MessageID: messageID,
	})
	if err != nil {
		return fmt.Errorf("embed request: %w", err)
	}

	var out embedResponse
	if err := json.Unmarshal(resp, &out); err != nil {
		return fmt.Errorf("decoding embed response: %w", err)
	}
	if out.Status == "error" {
		return fmt.Errorf("embed service: %s", out.Error)
	}
	return nil
}

type ragRequest struct {
	UserID   string `json:"userId"`
	ThreadID string `json:"threadId,omitempty"`
	Query    string `json:"query"`
}

// RAGResponse requests a semantically retrieved answer/context blob for a
// query scoped to a user and optionally a thread. It never returns an
// error: on any failure (disabled client included) it returns the canned
// degraded result so the caller can carry on without enhancement.
func (c *Client) RAGResponse(ctx context.Context, userID, query, threadID string) RAGResult {
	if !c.Enabled() {
		return degradedResult()
	}

	resp, err := c.post(ctx, "/rag-generate", ragRequest{
		UserID:   userID,
		ThreadID: threadID,
		Query:    query,
	})
	if err != nil {
		return degradedResult()
	}

	var out RAGResult
	if err := json.Unmarshal(resp, &out); err != nil {
		return degradedResult()
	}
	return out
}

func degradedResult() RAGResult {
	return RAGResult{Answer: DegradedAnswer, Context: DegradedContext}
}

// post sends a JSON POST and returns the response body. Non-2xx statuses
// are errors.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("service returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
