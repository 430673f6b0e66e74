package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/threadchat/internal/auth"
	"github.com/ziadkadry99/threadchat/internal/db"
	"github.com/ziadkadry99/threadchat/internal/embedding"
)

func TestMatchesAllowed(t *testing.T) {
	patterns := []string{"*.png", "*.txt", "docs/**/*.md"}

	tests := []struct {
		filename string
		want     bool
	}{
		{"photo.png", true},
		{"notes.txt", true},
		{"docs/guides/setup.md", true},
		{"script.sh", false},
		{"binary.exe", false},
	}
	for _, tt := range tests {
		if got := MatchesAllowed(tt.filename, patterns); got != tt.want {
			t.Errorf("MatchesAllowed(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}

	// Empty patterns allow everything.
	if !MatchesAllowed("anything.bin", nil) {
		t.Error("empty patterns should allow all files")
	}
}

func setupUploadAPI(t *testing.T, ragURL string) (*httptest.Server, string) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	authStore := auth.NewStore(database)
	user, _ := authStore.CreateUser(context.Background(), "u@example.com", "U", false)
	token, _ := authStore.IssueToken(context.Background(), user.ID)

	r := chi.NewRouter()
	RegisterRoutes(r, NewStore(database), embedding.New(ragURL), authStore, Config{
		Dir:           t.TempDir(),
		MaxSizeMB:     5,
		AllowPatterns: []string{"*.txt", "*.md", "*.png"},
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, token
}

func uploadFile(t *testing.T, srv *httptest.Server, token, filename, content string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	io.WriteString(fw, content)
	mw.Close()

	req, _ := http.NewRequest("POST", srv.URL+"/api/uploads", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload request: %v", err)
	}
	return resp
}

func TestUploadAndDownload(t *testing.T) {
	srv, token := setupUploadAPI(t, "")

	resp := uploadFile(t, srv, token, "notes.txt", "meeting notes about the deploy")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload: status %d", resp.StatusCode)
	}
	var up Upload
	json.NewDecoder(resp.Body).Decode(&up)
	resp.Body.Close()

	if up.Filename != "notes.txt" || up.SizeBytes == 0 {
		t.Errorf("unexpected upload record: %+v", up)
	}

	// Download round-trip.
	req, _ := http.NewRequest("GET", srv.URL+"/api/uploads/"+up.ID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "meeting notes about the deploy" {
		t.Errorf("downloaded content mismatch: %q", string(body))
	}
}

func TestUploadRejectsDisallowedType(t *testing.T) {
	srv, token := setupUploadAPI(t, "")

	resp := uploadFile(t, srv, token, "malware.exe", "nope")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("expected 415 for disallowed type, got %d", resp.StatusCode)
	}
}

func TestUploadEmbedsPlainText(t *testing.T) {
	var mu sync.Mutex
	var embedded []string
	rag := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/embed" {
			var body struct {
				Content string `json:"content"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			mu.Lock()
			embedded = append(embedded, body.Content)
			mu.Unlock()
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer rag.Close()

	srv, token := setupUploadAPI(t, rag.URL)

	resp := uploadFile(t, srv, token, "doc.md", "# runbook\nrestart the worker")
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload: status %d", resp.StatusCode)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(embedded) != 1 {
		t.Fatalf("expected 1 embed call, got %d", len(embedded))
	}
	if embedded[0] != "# runbook\nrestart the worker" {
		t.Errorf("embedded content mismatch: %q", embedded[0])
	}
}

func TestUploadSkipsEmbeddingBinaries(t *testing.T) {
	var calls int
	var mu sync.Mutex
	rag := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer rag.Close()

	srv, token := setupUploadAPI(t, rag.URL)

	resp := uploadFile(t, srv, token, "image.png", "\x89PNG fake bytes")
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload: status %d", resp.StatusCode)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Errorf("binary upload should not be embedded, got %d calls", calls)
	}
}
