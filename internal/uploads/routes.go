package uploads

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ziadkadry99/threadchat/internal/auth"
	"github.com/ziadkadry99/threadchat/internal/embedding"
)

// Config controls file ingestion behavior.
type Config struct {
	Dir           string   // directory that receives uploaded files
	MaxSizeMB     int      // per-file size ceiling
	AllowPatterns []string // filename globs accepted for upload
}

// maxEmbedChars bounds how much extracted text is sent for embedding.
const maxEmbedChars = 8000

// Handler serves upload endpoints.
type Handler struct {
	store *Store
	rag   *embedding.Client
	cfg   Config
}

// RegisterRoutes mounts upload endpoints under /api/uploads. All routes
// require authentication.
func RegisterRoutes(r chi.Router, store *Store, rag *embedding.Client, authStore *auth.Store, cfg Config) {
	h := &Handler{store: store, rag: rag, cfg: cfg}

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(authStore))
		r.Route("/api/uploads", func(r chi.Router) {
			r.Post("/", h.handleUpload)
			r.Get("/", h.handleList)
			r.Get("/{id}", h.handleDownload)
		})
	})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(h.cfg.MaxSizeMB) * 1024 * 1024
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "invalid multipart request", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if !MatchesAllowed(filename, h.cfg.AllowPatterns) {
		http.Error(w, fmt.Sprintf("file type not allowed: %s", filename), http.StatusUnsupportedMediaType)
		return
	}

	if err := os.MkdirAll(h.cfg.Dir, 0o755); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	id := uuid.New().String()
	storedPath := filepath.Join(h.cfg.Dir, id+filepath.Ext(filename))
	dst, err := os.Create(storedPath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	size, err := io.Copy(dst, file)
	dst.Close()
	if err != nil {
		os.Remove(storedPath)
		http.Error(w, "storing file failed", http.StatusInternalServerError)
		return
	}

	user := auth.UserFromContext(r.Context())
	upload, err := h.store.Create(r.Context(), Upload{
		ID:          id,
		UserID:      user.ID,
		ThreadID:    r.FormValue("thread_id"),
		Filename:    filename,
		ContentType: header.Header.Get("Content-Type"),
		SizeBytes:   size,
		StoredPath:  storedPath,
	})
	if err != nil {
		os.Remove(storedPath)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Plain-text payloads feed the semantic index; best-effort only.
	h.embedPlainText(r, upload)

	writeJSON(w, http.StatusCreated, upload)
}

// embedPlainText submits the content of .txt/.md uploads for embedding so
// they become retrievable context. Binary formats are skipped here;
// extraction for PDF and DOCX lives outside this service.
func (h *Handler) embedPlainText(r *http.Request, upload *Upload) {
	if !h.rag.Enabled() || !isPlainText(upload.Filename) {
		return
	}

	data, err := os.ReadFile(upload.StoredPath)
	if err != nil {
		log.Printf("uploads: reading %s for embedding: %v", upload.ID, err)
		return
	}
	text := string(data)
	if len(text) > maxEmbedChars {
		text = text[:maxEmbedChars]
	}

	if err := h.rag.CreateEmbedding(r.Context(), upload.UserID, text, upload.ThreadID, ""); err != nil {
		log.Printf("uploads: embedding %s: %v", upload.ID, err)
	}
}

func isPlainText(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md":
		return true
	default:
		return false
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	list, err := h.store.ListByUser(r.Context(), user.ID, r.URL.Query().Get("thread_id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	upload, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	user := auth.UserFromContext(r.Context())
	if upload == nil || (upload.UserID != user.ID && !user.IsAdmin) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", upload.Filename))
	if upload.ContentType != "" {
		w.Header().Set("Content-Type", upload.ContentType)
	}
	http.ServeFile(w, r, upload.StoredPath)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
