package threads

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/threadchat/internal/auth"
	"github.com/ziadkadry99/threadchat/internal/chat"
)

// RegisterRoutes mounts thread and message endpoints under /api/threads,
// plus the websocket chat endpoint. All routes require authentication.
func RegisterRoutes(r chi.Router, store *Store, pipeline *chat.Pipeline, authStore *auth.Store) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(authStore))

		r.Route("/api/threads", func(r chi.Router) {
			r.Post("/", handleCreateThread(store))
			r.Get("/", handleListThreads(store))
			r.Get("/{id}", handleGetThread(store))
			r.Delete("/{id}", handleDeleteThread(store))
			r.Get("/{id}/messages", handleListMessages(store))
			r.Post("/{id}/messages", handlePostMessage(store, pipeline))
		})

		r.Get("/api/chat/ws", handleWebSocket(store, pipeline))
	})
}

type createThreadRequest struct {
	Title string `json:"title"`
}

func handleCreateThread(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createThreadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		user := auth.UserFromContext(r.Context())
		thread, err := store.CreateThread(r.Context(), user.ID, req.Title)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, thread)
	}
}

func handleListThreads(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := auth.UserFromContext(r.Context())
		list, err := store.ListThreads(r.Context(), user.ID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleGetThread(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		thread, ok := ownedThread(w, r, store)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, thread)
	}
}

func handleDeleteThread(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		thread, ok := ownedThread(w, r, store)
		if !ok {
			return
		}
		if err := store.DeleteThread(r.Context(), thread.ID); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func handleListMessages(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		thread, ok := ownedThread(w, r, store)
		if !ok {
			return
		}

		messages, err := store.ListMessages(r.Context(), thread.ID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if r.URL.Query().Get("format") == "html" {
			rendered, err := renderMessages(messages)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, rendered)
			return
		}
		writeJSON(w, http.StatusOK, messages)
	}
}

type postMessageRequest struct {
	Content string `json:"content"`
}

type postMessageResponse struct {
	Message Message `json:"message"`
	Reply   Message `json:"reply"`
}

func handlePostMessage(store *Store, pipeline *chat.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		thread, ok := ownedThread(w, r, store)
		if !ok {
			return
		}

		var req postMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Content == "" {
			http.Error(w, "content is required", http.StatusBadRequest)
			return
		}

		user := auth.UserFromContext(r.Context())
		userMsg, replyMsg, err := postUserMessage(r.Context(), store, pipeline, thread, user, req.Content)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, postMessageResponse{Message: *userMsg, Reply: *replyMsg})
	}
}

// postUserMessage runs the full exchange for one inbound message: it loads
// the prior history, persists the user message, runs the response pipeline,
// and persists the assistant reply. Shared by the REST and websocket paths.
func postUserMessage(ctx context.Context, store *Store, pipeline *chat.Pipeline, thread *Thread, user *auth.User, content string) (*Message, *Message, error) {
	// History is captured before the new message so the pipeline sees
	// prior turns only; the current query travels separately.
	history, err := store.History(ctx, thread.ID)
	if err != nil {
		return nil, nil, err
	}

	userMsg, err := store.AppendMessage(ctx, Message{
		ThreadID: thread.ID,
		UserID:   user.ID,
		Sender:   SenderUser,
		Content:  content,
	})
	if err != nil {
		return nil, nil, err
	}

	reply := pipeline.HandleUserMessage(ctx, thread.ID, user.ID, content, history)

	replyMsg, err := store.AppendMessage(ctx, Message{
		ThreadID:     thread.ID,
		Sender:       SenderAssistant,
		Content:      reply.Content,
		UsedFallback: reply.UsedFallback,
	})
	if err != nil {
		return nil, nil, err
	}
	return userMsg, replyMsg, nil
}

// ownedThread loads the thread from the URL and verifies the requester
// owns it. Writes the error response itself when returning ok=false.
func ownedThread(w http.ResponseWriter, r *http.Request, store *Store) (*Thread, bool) {
	id := chi.URLParam(r, "id")
	thread, err := store.GetThread(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	if thread == nil {
		http.Error(w, "thread not found", http.StatusNotFound)
		return nil, false
	}

	user := auth.UserFromContext(r.Context())
	if thread.UserID != user.ID && !user.IsAdmin {
		http.Error(w, "thread not found", http.StatusNotFound)
		return nil, false
	}
	return thread, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
