package threads

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/threadchat/internal/auth"
	"github.com/ziadkadry99/threadchat/internal/chat"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	Type     string `json:"type"`      // "message"
	ThreadID string `json:"thread_id"` // empty to start a new thread
	Title    string `json:"title,omitempty"`
	Content  string `json:"content"`
}

// wsResponse is the outgoing WebSocket message format.
type wsResponse struct {
	Type         string `json:"type"` // "response" or "error"
	ThreadID     string `json:"thread_id"`
	Content      string `json:"content"`
	UsedFallback bool   `json:"used_fallback,omitempty"`
}

func handleWebSocket(store *Store, pipeline *chat.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("threads: websocket upgrade: %v", err)
			return
		}
		defer conn.Close()

		user := auth.UserFromContext(r.Context())

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("threads: websocket read: %v", err)
				}
				return
			}

			var req wsRequest
			if err := json.Unmarshal(msg, &req); err != nil {
				sendError(conn, "", "invalid message format")
				continue
			}

			if req.Type != "message" {
				sendError(conn, req.ThreadID, "unknown message type: "+req.Type)
				continue
			}
			if req.Content == "" {
				sendError(conn, req.ThreadID, "content is required")
				continue
			}

			handleChatMessage(conn, r, store, pipeline, user, req)
		}
	}
}

func handleChatMessage(conn *websocket.Conn, r *http.Request, store *Store, pipeline *chat.Pipeline, user *auth.User, req wsRequest) {
	ctx := r.Context()

	// Create a new thread if needed.
	var thread *Thread
	if req.ThreadID == "" {
		created, err := store.CreateThread(ctx, user.ID, req.Title)
		if err != nil {
			sendError(conn, "", "failed to create thread: "+err.Error())
			return
		}
		thread = created
	} else {
		existing, err := store.GetThread(ctx, req.ThreadID)
		if err != nil {
			sendError(conn, req.ThreadID, "loading thread: "+err.Error())
			return
		}
		if existing == nil || existing.UserID != user.ID {
			sendError(conn, req.ThreadID, "thread not found")
			return
		}
		thread = existing
	}

	_, replyMsg, err := postUserMessage(ctx, store, pipeline, thread, user, req.Content)
	if err != nil {
		sendError(conn, thread.ID, "processing failed: "+err.Error())
		return
	}

	sendResponse(conn, wsResponse{
		Type:         "response",
		ThreadID:     thread.ID,
		Content:      replyMsg.Content,
		UsedFallback: replyMsg.UsedFallback,
	})
}

func sendResponse(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("threads: websocket write: %v", err)
	}
}

func sendError(conn *websocket.Conn, threadID, message string) {
	resp := wsResponse{
		Type:     "error",
		ThreadID: threadID,
		Content:  message,
	}
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("threads: websocket write error: %v", err)
	}
}
