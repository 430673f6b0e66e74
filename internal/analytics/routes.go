package analytics

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/threadchat/internal/auth"
)

// RegisterRoutes mounts the admin analytics endpoint.
func RegisterRoutes(r chi.Router, store *Store, authStore *auth.Store) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(authStore))
		r.Use(auth.RequireAdmin)
		r.Get("/api/admin/analytics", func(w http.ResponseWriter, req *http.Request) {
			stats, err := store.Stats(req.Context())
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, stats)
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
