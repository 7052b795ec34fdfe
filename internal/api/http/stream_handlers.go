package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/settle-hub/settle-hub/internal/infrastructure/sse"
)

// streamEvents streams room events over SSE. One connection subscribes to
// exactly one room; clients reconnect and re-read status to self-heal after
// any missed events.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "streaming not supported")
		return
	}

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = uuid.NewString()
	}

	client := sse.NewClient(clientID, roomID, s.clientBuffer)
	s.sseHub.Register(client)
	defer s.sseHub.Unregister(clientID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	// Send an initial comment to flush headers and keep the connection alive.
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case env, ok := <-client.Ch:
			if !ok {
				return
			}
			payload, _ := json.Marshal(env)
			_, _ = w.Write([]byte("event: "))
			_, _ = w.Write([]byte(env.Name))
			_, _ = w.Write([]byte("\ndata: "))
			_, _ = w.Write(payload)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}
