package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appSettlement "github.com/settle-hub/settle-hub/internal/application/settlement"
	"github.com/settle-hub/settle-hub/internal/infrastructure/sse"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	settlementSvc *appSettlement.Manager
	sseHub        *sse.Hub
	clientBuffer  int
}

func NewServer(settlementSvc *appSettlement.Manager, sseHub *sse.Hub, clientBuffer int) *Server {
	return &Server{
		settlementSvc: settlementSvc,
		sseHub:        sseHub,
		clientBuffer:  clientBuffer,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/rooms/{roomId}", func(r chi.Router) {
			// The SSE stream cannot live under a request timeout.
			r.Get("/events", s.streamEvents)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(30 * time.Second))
				r.Route("/settlement", func(r chi.Router) {
					r.Post("/", s.startSettlement)
					r.Get("/", s.settlementStatus)
					r.Delete("/", s.resetSettlement)
					r.Post("/complete", s.completePayment)
				})
			})
		})
	})

	return r
}

// Helpers
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// callerID resolves the acting user. Authentication happens upstream; the
// gateway forwards the verified identity in X-User-ID.
func callerID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}
