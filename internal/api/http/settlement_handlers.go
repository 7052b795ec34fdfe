package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	appSettlement "github.com/settle-hub/settle-hub/internal/application/settlement"
	"github.com/settle-hub/settle-hub/internal/domain/settlement"
)

type startSettlementRequest struct {
	AmountPerPerson int64 `json:"amount_per_person"`
}

func (s *Server) startSettlement(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	caller := callerID(r)
	if caller == "" {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing X-User-ID")
		return
	}

	var req startSettlementRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}

	session, err := s.settlementSvc.Start(r.Context(), appSettlement.StartInput{
		RoomID:          roomID,
		CallerID:        caller,
		AmountPerPerson: req.AmountPerPerson,
	})
	if err != nil {
		s.respondSettlementError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) completePayment(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	caller := callerID(r)
	if caller == "" {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing X-User-ID")
		return
	}

	result, err := s.settlementSvc.Complete(r.Context(), roomID, caller)
	if err != nil {
		s.respondSettlementError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) settlementStatus(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")

	view, err := s.settlementSvc.Status(r.Context(), roomID)
	if err != nil {
		s.respondSettlementError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) resetSettlement(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	caller := callerID(r)
	if caller == "" {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing X-User-ID")
		return
	}

	if err := s.settlementSvc.Reset(r.Context(), roomID, caller); err != nil {
		s.respondSettlementError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// respondSettlementError maps domain error kinds onto HTTP responses.
// Conflict responses carry their snapshots so clients can branch instead of
// retrying blindly.
func (s *Server) respondSettlementError(w http.ResponseWriter, err error) {
	var activeErr *settlement.AlreadyActiveError
	if errors.As(err, &activeErr) {
		respondJSON(w, http.StatusConflict, map[string]interface{}{
			"error":    "SESSION_ALREADY_ACTIVE",
			"message":  activeErr.Error(),
			"existing": activeErr.Snapshot,
		})
		return
	}
	var completedErr *settlement.AlreadyCompletedError
	if errors.As(err, &completedErr) {
		respondJSON(w, http.StatusConflict, map[string]interface{}{
			"error":   "ALREADY_COMPLETED",
			"message": completedErr.Error(),
			"payment": completedErr.Payment,
		})
		return
	}

	switch {
	case errors.Is(err, settlement.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, "INVALID_AMOUNT", err.Error())
	case errors.Is(err, settlement.ErrNotHost):
		respondError(w, http.StatusForbidden, "NOT_HOST", err.Error())
	case errors.Is(err, settlement.ErrNotParticipant):
		respondError(w, http.StatusForbidden, "NOT_PARTICIPANT", err.Error())
	case errors.Is(err, settlement.ErrNoActiveSession):
		respondError(w, http.StatusNotFound, "NO_ACTIVE_SESSION", err.Error())
	case errors.Is(err, settlement.ErrNoMembers):
		respondError(w, http.StatusUnprocessableEntity, "NO_MEMBERS", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}
