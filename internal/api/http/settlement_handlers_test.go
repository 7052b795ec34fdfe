package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appSettlement "github.com/settle-hub/settle-hub/internal/application/settlement"
	msgmocks "github.com/settle-hub/settle-hub/internal/domain/message/mocks"
	"github.com/settle-hub/settle-hub/internal/domain/room"
	"github.com/settle-hub/settle-hub/internal/domain/settlement"
	setmocks "github.com/settle-hub/settle-hub/internal/domain/settlement/mocks"
	"github.com/settle-hub/settle-hub/internal/infrastructure/sse"
)

type stubRooms struct {
	host    string
	members []room.Member
}

func (s *stubRooms) ListMembers(context.Context, string) ([]room.Member, error) {
	return s.members, nil
}

func (s *stubRooms) IsHost(_ context.Context, _ string, userID string) (bool, error) {
	return userID == s.host, nil
}

func (s *stubRooms) Account(context.Context, string) (settlement.StoreAccount, error) {
	return settlement.StoreAccount{BankName: "국민은행", AccountNumber: "1", HolderName: "h"}, nil
}

type env struct {
	server *httptest.Server
	store  *setmocks.MockStore
	msgs   *msgmocks.MockStore
}

func newTestEnv(t *testing.T) *env {
	t.Helper()
	store := &setmocks.MockStore{}
	msgs := &msgmocks.MockStore{}
	rooms := &stubRooms{
		host: "A",
		members: []room.Member{
			{UserID: "A", DisplayName: "a", IsHost: true},
			{UserID: "B", DisplayName: "b"},
		},
	}
	hub := sse.NewHub()
	mgr := appSettlement.NewManager(store, msgs, rooms, rooms, hub, 24*time.Hour, zerolog.Nop())
	srv := httptest.NewServer(NewServer(mgr, hub, 16).Router())
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Stop)
	return &env{server: srv, store: store, msgs: msgs}
}

func doRequest(t *testing.T, method, url, userID, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeError(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestStartRequiresIdentity(t *testing.T) {
	e := newTestEnv(t)

	resp := doRequest(t, http.MethodPost, e.server.URL+"/v1/rooms/r1/settlement", "", `{"amount_per_person":5000}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp)["error"])
}

func TestStartRejectsBadBody(t *testing.T) {
	e := newTestEnv(t)

	resp := doRequest(t, http.MethodPost, e.server.URL+"/v1/rooms/r1/settlement", "A", `{"amount_per_person":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_PARAM", decodeError(t, resp)["error"])
}

func TestStartMapsInvalidAmount(t *testing.T) {
	e := newTestEnv(t)

	resp := doRequest(t, http.MethodPost, e.server.URL+"/v1/rooms/r1/settlement", "A", `{"amount_per_person":0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_AMOUNT", decodeError(t, resp)["error"])
}

func TestStartMapsNotHost(t *testing.T) {
	e := newTestEnv(t)

	resp := doRequest(t, http.MethodPost, e.server.URL+"/v1/rooms/r1/settlement", "B", `{"amount_per_person":5000}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "NOT_HOST", decodeError(t, resp)["error"])
}

func TestStartHappyPath(t *testing.T) {
	e := newTestEnv(t)
	e.store.On("GetLatest", mock.Anything, "r1").Return(nil, nil)
	e.store.On("CreateSession", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	e.msgs.On("Create", mock.Anything, mock.Anything).Return(nil)

	resp := doRequest(t, http.MethodPost, e.server.URL+"/v1/rooms/r1/settlement", "A", `{"amount_per_person":5000}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	defer resp.Body.Close()

	var session settlement.Session
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
	assert.Equal(t, "r1", session.RoomID)
	assert.Equal(t, settlement.StatusInProgress, session.Status)
	assert.Equal(t, 2, session.TotalParticipants)
	e.store.AssertExpectations(t)
}

func TestStartMapsConflictWithSnapshot(t *testing.T) {
	e := newTestEnv(t)
	existing := &settlement.Session{
		SessionID:         uuid.New(),
		RoomID:            "r1",
		Status:            settlement.StatusInProgress,
		TotalParticipants: 2,
	}
	e.store.On("GetLatest", mock.Anything, "r1").Return(existing, nil)
	e.store.On("CountCompleted", mock.Anything, existing.SessionID).Return(1, nil)

	resp := doRequest(t, http.MethodPost, e.server.URL+"/v1/rooms/r1/settlement", "A", `{"amount_per_person":5000}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decodeError(t, resp)
	assert.Equal(t, "SESSION_ALREADY_ACTIVE", body["error"])
	snap, ok := body["existing"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, existing.SessionID.String(), snap["sessionId"])
	assert.Equal(t, float64(1), snap["completedCount"])
	assert.Equal(t, float64(2), snap["totalCount"])
}

func TestCompleteMapsNoActiveSession(t *testing.T) {
	e := newTestEnv(t)
	e.store.On("GetActive", mock.Anything, "r1").Return(nil, nil)

	resp := doRequest(t, http.MethodPost, e.server.URL+"/v1/rooms/r1/settlement/complete", "B", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NO_ACTIVE_SESSION", decodeError(t, resp)["error"])
}

func TestCompleteMapsNotParticipant(t *testing.T) {
	e := newTestEnv(t)
	session := &settlement.Session{SessionID: uuid.New(), RoomID: "r1", Status: settlement.StatusInProgress, TotalParticipants: 2}
	e.store.On("GetActive", mock.Anything, "r1").Return(session, nil)
	e.store.On("GetParticipant", mock.Anything, session.SessionID, "stranger").Return(nil, nil)

	resp := doRequest(t, http.MethodPost, e.server.URL+"/v1/rooms/r1/settlement/complete", "stranger", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "NOT_PARTICIPANT", decodeError(t, resp)["error"])
}

func TestCompleteMapsAlreadyCompleted(t *testing.T) {
	e := newTestEnv(t)
	session := &settlement.Session{SessionID: uuid.New(), RoomID: "r1", Status: settlement.StatusInProgress, TotalParticipants: 2}
	paidAt := time.Now().UTC()
	e.store.On("GetActive", mock.Anything, "r1").Return(session, nil)
	e.store.On("GetParticipant", mock.Anything, session.SessionID, "B").Return(&settlement.ParticipantPayment{
		SessionID: session.SessionID,
		UserID:    "B",
		Status:    settlement.PaymentStatusCompleted,
		PaidAt:    &paidAt,
	}, nil)

	resp := doRequest(t, http.MethodPost, e.server.URL+"/v1/rooms/r1/settlement/complete", "B", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decodeError(t, resp)
	assert.Equal(t, "ALREADY_COMPLETED", body["error"])
	payment, ok := body["payment"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "B", payment["userId"])
}

func TestStatusMapsNotStarted(t *testing.T) {
	e := newTestEnv(t)
	e.store.On("GetLatest", mock.Anything, "r1").Return(nil, nil)

	resp := doRequest(t, http.MethodGet, e.server.URL+"/v1/rooms/r1/settlement", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NO_ACTIVE_SESSION", decodeError(t, resp)["error"])
}

func TestStatusReturnsView(t *testing.T) {
	e := newTestEnv(t)
	session := &settlement.Session{SessionID: uuid.New(), RoomID: "r1", Status: settlement.StatusInProgress, TotalParticipants: 2}
	e.store.On("GetLatest", mock.Anything, "r1").Return(session, nil)
	e.store.On("ListParticipants", mock.Anything, session.SessionID).Return([]*settlement.ParticipantPayment{
		{SessionID: session.SessionID, UserID: "A", IsHost: true, Status: settlement.PaymentStatusCompleted},
		{SessionID: session.SessionID, UserID: "B", Status: settlement.PaymentStatusPending},
	}, nil)
	e.store.On("CountCompleted", mock.Anything, session.SessionID).Return(1, nil)

	resp := doRequest(t, http.MethodGet, e.server.URL+"/v1/rooms/r1/settlement", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	var view appSettlement.SessionView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, 1, view.CompletedCount)
	assert.Equal(t, 1, view.RemainingPending)
	require.Len(t, view.Participants, 2)
}

func TestResetMapsNotHost(t *testing.T) {
	e := newTestEnv(t)
	session := &settlement.Session{SessionID: uuid.New(), RoomID: "r1", HostID: "A", Status: settlement.StatusCompleted, TotalParticipants: 2}
	e.store.On("GetLatest", mock.Anything, "r1").Return(session, nil)

	resp := doRequest(t, http.MethodDelete, e.server.URL+"/v1/rooms/r1/settlement", "B", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "NOT_HOST", decodeError(t, resp)["error"])
}

func TestResetHappyPath(t *testing.T) {
	e := newTestEnv(t)
	session := &settlement.Session{SessionID: uuid.New(), RoomID: "r1", HostID: "A", Status: settlement.StatusCompleted, TotalParticipants: 2}
	e.store.On("GetLatest", mock.Anything, "r1").Return(session, nil)
	e.store.On("DeleteSession", mock.Anything, session.SessionID).Return(nil)

	resp := doRequest(t, http.MethodDelete, e.server.URL+"/v1/rooms/r1/settlement", "A", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	e.store.AssertExpectations(t)
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t)

	resp := doRequest(t, http.MethodGet, e.server.URL+"/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
