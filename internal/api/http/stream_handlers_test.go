package httpapi

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appSettlement "github.com/settle-hub/settle-hub/internal/application/settlement"
	"github.com/settle-hub/settle-hub/internal/domain/event"
	msgmocks "github.com/settle-hub/settle-hub/internal/domain/message/mocks"
	setmocks "github.com/settle-hub/settle-hub/internal/domain/settlement/mocks"
	"github.com/settle-hub/settle-hub/internal/infrastructure/sse"
)

// plainWriter hides the Flusher implementation of the underlying recorder,
// like a proxy or middleware whose writer cannot stream.
type plainWriter struct {
	rec *httptest.ResponseRecorder
}

func (w *plainWriter) Header() http.Header         { return w.rec.Header() }
func (w *plainWriter) Write(b []byte) (int, error) { return w.rec.Write(b) }
func (w *plainWriter) WriteHeader(code int)        { w.rec.WriteHeader(code) }

func newStreamServer(t *testing.T) (*Server, *sse.Hub) {
	t.Helper()
	hub := sse.NewHub()
	t.Cleanup(hub.Stop)
	mgr := appSettlement.NewManager(&setmocks.MockStore{}, &msgmocks.MockStore{}, nil, nil, hub, 24*time.Hour, zerolog.Nop())
	return NewServer(mgr, hub, 16), hub
}

func TestStreamRejectsNonFlushingWriter(t *testing.T) {
	srv, hub := newStreamServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/rooms/r1/events", nil)
	srv.Router().ServeHTTP(&plainWriter{rec: rec}, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	assert.Equal(t, 0, hub.CountByRoom("r1"), "a rejected stream must not stay subscribed")
}

func TestStreamDeliversRoomEvents(t *testing.T) {
	srv, hub := newStreamServer(t)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/v1/rooms/r1/events?client_id=c1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	require.Eventually(t, func() bool { return hub.CountByRoom("r1") == 1 }, time.Second, 10*time.Millisecond)
	sid := uuid.New()
	require.NoError(t, hub.Publish(ctx, "r1", event.PaymentFullyCompleted, event.PaymentFullyCompletedPayload{SessionID: sid}))

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: paymentFullyCompleted\n", line)

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"paymentFullyCompleted"`)
	assert.Contains(t, line, `"session_id":"`+sid.String()+`"`)
}
