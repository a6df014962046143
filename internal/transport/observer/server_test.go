package observer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ereea.space/internal/observerproto"
	"ereea.space/internal/transport/hub"
)

type fakeWorld struct{}

func (fakeWorld) Bootstrap() observerproto.BootstrapResponse {
	return observerproto.BootstrapResponse{ProtocolVersion: observerproto.Version, RunID: "r1", MapSize: 20}
}

func (fakeWorld) RobotKnowledge(_ context.Context, id uint64) ([][]bool, error) {
	if id != 1 {
		return nil, errors.New("robot not found")
	}
	return [][]bool{{true, false}, {false, true}}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, chan observerproto.StateMsg, *hub.Hub) {
	t.Helper()
	h := hub.New(8, nil)
	in := make(chan observerproto.StateMsg)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = h.Run(ctx, in) }()

	s := NewServer(fakeWorld{}, h, nil)
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/observer", s.WSHandler())
	mux.HandleFunc("/admin/v1/observer/bootstrap", s.BootstrapHandler())
	mux.HandleFunc("/admin/v1/observer/knowledge", s.KnowledgeHandler())
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv, in, h
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/observer"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestWS_SubscribeThenStream(t *testing.T) {
	srv, in, h := newTestServer(t)
	conn := dial(t, srv)
	require.NoError(t, conn.WriteJSON(observerproto.SubscribeMsg{
		Type: observerproto.TypeSubscribe, ProtocolVersion: observerproto.Version,
	}))

	require.Eventually(t, func() bool { return h.Stats().Observers == 1 }, 2*time.Second, 10*time.Millisecond)
	in <- observerproto.StateMsg{Type: observerproto.TypeState, Iteration: 42}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var st observerproto.StateMsg
	require.NoError(t, conn.ReadJSON(&st))
	assert.Equal(t, uint64(42), st.Iteration)

	_ = conn.Close()
	require.Eventually(t, func() bool { return h.Stats().Observers == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWS_RejectsBadHandshake(t *testing.T) {
	srv, _, h := newTestServer(t)
	conn := dial(t, srv)
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "HELLO", "protocol_version": "1.0"}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	var ce *websocket.CloseError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, websocket.ClosePolicyViolation, ce.Code)
	assert.Equal(t, uint64(0), h.Stats().Joined)
}

func TestBootstrapAndKnowledge(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/admin/v1/observer/bootstrap")
	require.NoError(t, err)
	defer resp.Body.Close()
	var boot observerproto.BootstrapResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&boot))
	assert.Equal(t, "r1", boot.RunID)
	assert.Equal(t, 20, boot.MapSize)

	resp2, err := http.Get(srv.URL + "/admin/v1/observer/knowledge?id=1")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var mask [][]bool
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&mask))
	assert.Equal(t, [][]bool{{true, false}, {false, true}}, mask)

	for q, code := range map[string]int{"id=x": http.StatusBadRequest, "id=9": http.StatusNotFound} {
		r, err := http.Get(srv.URL + "/admin/v1/observer/knowledge?" + q)
		require.NoError(t, err)
		r.Body.Close()
		assert.Equal(t, code, r.StatusCode, q)
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	assert.True(t, isLoopbackRemote("127.0.0.1:5555"))
	assert.True(t, isLoopbackRemote("[::1]:5555"))
	assert.False(t, isLoopbackRemote("10.0.0.3:5555"))
	assert.False(t, isLoopbackRemote("garbage"))
}
