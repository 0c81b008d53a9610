package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const readWait = 2 * time.Second

func startTestServer(t *testing.T) (*httptest.Server, *Registry) {
	t.Helper()

	cfg := &Config{bind: "127.0.0.1", port: 8000}
	reg := newRegistry(cfg, newTaskCatalog(nil), noopHistory{})

	mux := httprouter.New()
	errs := make(chan error, 64)
	registerRoutes(cfg, reg, errs, mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, reg
}

func createRoom(t *testing.T, srv *httptest.Server) string {
	t.Helper()

	resp, err := http.Get(srv.URL + "/api/create-room")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body["room_code"], roomCodeLength)
	return body["room_code"]
}

func wsDial(t *testing.T, srv *httptest.Server, code, playerID string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + code + "/" + playerID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

func readState(t *testing.T, conn *websocket.Conn) *GameState {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readWait)))
	var msg StateMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, updateStateType, msg.Type)
	return msg.State
}

func sendAction(t *testing.T, conn *websocket.Conn, msg Action) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func TestCreateRoomEndpoint(t *testing.T) {
	srv, reg := startTestServer(t)

	code := createRoom(t, srv)

	_, ok := reg.Lookup(code)
	assert.True(t, ok, "the room is registered before anyone connects")
}

func TestConnectUnknownRoomClosesWith4000(t *testing.T) {
	srv, _ := startTestServer(t)

	conn := wsDial(t, srv, "NOPE", "p1")
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readWait)))

	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, roomNotFoundCode), "got %v", err)
}

func TestJoinFlowBroadcastsState(t *testing.T) {
	srv, _ := startTestServer(t)
	code := createRoom(t, srv)

	c1 := wsDial(t, srv, code, "p1")
	sendAction(t, c1, Action{Action: ActionJoinGame, ID: "p1", Name: "Ana", PlayerID: "p1"})
	state := readState(t, c1)
	assert.Equal(t, "p1", state.HostID)
	require.Len(t, state.Players, 1)
	assert.Equal(t, TeamA, state.Players[0].Team)

	c2 := wsDial(t, srv, code, "p2")
	sendAction(t, c2, Action{Action: ActionJoinGame, ID: "p2", Name: "Bo", PlayerID: "p2"})
	state = readState(t, c2)
	require.Len(t, state.Players, 2)
	assert.Equal(t, TeamB, state.Players[1].Team)
	assert.Equal(t, StatusLobby, state.Status)

	// The first client sees the same second broadcast.
	state = readState(t, c1)
	assert.Len(t, state.Players, 2)
}

func TestEndRoomBroadcastsClosedThenDestroys(t *testing.T) {
	srv, reg := startTestServer(t)
	code := createRoom(t, srv)

	c1 := wsDial(t, srv, code, "p1")
	sendAction(t, c1, Action{Action: ActionJoinGame, ID: "p1", Name: "Ana", PlayerID: "p1"})
	readState(t, c1)

	c2 := wsDial(t, srv, code, "p2")
	sendAction(t, c2, Action{Action: ActionJoinGame, ID: "p2", Name: "Bo", PlayerID: "p2"})
	require.Len(t, readState(t, c2).Players, 2)
	readState(t, c1)

	sendAction(t, c1, Action{Action: ActionEndRoom, PlayerID: "p1"})

	state := readState(t, c1)
	assert.Equal(t, StatusClosed, state.Status)

	assert.Eventually(t, func() bool {
		_, ok := reg.Lookup(code)
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestDisconnectDestroysEmptyRoom(t *testing.T) {
	srv, reg := startTestServer(t)
	code := createRoom(t, srv)

	c1 := wsDial(t, srv, code, "p1")
	sendAction(t, c1, Action{Action: ActionJoinGame, ID: "p1", Name: "Ana", PlayerID: "p1"})
	readState(t, c1)

	require.NoError(t, c1.Close())

	assert.Eventually(t, func() bool {
		_, ok := reg.Lookup(code)
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestRoomQREndpoint(t *testing.T) {
	srv, _ := startTestServer(t)
	code := createRoom(t, srv)

	resp, err := http.Get(srv.URL + "/api/room/" + code + "/qr")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	resp, err = http.Get(srv.URL + "/api/room/XXXX/qr")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthCheck(t *testing.T) {
	srv, _ := startTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
