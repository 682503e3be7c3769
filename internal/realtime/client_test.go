package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// dialTestClient spins up a server that upgrades one connection, wires a
// full Client (both pumps) into the hub, and returns the peer side. The
// returned channel closes once the client is registered.
func dialTestClient(t *testing.T, h *Hub, roomID, userID uint64) (*websocket.Conn, chan struct{}) {
	t.Helper()
	registered := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		c := &Client{
			hub:    h,
			conn:   conn,
			send:   make(chan []byte, sendBuffer),
			pings:  make(chan struct{}, 1),
			roomID: roomID,
			userID: userID,
		}
		h.register <- c
		close(registered)
		go c.writePump()
		go c.readPump()
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	peer, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = peer.Close() })
	return peer, registered
}

func TestKeepalivePingGetsPong(t *testing.T) {
	h := testHub()
	peer, registered := dialTestClient(t, h, 1, 10)
	<-registered

	require.NoError(t, peer.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))

	require.NoError(t, peer.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := peer.ReadMessage()
	require.NoError(t, err)
	require.Contains(t, string(data), `"pong"`)
}

func TestPingWhileBeingKickedDoesNotPanic(t *testing.T) {
	// A keepalive frame can land after the hub has already closed the
	// client's outbound queue. That window must end the connection, never
	// the process.
	h := testHub()
	peer, registered := dialTestClient(t, h, 1, 10)
	<-registered

	h.KickUser(1, 10)
	for i := 0; i < 20; i++ {
		if err := peer.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
			break
		}
	}

	// The server shuts the connection down; reads on the peer side must
	// terminate with a close, not hang.
	require.NoError(t, peer.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := peer.ReadMessage(); err != nil {
			break
		}
	}
}
