package realtime

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single write to a peer.
	writeWait = 10 * time.Second
	// pongWait is how long we tolerate silence before assuming the peer
	// is gone. Server pings go out at pingPeriod, well inside pongWait.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// Clients only ever send small keepalive frames.
	maxMessageSize = 512
	// sendBuffer is the per-client outbound queue; a client that falls
	// this far behind is disconnected by the hub.
	sendBuffer = 64
)

// Client is one websocket subscription to one room. A user with two tabs
// open holds two clients.
//
// Channel ownership: the hub closes send when it drops the client, so
// nothing but the hub may ever close it and nothing but writePump may
// drain it. readPump never touches send; keepalive replies travel over
// pings, which is owned by the client and never closed, so a frame
// arriving while the hub is dropping the client cannot hit a closed
// channel.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	pings  chan struct{}
	roomID uint64
	userID uint64
}

// clientFrame is the only message shape clients are allowed to send.
type clientFrame struct {
	Type string `json:"type"`
}

// readPump consumes frames from the peer until the connection dies. The
// only application frame it honours is {"type":"ping"}, answered with a
// pong event; everything else is ignored. It also refreshes the read
// deadline on protocol-level pongs.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var frame clientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}
		if frame.Type == "ping" {
			_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
			// Signal writePump instead of enqueueing the reply here; see
			// the channel ownership note on Client.
			select {
			case c.pings <- struct{}{}:
			default:
			}
		}
	}
}

// writePump drains the send channel to the peer and keeps the connection
// alive with periodic pings. When the hub closes the send channel the
// pump sends a close frame and exits.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.pings:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			pong, _ := json.Marshal(Message{
				Event:   "pong",
				Payload: map[string]int64{"t": time.Now().UnixMilli()},
			})
			if err := c.conn.WriteMessage(websocket.TextMessage, pong); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
