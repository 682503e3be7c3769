// Package realtime implements the room fan-out channel: a websocket hub
// that tracks which connections are subscribed to which room and pushes
// mutation events to them. Delivery is strictly best effort: the hub
// never queues for a dead or slow subscriber and never feeds back into the
// mutation path. All subscription state is in memory only; after a
// restart every client must reconnect and re-fetch the room over HTTP to
// reconcile anything it missed.
package realtime

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// Message is the wire envelope for every server->client push.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

type broadcast struct {
	roomID uint64
	data   []byte
}

type kick struct {
	roomID uint64
	userID uint64
}

// Hub owns the room -> subscriber map. The map is touched exclusively by
// the Run goroutine; registrations, broadcasts and kicks arrive over
// channels, so there is no lock and no handler ever mutates shared state
// directly.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcasts chan broadcast
	kicks      chan kick

	rooms map[uint64]map[*Client]bool
	log   *logrus.Logger
}

// NewHub returns a hub ready to Run.
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcasts: make(chan broadcast, 256),
		kicks:      make(chan kick),
		rooms:      make(map[uint64]map[*Client]bool),
		log:        log,
	}
}

// Run processes hub events until the process exits. It must run in its
// own goroutine, started once from main.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			clients, ok := h.rooms[c.roomID]
			if !ok {
				clients = make(map[*Client]bool)
				h.rooms[c.roomID] = clients
			}
			clients[c] = true
			h.log.WithFields(logrus.Fields{"room_id": c.roomID, "user_id": c.userID}).
				Debug("realtime: client subscribed")

		case c := <-h.unregister:
			h.drop(c)

		case b := <-h.broadcasts:
			for c := range h.rooms[b.roomID] {
				select {
				case c.send <- b.data:
				default:
					// Subscriber is too slow to keep up; drop it rather
					// than block or buffer unboundedly. It can reconnect
					// and re-pull state over HTTP.
					h.log.WithFields(logrus.Fields{"room_id": c.roomID, "user_id": c.userID}).
						Warn("realtime: dropping slow subscriber")
					h.drop(c)
				}
			}

		case k := <-h.kicks:
			for c := range h.rooms[k.roomID] {
				if c.userID == k.userID {
					h.drop(c)
				}
			}
		}
	}
}

// drop removes a client from its room and closes its send channel, which
// terminates its write pump. Safe to call twice for the same client.
func (h *Hub) drop(c *Client) {
	clients, ok := h.rooms[c.roomID]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.rooms, c.roomID)
	}
}

// Broadcast sends {event, payload} to every open connection subscribed to
// the room. It never blocks the caller: if the hub's intake buffer is
// full the event is dropped and logged. Errors never propagate to the
// mutation that triggered the event.
func (h *Hub) Broadcast(roomID uint64, event string, payload interface{}) {
	data, err := json.Marshal(Message{Event: event, Payload: payload})
	if err != nil {
		h.log.WithError(err).WithField("event", event).Error("realtime: marshal broadcast")
		return
	}
	select {
	case h.broadcasts <- broadcast{roomID: roomID, data: data}:
	default:
		h.log.WithField("event", event).Warn("realtime: broadcast buffer full, event dropped")
	}
}

// KickUser force-disconnects every connection the user holds in the room.
// Invoked when a member is demoted below the privilege their live
// subscription was granted with; reconnecting re-validates membership.
func (h *Hub) KickUser(roomID, userID uint64) {
	h.kicks <- kick{roomID: roomID, userID: userID}
}
