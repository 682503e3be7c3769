package event

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/triproom/server/internal/repository"
)

// Broadcaster pushes an event to live room subscribers. Satisfied by
// *realtime.Hub.
type Broadcaster interface {
	Broadcast(roomID uint64, event string, payload interface{})
}

// Publisher forwards an event to the message broker. Satisfied by
// *service.QueuePublisher.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Dispatcher fans one committed mutation out to the three side channels:
// the audit log, the websocket hub and the broker. Every sink is
// best effort; a failure is logged and the remaining sinks still run.
// The one thing Dispatch never does is return an error, so a mutation
// that committed always reports success to its caller.
type Dispatcher struct {
	log     *logrus.Logger
	changes *repository.ChangeLogRepo
	hub     Broadcaster
	pub     Publisher
}

// NewDispatcher wires the sinks. hub and pub may be nil (for example when
// the broker is not configured); nil sinks are skipped.
func NewDispatcher(log *logrus.Logger, changes *repository.ChangeLogRepo, hub Broadcaster, pub Publisher) *Dispatcher {
	return &Dispatcher{log: log, changes: changes, hub: hub, pub: pub}
}

// Dispatch records the event in the audit log, broadcasts it to the room
// and publishes it to the broker. Call it only after the mutation's
// transaction has committed.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) {
	if d.changes != nil {
		var diff *string
		if e.Diff != nil {
			if raw, err := json.Marshal(e.Diff); err == nil {
				s := string(raw)
				diff = &s
			} else {
				d.log.WithError(err).WithField("event", e.Name).Warn("event: marshal diff")
			}
		}
		if err := d.changes.Append(ctx, e.RoomID, e.ActorID, e.EntityType, e.EntityID, e.Action, diff); err != nil {
			d.log.WithError(err).WithFields(logrus.Fields{
				"event":   e.Name,
				"room_id": e.RoomID,
			}).Error("event: append change log")
		}
	}

	if d.hub != nil && e.Payload != nil {
		d.hub.Broadcast(e.RoomID, e.Name, e.Payload)
	}

	if d.pub != nil {
		if err := d.pub.Publish(ctx, e); err != nil {
			d.log.WithError(err).WithFields(logrus.Fields{
				"event":   e.Name,
				"room_id": e.RoomID,
			}).Warn("event: broker publish")
		}
	}
}
