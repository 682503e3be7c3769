package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// StartRoomActivityConsumer consumes the room activity queue and appends
// one line per event to logs/activity.log. It reconnects forever with a
// fixed backoff, so a broker restart only pauses the log instead of
// killing the process. Run it in its own goroutine.
func StartRoomActivityConsumer(amqpURL string, log *logrus.Logger) {
	if amqpURL == "" {
		log.Info("queue: AMQP_URL not set, activity consumer disabled")
		return
	}
	for {
		if err := consumeOnce(amqpURL, log); err != nil {
			log.WithError(err).Warn("queue: consumer stopped, reconnecting in 5s")
		}
		time.Sleep(5 * time.Second)
	}
}

func consumeOnce(amqpURL string, log *logrus.Logger) error {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(QueueRoomActivity, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare %s: %w", QueueRoomActivity, err)
	}

	deliveries, err := ch.Consume(QueueRoomActivity, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	log.Info("queue: room activity consumer connected")

	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join("logs", "activity.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open activity log: %w", err)
	}
	defer f.Close()

	for d := range deliveries {
		var ev RoomActivityEvent
		if err := json.Unmarshal(d.Body, &ev); err != nil {
			log.WithError(err).Warn("queue: dropping malformed activity event")
			_ = d.Nack(false, false)
			continue
		}
		line := fmt.Sprintf("%s room=%d event=%s entity=%s action=%s\n",
			ev.OccurredAt.UTC().Format(time.RFC3339), ev.RoomID, ev.Event, ev.EntityType, ev.Action)
		if _, err := f.WriteString(line); err != nil {
			log.WithError(err).Error("queue: write activity log")
			_ = d.Nack(false, true)
			continue
		}
		_ = d.Ack(false)
	}
	return fmt.Errorf("delivery channel closed")
}
