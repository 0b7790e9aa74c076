package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/dispatch/pkg/logging"
)

// Publisher sends dispatch events to the queue. Publishing is best-effort:
// a failure is logged and swallowed so event delivery never blocks or
// fails a dispatch operation.
type Publisher struct {
	queue  Queue
	logger *logging.Logger
}

// NewPublisher creates a Publisher. queue may be nil, which disables
// event publishing entirely.
func NewPublisher(queue Queue, logger *logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{queue: queue, logger: logger}
}

// Publish fills in the event id and timestamp and sends the event.
func (p *Publisher) Publish(ctx context.Context, event DispatchEventV1) {
	if p == nil || p.queue == nil {
		return
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to encode dispatch event", "error", err, "kind", event.Kind)
		return
	}
	if err := p.queue.Send(ctx, string(body)); err != nil {
		p.logger.Error("failed to publish dispatch event",
			"error", err,
			"kind", event.Kind,
			"tracking_id", event.TrackingID,
		)
	}
}

// Decode parses a queue message body back into an event.
func Decode(body string) (DispatchEventV1, error) {
	var event DispatchEventV1
	if err := json.Unmarshal([]byte(body), &event); err != nil {
		return DispatchEventV1{}, fmt.Errorf("events: decode dispatch event: %w", err)
	}
	return event, nil
}
