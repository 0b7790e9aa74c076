package events

import (
	"context"
	"time"

	"github.com/clinicore/dispatch/pkg/logging"
)

// NotifierMetrics is the metrics surface the notifier reports to.
type NotifierMetrics interface {
	ObserveEvent(kind string)
}

// Notifier drains the dispatch event queue and surfaces each lifecycle
// change to the operational log. It is the single consumer of the queue.
type Notifier struct {
	queue   Queue
	metrics NotifierMetrics
	logger  *logging.Logger
}

// NewNotifier creates a Notifier. metrics may be nil.
func NewNotifier(queue Queue, metrics NotifierMetrics, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &Notifier{queue: queue, metrics: metrics, logger: logger}
}

// Run consumes events until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		messages, err := n.queue.Receive(ctx, 10, 5)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			n.logger.Error("receive dispatch events failed", "error", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		for _, msg := range messages {
			n.handle(ctx, msg)
		}
	}
}

func (n *Notifier) handle(ctx context.Context, msg Message) {
	event, err := Decode(msg.Body)
	if err != nil {
		n.logger.Error("dropping malformed dispatch event", "error", err, "message_id", msg.ID)
		_ = n.queue.Delete(ctx, msg.ReceiptHandle)
		return
	}

	n.logger.Info("dispatch event",
		"kind", event.Kind,
		"tracking_id", event.TrackingID,
		"level", event.Level,
		"from", event.From,
		"to", event.To,
		"ambulance_id", event.AmbulanceID,
	)
	if n.metrics != nil {
		n.metrics.ObserveEvent(event.Kind)
	}

	if err := n.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		n.logger.Error("failed to delete dispatch event", "error", err, "message_id", msg.ID)
	}
}
