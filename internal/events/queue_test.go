package events

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/clinicore/dispatch/pkg/logging"
)

func TestMemoryQueueRoundTrip(t *testing.T) {
	q := NewMemoryQueue(4)
	ctx := context.Background()

	if err := q.Send(ctx, "one"); err != nil {
		t.Fatal(err)
	}
	if err := q.Send(ctx, "two"); err != nil {
		t.Fatal(err)
	}

	messages, err := q.Receive(ctx, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Body != "one" || messages[1].Body != "two" {
		t.Errorf("messages out of order: %+v", messages)
	}
}

func TestMemoryQueueReceiveTimeout(t *testing.T) {
	q := NewMemoryQueue(1)

	start := time.Now()
	messages, err := q.Receive(context.Background(), 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if messages != nil {
		t.Errorf("expected nil on timeout, got %+v", messages)
	}
	if time.Since(start) < 900*time.Millisecond {
		t.Error("receive returned before the wait elapsed")
	}
}

func TestMemoryQueueReceiveCancellation(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := q.Receive(ctx, 1, 0); err == nil {
		t.Error("expected context error")
	}
}

func TestPublisherRoundTrip(t *testing.T) {
	q := NewMemoryQueue(4)
	pub := NewPublisher(q, logging.Default())
	ctx := context.Background()

	pub.Publish(ctx, DispatchEventV1{
		Kind:       KindRequestCreated,
		TrackingID: "EMG-TEST1",
		Level:      "CRITICAL",
		To:         "Dispatched",
	})

	messages, err := q.Receive(ctx, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	event, err := Decode(messages[0].Body)
	if err != nil {
		t.Fatal(err)
	}
	if event.EventID == "" || event.OccurredAt.IsZero() {
		t.Error("publisher should stamp event id and timestamp")
	}
	if event.TrackingID != "EMG-TEST1" || event.Kind != KindRequestCreated {
		t.Errorf("unexpected event: %+v", event)
	}
}

func TestNilPublisherIsNoOp(t *testing.T) {
	var pub *Publisher
	pub.Publish(context.Background(), DispatchEventV1{Kind: KindRequestCreated})

	pub = NewPublisher(nil, logging.Default())
	pub.Publish(context.Background(), DispatchEventV1{Kind: KindRequestCreated})
}

type countingMetrics struct {
	count atomic.Int64
}

func (m *countingMetrics) ObserveEvent(kind string) { m.count.Add(1) }

func TestNotifierConsumesEvents(t *testing.T) {
	q := NewMemoryQueue(4)
	pub := NewPublisher(q, logging.Default())
	metrics := &countingMetrics{}
	notifier := NewNotifier(q, metrics, logging.Default())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		notifier.Run(ctx)
		close(done)
	}()

	pub.Publish(ctx, DispatchEventV1{Kind: KindRequestCreated, TrackingID: "EMG-A"})
	pub.Publish(ctx, DispatchEventV1{Kind: KindRequestTransitioned, TrackingID: "EMG-A", To: "Cancelled"})

	deadline := time.After(2 * time.Second)
	for metrics.count.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("notifier consumed %d events, want 2", metrics.count.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier did not stop on cancellation")
	}
}

func TestNotifierDropsMalformedEvents(t *testing.T) {
	q := NewMemoryQueue(4)
	notifier := NewNotifier(q, nil, logging.Default())
	ctx := context.Background()

	if err := q.Send(ctx, "not json"); err != nil {
		t.Fatal(err)
	}
	messages, err := q.Receive(ctx, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	// handle must not panic and must delete the message.
	notifier.handle(ctx, messages[0])
}
