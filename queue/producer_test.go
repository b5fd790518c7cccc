package queue

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestProducerEnqueueEmailSend(t *testing.T) {
	enqueuer := &captureEnqueuer{}
	producer, err := NewProducer(enqueuer)
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}

	err = producer.EnqueueEmailSend(context.Background(), EmailSendPayload{
		UserID:  "usr_1",
		To:      "user@example.com",
		Subject: "hi",
		Body:    "body",
	}, "email::evt_1")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if len(enqueuer.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(enqueuer.messages))
	}
	msg := enqueuer.messages[0]
	if msg.Queue != QueueEmail || msg.JobID != JobIDEmailSend {
		t.Fatalf("unexpected routing: %+v", msg)
	}
	if msg.IdempotencyKey != "email::evt_1" || msg.DedupPolicy != DedupIgnore {
		t.Fatalf("unexpected dedup settings: %+v", msg)
	}
	decoded, err := DecodeParameters(msg.Parameters)
	if err != nil {
		t.Fatalf("decode enqueued parameters: %v", err)
	}
	if _, ok := decoded.(EmailSendPayload); !ok {
		t.Fatalf("expected email payload, got %T", decoded)
	}
}

func TestProducerEnqueueEmailRequiresUser(t *testing.T) {
	producer, err := NewProducer(&captureEnqueuer{})
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}
	if err := producer.EnqueueEmailSend(context.Background(), EmailSendPayload{}, ""); err == nil {
		t.Fatalf("expected error for missing user id")
	}
}

func TestProducerCronTriggersUseSlotKeys(t *testing.T) {
	enqueuer := &captureEnqueuer{}
	producer, err := NewProducer(enqueuer)
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}
	slot := time.Date(2026, 8, 1, 6, 0, 0, 0, time.UTC)

	if err := producer.EnqueueTrackingRefresh(context.Background(), slot); err != nil {
		t.Fatalf("tracking trigger: %v", err)
	}
	if err := producer.EnqueueStorageFeeSweep(context.Background(), slot); err != nil {
		t.Fatalf("storage fee trigger: %v", err)
	}
	if len(enqueuer.messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(enqueuer.messages))
	}
	tracking := enqueuer.messages[0]
	if tracking.Queue != QueueTracking || tracking.JobID != JobIDTrackingRefresh {
		t.Fatalf("unexpected tracking routing: %+v", tracking)
	}
	if tracking.IdempotencyKey != "tracking.refresh::2026-08-01T06:00:00Z" {
		t.Fatalf("unexpected slot key: %q", tracking.IdempotencyKey)
	}
	sweep := enqueuer.messages[1]
	if sweep.Queue != QueueStorageFee || sweep.JobID != JobIDStorageFeeSweep {
		t.Fatalf("unexpected sweep routing: %+v", sweep)
	}
}

func TestProducerWrapsEnqueueError(t *testing.T) {
	producer, err := NewProducer(&captureEnqueuer{err: errors.New("broker down")})
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}
	if err := producer.EnqueueTrackingRefresh(context.Background(), time.Now()); err == nil {
		t.Fatalf("expected enqueue error to propagate")
	}
}

func TestNewProducerRequiresEnqueuer(t *testing.T) {
	if _, err := NewProducer(nil); err == nil {
		t.Fatalf("expected error for nil enqueuer")
	}
}
