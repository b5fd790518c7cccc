package gojob

import (
	"context"
	"errors"
	"testing"
	"time"

	job "github.com/goliatone/go-job"
	jobqueue "github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"

	"github.com/goliatone/go-reship/core"
	"github.com/goliatone/go-reship/queue"
)

func TestMessageMappingRoundTrip(t *testing.T) {
	original := &core.JobExecutionMessage{
		JobID:          queue.JobIDEmailSend,
		Queue:          queue.QueueEmail,
		Parameters:     map[string]any{"kind": "email.send"},
		IdempotencyKey: "idem-1",
		DedupPolicy:    "ignore",
	}

	converted := ToExecutionMessage(original)
	if converted == nil {
		t.Fatalf("expected converted message")
	}
	roundTrip := FromExecutionMessage(converted, queue.QueueEmail)
	if roundTrip.JobID != original.JobID {
		t.Fatalf("expected job id %q, got %q", original.JobID, roundTrip.JobID)
	}
	if roundTrip.Queue != queue.QueueEmail {
		t.Fatalf("expected queue %q stamped back, got %q", queue.QueueEmail, roundTrip.Queue)
	}
	if roundTrip.IdempotencyKey != original.IdempotencyKey {
		t.Fatalf("expected idempotency key %q, got %q", original.IdempotencyKey, roundTrip.IdempotencyKey)
	}
	if roundTrip.DedupPolicy != original.DedupPolicy {
		t.Fatalf("expected dedup policy %q, got %q", original.DedupPolicy, roundTrip.DedupPolicy)
	}
	if roundTrip.Parameters["kind"] != "email.send" {
		t.Fatalf("expected parameters to survive mapping")
	}
}

func TestRegistryEnqueuerRoutesByQueue(t *testing.T) {
	ctx := context.Background()
	emailEnqueuer := &stubQueueEnqueuer{}
	trackingEnqueuer := &stubQueueEnqueuer{}
	registry := NewRegistryEnqueuer(map[string]jobqueue.Enqueuer{
		queue.QueueEmail:    emailEnqueuer,
		queue.QueueTracking: trackingEnqueuer,
	})

	if err := registry.Enqueue(ctx, &core.JobExecutionMessage{
		JobID: queue.JobIDEmailSend,
		Queue: queue.QueueEmail,
	}); err != nil {
		t.Fatalf("enqueue email: %v", err)
	}
	if emailEnqueuer.last == nil || emailEnqueuer.last.JobID != queue.JobIDEmailSend {
		t.Fatalf("expected email queue to receive the message")
	}
	if trackingEnqueuer.last != nil {
		t.Fatalf("tracking queue must not receive email messages")
	}

	if err := registry.Enqueue(ctx, &core.JobExecutionMessage{
		JobID: "reship.unknown",
		Queue: "unknown",
	}); err == nil {
		t.Fatalf("expected error for unregistered queue")
	}
}

func TestEnqueueAndDequeueAdapters(t *testing.T) {
	ctx := context.Background()
	enqueuer := &stubQueueEnqueuer{}
	enqueueAdapter := NewEnqueuerAdapter(queue.QueueNotification, enqueuer)

	msg := &core.JobExecutionMessage{
		JobID:          queue.JobIDNotificationCreate,
		Queue:          queue.QueueNotification,
		Parameters:     map[string]any{"kind": "notification.create"},
		IdempotencyKey: "idem-notify",
		DedupPolicy:    "ignore",
	}
	if err := enqueueAdapter.Enqueue(ctx, msg); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if enqueuer.last == nil || enqueuer.last.JobID != queue.JobIDNotificationCreate {
		t.Fatalf("expected mapped go-job message")
	}

	wrongQueue := &core.JobExecutionMessage{
		JobID: queue.JobIDEmailSend,
		Queue: queue.QueueEmail,
	}
	if err := enqueueAdapter.Enqueue(ctx, wrongQueue); err == nil {
		t.Fatalf("expected cross-queue enqueue to fail")
	}

	dequeuer := &stubQueueDequeuer{delivery: &stubQueueDelivery{msg: enqueuer.last}}
	dequeueAdapter := NewDequeuerAdapter(queue.QueueNotification, dequeuer)
	delivery, err := dequeueAdapter.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	got := delivery.Message()
	if got == nil || got.JobID != queue.JobIDNotificationCreate {
		t.Fatalf("expected mapped message")
	}
	if got.Queue != queue.QueueNotification {
		t.Fatalf("expected queue stamped on dequeued message, got %q", got.Queue)
	}
	if err := delivery.Ack(ctx); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if !dequeuer.delivery.(*stubQueueDelivery).acked {
		t.Fatalf("expected ack on underlying delivery")
	}
}

func TestNackEnforcesQueuePolicy(t *testing.T) {
	ctx := context.Background()
	rawDelivery := &stubQueueDelivery{
		msg: &job.ExecutionMessage{JobID: queue.JobIDEmailSend},
	}
	// Email retries up to 3 attempts with a 5 minute delay ceiling.
	adapter := NewDeliveryAdapter(queue.QueueEmail, rawDelivery)

	if err := adapter.NackForAttempt(ctx, core.JobNackOptions{
		Delay:   time.Hour,
		Requeue: true,
		Reason:  "smtp timeout",
	}, 1); err != nil {
		t.Fatalf("nack attempt 1: %v", err)
	}
	if rawDelivery.nackOpts.Delay != 5*time.Minute {
		t.Fatalf("expected delay bounded to 5m, got %s", rawDelivery.nackOpts.Delay)
	}
	if !rawDelivery.nackOpts.Requeue {
		t.Fatalf("expected requeue before max attempts")
	}

	if err := adapter.NackForAttempt(ctx, core.JobNackOptions{
		Delay:   time.Second,
		Requeue: true,
		Reason:  "still failing",
	}, 3); err != nil {
		t.Fatalf("nack max attempt: %v", err)
	}
	if rawDelivery.nackOpts.Requeue {
		t.Fatalf("expected no requeue once max attempts is reached")
	}
	if !rawDelivery.nackOpts.DeadLetter {
		t.Fatalf("expected dead letter on max attempts")
	}
}

func TestWorkerHookAdapterEventMapping(t *testing.T) {
	now := time.Now().UTC().Add(-time.Second)
	coreHook := &capturingHook{}
	adapter := NewWorkerHookAdapter(queue.QueueTracking, coreHook)

	evt := worker.Event{
		Message: &job.ExecutionMessage{
			JobID:          queue.JobIDTrackingRefresh,
			IdempotencyKey: "idem-track",
		},
		Attempt:   2,
		Delay:     5 * time.Second,
		Err:       errors.New("retry"),
		StartedAt: now,
		Duration:  250 * time.Millisecond,
	}

	adapter.OnRetry(context.Background(), evt)
	if coreHook.last.Message == nil {
		t.Fatalf("expected worker message mapping")
	}
	if coreHook.last.Message.JobID != queue.JobIDTrackingRefresh {
		t.Fatalf("expected job id mapping, got %q", coreHook.last.Message.JobID)
	}
	if coreHook.last.Message.Queue != queue.QueueTracking {
		t.Fatalf("expected queue tag on event message, got %q", coreHook.last.Message.Queue)
	}
	if coreHook.last.Attempt != 2 {
		t.Fatalf("expected attempt 2, got %d", coreHook.last.Attempt)
	}
	if coreHook.last.Delay != 5*time.Second {
		t.Fatalf("expected delay 5s, got %s", coreHook.last.Delay)
	}
	if coreHook.last.Err == nil || coreHook.last.Err.Error() != "retry" {
		t.Fatalf("expected error mapping")
	}
}

type stubQueueEnqueuer struct {
	last *job.ExecutionMessage
}

func (s *stubQueueEnqueuer) Enqueue(_ context.Context, msg *job.ExecutionMessage) error {
	s.last = msg
	return nil
}

type stubQueueDequeuer struct {
	delivery jobqueue.Delivery
}

func (s *stubQueueDequeuer) Dequeue(context.Context) (jobqueue.Delivery, error) {
	return s.delivery, nil
}

type stubQueueDelivery struct {
	msg      *job.ExecutionMessage
	acked    bool
	nackOpts jobqueue.NackOptions
}

func (s *stubQueueDelivery) Message() *job.ExecutionMessage {
	return s.msg
}

func (s *stubQueueDelivery) Ack(context.Context) error {
	s.acked = true
	return nil
}

func (s *stubQueueDelivery) Nack(_ context.Context, opts jobqueue.NackOptions) error {
	s.nackOpts = opts
	return nil
}

type capturingHook struct {
	last core.JobWorkerEvent
}

func (h *capturingHook) OnStart(context.Context, core.JobWorkerEvent)   {}
func (h *capturingHook) OnSuccess(context.Context, core.JobWorkerEvent) {}
func (h *capturingHook) OnFailure(context.Context, core.JobWorkerEvent) {}
func (h *capturingHook) OnRetry(_ context.Context, event core.JobWorkerEvent) {
	h.last = event
}
