package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-reship/core"
)

// Job ids as registered with the broker.
const (
	JobIDEmailSend          = "reship.email.send"
	JobIDTrackingRefresh    = "reship.tracking.refresh"
	JobIDNotificationCreate = "reship.notification.create"
	JobIDStorageFeeSweep    = "reship.storage_fee.sweep"
)

// DedupIgnore drops a message whose idempotency key was already accepted.
const DedupIgnore = "ignore"

// Producer routes typed payloads to their home queue through the injected
// enqueuer.
type Producer struct {
	enqueuer core.JobEnqueuer
	logger   core.Logger
}

type ProducerOption func(*Producer)

func WithProducerLogger(logger core.Logger) ProducerOption {
	return func(p *Producer) {
		p.logger = logger
	}
}

func NewProducer(enqueuer core.JobEnqueuer, options ...ProducerOption) (*Producer, error) {
	if enqueuer == nil {
		return nil, fmt.Errorf("queue: enqueuer is required")
	}
	producer := &Producer{
		enqueuer: enqueuer,
		logger:   glog.Ensure(nil),
	}
	for _, opt := range options {
		if opt != nil {
			opt(producer)
		}
	}
	return producer, nil
}

func (p *Producer) EnqueueEmailSend(ctx context.Context, payload EmailSendPayload, idempotencyKey string) error {
	if strings.TrimSpace(payload.UserID) == "" {
		return fmt.Errorf("queue: email payload requires a user id")
	}
	return p.enqueue(ctx, JobIDEmailSend, payload, idempotencyKey)
}

func (p *Producer) EnqueueNotificationCreate(ctx context.Context, payload NotificationCreatePayload, idempotencyKey string) error {
	if strings.TrimSpace(payload.UserID) == "" {
		return fmt.Errorf("queue: notification payload requires a user id")
	}
	return p.enqueue(ctx, JobIDNotificationCreate, payload, idempotencyKey)
}

// EnqueueTrackingRefresh emits the six-hourly tracking trigger. The
// idempotency key is derived from the schedule slot so overlapping
// schedulers collapse to one job.
func (p *Producer) EnqueueTrackingRefresh(ctx context.Context, firedAt time.Time) error {
	firedAt = firedAt.UTC()
	payload := TrackingRefreshPayload{FiredAt: firedAt}
	return p.enqueue(ctx, JobIDTrackingRefresh, payload, slotKey(KindTrackingRefresh, firedAt))
}

// EnqueueStorageFeeSweep emits the daily storage-fee trigger.
func (p *Producer) EnqueueStorageFeeSweep(ctx context.Context, assessAt time.Time) error {
	assessAt = assessAt.UTC()
	payload := StorageFeeSweepPayload{AssessAt: assessAt}
	return p.enqueue(ctx, JobIDStorageFeeSweep, payload, slotKey(KindStorageFeeSweep, assessAt))
}

func (p *Producer) enqueue(ctx context.Context, jobID string, payload Payload, idempotencyKey string) error {
	if p == nil || p.enqueuer == nil {
		return fmt.Errorf("queue: producer is not configured")
	}
	queueName, err := QueueForKind(payload.Kind())
	if err != nil {
		return err
	}
	params, err := EncodeParameters(payload)
	if err != nil {
		return err
	}
	msg := &core.JobExecutionMessage{
		JobID:          jobID,
		Queue:          queueName,
		Parameters:     params,
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
		DedupPolicy:    DedupIgnore,
	}
	if err := p.enqueuer.Enqueue(ctx, msg); err != nil {
		return fmt.Errorf("queue: enqueue %s on %q failed: %w", jobID, queueName, err)
	}
	p.logger.Info("job enqueued", "job_id", jobID, "queue", queueName, "idempotency_key", msg.IdempotencyKey)
	return nil
}

func slotKey(kind string, at time.Time) string {
	return kind + "::" + at.UTC().Format(time.RFC3339)
}
