package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-reship/core"
)

// ParamKeyAttempts carries the zero-based delivery attempt index through
// message parameters across requeues.
const ParamKeyAttempts = "_attempts"

// Handler processes one decoded job payload.
type Handler interface {
	Handle(ctx context.Context, msg *core.JobExecutionMessage, payload Payload) error
}

type HandlerFunc func(ctx context.Context, msg *core.JobExecutionMessage, payload Payload) error

func (f HandlerFunc) Handle(ctx context.Context, msg *core.JobExecutionMessage, payload Payload) error {
	return f(ctx, msg, payload)
}

// Consumer drains one queue: dequeue, decode, handle, ack. Failures are
// nacked with the queue's retry policy backoff until the attempt budget is
// spent, then dead-lettered.
type Consumer struct {
	queue    string
	dequeuer core.JobDequeuer
	handler  Handler
	policy   Policy
	hook     core.JobWorkerHook
	logger   core.Logger
	now      func() time.Time
}

type ConsumerOption func(*Consumer)

func WithConsumerPolicy(policy Policy) ConsumerOption {
	return func(c *Consumer) {
		c.policy = policy
	}
}

func WithConsumerHook(hook core.JobWorkerHook) ConsumerOption {
	return func(c *Consumer) {
		c.hook = hook
	}
}

func WithConsumerLogger(logger core.Logger) ConsumerOption {
	return func(c *Consumer) {
		c.logger = logger
	}
}

func NewConsumer(queueName string, dequeuer core.JobDequeuer, handler Handler, options ...ConsumerOption) (*Consumer, error) {
	queueName = strings.TrimSpace(queueName)
	if queueName == "" {
		return nil, fmt.Errorf("queue: consumer queue name is required")
	}
	if dequeuer == nil {
		return nil, fmt.Errorf("queue: dequeuer is required")
	}
	if handler == nil {
		return nil, fmt.Errorf("queue: handler is required")
	}
	consumer := &Consumer{
		queue:    queueName,
		dequeuer: dequeuer,
		handler:  handler,
		policy:   PolicyFor(queueName),
		logger:   glog.Ensure(nil),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range options {
		if opt != nil {
			opt(consumer)
		}
	}
	return consumer, nil
}

// Run processes deliveries until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("queue: consumer is not configured")
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		delivery, err := c.dequeuer.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			c.logger.Error("dequeue failed", "queue", c.queue, "error", err.Error())
			continue
		}
		if delivery == nil {
			continue
		}
		c.ProcessDelivery(ctx, delivery)
	}
}

// ProcessDelivery handles a single delivery end to end. Exposed so worker
// harnesses can drive the consumer without the blocking loop.
func (c *Consumer) ProcessDelivery(ctx context.Context, delivery core.JobDelivery) {
	msg := delivery.Message()
	if msg == nil {
		if err := delivery.Ack(ctx); err != nil {
			c.logger.Error("ack of empty delivery failed", "queue", c.queue, "error", err.Error())
		}
		return
	}
	attempt := attemptIndex(msg)
	startedAt := c.now()
	c.emit(ctx, hookStart, core.JobWorkerEvent{Message: msg, Attempt: attempt, StartedAt: startedAt})

	payload, err := DecodeParameters(msg.Parameters)
	if err == nil {
		err = c.handler.Handle(ctx, msg, payload)
	}
	duration := c.now().Sub(startedAt)

	if err == nil {
		if ackErr := delivery.Ack(ctx); ackErr != nil {
			c.logger.Error("ack failed", "queue", c.queue, "job_id", msg.JobID, "error", ackErr.Error())
			return
		}
		c.emit(ctx, hookSuccess, core.JobWorkerEvent{
			Message:   msg,
			Attempt:   attempt,
			StartedAt: startedAt,
			Duration:  duration,
		})
		return
	}

	delay := c.policy.BackoffDelay(attempt + 1)
	opts := c.policy.NormalizeNack(core.JobNackOptions{
		Delay:   delay,
		Requeue: true,
		Reason:  err.Error(),
	}, attempt+1)

	event := core.JobWorkerEvent{
		Message:   msg,
		Attempt:   attempt,
		Delay:     opts.Delay,
		Err:       err,
		StartedAt: startedAt,
		Duration:  duration,
	}
	if opts.DeadLetter {
		c.emit(ctx, hookFailure, event)
	} else {
		c.emit(ctx, hookRetry, event)
	}

	bumpAttempt(msg, attempt+1)
	if nackErr := delivery.Nack(ctx, opts); nackErr != nil {
		c.logger.Error("nack failed", "queue", c.queue, "job_id", msg.JobID, "error", nackErr.Error())
	}
}

type hookPhase int

const (
	hookStart hookPhase = iota
	hookSuccess
	hookFailure
	hookRetry
)

func (c *Consumer) emit(ctx context.Context, phase hookPhase, event core.JobWorkerEvent) {
	if c == nil || c.hook == nil {
		return
	}
	switch phase {
	case hookStart:
		c.hook.OnStart(ctx, event)
	case hookSuccess:
		c.hook.OnSuccess(ctx, event)
	case hookFailure:
		c.hook.OnFailure(ctx, event)
	case hookRetry:
		c.hook.OnRetry(ctx, event)
	}
}

func attemptIndex(msg *core.JobExecutionMessage) int {
	if msg == nil || len(msg.Parameters) == 0 {
		return 0
	}
	raw, ok := msg.Parameters[ParamKeyAttempts]
	if !ok {
		return 0
	}
	switch typed := raw.(type) {
	case int:
		if typed > 0 {
			return typed
		}
	case int64:
		if typed > 0 {
			return int(typed)
		}
	case float64:
		if typed > 0 {
			return int(typed)
		}
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(typed))
		if err == nil && parsed > 0 {
			return parsed
		}
	}
	return 0
}

func bumpAttempt(msg *core.JobExecutionMessage, next int) {
	if msg == nil {
		return
	}
	if msg.Parameters == nil {
		msg.Parameters = map[string]any{}
	}
	msg.Parameters[ParamKeyAttempts] = next
}
