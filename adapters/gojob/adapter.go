package gojob

import (
	"context"
	"fmt"
	"sort"
	"strings"

	job "github.com/goliatone/go-job"
	jobqueue "github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"

	"github.com/goliatone/go-reship/core"
	"github.com/goliatone/go-reship/queue"
)

// ToExecutionMessage maps a go-reship runtime message to go-job. The queue
// name does not travel on the wire message; routing happens in the enqueuer.
func ToExecutionMessage(msg *core.JobExecutionMessage) *job.ExecutionMessage {
	if msg == nil {
		return nil
	}
	return &job.ExecutionMessage{
		JobID:          strings.TrimSpace(msg.JobID),
		Parameters:     copyAnyMap(msg.Parameters),
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
		DedupPolicy:    job.DeduplicationPolicy(strings.TrimSpace(msg.DedupPolicy)),
	}
}

// FromExecutionMessage maps a go-job message into the go-reship contract.
// The queue name is stamped by the consuming side, which knows which broker
// queue the message came off of.
func FromExecutionMessage(msg *job.ExecutionMessage, queueName string) *core.JobExecutionMessage {
	if msg == nil {
		return nil
	}
	return &core.JobExecutionMessage{
		JobID:          strings.TrimSpace(msg.JobID),
		Queue:          strings.TrimSpace(queueName),
		Parameters:     copyAnyMap(msg.Parameters),
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
		DedupPolicy:    strings.TrimSpace(string(msg.DedupPolicy)),
	}
}

// ToNackOptions maps go-reship nack options to go-job.
func ToNackOptions(opts core.JobNackOptions) jobqueue.NackOptions {
	return jobqueue.NackOptions{
		Delay:      opts.Delay,
		Requeue:    opts.Requeue,
		DeadLetter: opts.DeadLetter,
		Reason:     opts.Reason,
	}
}

// FromNackOptions maps go-job nack options to go-reship.
func FromNackOptions(opts jobqueue.NackOptions) core.JobNackOptions {
	return core.JobNackOptions{
		Delay:      opts.Delay,
		Requeue:    opts.Requeue,
		DeadLetter: opts.DeadLetter,
		Reason:     opts.Reason,
	}
}

// RegistryEnqueuer routes messages to a per-queue go-job enqueuer by the
// message's Queue field. One broker enqueuer per fixed pipeline queue.
type RegistryEnqueuer struct {
	enqueuers map[string]jobqueue.Enqueuer
}

func NewRegistryEnqueuer(enqueuers map[string]jobqueue.Enqueuer) *RegistryEnqueuer {
	registry := &RegistryEnqueuer{enqueuers: map[string]jobqueue.Enqueuer{}}
	for name, enqueuer := range enqueuers {
		registry.Register(name, enqueuer)
	}
	return registry
}

func (r *RegistryEnqueuer) Register(queueName string, enqueuer jobqueue.Enqueuer) {
	if r == nil || enqueuer == nil {
		return
	}
	queueName = strings.TrimSpace(queueName)
	if queueName == "" {
		return
	}
	if r.enqueuers == nil {
		r.enqueuers = map[string]jobqueue.Enqueuer{}
	}
	r.enqueuers[queueName] = enqueuer
}

func (r *RegistryEnqueuer) Enqueue(ctx context.Context, msg *core.JobExecutionMessage) error {
	if r == nil || len(r.enqueuers) == 0 {
		return fmt.Errorf("gojob: no queue enqueuers are configured")
	}
	if msg == nil {
		return fmt.Errorf("gojob: execution message is required")
	}
	queueName := strings.TrimSpace(msg.Queue)
	enqueuer, ok := r.enqueuers[queueName]
	if !ok {
		return fmt.Errorf("gojob: queue %q is not registered (have %s)", queueName, strings.Join(r.queueNames(), ", "))
	}
	return enqueuer.Enqueue(ctx, ToExecutionMessage(msg))
}

func (r *RegistryEnqueuer) queueNames() []string {
	names := make([]string, 0, len(r.enqueuers))
	for name := range r.enqueuers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnqueuerAdapter binds a single go-job enqueuer to one pipeline queue.
type EnqueuerAdapter struct {
	queueName string
	enqueuer  jobqueue.Enqueuer
}

func NewEnqueuerAdapter(queueName string, enqueuer jobqueue.Enqueuer) *EnqueuerAdapter {
	return &EnqueuerAdapter{queueName: strings.TrimSpace(queueName), enqueuer: enqueuer}
}

func (a *EnqueuerAdapter) Enqueue(ctx context.Context, msg *core.JobExecutionMessage) error {
	if a == nil || a.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	if msg == nil {
		return fmt.Errorf("gojob: execution message is required")
	}
	if queueName := strings.TrimSpace(msg.Queue); queueName != "" && queueName != a.queueName {
		return fmt.Errorf("gojob: message targets queue %q but enqueuer is bound to %q", queueName, a.queueName)
	}
	return a.enqueuer.Enqueue(ctx, ToExecutionMessage(msg))
}

// DeliveryAdapter wraps a broker delivery and enforces the bound queue's
// retry policy on every nack.
type DeliveryAdapter struct {
	queueName string
	delivery  jobqueue.Delivery
	policy    queue.Policy
}

func NewDeliveryAdapter(queueName string, delivery jobqueue.Delivery) *DeliveryAdapter {
	return &DeliveryAdapter{
		queueName: strings.TrimSpace(queueName),
		delivery:  delivery,
		policy:    queue.PolicyFor(queueName),
	}
}

func (d *DeliveryAdapter) Message() *core.JobExecutionMessage {
	if d == nil || d.delivery == nil {
		return nil
	}
	return FromExecutionMessage(d.delivery.Message(), d.queueName)
}

func (d *DeliveryAdapter) Ack(ctx context.Context) error {
	if d == nil || d.delivery == nil {
		return fmt.Errorf("gojob: delivery is not configured")
	}
	return d.delivery.Ack(ctx)
}

func (d *DeliveryAdapter) Nack(ctx context.Context, opts core.JobNackOptions) error {
	return d.NackForAttempt(ctx, opts, 0)
}

func (d *DeliveryAdapter) NackForAttempt(ctx context.Context, opts core.JobNackOptions, attempt int) error {
	if d == nil || d.delivery == nil {
		return fmt.Errorf("gojob: delivery is not configured")
	}
	normalized := d.policy.NormalizeNack(opts, attempt)
	return d.delivery.Nack(ctx, ToNackOptions(normalized))
}

// DequeuerAdapter surfaces one broker queue as a go-reship dequeuer.
type DequeuerAdapter struct {
	queueName string
	dequeuer  jobqueue.Dequeuer
}

func NewDequeuerAdapter(queueName string, dequeuer jobqueue.Dequeuer) *DequeuerAdapter {
	return &DequeuerAdapter{queueName: strings.TrimSpace(queueName), dequeuer: dequeuer}
}

func (a *DequeuerAdapter) Dequeue(ctx context.Context) (core.JobDelivery, error) {
	if a == nil || a.dequeuer == nil {
		return nil, fmt.Errorf("gojob: dequeuer is not configured")
	}
	delivery, err := a.dequeuer.Dequeue(ctx)
	if err != nil {
		return nil, err
	}
	return NewDeliveryAdapter(a.queueName, delivery), nil
}

// WorkerHookAdapter forwards go-job worker lifecycle events to a go-reship
// hook, tagging events with the queue they were consumed from.
type WorkerHookAdapter struct {
	queueName string
	hook      core.JobWorkerHook
}

func NewWorkerHookAdapter(queueName string, hook core.JobWorkerHook) *WorkerHookAdapter {
	return &WorkerHookAdapter{queueName: strings.TrimSpace(queueName), hook: hook}
}

func (a *WorkerHookAdapter) OnStart(ctx context.Context, event worker.Event) {
	if a == nil || a.hook == nil {
		return
	}
	a.hook.OnStart(ctx, a.mapWorkerEvent(event))
}

func (a *WorkerHookAdapter) OnSuccess(ctx context.Context, event worker.Event) {
	if a == nil || a.hook == nil {
		return
	}
	a.hook.OnSuccess(ctx, a.mapWorkerEvent(event))
}

func (a *WorkerHookAdapter) OnFailure(ctx context.Context, event worker.Event) {
	if a == nil || a.hook == nil {
		return
	}
	a.hook.OnFailure(ctx, a.mapWorkerEvent(event))
}

func (a *WorkerHookAdapter) OnRetry(ctx context.Context, event worker.Event) {
	if a == nil || a.hook == nil {
		return
	}
	a.hook.OnRetry(ctx, a.mapWorkerEvent(event))
}

func (a *WorkerHookAdapter) mapWorkerEvent(event worker.Event) core.JobWorkerEvent {
	message := event.Message
	if message == nil && event.Delivery != nil {
		message = event.Delivery.Message()
	}
	return core.JobWorkerEvent{
		Message:   FromExecutionMessage(message, a.queueName),
		Attempt:   event.Attempt,
		Delay:     event.Delay,
		Err:       event.Err,
		StartedAt: event.StartedAt,
		Duration:  event.Duration,
	}
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

var (
	_ core.JobEnqueuer = (*RegistryEnqueuer)(nil)
	_ core.JobEnqueuer = (*EnqueuerAdapter)(nil)
	_ core.JobDelivery = (*DeliveryAdapter)(nil)
	_ core.JobDequeuer = (*DequeuerAdapter)(nil)
	_ worker.Hook      = (*WorkerHookAdapter)(nil)
)
