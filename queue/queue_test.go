package queue

import (
	"context"
	"time"

	"github.com/goliatone/go-reship/core"
)

type captureEnqueuer struct {
	messages []*core.JobExecutionMessage
	err      error
}

func (c *captureEnqueuer) Enqueue(_ context.Context, msg *core.JobExecutionMessage) error {
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, msg)
	return nil
}

type fakeDelivery struct {
	msg    *core.JobExecutionMessage
	acked  bool
	nacked bool
	nack   core.JobNackOptions
}

func (d *fakeDelivery) Message() *core.JobExecutionMessage { return d.msg }

func (d *fakeDelivery) Ack(context.Context) error {
	d.acked = true
	return nil
}

func (d *fakeDelivery) Nack(_ context.Context, opts core.JobNackOptions) error {
	d.nacked = true
	d.nack = opts
	return nil
}

type captureMailer struct {
	sent []core.EmailMessage
	err  error
}

func (m *captureMailer) Send(_ context.Context, msg core.EmailMessage) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type recordingHook struct {
	starts    int
	successes int
	failures  int
	retries   int
	lastEvent core.JobWorkerEvent
}

func (h *recordingHook) OnStart(_ context.Context, event core.JobWorkerEvent) {
	h.starts++
	h.lastEvent = event
}

func (h *recordingHook) OnSuccess(_ context.Context, event core.JobWorkerEvent) {
	h.successes++
	h.lastEvent = event
}

func (h *recordingHook) OnFailure(_ context.Context, event core.JobWorkerEvent) {
	h.failures++
	h.lastEvent = event
}

func (h *recordingHook) OnRetry(_ context.Context, event core.JobWorkerEvent) {
	h.retries++
	h.lastEvent = event
}

func mustEncode(payload Payload) map[string]any {
	params, err := EncodeParameters(payload)
	if err != nil {
		panic(err)
	}
	return params
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
