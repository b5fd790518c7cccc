package queue

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-reship/core"
)

// LoggingHook reports worker lifecycle transitions through the structured
// logger.
type LoggingHook struct {
	logger core.Logger
}

func NewLoggingHook(logger core.Logger) *LoggingHook {
	return &LoggingHook{logger: glog.Ensure(logger)}
}

func (h *LoggingHook) OnStart(ctx context.Context, event core.JobWorkerEvent) {
	h.log(ctx, "job started", event, false)
}

func (h *LoggingHook) OnSuccess(ctx context.Context, event core.JobWorkerEvent) {
	h.log(ctx, "job succeeded", event, false)
}

func (h *LoggingHook) OnFailure(ctx context.Context, event core.JobWorkerEvent) {
	h.log(ctx, "job failed", event, true)
}

func (h *LoggingHook) OnRetry(ctx context.Context, event core.JobWorkerEvent) {
	h.log(ctx, "job scheduled for retry", event, true)
}

func (h *LoggingHook) log(ctx context.Context, message string, event core.JobWorkerEvent, failed bool) {
	if h == nil || h.logger == nil {
		return
	}
	logger := h.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	args := []any{"attempt", event.Attempt}
	if event.Message != nil {
		args = append(args, "job_id", event.Message.JobID, "queue", event.Message.Queue)
	}
	if event.Duration > 0 {
		args = append(args, "duration_ms", event.Duration.Milliseconds())
	}
	if event.Delay > 0 {
		args = append(args, "delay_ms", event.Delay.Milliseconds())
	}
	if event.Err != nil {
		args = append(args, "error", event.Err.Error())
	}
	if failed {
		logger.Error(message, args...)
		return
	}
	logger.Info(message, args...)
}

var _ core.JobWorkerHook = (*LoggingHook)(nil)
