package command

import (
	"context"
	"time"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-reship/core"
)

// MutatingService is the slice of the pipeline service that commands drive.
type MutatingService interface {
	ProcessPaymentEvent(ctx context.Context, event core.PaymentEvent) (core.PaymentEventResult, error)
	DispatchOutbox(ctx context.Context, batchSize int) (core.DispatchStats, error)
	CreateNotification(ctx context.Context, in core.CreateNotificationInput) (core.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) (core.Notification, error)
	ClearNotifications(ctx context.Context, userID string) (int, error)
	RefreshTracking(ctx context.Context) (core.TrackingRefreshStats, error)
	RunStorageFeeSweep(ctx context.Context, now time.Time) (core.StorageFeeSweepStats, error)
}

type ProcessPaymentEventCommand struct {
	service MutatingService
}

func NewProcessPaymentEventCommand(service MutatingService) *ProcessPaymentEventCommand {
	return &ProcessPaymentEventCommand{service: service}
}

func (c *ProcessPaymentEventCommand) Execute(ctx context.Context, msg ProcessPaymentEventMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: payment event service is required")
	}
	out, err := c.service.ProcessPaymentEvent(ctx, msg.Event)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DispatchOutboxCommand struct {
	service MutatingService
}

func NewDispatchOutboxCommand(service MutatingService) *DispatchOutboxCommand {
	return &DispatchOutboxCommand{service: service}
}

func (c *DispatchOutboxCommand) Execute(ctx context.Context, msg DispatchOutboxMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: outbox service is required")
	}
	out, err := c.service.DispatchOutbox(ctx, msg.BatchSize)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CreateNotificationCommand struct {
	service MutatingService
}

func NewCreateNotificationCommand(service MutatingService) *CreateNotificationCommand {
	return &CreateNotificationCommand{service: service}
}

func (c *CreateNotificationCommand) Execute(ctx context.Context, msg CreateNotificationMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: notification service is required")
	}
	out, err := c.service.CreateNotification(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type MarkNotificationReadCommand struct {
	service MutatingService
}

func NewMarkNotificationReadCommand(service MutatingService) *MarkNotificationReadCommand {
	return &MarkNotificationReadCommand{service: service}
}

func (c *MarkNotificationReadCommand) Execute(ctx context.Context, msg MarkNotificationReadMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: notification service is required")
	}
	out, err := c.service.MarkNotificationRead(ctx, msg.NotificationID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ClearNotificationsCommand struct {
	service MutatingService
}

func NewClearNotificationsCommand(service MutatingService) *ClearNotificationsCommand {
	return &ClearNotificationsCommand{service: service}
}

func (c *ClearNotificationsCommand) Execute(ctx context.Context, msg ClearNotificationsMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: notification service is required")
	}
	out, err := c.service.ClearNotifications(ctx, msg.UserID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RefreshTrackingCommand struct {
	service MutatingService
}

func NewRefreshTrackingCommand(service MutatingService) *RefreshTrackingCommand {
	return &RefreshTrackingCommand{service: service}
}

func (c *RefreshTrackingCommand) Execute(ctx context.Context, _ RefreshTrackingMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: tracking service is required")
	}
	out, err := c.service.RefreshTracking(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RunStorageFeeSweepCommand struct {
	service MutatingService
}

func NewRunStorageFeeSweepCommand(service MutatingService) *RunStorageFeeSweepCommand {
	return &RunStorageFeeSweepCommand{service: service}
}

func (c *RunStorageFeeSweepCommand) Execute(ctx context.Context, msg RunStorageFeeSweepMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: storage fee service is required")
	}
	assessAt := msg.AssessAt
	if assessAt.IsZero() {
		assessAt = time.Now().UTC()
	}
	out, err := c.service.RunStorageFeeSweep(ctx, assessAt)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
