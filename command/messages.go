package command

import (
	"strings"
	"time"

	"github.com/goliatone/go-reship/core"
)

const (
	TypeProcessPaymentEvent  = "reship.command.payment_event.process"
	TypeDispatchOutbox       = "reship.command.outbox.dispatch"
	TypeCreateNotification   = "reship.command.notification.create"
	TypeMarkNotificationRead = "reship.command.notification.mark_read"
	TypeClearNotifications   = "reship.command.notification.clear"
	TypeRefreshTracking      = "reship.command.tracking.refresh"
	TypeRunStorageFeeSweep   = "reship.command.storage_fee.sweep"
)

type ProcessPaymentEventMessage struct {
	Event core.PaymentEvent
}

func (ProcessPaymentEventMessage) Type() string { return TypeProcessPaymentEvent }

func (m ProcessPaymentEventMessage) Validate() error {
	if strings.TrimSpace(m.Event.ID) == "" {
		return commandValidationError("event.id", "payment event id is required")
	}
	if strings.TrimSpace(string(m.Event.Type)) == "" {
		return commandValidationError("event.type", "payment event type is required")
	}
	return nil
}

type DispatchOutboxMessage struct {
	BatchSize int
}

func (DispatchOutboxMessage) Type() string { return TypeDispatchOutbox }

func (m DispatchOutboxMessage) Validate() error {
	if m.BatchSize < 0 {
		return commandValidationError("batch_size", "batch size must be >= 0")
	}
	return nil
}

type CreateNotificationMessage struct {
	Input core.CreateNotificationInput
}

func (CreateNotificationMessage) Type() string { return TypeCreateNotification }

func (m CreateNotificationMessage) Validate() error {
	if strings.TrimSpace(m.Input.UserID) == "" {
		return commandValidationError("input.user_id", "user id is required")
	}
	if strings.TrimSpace(m.Input.Title) == "" {
		return commandValidationError("input.title", "title is required")
	}
	return nil
}

type MarkNotificationReadMessage struct {
	NotificationID string
}

func (MarkNotificationReadMessage) Type() string { return TypeMarkNotificationRead }

func (m MarkNotificationReadMessage) Validate() error {
	if strings.TrimSpace(m.NotificationID) == "" {
		return commandValidationError("notification_id", "notification id is required")
	}
	return nil
}

type ClearNotificationsMessage struct {
	UserID string
}

func (ClearNotificationsMessage) Type() string { return TypeClearNotifications }

func (m ClearNotificationsMessage) Validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return commandValidationError("user_id", "user id is required")
	}
	return nil
}

type RefreshTrackingMessage struct{}

func (RefreshTrackingMessage) Type() string { return TypeRefreshTracking }

func (RefreshTrackingMessage) Validate() error { return nil }

// RunStorageFeeSweepMessage carries the assessment instant. A zero AssessAt
// means "now" and is resolved by the command.
type RunStorageFeeSweepMessage struct {
	AssessAt time.Time
}

func (RunStorageFeeSweepMessage) Type() string { return TypeRunStorageFeeSweep }

func (RunStorageFeeSweepMessage) Validate() error { return nil }
