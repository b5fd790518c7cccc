package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-reship/core"
)

// EmailDirectory resolves a user id to a deliverable address when the
// payload does not carry one.
type EmailDirectory interface {
	EmailFor(ctx context.Context, userID string) (string, error)
}

// EmailHandler consumes email.send jobs and delivers through the mailer.
type EmailHandler struct {
	mailer    core.Mailer
	directory EmailDirectory
}

func NewEmailHandler(mailer core.Mailer, directory EmailDirectory) *EmailHandler {
	return &EmailHandler{mailer: mailer, directory: directory}
}

func (h *EmailHandler) Handle(ctx context.Context, _ *core.JobExecutionMessage, payload Payload) error {
	if h == nil || h.mailer == nil {
		return fmt.Errorf("queue: email handler is not configured")
	}
	email, ok := payload.(EmailSendPayload)
	if !ok {
		return fmt.Errorf("queue: email handler got %T", payload)
	}
	to := strings.TrimSpace(email.To)
	if to == "" {
		if h.directory == nil {
			return fmt.Errorf("queue: email for user %q has no recipient", email.UserID)
		}
		resolved, err := h.directory.EmailFor(ctx, email.UserID)
		if err != nil {
			return err
		}
		to = strings.TrimSpace(resolved)
		if to == "" {
			return fmt.Errorf("queue: no address on file for user %q", email.UserID)
		}
	}
	return h.mailer.Send(ctx, core.EmailMessage{
		To:      to,
		Subject: email.Subject,
		Body:    email.Body,
	})
}

// TrackingRefreshHandler consumes tracking.refresh triggers.
type TrackingRefreshHandler struct {
	service *core.Service
}

func NewTrackingRefreshHandler(service *core.Service) *TrackingRefreshHandler {
	return &TrackingRefreshHandler{service: service}
}

func (h *TrackingRefreshHandler) Handle(ctx context.Context, _ *core.JobExecutionMessage, payload Payload) error {
	if h == nil || h.service == nil {
		return fmt.Errorf("queue: tracking handler is not configured")
	}
	if _, ok := payload.(TrackingRefreshPayload); !ok {
		return fmt.Errorf("queue: tracking handler got %T", payload)
	}
	_, err := h.service.RefreshTracking(ctx)
	return err
}

// NotificationCreateHandler consumes notification.create jobs.
type NotificationCreateHandler struct {
	service *core.Service
}

func NewNotificationCreateHandler(service *core.Service) *NotificationCreateHandler {
	return &NotificationCreateHandler{service: service}
}

func (h *NotificationCreateHandler) Handle(ctx context.Context, _ *core.JobExecutionMessage, payload Payload) error {
	if h == nil || h.service == nil {
		return fmt.Errorf("queue: notification handler is not configured")
	}
	notification, ok := payload.(NotificationCreatePayload)
	if !ok {
		return fmt.Errorf("queue: notification handler got %T", payload)
	}
	_, err := h.service.CreateNotification(ctx, core.CreateNotificationInput{
		UserID:  notification.UserID,
		Title:   notification.Title,
		Message: notification.Message,
	})
	return err
}

// StorageFeeSweepHandler consumes storage_fee.sweep triggers.
type StorageFeeSweepHandler struct {
	service *core.Service
}

func NewStorageFeeSweepHandler(service *core.Service) *StorageFeeSweepHandler {
	return &StorageFeeSweepHandler{service: service}
}

func (h *StorageFeeSweepHandler) Handle(ctx context.Context, _ *core.JobExecutionMessage, payload Payload) error {
	if h == nil || h.service == nil {
		return fmt.Errorf("queue: storage fee handler is not configured")
	}
	sweep, ok := payload.(StorageFeeSweepPayload)
	if !ok {
		return fmt.Errorf("queue: storage fee handler got %T", payload)
	}
	assessAt := sweep.AssessAt
	if assessAt.IsZero() {
		assessAt = time.Now().UTC()
	}
	_, err := h.service.RunStorageFeeSweep(ctx, assessAt)
	return err
}

var (
	_ Handler = (*EmailHandler)(nil)
	_ Handler = (*TrackingRefreshHandler)(nil)
	_ Handler = (*NotificationCreateHandler)(nil)
	_ Handler = (*StorageFeeSweepHandler)(nil)
)
