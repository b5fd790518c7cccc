package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// IntentProjectorRegistry is a small ordered registry of intent handlers.
// Registration order is delivery order.
type IntentProjectorRegistry struct {
	mu       sync.RWMutex
	names    []string
	handlers map[string]IntentHandler
}

func NewIntentProjectorRegistry() *IntentProjectorRegistry {
	return &IntentProjectorRegistry{handlers: map[string]IntentHandler{}}
}

func (r *IntentProjectorRegistry) Register(name string, handler IntentHandler) {
	if r == nil || handler == nil {
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[name]; !exists {
		r.names = append(r.names, name)
	}
	r.handlers[name] = handler
}

func (r *IntentProjectorRegistry) Handlers() []IntentHandler {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]IntentHandler, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.handlers[name])
	}
	return out
}

// NotificationProjector materializes notification.create intents into
// Notification rows. The dispatch ledger makes delivery idempotent across
// outbox retries.
type NotificationProjector struct {
	store  NotificationStore
	ledger NotificationDispatchLedger
}

func NewNotificationProjector(store NotificationStore, ledger NotificationDispatchLedger) *NotificationProjector {
	return &NotificationProjector{store: store, ledger: ledger}
}

func (p *NotificationProjector) Handle(ctx context.Context, event IntentEvent) error {
	if p == nil || p.store == nil {
		return fmt.Errorf("core: notification projector is not configured")
	}
	if event.Name != IntentNotificationCreate {
		return nil
	}
	userID := strings.TrimSpace(event.UserID)
	if userID == "" {
		return fmt.Errorf("core: notification intent %q has no user id", event.ID)
	}

	idempotencyKey := "notification::" + strings.TrimSpace(event.ID)
	if p.ledger != nil {
		seen, err := p.ledger.Seen(ctx, idempotencyKey)
		if err != nil {
			return err
		}
		if seen {
			return nil
		}
	}

	if _, err := p.store.Create(ctx, CreateNotificationInput{
		UserID:  userID,
		Title:   stringPayload(event.Payload, "title"),
		Message: stringPayload(event.Payload, "message"),
	}); err != nil {
		return err
	}

	if p.ledger != nil {
		return p.ledger.Record(ctx, NotificationDispatchRecord{
			EventID:        event.ID,
			Projector:      "notifications",
			RecipientKey:   userID,
			IdempotencyKey: idempotencyKey,
			Status:         "sent",
		})
	}
	return nil
}

// EmailProjector turns email.send intents into queued email jobs. Actual
// delivery happens in the email queue consumer.
type EmailProjector struct {
	enqueuer JobEnqueuer
}

func NewEmailProjector(enqueuer JobEnqueuer) *EmailProjector {
	return &EmailProjector{enqueuer: enqueuer}
}

func (p *EmailProjector) Handle(ctx context.Context, event IntentEvent) error {
	if p == nil || p.enqueuer == nil {
		return fmt.Errorf("core: email projector is not configured")
	}
	if event.Name != IntentEmailSend {
		return nil
	}
	return p.enqueuer.Enqueue(ctx, &JobExecutionMessage{
		JobID: "reship.email.send",
		Queue: "email",
		Parameters: map[string]any{
			"kind": IntentEmailSend,
			"data": map[string]any{
				"user_id":  event.UserID,
				"quote_id": event.QuoteID,
				"subject":  stringPayload(event.Payload, "subject"),
				"body":     stringPayload(event.Payload, "body"),
			},
		},
		IdempotencyKey: "email::" + strings.TrimSpace(event.ID),
	})
}

func stringPayload(payload map[string]any, key string) string {
	if len(payload) == 0 {
		return ""
	}
	value, ok := payload[key]
	if !ok || value == nil {
		return ""
	}
	text, ok := value.(string)
	if !ok {
		return fmt.Sprint(value)
	}
	return text
}

var (
	_ ProjectorRegistry = (*IntentProjectorRegistry)(nil)
	_ IntentHandler     = (*NotificationProjector)(nil)
	_ IntentHandler     = (*EmailProjector)(nil)
)
