package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Job kinds. The kind travels inside the message parameters so consumers
// decode payloads without guessing from the queue name.
const (
	KindEmailSend          = "email.send"
	KindTrackingRefresh    = "tracking.refresh"
	KindNotificationCreate = "notification.create"
	KindStorageFeeSweep    = "storage_fee.sweep"
)

const (
	paramKeyKind = "kind"
	paramKeyData = "data"
)

// Payload is the closed set of job payloads. Each variant names its kind;
// DecodeParameters uses it to pick the concrete type back out of the wire
// envelope.
type Payload interface {
	Kind() string
}

type EmailSendPayload struct {
	UserID  string `json:"user_id"`
	QuoteID string `json:"quote_id,omitempty"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (EmailSendPayload) Kind() string { return KindEmailSend }

// TrackingRefreshPayload is a bare trigger. FiredAt identifies the schedule
// slot that produced it.
type TrackingRefreshPayload struct {
	FiredAt time.Time `json:"fired_at"`
}

func (TrackingRefreshPayload) Kind() string { return KindTrackingRefresh }

type NotificationCreatePayload struct {
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (NotificationCreatePayload) Kind() string { return KindNotificationCreate }

type StorageFeeSweepPayload struct {
	AssessAt time.Time `json:"assess_at"`
}

func (StorageFeeSweepPayload) Kind() string { return KindStorageFeeSweep }

// EncodeParameters wraps a payload in the kind-tagged parameter envelope.
func EncodeParameters(payload Payload) (map[string]any, error) {
	if payload == nil {
		return nil, fmt.Errorf("queue: payload is required")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("queue: payload encode failed: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("queue: payload encode failed: %w", err)
	}
	return map[string]any{
		paramKeyKind: payload.Kind(),
		paramKeyData: data,
	}, nil
}

// DecodeParameters reads the kind tag out of message parameters and returns
// the typed payload. Unknown kinds are an error so misrouted jobs surface
// instead of silently acking.
func DecodeParameters(params map[string]any) (Payload, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("queue: message has no parameters")
	}
	kind, _ := params[paramKeyKind].(string)
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return nil, fmt.Errorf("queue: message has no payload kind")
	}
	raw, err := json.Marshal(params[paramKeyData])
	if err != nil {
		return nil, fmt.Errorf("queue: payload decode failed: %w", err)
	}

	switch kind {
	case KindEmailSend:
		var payload EmailSendPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("queue: %s payload decode failed: %w", kind, err)
		}
		return payload, nil
	case KindTrackingRefresh:
		var payload TrackingRefreshPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("queue: %s payload decode failed: %w", kind, err)
		}
		return payload, nil
	case KindNotificationCreate:
		var payload NotificationCreatePayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("queue: %s payload decode failed: %w", kind, err)
		}
		return payload, nil
	case KindStorageFeeSweep:
		var payload StorageFeeSweepPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("queue: %s payload decode failed: %w", kind, err)
		}
		return payload, nil
	default:
		return nil, fmt.Errorf("queue: unknown payload kind %q", kind)
	}
}

// QueueForKind maps a job kind to its home queue.
func QueueForKind(kind string) (string, error) {
	switch strings.TrimSpace(kind) {
	case KindEmailSend:
		return QueueEmail, nil
	case KindTrackingRefresh:
		return QueueTracking, nil
	case KindNotificationCreate:
		return QueueNotification, nil
	case KindStorageFeeSweep:
		return QueueStorageFee, nil
	default:
		return "", fmt.Errorf("queue: unknown job kind %q", kind)
	}
}
