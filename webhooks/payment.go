package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-reship/core"
)

// ProviderPayments identifies the checkout payment provider in the
// delivery ledger.
const ProviderPayments = "payments"

// paymentEventEnvelope is the provider's wire shape: the session object
// rides under data.object and the quote id under its metadata.
type paymentEventEnvelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object struct {
			ID            string            `json:"id"`
			PaymentIntent string            `json:"payment_intent"`
			Metadata      map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// ParsePaymentEvent decodes a raw webhook body into a core.PaymentEvent.
func ParsePaymentEvent(body []byte) (core.PaymentEvent, error) {
	if len(body) == 0 {
		return core.PaymentEvent{}, fmt.Errorf("webhooks: payment event body is required")
	}
	var envelope paymentEventEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return core.PaymentEvent{}, fmt.Errorf("webhooks: decode payment event: %w", err)
	}
	if strings.TrimSpace(envelope.ID) == "" {
		return core.PaymentEvent{}, fmt.Errorf("webhooks: payment event id is required")
	}
	event := core.PaymentEvent{
		ID:              strings.TrimSpace(envelope.ID),
		Type:            core.PaymentEventType(strings.TrimSpace(envelope.Type)),
		SessionID:       strings.TrimSpace(envelope.Data.Object.ID),
		PaymentIntentID: strings.TrimSpace(envelope.Data.Object.PaymentIntent),
		QuoteID:         strings.TrimSpace(envelope.Data.Object.Metadata["quote_id"]),
	}
	if envelope.Created > 0 {
		event.OccurredAt = time.Unix(envelope.Created, 0).UTC()
	}
	return event, nil
}

// ExtractEventID pulls the dedupe key out of the body without fully
// validating the envelope.
func ExtractEventID(req core.InboundRequest) (string, error) {
	var envelope struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(req.Body, &envelope); err != nil {
		return "", fmt.Errorf("webhooks: decode payment event id: %w", err)
	}
	eventID := strings.TrimSpace(envelope.ID)
	if eventID == "" {
		return "", fmt.Errorf("webhooks: payment event id is required for dedupe")
	}
	return eventID, nil
}

// PaymentHandler bridges verified webhook requests into the core payment
// pipeline.
type PaymentHandler struct {
	service *core.Service
}

func NewPaymentHandler(service *core.Service) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) Handle(ctx context.Context, req core.InboundRequest) (core.InboundResult, error) {
	if h == nil || h.service == nil {
		return core.InboundResult{}, fmt.Errorf("webhooks: payment handler is not configured")
	}
	event, err := ParsePaymentEvent(req.Body)
	if err != nil {
		return core.InboundResult{Accepted: false, StatusCode: http.StatusBadRequest}, err
	}

	result, err := h.service.ProcessPaymentEvent(ctx, event)
	if err != nil {
		status := http.StatusInternalServerError
		var rich *goerrors.Error
		if goerrors.As(err, &rich) && rich.Code > 0 {
			status = rich.Code
		}
		return core.InboundResult{Accepted: false, StatusCode: status}, err
	}

	metadata := map[string]any{
		"event_id": event.ID,
		"handled":  result.Handled,
	}
	if result.Handled {
		metadata["quote_id"] = result.Quote.ID
	}
	return core.InboundResult{
		Accepted:   true,
		StatusCode: http.StatusOK,
		Metadata:   metadata,
	}, nil
}

// NewPaymentProcessor assembles the standard payment webhook pipeline.
func NewPaymentProcessor(secret string, replayWindow time.Duration, ledger DeliveryLedger, service *core.Service) *Processor {
	processor := NewProcessor(
		SignedHeaderVerifier{Secret: strings.TrimSpace(secret), ReplayWindow: replayWindow},
		ledger,
		NewPaymentHandler(service),
	)
	processor.ExtractID = ExtractEventID
	return processor
}

var _ Handler = (*PaymentHandler)(nil)
