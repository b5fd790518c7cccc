package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const paymentEventReplayTTL = 24 * time.Hour

// ProcessPaymentEvent applies one verified payment-provider event to the
// quote/package state machine.
//
// checkout.session.completed marks the quote paid, moves the linked package
// to paid_ready_to_ship, and writes notification and email intents to the
// outbox. checkout.session.expired clears the pending payment session and
// leaves the quote in draft. Every other event type is accepted and ignored.
//
// Processing is idempotent per event id: redelivery of a claimed event is a
// no-op, and a redelivered completed event whose quote is already paid only
// re-enqueues its outbox intents (which dedupe on event id downstream). A
// delivery that fails partway releases its claim, so provider redelivery
// retries the whole transition.
func (s *Service) ProcessPaymentEvent(ctx context.Context, event PaymentEvent) (result PaymentEventResult, err error) {
	startedAt := time.Now()
	defer func() {
		s.observeOperation(ctx, startedAt, "payment_event", err, map[string]any{
			"event_id":   event.ID,
			"event_type": string(event.Type),
			"quote_id":   event.QuoteID,
		})
	}()

	if s == nil || s.quoteStore == nil || s.packageStore == nil {
		return PaymentEventResult{}, s.mapError(errors.New("core: quote and package stores are required"))
	}
	if strings.TrimSpace(event.ID) == "" {
		return PaymentEventResult{}, s.mapError(errors.New("core: payment event id is required"))
	}

	switch event.Type {
	case PaymentEventCheckoutCompleted:
		result, err = s.applyCheckoutCompleted(ctx, event)
	case PaymentEventCheckoutExpired:
		result, err = s.applyCheckoutExpired(ctx, event)
	default:
		return PaymentEventResult{Handled: false}, nil
	}
	if err != nil {
		return PaymentEventResult{}, s.mapError(err)
	}
	return result, nil
}

func (s *Service) applyCheckoutCompleted(ctx context.Context, event PaymentEvent) (result PaymentEventResult, err error) {
	quoteID := strings.TrimSpace(event.QuoteID)
	if quoteID == "" {
		return PaymentEventResult{}, errors.New("core: quote id is required in event metadata")
	}

	if s.replayLedger != nil {
		claimed, claimErr := s.replayLedger.Claim(ctx, paymentReplayKey(event), paymentEventReplayTTL)
		if claimErr != nil {
			return PaymentEventResult{}, claimErr
		}
		if !claimed {
			quote, getErr := s.quoteStore.Get(ctx, quoteID)
			if getErr != nil {
				return PaymentEventResult{}, getErr
			}
			return PaymentEventResult{Handled: true, Quote: quote}, nil
		}
		// A held claim must mean the event was fully applied. Back it out
		// on failure so provider redelivery retries the whole transition
		// instead of hitting the dedupe branch with the quote still draft.
		defer func() {
			if err == nil {
				return
			}
			if releaseErr := s.replayLedger.Release(ctx, paymentReplayKey(event)); releaseErr != nil {
				s.logError(ctx, "payment replay claim release failed", map[string]any{
					"event_id": event.ID,
					"error":    releaseErr.Error(),
				})
			}
		}()
	}

	paidAt := event.OccurredAt.UTC()
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}
	var quote Quote
	quote, err = s.quoteStore.MarkPaid(ctx, MarkQuotePaidInput{
		QuoteID:         quoteID,
		PaymentIntentID: strings.TrimSpace(event.PaymentIntentID),
		PaidAt:          paidAt,
	})
	if errors.Is(err, ErrQuoteAlreadyPaid) {
		// Redelivery after a partial earlier run. The primary transition
		// already happened; fall through so the outbox intents still land.
		quote, err = s.quoteStore.Get(ctx, quoteID)
	}
	if err != nil {
		return PaymentEventResult{}, err
	}

	result = PaymentEventResult{Handled: true, Quote: quote}

	pkg, getErr := s.packageStore.Get(ctx, quote.PackageID)
	if getErr != nil {
		s.logError(ctx, "linked package lookup failed after payment", map[string]any{
			"quote_id":   quote.ID,
			"package_id": quote.PackageID,
			"error":      getErr.Error(),
		})
		return result, nil
	}

	updated, updateErr := s.packageStore.UpdateStatus(ctx, pkg.ID, PackageStatusPaidReadyToShip)
	if updateErr != nil {
		// Payment confirmation is authoritative. The package transition is
		// recovered through provider redelivery, not by failing the event.
		s.logError(ctx, "package status update failed after payment", map[string]any{
			"quote_id":   quote.ID,
			"package_id": pkg.ID,
			"error":      updateErr.Error(),
		})
	} else {
		pkg = updated
		result.Package = updated
	}

	if s.outboxStore != nil {
		if err = s.enqueuePaymentIntents(ctx, event, quote, pkg); err != nil {
			return PaymentEventResult{}, err
		}
	}
	return result, nil
}

func (s *Service) applyCheckoutExpired(ctx context.Context, event PaymentEvent) (PaymentEventResult, error) {
	quoteID := strings.TrimSpace(event.QuoteID)
	if quoteID == "" {
		return PaymentEventResult{}, errors.New("core: quote id is required in event metadata")
	}
	quote, err := s.quoteStore.ClearPaymentSession(ctx, quoteID)
	if err != nil {
		return PaymentEventResult{}, err
	}
	return PaymentEventResult{Handled: true, Quote: quote}, nil
}

func (s *Service) enqueuePaymentIntents(ctx context.Context, event PaymentEvent, quote Quote, pkg Package) error {
	occurredAt := event.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	title := "Package ready to ship"
	message := fmt.Sprintf(
		"Payment received for quote %s (%s %s). Your package is ready to ship.",
		quote.ID,
		formatPrice(quote.PriceCents),
		strings.ToUpper(strings.TrimSpace(quote.Currency)),
	)

	notification := IntentEvent{
		ID:         event.ID + ":notification",
		Name:       IntentNotificationCreate,
		QuoteID:    quote.ID,
		PackageID:  quote.PackageID,
		UserID:     pkg.UserID,
		OccurredAt: occurredAt,
		Payload: map[string]any{
			"title":   title,
			"message": message,
		},
	}
	if err := s.outboxStore.Enqueue(ctx, notification); err != nil {
		return err
	}

	email := IntentEvent{
		ID:         event.ID + ":email",
		Name:       IntentEmailSend,
		QuoteID:    quote.ID,
		PackageID:  quote.PackageID,
		UserID:     pkg.UserID,
		OccurredAt: occurredAt,
		Payload: map[string]any{
			"subject": title,
			"body":    message,
		},
	}
	return s.outboxStore.Enqueue(ctx, email)
}

func paymentReplayKey(event PaymentEvent) string {
	return "payment_event::" + strings.TrimSpace(event.ID)
}

func formatPrice(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
