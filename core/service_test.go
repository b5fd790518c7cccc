package core

import (
	"context"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestNewServiceResolvesConfigLayers(t *testing.T) {
	runtime := DefaultConfig()
	runtime.StorageFee.FreeDays = 10

	service, err := NewService(runtime,
		WithQuoteStore(newStubQuoteStore()),
		WithPackageStore(newStubPackageStore()),
		WithConfigProvider(NewCfgxConfigProvider(staticRawConfigLoader{Values: map[string]any{
			"storage_fee": map[string]any{
				"daily_fee_cents": 750,
			},
		}})),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	cfg := service.Config()
	if cfg.StorageFee.FreeDays != 10 {
		t.Fatalf("runtime layer must win, got free_days=%d", cfg.StorageFee.FreeDays)
	}
	if cfg.StorageFee.DailyFeeCents != 750 {
		t.Fatalf("config layer must override defaults, got daily_fee_cents=%d", cfg.StorageFee.DailyFeeCents)
	}
	if cfg.Schedules.TrackingCron != "0 */6 * * *" {
		t.Fatalf("defaults layer must fill gaps, got tracking_cron=%q", cfg.Schedules.TrackingCron)
	}
}

func TestGoOptionsResolverDoesNotReassertDefaults(t *testing.T) {
	resolver := GoOptionsResolver{}
	defaults := DefaultConfig()
	loaded := defaults
	loaded.StorageFee.DailyFeeCents = 750
	runtime := defaults // untouched copy of the defaults

	resolved, err := resolver.Resolve(defaults, loaded, runtime)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.StorageFee.DailyFeeCents != 750 {
		t.Fatalf("runtime copy of defaults must not cancel the loaded override, got daily_fee_cents=%d", resolved.StorageFee.DailyFeeCents)
	}
	if resolved.StorageFee.FreeDays != defaults.StorageFee.FreeDays {
		t.Fatalf("untouched fields must keep their defaults, got free_days=%d", resolved.StorageFee.FreeDays)
	}
}

func TestNewServiceRegistersDefaultProjectors(t *testing.T) {
	service := newTestService(t,
		WithQuoteStore(newStubQuoteStore()),
		WithPackageStore(newStubPackageStore()),
		WithNotificationStore(&stubNotificationStore{}),
		WithJobEnqueuer(&stubJobEnqueuer{}),
	)

	deps := service.Dependencies()
	if deps.Projectors == nil {
		t.Fatalf("expected a projector registry")
	}
	if got := len(deps.Projectors.Handlers()); got != 2 {
		t.Fatalf("expected notification and email projectors, got %d", got)
	}
}

func TestDispatchOutboxThroughService(t *testing.T) {
	notifications := &stubNotificationStore{}
	outbox := &stubOutboxStore{claimed: []IntentEvent{{
		ID:     "evt_1:notification",
		Name:   IntentNotificationCreate,
		UserID: "usr_1",
		Payload: map[string]any{
			"title":   "Package ready to ship",
			"message": "Payment received.",
		},
	}}}
	service := newTestService(t,
		WithQuoteStore(newStubQuoteStore()),
		WithPackageStore(newStubPackageStore()),
		WithNotificationStore(notifications),
		WithOutboxStore(outbox),
		WithDispatchLedger(newStubDispatchLedger()),
	)

	stats, err := service.DispatchOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("dispatch outbox: %v", err)
	}
	if stats.Claimed != 1 || stats.Delivered != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(notifications.created) != 1 {
		t.Fatalf("expected one notification row, got %d", len(notifications.created))
	}
	if len(outbox.acked) != 1 {
		t.Fatalf("expected delivered intent to be acked")
	}
}

func TestDispatchOutboxWithoutStore(t *testing.T) {
	service := newTestService(t,
		WithQuoteStore(newStubQuoteStore()),
		WithPackageStore(newStubPackageStore()),
	)
	if _, err := service.DispatchOutbox(context.Background(), 10); err == nil {
		t.Fatalf("expected error when no outbox store is wired")
	}
}

func TestCreateNotificationValidatesInput(t *testing.T) {
	service := newTestService(t, WithNotificationStore(&stubNotificationStore{}))

	if _, err := service.CreateNotification(context.Background(), CreateNotificationInput{Title: "hi"}); err == nil {
		t.Fatalf("expected error for missing user id")
	}
	if _, err := service.CreateNotification(context.Background(), CreateNotificationInput{UserID: "usr_1"}); err == nil {
		t.Fatalf("expected error for missing title")
	}
	notification, err := service.CreateNotification(context.Background(), CreateNotificationInput{
		UserID: "usr_1",
		Title:  "Package delivered",
	})
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}
	if notification.UserID != "usr_1" {
		t.Fatalf("unexpected notification: %+v", notification)
	}
}

func TestServiceShutdownDrainsOutbox(t *testing.T) {
	notifications := &stubNotificationStore{}
	outbox := &stubOutboxStore{claimed: []IntentEvent{{
		ID:      "evt_drain:notification",
		Name:    IntentNotificationCreate,
		UserID:  "usr_1",
		Payload: map[string]any{"title": "t", "message": "m"},
	}}}
	service := newTestService(t,
		WithQuoteStore(newStubQuoteStore()),
		WithPackageStore(newStubPackageStore()),
		WithNotificationStore(notifications),
		WithOutboxStore(outbox),
	)

	if err := service.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if len(outbox.acked) != 1 {
		t.Fatalf("expected shutdown to drain and ack pending intents")
	}
}

func TestServiceMapErrorProducesRichErrors(t *testing.T) {
	service := newTestService(t,
		WithQuoteStore(newStubQuoteStore()),
		WithPackageStore(newStubPackageStore()),
	)

	_, err := service.ProcessPaymentEvent(context.Background(), PaymentEvent{
		ID:      "evt_missing",
		Type:    PaymentEventCheckoutCompleted,
		QuoteID: "qte_missing",
	})
	if err == nil {
		t.Fatalf("expected not-found error")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected rich error, got %T", err)
	}
	if rich.TextCode != ReshipErrorQuoteNotFound {
		t.Fatalf("expected %s, got %s", ReshipErrorQuoteNotFound, rich.TextCode)
	}
	if rich.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rich.Code)
	}
}
