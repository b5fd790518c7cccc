package webhooks

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-reship/core"
)

type memoryLedger struct {
	mu      sync.Mutex
	records map[string]*DeliveryRecord
	fails   int
	lastErr error
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{records: map[string]*DeliveryRecord{}}
}

func ledgerKey(providerID, eventID string) string {
	return providerID + "::" + eventID
}

func (l *memoryLedger) Claim(_ context.Context, providerID, eventID string, _ []byte, _ time.Duration) (DeliveryRecord, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := ledgerKey(providerID, eventID)
	if existing, ok := l.records[key]; ok {
		return *existing, false, nil
	}
	record := &DeliveryRecord{
		ID:         key,
		ClaimID:    key + "::claim",
		ProviderID: providerID,
		EventID:    eventID,
		Status:     DeliveryStatusProcessing,
		CreatedAt:  time.Now().UTC(),
	}
	l.records[key] = record
	return *record, true, nil
}

func (l *memoryLedger) Get(_ context.Context, providerID, eventID string) (DeliveryRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	record, ok := l.records[ledgerKey(providerID, eventID)]
	if !ok {
		return DeliveryRecord{}, errors.New("delivery not found")
	}
	return *record, nil
}

func (l *memoryLedger) Complete(_ context.Context, claimID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, record := range l.records {
		if record.ClaimID == claimID {
			record.Status = DeliveryStatusProcessed
			return nil
		}
	}
	return errors.New("claim not found")
}

func (l *memoryLedger) Fail(_ context.Context, claimID string, cause error, nextAttemptAt time.Time, maxAttempts int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fails++
	l.lastErr = cause
	for _, record := range l.records {
		if record.ClaimID == claimID {
			record.Attempts++
			if record.Attempts >= maxAttempts {
				record.Status = DeliveryStatusDead
			} else {
				record.Status = DeliveryStatusRetryReady
				record.NextAttemptAt = &nextAttemptAt
			}
			return nil
		}
	}
	return errors.New("claim not found")
}

type handlerFunc func(ctx context.Context, req core.InboundRequest) (core.InboundResult, error)

func (f handlerFunc) Handle(ctx context.Context, req core.InboundRequest) (core.InboundResult, error) {
	return f(ctx, req)
}

func acceptingHandler(calls *int) Handler {
	return handlerFunc(func(context.Context, core.InboundRequest) (core.InboundResult, error) {
		*calls++
		return core.InboundResult{Accepted: true, StatusCode: http.StatusOK}, nil
	})
}

func signedRequest(secret string, body []byte, at time.Time) core.InboundRequest {
	return core.InboundRequest{
		ProviderID: ProviderPayments,
		Headers:    map[string]string{SignatureHeader: SignPayload(secret, body, at)},
		Body:       body,
	}
}

func TestProcessorProcessesOnce(t *testing.T) {
	secret := "whsec_test"
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ledger := newMemoryLedger()
	calls := 0
	processor := NewProcessor(
		SignedHeaderVerifier{Secret: secret, Now: func() time.Time { return now }},
		ledger,
		acceptingHandler(&calls),
	)
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)

	result, err := processor.Process(context.Background(), signedRequest(secret, body, now))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !result.Accepted || result.StatusCode != http.StatusOK {
		t.Fatalf("unexpected result: %+v", result)
	}
	if calls != 1 {
		t.Fatalf("expected one handler call, got %d", calls)
	}

	record, err := ledger.Get(context.Background(), ProviderPayments, "evt_1")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record.Status != DeliveryStatusProcessed {
		t.Fatalf("expected processed record, got %q", record.Status)
	}
}

func TestProcessorDedupesRedelivery(t *testing.T) {
	secret := "whsec_test"
	now := time.Now().UTC()
	ledger := newMemoryLedger()
	calls := 0
	processor := NewProcessor(
		SignedHeaderVerifier{Secret: secret, Now: func() time.Time { return now }},
		ledger,
		acceptingHandler(&calls),
	)
	body := []byte(`{"id":"evt_dup","type":"checkout.session.completed"}`)
	req := signedRequest(secret, body, now)

	if _, err := processor.Process(context.Background(), req); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	result, err := processor.Process(context.Background(), req)
	if err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if !result.Accepted || result.StatusCode != http.StatusOK {
		t.Fatalf("redelivery must ack with 200, got %+v", result)
	}
	if result.Metadata["deduped"] != true {
		t.Fatalf("expected deduped metadata, got %+v", result.Metadata)
	}
	if calls != 1 {
		t.Fatalf("expected a single handler call, got %d", calls)
	}
}

func TestProcessorRejectsBadSignature(t *testing.T) {
	ledger := newMemoryLedger()
	calls := 0
	processor := NewProcessor(SignedHeaderVerifier{Secret: "right"}, ledger, acceptingHandler(&calls))

	body := []byte(`{"id":"evt_bad"}`)
	req := signedRequest("wrong", body, time.Now())
	result, err := processor.Process(context.Background(), req)
	if err == nil {
		t.Fatalf("expected signature error")
	}
	if result.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", result.StatusCode)
	}
	if calls != 0 {
		t.Fatalf("handler must not run on bad signature")
	}
	if len(ledger.records) != 0 {
		t.Fatalf("rejected requests must not claim ledger rows")
	}
}

func TestProcessorSchedulesRetryOnHandlerError(t *testing.T) {
	secret := "whsec_test"
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ledger := newMemoryLedger()
	processor := NewProcessor(
		SignedHeaderVerifier{Secret: secret, Now: func() time.Time { return now }},
		ledger,
		handlerFunc(func(context.Context, core.InboundRequest) (core.InboundResult, error) {
			return core.InboundResult{}, errors.New("db down")
		}),
	)
	processor.Now = func() time.Time { return now }
	body := []byte(`{"id":"evt_retry","type":"checkout.session.completed"}`)

	if _, err := processor.Process(context.Background(), signedRequest(secret, body, now)); err == nil {
		t.Fatalf("expected handler error to propagate")
	}
	if ledger.fails != 1 {
		t.Fatalf("expected one failed delivery, got %d", ledger.fails)
	}
	record, _ := ledger.Get(context.Background(), ProviderPayments, "evt_retry")
	if record.Status != DeliveryStatusRetryReady {
		t.Fatalf("expected retry_ready, got %q", record.Status)
	}
	if record.NextAttemptAt == nil || !record.NextAttemptAt.After(now) {
		t.Fatalf("expected a future retry time, got %v", record.NextAttemptAt)
	}
}

func TestProcessorRequiresEventID(t *testing.T) {
	secret := "whsec_test"
	now := time.Now().UTC()
	calls := 0
	processor := NewProcessor(
		SignedHeaderVerifier{Secret: secret, Now: func() time.Time { return now }},
		newMemoryLedger(),
		acceptingHandler(&calls),
	)
	body := []byte(`{"type":"checkout.session.completed"}`)

	result, err := processor.Process(context.Background(), signedRequest(secret, body, now))
	if err == nil {
		t.Fatalf("expected error for missing event id")
	}
	if result.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", result.StatusCode)
	}
}

func TestExponentialRetryPolicy(t *testing.T) {
	policy := ExponentialRetryPolicy{Initial: time.Second, Max: 8 * time.Second}
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{10, 8 * time.Second},
	}
	for _, tc := range cases {
		if got := policy.NextDelay(tc.attempt); got != tc.want {
			t.Fatalf("attempt %d: expected %v, got %v", tc.attempt, tc.want, got)
		}
	}
}

func TestExtractEventID(t *testing.T) {
	id, err := ExtractEventID(core.InboundRequest{Body: []byte(`{"id":"  evt_9 "}`)})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if id != "evt_9" {
		t.Fatalf("expected trimmed id, got %q", id)
	}
	if _, err := ExtractEventID(core.InboundRequest{Body: []byte(`{}`)}); err == nil {
		t.Fatalf("expected error for missing id")
	}
	if _, err := ExtractEventID(core.InboundRequest{Body: []byte(`not json`)}); err == nil ||
		!strings.Contains(err.Error(), "decode") {
		t.Fatalf("expected decode error, got %v", err)
	}
}
