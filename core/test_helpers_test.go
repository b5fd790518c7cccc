package core

import (
	"context"
	"errors"
	"strings"
	"time"
)

type stubQuoteStore struct {
	quotes        map[string]Quote
	markPaidErr   error
	clearErr      error
	markPaidCalls []MarkQuotePaidInput
	clearCalls    []string
}

func newStubQuoteStore(quotes ...Quote) *stubQuoteStore {
	store := &stubQuoteStore{quotes: map[string]Quote{}}
	for _, quote := range quotes {
		store.quotes[quote.ID] = quote
	}
	return store
}

func (s *stubQuoteStore) Get(_ context.Context, id string) (Quote, error) {
	quote, ok := s.quotes[strings.TrimSpace(id)]
	if !ok {
		return Quote{}, ErrQuoteNotFound
	}
	return quote, nil
}

func (s *stubQuoteStore) MarkPaid(_ context.Context, in MarkQuotePaidInput) (Quote, error) {
	s.markPaidCalls = append(s.markPaidCalls, in)
	if s.markPaidErr != nil {
		return Quote{}, s.markPaidErr
	}
	quote, ok := s.quotes[in.QuoteID]
	if !ok {
		return Quote{}, ErrQuoteNotFound
	}
	if quote.PaymentStatus == PaymentStatusPaid {
		return Quote{}, ErrQuoteAlreadyPaid
	}
	quote.PaymentStatus = PaymentStatusPaid
	quote.PaymentIntentID = in.PaymentIntentID
	paidAt := in.PaidAt
	quote.PaidAt = &paidAt
	s.quotes[quote.ID] = quote
	return quote, nil
}

func (s *stubQuoteStore) ClearPaymentSession(_ context.Context, quoteID string) (Quote, error) {
	s.clearCalls = append(s.clearCalls, quoteID)
	if s.clearErr != nil {
		return Quote{}, s.clearErr
	}
	quote, ok := s.quotes[strings.TrimSpace(quoteID)]
	if !ok {
		return Quote{}, ErrQuoteNotFound
	}
	quote.PaymentSessionID = ""
	quote.PaymentURL = ""
	quote.PaymentStatus = PaymentStatusDraft
	s.quotes[quote.ID] = quote
	return quote, nil
}

type stubPackageStore struct {
	packages    map[string]Package
	order       []string
	updateErr   error
	statusCalls []string
	accruing    []Package
}

func newStubPackageStore(packages ...Package) *stubPackageStore {
	store := &stubPackageStore{packages: map[string]Package{}}
	for _, pkg := range packages {
		store.packages[pkg.ID] = pkg
		store.order = append(store.order, pkg.ID)
	}
	return store
}

func (s *stubPackageStore) Get(_ context.Context, id string) (Package, error) {
	pkg, ok := s.packages[strings.TrimSpace(id)]
	if !ok {
		return Package{}, ErrPackageNotFound
	}
	return pkg, nil
}

func (s *stubPackageStore) UpdateStatus(_ context.Context, id string, status PackageStatus) (Package, error) {
	s.statusCalls = append(s.statusCalls, id+":"+string(status))
	if s.updateErr != nil {
		return Package{}, s.updateErr
	}
	pkg, ok := s.packages[strings.TrimSpace(id)]
	if !ok {
		return Package{}, ErrPackageNotFound
	}
	pkg.Status = status
	s.packages[pkg.ID] = pkg
	return pkg, nil
}

func (s *stubPackageStore) ListByStatus(_ context.Context, status PackageStatus, limit int, offset int) ([]Package, int, error) {
	var matched []Package
	for _, id := range s.order {
		if pkg := s.packages[id]; pkg.Status == status {
			matched = append(matched, pkg)
		}
	}
	if offset >= len(matched) {
		return nil, len(matched), nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], len(matched), nil
}

func (s *stubPackageStore) ListStorageAccruing(_ context.Context, _ time.Time, _ int) ([]Package, error) {
	return s.accruing, nil
}

type stubNotificationStore struct {
	created   []CreateNotificationInput
	createErr error
}

func (s *stubNotificationStore) Create(_ context.Context, in CreateNotificationInput) (Notification, error) {
	if s.createErr != nil {
		return Notification{}, s.createErr
	}
	s.created = append(s.created, in)
	return Notification{
		ID:        "ntf_" + in.UserID,
		UserID:    in.UserID,
		Title:     in.Title,
		Message:   in.Message,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (s *stubNotificationStore) List(_ context.Context, userID string, page int, perPage int) (NotificationPage, error) {
	return NotificationPage{Page: page, PerPage: perPage}, nil
}

func (s *stubNotificationStore) MarkRead(_ context.Context, id string) (Notification, error) {
	return Notification{ID: id, Read: true}, nil
}

func (s *stubNotificationStore) ClearForUser(_ context.Context, _ string) (int, error) {
	return 0, nil
}

type stubStorageFeeStore struct {
	recorded  []RecordStorageFeeInput
	recordErr error
}

func (s *stubStorageFeeStore) Record(_ context.Context, in RecordStorageFeeInput) (StorageFee, error) {
	if s.recordErr != nil {
		return StorageFee{}, s.recordErr
	}
	s.recorded = append(s.recorded, in)
	return StorageFee{
		ID:          "fee_" + in.PackageID,
		PackageID:   in.PackageID,
		DaysOver:    in.DaysOver,
		AmountCents: in.AmountCents,
		AssessedAt:  in.AssessedAt,
	}, nil
}

type retryCall struct {
	eventID string
	next    time.Time
}

type stubOutboxStore struct {
	enqueued   []IntentEvent
	claimed    []IntentEvent
	acked      []string
	retried    []retryCall
	enqueueErr error
}

func (s *stubOutboxStore) Enqueue(_ context.Context, event IntentEvent) error {
	if s.enqueueErr != nil {
		return s.enqueueErr
	}
	s.enqueued = append(s.enqueued, event)
	return nil
}

func (s *stubOutboxStore) ClaimBatch(_ context.Context, _ int) ([]IntentEvent, error) {
	claimed := s.claimed
	s.claimed = nil
	return claimed, nil
}

func (s *stubOutboxStore) Ack(_ context.Context, eventID string) error {
	s.acked = append(s.acked, eventID)
	return nil
}

func (s *stubOutboxStore) Retry(_ context.Context, eventID string, _ error, nextAttemptAt time.Time) error {
	s.retried = append(s.retried, retryCall{eventID: eventID, next: nextAttemptAt})
	return nil
}

type stubDispatchLedger struct {
	seen     map[string]bool
	recorded []NotificationDispatchRecord
}

func newStubDispatchLedger() *stubDispatchLedger {
	return &stubDispatchLedger{seen: map[string]bool{}}
}

func (s *stubDispatchLedger) Seen(_ context.Context, idempotencyKey string) (bool, error) {
	return s.seen[idempotencyKey], nil
}

func (s *stubDispatchLedger) Record(_ context.Context, record NotificationDispatchRecord) error {
	s.seen[record.IdempotencyKey] = true
	s.recorded = append(s.recorded, record)
	return nil
}

type stubJobEnqueuer struct {
	messages   []*JobExecutionMessage
	enqueueErr error
}

func (s *stubJobEnqueuer) Enqueue(_ context.Context, msg *JobExecutionMessage) error {
	if s.enqueueErr != nil {
		return s.enqueueErr
	}
	s.messages = append(s.messages, msg)
	return nil
}

type stubTrackingProvider struct {
	statuses map[string]TrackingStatus
	err      error
}

func (s *stubTrackingProvider) Status(_ context.Context, trackingNumber string) (TrackingStatus, error) {
	if s.err != nil {
		return TrackingStatus{}, s.err
	}
	status, ok := s.statuses[trackingNumber]
	if !ok {
		return TrackingStatus{}, errors.New("tracking number unknown")
	}
	return status, nil
}

type intentHandlerFunc func(ctx context.Context, event IntentEvent) error

func (f intentHandlerFunc) Handle(ctx context.Context, event IntentEvent) error {
	return f(ctx, event)
}

func newTestService(t interface{ Fatalf(string, ...any) }, options ...Option) *Service {
	service, err := NewService(DefaultConfig(), options...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}
