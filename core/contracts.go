package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type QuoteStore interface {
	Get(ctx context.Context, id string) (Quote, error)
	// MarkPaid applies the draft -> paid transition. It must refuse the
	// update when the quote is already paid so redelivered events cannot
	// double-apply.
	MarkPaid(ctx context.Context, in MarkQuotePaidInput) (Quote, error)
	// ClearPaymentSession resets an expired checkout session back to draft,
	// clearing the session id and payment URL.
	ClearPaymentSession(ctx context.Context, quoteID string) (Quote, error)
}

type PackageStore interface {
	Get(ctx context.Context, id string) (Package, error)
	UpdateStatus(ctx context.Context, id string, status PackageStatus) (Package, error)
	ListByStatus(ctx context.Context, status PackageStatus, limit int, offset int) ([]Package, int, error)
	// ListStorageAccruing returns packages still in storage whose
	// received_at predates the cutoff.
	ListStorageAccruing(ctx context.Context, receivedBefore time.Time, limit int) ([]Package, error)
}

type NotificationStore interface {
	Create(ctx context.Context, in CreateNotificationInput) (Notification, error)
	List(ctx context.Context, userID string, page int, perPage int) (NotificationPage, error)
	MarkRead(ctx context.Context, id string) (Notification, error)
	ClearForUser(ctx context.Context, userID string) (int, error)
}

type StorageFeeStore interface {
	Record(ctx context.Context, in RecordStorageFeeInput) (StorageFee, error)
}

type OutboxStore interface {
	Enqueue(ctx context.Context, event IntentEvent) error
	ClaimBatch(ctx context.Context, limit int) ([]IntentEvent, error)
	Ack(ctx context.Context, eventID string) error
	Retry(ctx context.Context, eventID string, cause error, nextAttemptAt time.Time) error
}

type IntentHandler interface {
	Handle(ctx context.Context, event IntentEvent) error
}

type ProjectorRegistry interface {
	Register(name string, handler IntentHandler)
	Handlers() []IntentHandler
}

type DispatchStats struct {
	Claimed   int
	Delivered int
	Retried   int
	Failed    int
}

type IntentDispatcher interface {
	DispatchPending(ctx context.Context, batchSize int) (DispatchStats, error)
}

// ReplayLedger claims processing rights for a key (payment event id) once
// per TTL window. A false claim means the key was already seen.
type ReplayLedger interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
	PurgeExpired(ctx context.Context) (int, error)
}

type NotificationDispatchRecord struct {
	EventID        string
	Projector      string
	RecipientKey   string
	IdempotencyKey string
	Status         string
	Error          string
	Metadata       map[string]any
}

type NotificationDispatchLedger interface {
	Seen(ctx context.Context, idempotencyKey string) (bool, error)
	Record(ctx context.Context, record NotificationDispatchRecord) error
}

type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}

type TrackingStatus struct {
	TrackingNumber string
	Delivered      bool
	Detail         string
	CheckedAt      time.Time
}

// TrackingProvider resolves live carrier status for a tracking number. It is
// an external collaborator; the refresh runner only records transitions.
type TrackingProvider interface {
	Status(ctx context.Context, trackingNumber string) (TrackingStatus, error)
}

type JobExecutionMessage struct {
	JobID          string
	Queue          string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

type InboundRequest struct {
	ProviderID string
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type InboundResult struct {
	Accepted   bool
	StatusCode int
	Metadata   map[string]any
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type StoreProvider interface {
	QuoteStore() QuoteStore
	PackageStore() PackageStore
	NotificationStore() NotificationStore
	StorageFeeStore() StorageFeeStore
	OutboxStore() OutboxStore
	DispatchLedger() NotificationDispatchLedger
}

type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}
