package core

import "time"

type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "pending"
	QuoteStatusReady    QuoteStatus = "ready"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusExpired  QuoteStatus = "expired"
)

type PaymentStatus string

const (
	PaymentStatusDraft PaymentStatus = "draft"
	PaymentStatusPaid  PaymentStatus = "paid"
)

type PackageStatus string

const (
	PackageStatusAnnounced       PackageStatus = "announced"
	PackageStatusReceived        PackageStatus = "received"
	PackageStatusProcessing      PackageStatus = "processing"
	PackageStatusReadyToShip     PackageStatus = "ready_to_ship"
	PackageStatusPaidReadyToShip PackageStatus = "paid_ready_to_ship"
	PackageStatusShipped         PackageStatus = "shipped"
	PackageStatusDelivered       PackageStatus = "delivered"
	PackageStatusCancelled       PackageStatus = "cancelled"
)

// Quote is a priced shipping offer for a package. Its payment lifecycle is
// independent of the package's physical status.
type Quote struct {
	ID               string
	PackageID        string
	Carrier          string
	PriceCents       int64
	Currency         string
	Status           QuoteStatus
	PaymentStatus    PaymentStatus
	PaymentSessionID string
	PaymentURL       string
	PaymentIntentID  string
	PaidAt           *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Package is a physical parcel tracked through receipt, processing, and
// shipment. ReceivedAt anchors storage-fee accrual.
type Package struct {
	ID                 string
	UserID             string
	TrackingNumber     string
	Carrier            string
	Status             PackageStatus
	WeightGrams        int64
	DeclaredValueCents int64
	ReceivedAt         *time.Time
	ShippedAt          *time.Time
	DeliveredAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Notification is an append-only user-facing message row.
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Read      bool
	CreatedAt time.Time
}

// StorageFee records one daily accrual for a package held past the free
// storage window.
type StorageFee struct {
	ID          string
	PackageID   string
	DaysOver    int
	AmountCents int64
	AssessedAt  time.Time
	CreatedAt   time.Time
}

type EmailMessage struct {
	To      string
	Subject string
	Body    string
}

type PaymentEventType string

const (
	PaymentEventCheckoutCompleted PaymentEventType = "checkout.session.completed"
	PaymentEventCheckoutExpired   PaymentEventType = "checkout.session.expired"
)

// PaymentEvent is a verified payment-provider callback, already parsed from
// the raw webhook body.
type PaymentEvent struct {
	ID              string
	Type            PaymentEventType
	SessionID       string
	PaymentIntentID string
	QuoteID         string
	OccurredAt      time.Time
}

// PaymentEventResult reports what a processed payment event changed. Handled
// is false for event types the pipeline accepts but ignores.
type PaymentEventResult struct {
	Handled bool
	Quote   Quote
	Package Package
}

const (
	IntentNotificationCreate = "notification.create"
	IntentEmailSend          = "email.send"
)

// IntentEvent is a pending side effect written to the outbox in the same
// scope as the primary state change, then delivered by the dispatcher.
type IntentEvent struct {
	ID         string
	Name       string
	QuoteID    string
	PackageID  string
	UserID     string
	OccurredAt time.Time
	Payload    map[string]any
	Metadata   map[string]any
}

type MarkQuotePaidInput struct {
	QuoteID         string
	PaymentIntentID string
	PaidAt          time.Time
}

type CreateNotificationInput struct {
	UserID  string
	Title   string
	Message string
}

type RecordStorageFeeInput struct {
	PackageID   string
	DaysOver    int
	AmountCents int64
	AssessedAt  time.Time
}

type NotificationPage struct {
	Items   []Notification
	Total   int
	Page    int
	PerPage int
}
