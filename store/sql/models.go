package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type quoteRecord struct {
	bun.BaseModel `bun:"table:reship_quotes,alias:rq"`

	ID               string     `bun:"id,pk"`
	PackageID        string     `bun:"package_id,notnull"`
	Carrier          string     `bun:"carrier,notnull"`
	PriceCents       int64      `bun:"price_cents,notnull"`
	Currency         string     `bun:"currency,notnull"`
	Status           string     `bun:"status,notnull"`
	PaymentStatus    string     `bun:"payment_status,notnull"`
	PaymentSessionID string     `bun:"payment_session_id"`
	PaymentURL       string     `bun:"payment_url"`
	PaymentIntentID  string     `bun:"payment_intent_id"`
	PaidAt           *time.Time `bun:"paid_at,nullzero"`
	CreatedAt        time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt        time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type packageRecord struct {
	bun.BaseModel `bun:"table:reship_packages,alias:rp"`

	ID                 string     `bun:"id,pk"`
	UserID             string     `bun:"user_id,notnull"`
	TrackingNumber     string     `bun:"tracking_number"`
	Carrier            string     `bun:"carrier"`
	Status             string     `bun:"status,notnull"`
	WeightGrams        int64      `bun:"weight_grams,notnull"`
	DeclaredValueCents int64      `bun:"declared_value_cents,notnull"`
	ReceivedAt         *time.Time `bun:"received_at,nullzero"`
	ShippedAt          *time.Time `bun:"shipped_at,nullzero"`
	DeliveredAt        *time.Time `bun:"delivered_at,nullzero"`
	CreatedAt          time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt          time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type notificationRecord struct {
	bun.BaseModel `bun:"table:reship_notifications,alias:rn"`

	ID        string    `bun:"id,pk"`
	UserID    string    `bun:"user_id,notnull"`
	Title     string    `bun:"title,notnull"`
	Message   string    `bun:"message,notnull"`
	Read      bool      `bun:"read,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type storageFeeRecord struct {
	bun.BaseModel `bun:"table:reship_storage_fees,alias:rsf"`

	ID          string    `bun:"id,pk"`
	PackageID   string    `bun:"package_id,notnull"`
	DaysOver    int       `bun:"days_over,notnull"`
	AmountCents int64     `bun:"amount_cents,notnull"`
	AssessedOn  string    `bun:"assessed_on,notnull"`
	AssessedAt  time.Time `bun:"assessed_at,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type intentOutboxRecord struct {
	bun.BaseModel `bun:"table:reship_intent_outbox,alias:rio"`

	ID            string         `bun:"id,pk"`
	EventID       string         `bun:"event_id,notnull"`
	EventName     string         `bun:"event_name,notnull"`
	QuoteID       string         `bun:"quote_id"`
	PackageID     string         `bun:"package_id"`
	UserID        string         `bun:"user_id"`
	Payload       map[string]any `bun:"payload,type:jsonb,notnull"`
	Metadata      map[string]any `bun:"metadata,type:jsonb,notnull"`
	Status        string         `bun:"status,notnull"`
	Attempts      int            `bun:"attempts,notnull"`
	NextAttemptAt *time.Time     `bun:"next_attempt_at,nullzero"`
	LastError     string         `bun:"last_error,notnull"`
	OccurredAt    time.Time      `bun:"occurred_at,notnull"`
	CreatedAt     time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type webhookDeliveryRecord struct {
	bun.BaseModel `bun:"table:reship_webhook_deliveries,alias:rwd"`

	ID            string     `bun:"id,pk"`
	ClaimID       string     `bun:"claim_id,notnull"`
	ProviderID    string     `bun:"provider_id,notnull"`
	EventID       string     `bun:"event_id,notnull"`
	Status        string     `bun:"status,notnull"`
	Attempts      int        `bun:"attempts,notnull"`
	LeaseUntil    *time.Time `bun:"lease_until,nullzero"`
	NextAttemptAt *time.Time `bun:"next_attempt_at,nullzero"`
	LastError     string     `bun:"last_error,notnull"`
	Payload       []byte     `bun:"payload"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type notificationDispatchRecord struct {
	bun.BaseModel `bun:"table:reship_notification_dispatches,alias:rnd"`

	ID           string         `bun:"id,pk"`
	EventID      string         `bun:"event_id,notnull"`
	Projector    string         `bun:"projector,notnull"`
	RecipientKey string         `bun:"recipient_key,notnull"`
	Idempotency  string         `bun:"idempotency_key,notnull"`
	Status       string         `bun:"status,notnull"`
	Error        string         `bun:"error,notnull"`
	Metadata     map[string]any `bun:"metadata,type:jsonb,notnull"`
	CreatedAt    time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type replayClaimRecord struct {
	bun.BaseModel `bun:"table:reship_replay_claims,alias:rrc"`

	ID        string    `bun:"id,pk"`
	ClaimKey  string    `bun:"claim_key,notnull"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type scheduleRecord struct {
	bun.BaseModel `bun:"table:reship_schedules,alias:rs"`

	ID         string     `bun:"id,pk"`
	Name       string     `bun:"name,notnull"`
	Expression string     `bun:"expression,notnull"`
	JobKind    string     `bun:"job_kind,notnull"`
	Enabled    bool       `bun:"enabled,notnull"`
	LastRunAt  *time.Time `bun:"last_run_at,nullzero"`
	NextRunAt  *time.Time `bun:"next_run_at,nullzero"`
	CreatedAt  time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
