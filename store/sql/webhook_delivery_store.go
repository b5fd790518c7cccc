package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-reship/webhooks"
)

type WebhookDeliveryStore struct {
	db   *bun.DB
	repo repository.Repository[*webhookDeliveryRecord]
	now  func() time.Time
}

func NewWebhookDeliveryStore(db *bun.DB) (*WebhookDeliveryStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*webhookDeliveryRecord](db, webhookDeliveryHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid webhook delivery repository wiring: %w", err)
		}
	}
	return &WebhookDeliveryStore{
		db:   db,
		repo: repo,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

// Claim inserts the event id into the ledger and takes a processing lease.
// The unique (provider_id, event_id) index makes a redelivered event land
// on the existing row, which is only re-claimable when its retry is due or
// its lease expired.
func (s *WebhookDeliveryStore) Claim(
	ctx context.Context,
	providerID string,
	eventID string,
	payload []byte,
	lease time.Duration,
) (webhooks.DeliveryRecord, bool, error) {
	if s == nil || s.db == nil {
		return webhooks.DeliveryRecord{}, false, fmt.Errorf("sqlstore: webhook delivery store is not configured")
	}
	providerID = strings.TrimSpace(providerID)
	eventID = strings.TrimSpace(eventID)
	if providerID == "" || eventID == "" {
		return webhooks.DeliveryRecord{}, false, fmt.Errorf("sqlstore: provider id and event id are required")
	}
	if lease <= 0 {
		lease = 30 * time.Second
	}

	now := s.now()
	leaseUntil := now.Add(lease)
	record := &webhookDeliveryRecord{
		ID:         uuid.NewString(),
		ClaimID:    uuid.NewString(),
		ProviderID: providerID,
		EventID:    eventID,
		Status:     webhooks.DeliveryStatusProcessing,
		Attempts:   0,
		LeaseUntil: &leaseUntil,
		Payload:    append([]byte(nil), payload...),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if !isUniqueConstraintError(err) {
			return webhooks.DeliveryRecord{}, false, err
		}
		return s.reclaim(ctx, providerID, eventID, lease)
	}
	return webhookDeliveryToDomain(record), true, nil
}

// reclaim re-takes an existing row when its retry is due or a previous
// claimant's lease ran out. Anything else is a duplicate delivery.
func (s *WebhookDeliveryStore) reclaim(
	ctx context.Context,
	providerID string,
	eventID string,
	lease time.Duration,
) (webhooks.DeliveryRecord, bool, error) {
	existing, err := s.loadRecord(ctx, providerID, eventID)
	if err != nil {
		return webhooks.DeliveryRecord{}, false, err
	}

	now := s.now()
	claimable := false
	switch existing.Status {
	case webhooks.DeliveryStatusRetryReady:
		claimable = existing.NextAttemptAt == nil || !existing.NextAttemptAt.After(now)
	case webhooks.DeliveryStatusProcessing:
		claimable = existing.LeaseUntil != nil && existing.LeaseUntil.Before(now)
	}
	if !claimable {
		return webhookDeliveryToDomain(existing), false, nil
	}

	claimID := uuid.NewString()
	leaseUntil := now.Add(lease)
	result, err := s.db.NewUpdate().
		Model((*webhookDeliveryRecord)(nil)).
		Set("claim_id = ?", claimID).
		Set("status = ?", webhooks.DeliveryStatusProcessing).
		Set("lease_until = ?", leaseUntil).
		Set("updated_at = ?", now).
		Where("id = ?", existing.ID).
		Where("claim_id = ?", existing.ClaimID).
		Exec(ctx)
	if err != nil {
		return webhooks.DeliveryRecord{}, false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return webhooks.DeliveryRecord{}, false, err
	}
	if affected == 0 {
		// Lost the race to another claimant.
		current, getErr := s.loadRecord(ctx, providerID, eventID)
		if getErr != nil {
			return webhooks.DeliveryRecord{}, false, getErr
		}
		return webhookDeliveryToDomain(current), false, nil
	}

	existing.ClaimID = claimID
	existing.Status = webhooks.DeliveryStatusProcessing
	existing.LeaseUntil = &leaseUntil
	existing.UpdatedAt = now
	return webhookDeliveryToDomain(existing), true, nil
}

func (s *WebhookDeliveryStore) Get(ctx context.Context, providerID string, eventID string) (webhooks.DeliveryRecord, error) {
	if s == nil || s.db == nil {
		return webhooks.DeliveryRecord{}, fmt.Errorf("sqlstore: webhook delivery store is not configured")
	}
	record, err := s.loadRecord(ctx, providerID, eventID)
	if err != nil {
		return webhooks.DeliveryRecord{}, err
	}
	return webhookDeliveryToDomain(record), nil
}

func (s *WebhookDeliveryStore) Complete(ctx context.Context, claimID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: webhook delivery store is not configured")
	}
	claimID = strings.TrimSpace(claimID)
	if claimID == "" {
		return fmt.Errorf("sqlstore: claim id is required")
	}
	result, err := s.db.NewUpdate().
		Model((*webhookDeliveryRecord)(nil)).
		Set("status = ?", webhooks.DeliveryStatusProcessed).
		Set("last_error = ?", "").
		Set("lease_until = NULL").
		Set("next_attempt_at = NULL").
		Set("updated_at = ?", s.now()).
		Where("claim_id = ?", claimID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("sqlstore: webhook claim %q not found", claimID)
	}
	return nil
}

func (s *WebhookDeliveryStore) Fail(
	ctx context.Context,
	claimID string,
	cause error,
	nextAttemptAt time.Time,
	maxAttempts int,
) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: webhook delivery store is not configured")
	}
	claimID = strings.TrimSpace(claimID)
	if claimID == "" {
		return fmt.Errorf("sqlstore: claim id is required")
	}

	record := &webhookDeliveryRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.claim_id = ?", claimID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("sqlstore: webhook claim %q not found", claimID)
		}
		return err
	}

	attempts := record.Attempts + 1
	status := webhooks.DeliveryStatusRetryReady
	var next *time.Time
	if maxAttempts > 0 && attempts >= maxAttempts {
		status = webhooks.DeliveryStatusDead
	} else {
		nextValue := nextAttemptAt.UTC()
		next = &nextValue
	}
	lastError := ""
	if cause != nil {
		lastError = strings.TrimSpace(cause.Error())
	}

	_, err = s.db.NewUpdate().
		Model((*webhookDeliveryRecord)(nil)).
		Set("status = ?", status).
		Set("attempts = ?", attempts).
		Set("lease_until = NULL").
		Set("next_attempt_at = ?", next).
		Set("last_error = ?", lastError).
		Set("updated_at = ?", s.now()).
		Where("claim_id = ?", claimID).
		Exec(ctx)
	return err
}

func (s *WebhookDeliveryStore) loadRecord(ctx context.Context, providerID string, eventID string) (*webhookDeliveryRecord, error) {
	record := &webhookDeliveryRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.provider_id = ?", strings.TrimSpace(providerID)).
		Where("?TableAlias.event_id = ?", strings.TrimSpace(eventID)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf(
				"sqlstore: webhook delivery not found for provider %q event %q",
				providerID,
				eventID,
			)
		}
		return nil, err
	}
	return record, nil
}

func webhookDeliveryToDomain(record *webhookDeliveryRecord) webhooks.DeliveryRecord {
	if record == nil {
		return webhooks.DeliveryRecord{}
	}
	result := webhooks.DeliveryRecord{
		ID:         record.ID,
		ClaimID:    record.ClaimID,
		ProviderID: record.ProviderID,
		EventID:    record.EventID,
		Status:     record.Status,
		Attempts:   record.Attempts,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}
	result.NextAttemptAt = cloneTimePointer(record.NextAttemptAt)
	return result
}

var _ webhooks.DeliveryLedger = (*WebhookDeliveryStore)(nil)
