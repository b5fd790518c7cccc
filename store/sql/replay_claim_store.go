package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-reship/core"
)

// ReplayClaimStore is the durable payment-event dedupe table. Each event id
// gets one row holding its claim window; a second claim inside the window
// reports the key as already seen.
type ReplayClaimStore struct {
	db  *bun.DB
	now func() time.Time
}

func NewReplayClaimStore(db *bun.DB) (*ReplayClaimStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &ReplayClaimStore{
		db: db,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

func (s *ReplayClaimStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("sqlstore: replay claim store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return false, fmt.Errorf("sqlstore: replay claim key is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	now := s.now()
	record := &replayClaimRecord{
		ID:        uuid.NewString(),
		ClaimKey:  key,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if !isUniqueConstraintError(err) {
			return false, err
		}
		return s.reclaimExpired(ctx, key, ttl)
	}
	return true, nil
}

// reclaimExpired takes over a row whose window lapsed; the conditional
// update keeps two racing claimants from both winning.
func (s *ReplayClaimStore) reclaimExpired(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	existing := &replayClaimRecord{}
	err := s.db.NewSelect().
		Model(existing).
		Where("?TableAlias.claim_key = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	now := s.now()
	if existing.ExpiresAt.After(now) {
		return false, nil
	}
	result, err := s.db.NewUpdate().
		Model((*replayClaimRecord)(nil)).
		Set("expires_at = ?", now.Add(ttl)).
		Where("claim_key = ?", key).
		Where("expires_at = ?", existing.ExpiresAt).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Release deletes the claim row for a key, letting a later delivery claim
// it afresh after the covered work failed partway through.
func (s *ReplayClaimStore) Release(ctx context.Context, key string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: replay claim store is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("sqlstore: replay claim key is required")
	}
	_, err := s.db.NewDelete().
		Model((*replayClaimRecord)(nil)).
		Where("claim_key = ?", key).
		Exec(ctx)
	return err
}

func (s *ReplayClaimStore) PurgeExpired(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: replay claim store is not configured")
	}
	result, err := s.db.NewDelete().
		Model((*replayClaimRecord)(nil)).
		Where("expires_at < ?", s.now()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

var _ core.ReplayLedger = (*ReplayClaimStore)(nil)
