package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-reship/core"
)

type QuoteStore struct {
	db   *bun.DB
	repo repository.Repository[*quoteRecord]
}

func NewQuoteStore(db *bun.DB) (*QuoteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*quoteRecord](db, quoteHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid quote repository wiring: %w", err)
		}
	}
	return &QuoteStore{db: db, repo: repo}, nil
}

func (s *QuoteStore) Get(ctx context.Context, id string) (core.Quote, error) {
	if s == nil || s.repo == nil {
		return core.Quote{}, fmt.Errorf("sqlstore: quote store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return core.Quote{}, core.ErrQuoteNotFound
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return core.Quote{}, core.ErrQuoteNotFound
		}
		return core.Quote{}, err
	}
	return record.toDomain(), nil
}

// MarkPaid flips payment_status from draft to paid with a conditional
// update, so a redelivered completed event cannot double-apply.
func (s *QuoteStore) MarkPaid(ctx context.Context, in core.MarkQuotePaidInput) (core.Quote, error) {
	if s == nil || s.db == nil {
		return core.Quote{}, fmt.Errorf("sqlstore: quote store is not configured")
	}
	quoteID := strings.TrimSpace(in.QuoteID)
	if quoteID == "" {
		return core.Quote{}, core.ErrQuoteNotFound
	}
	paidAt := in.PaidAt.UTC()
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}

	result, err := s.db.NewUpdate().
		Model((*quoteRecord)(nil)).
		Set("payment_status = ?", string(core.PaymentStatusPaid)).
		Set("payment_intent_id = ?", strings.TrimSpace(in.PaymentIntentID)).
		Set("paid_at = ?", paidAt).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", quoteID).
		Where("payment_status = ?", string(core.PaymentStatusDraft)).
		Exec(ctx)
	if err != nil {
		return core.Quote{}, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return core.Quote{}, err
	}
	if affected == 0 {
		current, getErr := s.Get(ctx, quoteID)
		if getErr != nil {
			return core.Quote{}, getErr
		}
		if current.PaymentStatus == core.PaymentStatusPaid {
			return current, core.ErrQuoteAlreadyPaid
		}
		return core.Quote{}, fmt.Errorf("sqlstore: quote %q is not payable from status %q", quoteID, current.PaymentStatus)
	}
	return s.Get(ctx, quoteID)
}

// ClearPaymentSession drops the checkout session reference after an
// expired event so a fresh session can be created.
func (s *QuoteStore) ClearPaymentSession(ctx context.Context, quoteID string) (core.Quote, error) {
	if s == nil || s.db == nil {
		return core.Quote{}, fmt.Errorf("sqlstore: quote store is not configured")
	}
	quoteID = strings.TrimSpace(quoteID)
	if quoteID == "" {
		return core.Quote{}, core.ErrQuoteNotFound
	}
	_, err := s.db.NewUpdate().
		Model((*quoteRecord)(nil)).
		Set("payment_session_id = ?", "").
		Set("payment_url = ?", "").
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", quoteID).
		Where("payment_status = ?", string(core.PaymentStatusDraft)).
		Exec(ctx)
	if err != nil {
		return core.Quote{}, err
	}
	return s.Get(ctx, quoteID)
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}

var _ core.QuoteStore = (*QuoteStore)(nil)
