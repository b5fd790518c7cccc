package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-reship/core"
)

const storageFeeDayFormat = "2006-01-02"

type StorageFeeStore struct {
	db   *bun.DB
	repo repository.Repository[*storageFeeRecord]
}

func NewStorageFeeStore(db *bun.DB) (*StorageFeeStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*storageFeeRecord](db, storageFeeHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid storage fee repository wiring: %w", err)
		}
	}
	return &StorageFeeStore{db: db, repo: repo}, nil
}

// Record writes one accrual row per package per UTC day. Re-running a sweep
// for a day that already accrued returns the existing row unchanged.
func (s *StorageFeeStore) Record(ctx context.Context, in core.RecordStorageFeeInput) (core.StorageFee, error) {
	if s == nil || s.repo == nil {
		return core.StorageFee{}, fmt.Errorf("sqlstore: storage fee store is not configured")
	}
	packageID := strings.TrimSpace(in.PackageID)
	if packageID == "" {
		return core.StorageFee{}, fmt.Errorf("sqlstore: storage fee package id is required")
	}
	assessedAt := in.AssessedAt.UTC()
	if assessedAt.IsZero() {
		assessedAt = time.Now().UTC()
	}
	assessedOn := assessedAt.Format(storageFeeDayFormat)

	record := &storageFeeRecord{
		ID:          uuid.NewString(),
		PackageID:   packageID,
		DaysOver:    in.DaysOver,
		AmountCents: in.AmountCents,
		AssessedOn:  assessedOn,
		AssessedAt:  assessedAt,
		CreatedAt:   time.Now().UTC(),
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		if isUniqueConstraintError(err) {
			return s.getByDay(ctx, packageID, assessedOn)
		}
		return core.StorageFee{}, err
	}
	return created.toDomain(), nil
}

func (s *StorageFeeStore) getByDay(ctx context.Context, packageID string, assessedOn string) (core.StorageFee, error) {
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("package_id", "=", packageID),
		repository.SelectBy("assessed_on", "=", assessedOn),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.StorageFee{}, err
	}
	if len(records) == 0 {
		return core.StorageFee{}, fmt.Errorf("sqlstore: storage fee not found for package %q on %s", packageID, assessedOn)
	}
	return records[0].toDomain(), nil
}

var _ core.StorageFeeStore = (*StorageFeeStore)(nil)
