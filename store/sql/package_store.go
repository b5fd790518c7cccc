package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-reship/core"
)

// storageAccruingStatuses are the package states still occupying warehouse
// space; anything shipped or cancelled stops accruing fees.
var storageAccruingStatuses = []string{
	string(core.PackageStatusReceived),
	string(core.PackageStatusProcessing),
	string(core.PackageStatusReadyToShip),
	string(core.PackageStatusPaidReadyToShip),
}

type PackageStore struct {
	db   *bun.DB
	repo repository.Repository[*packageRecord]
}

func NewPackageStore(db *bun.DB) (*PackageStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*packageRecord](db, packageHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid package repository wiring: %w", err)
		}
	}
	return &PackageStore{db: db, repo: repo}, nil
}

func (s *PackageStore) Get(ctx context.Context, id string) (core.Package, error) {
	if s == nil || s.repo == nil {
		return core.Package{}, fmt.Errorf("sqlstore: package store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return core.Package{}, core.ErrPackageNotFound
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return core.Package{}, core.ErrPackageNotFound
		}
		return core.Package{}, err
	}
	return record.toDomain(), nil
}

func (s *PackageStore) UpdateStatus(ctx context.Context, id string, status core.PackageStatus) (core.Package, error) {
	if s == nil || s.repo == nil {
		return core.Package{}, fmt.Errorf("sqlstore: package store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return core.Package{}, core.ErrPackageNotFound
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return core.Package{}, core.ErrPackageNotFound
		}
		return core.Package{}, err
	}

	now := time.Now().UTC()
	record.Status = string(status)
	record.UpdatedAt = now
	switch status {
	case core.PackageStatusShipped:
		if record.ShippedAt == nil {
			record.ShippedAt = &now
		}
	case core.PackageStatusDelivered:
		if record.DeliveredAt == nil {
			record.DeliveredAt = &now
		}
	}

	updated, err := s.repo.Update(ctx, record, repository.UpdateByID(id))
	if err != nil {
		return core.Package{}, err
	}
	return updated.toDomain(), nil
}

func (s *PackageStore) ListByStatus(ctx context.Context, status core.PackageStatus, limit int, offset int) ([]core.Package, int, error) {
	if s == nil || s.repo == nil {
		return nil, 0, fmt.Errorf("sqlstore: package store is not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	records, total, err := s.repo.List(ctx,
		repository.SelectBy("status", "=", string(status)),
		repository.OrderBy("created_at ASC"),
		repository.SelectPaginate(limit, offset),
	)
	if err != nil {
		return nil, 0, err
	}

	out := make([]core.Package, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, total, nil
}

func (s *PackageStore) ListStorageAccruing(ctx context.Context, receivedBefore time.Time, limit int) ([]core.Package, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: package store is not configured")
	}
	if limit <= 0 {
		limit = 100
	}
	var records []packageRecord
	err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.status IN (?)", bun.In(storageAccruingStatuses)).
		Where("?TableAlias.received_at IS NOT NULL").
		Where("?TableAlias.received_at < ?", receivedBefore.UTC()).
		Order("received_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]core.Package, 0, len(records))
	for i := range records {
		out = append(out, records[i].toDomain())
	}
	return out, nil
}

var _ core.PackageStore = (*PackageStore)(nil)
