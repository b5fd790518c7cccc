package core

import (
	"context"
	"errors"
	"time"
)

const storageSweepPageSize = 200

// StorageFeeCalculator turns a package's time in storage into an accrued fee.
type StorageFeeCalculator struct {
	FreeDays      int
	DailyFeeCents int64
}

// DaysOver reports how many whole days past the free window a package has
// been in storage at the given instant. Zero when still inside the window or
// when the package was never received.
func (c StorageFeeCalculator) DaysOver(receivedAt *time.Time, now time.Time) int {
	if receivedAt == nil || receivedAt.IsZero() {
		return 0
	}
	stored := int(now.UTC().Sub(receivedAt.UTC()).Hours() / 24)
	over := stored - c.FreeDays
	if over < 0 {
		return 0
	}
	return over
}

func (c StorageFeeCalculator) FeeCents(daysOver int) int64 {
	if daysOver <= 0 {
		return 0
	}
	return int64(daysOver) * c.DailyFeeCents
}

type StorageFeeSweepStats struct {
	Scanned  int
	Assessed int
	Skipped  int
}

// RunStorageFeeSweep assesses storage fees for every package held past the
// free window. It is the consumer of the daily storage-fee trigger job.
func (s *Service) RunStorageFeeSweep(ctx context.Context, now time.Time) (stats StorageFeeSweepStats, err error) {
	startedAt := time.Now()
	defer func() {
		s.observeOperation(ctx, startedAt, "storage_fee_sweep", err, map[string]any{
			"scanned":  stats.Scanned,
			"assessed": stats.Assessed,
			"skipped":  stats.Skipped,
		})
	}()

	if s == nil || s.packageStore == nil || s.storageFeeStore == nil {
		return StorageFeeSweepStats{}, s.mapError(errors.New("core: package and storage fee stores are required"))
	}
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	calc := StorageFeeCalculator{
		FreeDays:      s.config.StorageFee.FreeDays,
		DailyFeeCents: s.config.StorageFee.DailyFeeCents,
	}
	cutoff := now.Add(-time.Duration(calc.FreeDays) * 24 * time.Hour)

	packages, listErr := s.packageStore.ListStorageAccruing(ctx, cutoff, storageSweepPageSize)
	if listErr != nil {
		err = s.mapError(listErr)
		return stats, err
	}

	for _, pkg := range packages {
		stats.Scanned++
		daysOver := calc.DaysOver(pkg.ReceivedAt, now)
		if daysOver <= 0 {
			stats.Skipped++
			continue
		}
		if _, recordErr := s.storageFeeStore.Record(ctx, RecordStorageFeeInput{
			PackageID:   pkg.ID,
			DaysOver:    daysOver,
			AmountCents: calc.FeeCents(daysOver),
			AssessedAt:  now,
		}); recordErr != nil {
			s.logError(ctx, "storage fee record failed", map[string]any{
				"package_id": pkg.ID,
				"error":      recordErr.Error(),
			})
			stats.Skipped++
			continue
		}
		stats.Assessed++
	}
	return stats, nil
}
