package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStorageFeeCalculatorDaysOver(t *testing.T) {
	calc := StorageFeeCalculator{FreeDays: 7, DailyFeeCents: 500}
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		received time.Time
		want     int
	}{
		{"inside free window", now.Add(-3 * 24 * time.Hour), 0},
		{"at the boundary", now.Add(-7 * 24 * time.Hour), 0},
		{"one day over", now.Add(-8 * 24 * time.Hour), 1},
		{"ten days over", now.Add(-17 * 24 * time.Hour), 10},
	}
	for _, tc := range cases {
		received := tc.received
		if got := calc.DaysOver(&received, now); got != tc.want {
			t.Fatalf("%s: expected %d days over, got %d", tc.name, tc.want, got)
		}
	}

	if got := calc.DaysOver(nil, now); got != 0 {
		t.Fatalf("nil receivedAt: expected 0, got %d", got)
	}
}

func TestStorageFeeCalculatorFeeCents(t *testing.T) {
	calc := StorageFeeCalculator{FreeDays: 7, DailyFeeCents: 500}
	if got := calc.FeeCents(0); got != 0 {
		t.Fatalf("expected no fee at zero days, got %d", got)
	}
	if got := calc.FeeCents(3); got != 1500 {
		t.Fatalf("expected 1500 cents for 3 days, got %d", got)
	}
}

func TestRunStorageFeeSweep(t *testing.T) {
	now := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	over := now.Add(-10 * 24 * time.Hour)
	inside := now.Add(-2 * 24 * time.Hour)

	packages := newStubPackageStore()
	packages.accruing = []Package{
		{ID: "pkg_over", UserID: "usr_1", Status: PackageStatusReceived, ReceivedAt: &over},
		{ID: "pkg_inside", UserID: "usr_2", Status: PackageStatusReceived, ReceivedAt: &inside},
	}
	fees := &stubStorageFeeStore{}
	service := newTestService(t,
		WithPackageStore(packages),
		WithStorageFeeStore(fees),
	)

	stats, err := service.RunStorageFeeSweep(context.Background(), now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if stats.Scanned != 2 || stats.Assessed != 1 || stats.Skipped != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(fees.recorded) != 1 {
		t.Fatalf("expected one recorded fee, got %d", len(fees.recorded))
	}
	fee := fees.recorded[0]
	if fee.PackageID != "pkg_over" || fee.DaysOver != 3 || fee.AmountCents != 1500 {
		t.Fatalf("unexpected fee: %+v", fee)
	}
	if !fee.AssessedAt.Equal(now) {
		t.Fatalf("expected assessment at %v, got %v", now, fee.AssessedAt)
	}
}

func TestRunStorageFeeSweepRecordFailureSkips(t *testing.T) {
	now := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	over := now.Add(-10 * 24 * time.Hour)

	packages := newStubPackageStore()
	packages.accruing = []Package{
		{ID: "pkg_over", UserID: "usr_1", Status: PackageStatusReceived, ReceivedAt: &over},
	}
	fees := &stubStorageFeeStore{recordErr: errors.New("insert failed")}
	service := newTestService(t,
		WithPackageStore(packages),
		WithStorageFeeStore(fees),
	)

	stats, err := service.RunStorageFeeSweep(context.Background(), now)
	if err != nil {
		t.Fatalf("sweep must not fail on a single record error: %v", err)
	}
	if stats.Assessed != 0 || stats.Skipped != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
