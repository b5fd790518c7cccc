package core

import (
	"context"
	"errors"
	"strings"
	"time"
)

const trackingRefreshPageSize = 200

type TrackingRefreshStats struct {
	Scanned   int
	Delivered int
	Failed    int
}

// RefreshTracking fans the six-hourly tracking trigger out across every
// shipped package, asking the tracking provider for live status and
// recording delivered transitions. Provider errors for one package do not
// stop the sweep.
func (s *Service) RefreshTracking(ctx context.Context) (stats TrackingRefreshStats, err error) {
	startedAt := time.Now()
	defer func() {
		s.observeOperation(ctx, startedAt, "tracking_refresh", err, map[string]any{
			"scanned":   stats.Scanned,
			"delivered": stats.Delivered,
			"failed":    stats.Failed,
		})
	}()

	if s == nil || s.packageStore == nil {
		return TrackingRefreshStats{}, s.mapError(errors.New("core: package store is required"))
	}
	if s.trackingProvider == nil {
		return TrackingRefreshStats{}, s.mapError(errors.New("core: tracking provider is required"))
	}

	offset := 0
	for {
		packages, _, listErr := s.packageStore.ListByStatus(ctx, PackageStatusShipped, trackingRefreshPageSize, offset)
		if listErr != nil {
			err = s.mapError(listErr)
			return stats, err
		}
		if len(packages) == 0 {
			return stats, nil
		}
		deliveredBefore := stats.Delivered
		for _, pkg := range packages {
			stats.Scanned++
			if refreshErr := s.refreshOnePackage(ctx, pkg, &stats); refreshErr != nil {
				stats.Failed++
				s.logError(ctx, "tracking refresh failed", map[string]any{
					"package_id":      pkg.ID,
					"tracking_number": pkg.TrackingNumber,
					"error":           refreshErr.Error(),
				})
			}
		}
		if len(packages) < trackingRefreshPageSize {
			return stats, nil
		}
		// Delivered rows leave the shipped window, shifting the remaining
		// rows back by the same count.
		offset += len(packages) - (stats.Delivered - deliveredBefore)
	}
}

func (s *Service) refreshOnePackage(ctx context.Context, pkg Package, stats *TrackingRefreshStats) error {
	trackingNumber := strings.TrimSpace(pkg.TrackingNumber)
	if trackingNumber == "" {
		return errors.New("core: package has no tracking number")
	}
	status, err := s.trackingProvider.Status(ctx, trackingNumber)
	if err != nil {
		return err
	}
	if !status.Delivered {
		return nil
	}
	if _, err := s.packageStore.UpdateStatus(ctx, pkg.ID, PackageStatusDelivered); err != nil {
		return err
	}
	stats.Delivered++

	if s.outboxStore != nil {
		event := IntentEvent{
			ID:         "tracking:" + pkg.ID + ":delivered",
			Name:       IntentNotificationCreate,
			PackageID:  pkg.ID,
			UserID:     pkg.UserID,
			OccurredAt: time.Now().UTC(),
			Payload: map[string]any{
				"title":   "Package delivered",
				"message": "Your package " + trackingNumber + " was delivered.",
			},
		}
		if err := s.outboxStore.Enqueue(ctx, event); err != nil {
			s.logError(ctx, "delivered notification intent enqueue failed", map[string]any{
				"package_id": pkg.ID,
				"error":      err.Error(),
			})
		}
	}
	return nil
}
