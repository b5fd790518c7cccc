package sqlstore

import (
	"time"

	"github.com/goliatone/go-reship/core"
)

func (r *quoteRecord) toDomain() core.Quote {
	if r == nil {
		return core.Quote{}
	}
	quote := core.Quote{
		ID:               r.ID,
		PackageID:        r.PackageID,
		Carrier:          r.Carrier,
		PriceCents:       r.PriceCents,
		Currency:         r.Currency,
		Status:           core.QuoteStatus(r.Status),
		PaymentStatus:    core.PaymentStatus(r.PaymentStatus),
		PaymentSessionID: r.PaymentSessionID,
		PaymentURL:       r.PaymentURL,
		PaymentIntentID:  r.PaymentIntentID,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	quote.PaidAt = cloneTimePointer(r.PaidAt)
	return quote
}

func (r *packageRecord) toDomain() core.Package {
	if r == nil {
		return core.Package{}
	}
	pkg := core.Package{
		ID:                 r.ID,
		UserID:             r.UserID,
		TrackingNumber:     r.TrackingNumber,
		Carrier:            r.Carrier,
		Status:             core.PackageStatus(r.Status),
		WeightGrams:        r.WeightGrams,
		DeclaredValueCents: r.DeclaredValueCents,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	pkg.ReceivedAt = cloneTimePointer(r.ReceivedAt)
	pkg.ShippedAt = cloneTimePointer(r.ShippedAt)
	pkg.DeliveredAt = cloneTimePointer(r.DeliveredAt)
	return pkg
}

func (r *notificationRecord) toDomain() core.Notification {
	if r == nil {
		return core.Notification{}
	}
	return core.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		Message:   r.Message,
		Read:      r.Read,
		CreatedAt: r.CreatedAt,
	}
}

func (r *storageFeeRecord) toDomain() core.StorageFee {
	if r == nil {
		return core.StorageFee{}
	}
	return core.StorageFee{
		ID:          r.ID,
		PackageID:   r.PackageID,
		DaysOver:    r.DaysOver,
		AmountCents: r.AmountCents,
		AssessedAt:  r.AssessedAt,
		CreatedAt:   r.CreatedAt,
	}
}

func cloneTimePointer(input *time.Time) *time.Time {
	if input == nil {
		return nil
	}
	value := input.UTC()
	return &value
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
