package query

import (
	"context"

	"github.com/goliatone/go-reship/core"
)

type QuoteReader interface {
	Get(ctx context.Context, id string) (core.Quote, error)
}

type PackageReader interface {
	Get(ctx context.Context, id string) (core.Package, error)
	ListByStatus(ctx context.Context, status core.PackageStatus, limit int, offset int) ([]core.Package, int, error)
}

type NotificationReader interface {
	List(ctx context.Context, userID string, page int, perPage int) (core.NotificationPage, error)
}

// PackagePage is the read-model shape for status listings.
type PackagePage struct {
	Items []core.Package
	Total int
}

type GetQuoteQuery struct {
	reader QuoteReader
}

func NewGetQuoteQuery(reader QuoteReader) *GetQuoteQuery {
	return &GetQuoteQuery{reader: reader}
}

func (q *GetQuoteQuery) Query(ctx context.Context, msg GetQuoteMessage) (core.Quote, error) {
	if q == nil || q.reader == nil {
		return core.Quote{}, queryDependencyError("query: quote reader is required")
	}
	return q.reader.Get(ctx, msg.QuoteID)
}

type GetPackageQuery struct {
	reader PackageReader
}

func NewGetPackageQuery(reader PackageReader) *GetPackageQuery {
	return &GetPackageQuery{reader: reader}
}

func (q *GetPackageQuery) Query(ctx context.Context, msg GetPackageMessage) (core.Package, error) {
	if q == nil || q.reader == nil {
		return core.Package{}, queryDependencyError("query: package reader is required")
	}
	return q.reader.Get(ctx, msg.PackageID)
}

type ListPackagesByStatusQuery struct {
	reader PackageReader
}

func NewListPackagesByStatusQuery(reader PackageReader) *ListPackagesByStatusQuery {
	return &ListPackagesByStatusQuery{reader: reader}
}

func (q *ListPackagesByStatusQuery) Query(
	ctx context.Context,
	msg ListPackagesByStatusMessage,
) (PackagePage, error) {
	if q == nil || q.reader == nil {
		return PackagePage{}, queryDependencyError("query: package reader is required")
	}
	items, total, err := q.reader.ListByStatus(ctx, msg.Status, msg.Limit, msg.Offset)
	if err != nil {
		return PackagePage{}, err
	}
	return PackagePage{Items: items, Total: total}, nil
}

type ListNotificationsQuery struct {
	reader NotificationReader
}

func NewListNotificationsQuery(reader NotificationReader) *ListNotificationsQuery {
	return &ListNotificationsQuery{reader: reader}
}

func (q *ListNotificationsQuery) Query(
	ctx context.Context,
	msg ListNotificationsMessage,
) (core.NotificationPage, error) {
	if q == nil || q.reader == nil {
		return core.NotificationPage{}, queryDependencyError("query: notification reader is required")
	}
	return q.reader.List(ctx, msg.UserID, msg.Page, msg.PerPage)
}
