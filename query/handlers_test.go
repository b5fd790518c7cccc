package query

import (
	"context"
	"fmt"
	"testing"

	"github.com/goliatone/go-reship/core"
)

func TestGetQuoteQuery_QueryDelegates(t *testing.T) {
	expected := core.Quote{
		ID:            "qte_1",
		PackageID:     "pkg_1",
		PaymentStatus: core.PaymentStatusPaid,
	}
	called := false
	reader := stubQuoteReader{
		getFn: func(_ context.Context, id string) (core.Quote, error) {
			called = true
			if id != "qte_1" {
				t.Fatalf("unexpected quote id: %q", id)
			}
			return expected, nil
		},
	}

	qry := NewGetQuoteQuery(reader)
	result, err := qry.Query(context.Background(), GetQuoteMessage{QuoteID: "qte_1"})
	if err != nil {
		t.Fatalf("query quote: %v", err)
	}
	if !called {
		t.Fatalf("expected quote reader invocation")
	}
	if result.ID != expected.ID || result.PaymentStatus != expected.PaymentStatus {
		t.Fatalf("unexpected quote result: %#v", result)
	}
}

func TestGetPackageQuery_QueryDelegates(t *testing.T) {
	called := false
	reader := stubPackageReader{
		getFn: func(_ context.Context, id string) (core.Package, error) {
			called = true
			if id != "pkg_1" {
				t.Fatalf("unexpected package id: %q", id)
			}
			return core.Package{ID: id, Status: core.PackageStatusReceived}, nil
		},
	}

	qry := NewGetPackageQuery(reader)
	result, err := qry.Query(context.Background(), GetPackageMessage{PackageID: "pkg_1"})
	if err != nil {
		t.Fatalf("query package: %v", err)
	}
	if !called {
		t.Fatalf("expected package reader invocation")
	}
	if result.Status != core.PackageStatusReceived {
		t.Fatalf("unexpected package result: %#v", result)
	}
}

func TestListPackagesByStatusQuery_QueryDelegates(t *testing.T) {
	called := false
	reader := stubPackageReader{
		listByStatusFn: func(_ context.Context, status core.PackageStatus, limit int, offset int) ([]core.Package, int, error) {
			called = true
			if status != core.PackageStatusReadyToShip || limit != 10 || offset != 20 {
				t.Fatalf("unexpected list request: %q %d %d", status, limit, offset)
			}
			return []core.Package{{ID: "pkg_1", Status: status}}, 31, nil
		},
	}

	qry := NewListPackagesByStatusQuery(reader)
	result, err := qry.Query(context.Background(), ListPackagesByStatusMessage{
		Status: core.PackageStatusReadyToShip,
		Limit:  10,
		Offset: 20,
	})
	if err != nil {
		t.Fatalf("query packages by status: %v", err)
	}
	if !called {
		t.Fatalf("expected package reader invocation")
	}
	if len(result.Items) != 1 || result.Total != 31 {
		t.Fatalf("unexpected package page result: %#v", result)
	}
}

func TestListNotificationsQuery_QueryDelegates(t *testing.T) {
	expected := core.NotificationPage{
		Items:   []core.Notification{{ID: "ntf_1", UserID: "usr_1", Title: "Package ready to ship"}},
		Total:   1,
		Page:    1,
		PerPage: 20,
	}
	called := false
	reader := stubNotificationReader{
		listFn: func(_ context.Context, userID string, page int, perPage int) (core.NotificationPage, error) {
			called = true
			if userID != "usr_1" || page != 1 || perPage != 20 {
				t.Fatalf("unexpected list request: %q %d %d", userID, page, perPage)
			}
			return expected, nil
		},
	}

	qry := NewListNotificationsQuery(reader)
	result, err := qry.Query(context.Background(), ListNotificationsMessage{
		UserID:  "usr_1",
		Page:    1,
		PerPage: 20,
	})
	if err != nil {
		t.Fatalf("query notifications: %v", err)
	}
	if !called {
		t.Fatalf("expected notification reader invocation")
	}
	if result.Total != expected.Total {
		t.Fatalf("unexpected notification page result: %#v", result)
	}
}

func TestQueries_NilReaderReturnsDependencyError(t *testing.T) {
	var quoteQry *GetQuoteQuery
	if _, err := quoteQry.Query(context.Background(), GetQuoteMessage{QuoteID: "qte_1"}); err == nil {
		t.Fatalf("expected dependency error for nil quote query")
	}
	if _, err := NewListNotificationsQuery(nil).Query(context.Background(), ListNotificationsMessage{UserID: "usr_1"}); err == nil {
		t.Fatalf("expected dependency error for nil notification reader")
	}
}

func TestQueryMessageValidation(t *testing.T) {
	tests := []struct {
		name    string
		msg     interface{ Validate() error }
		wantErr bool
	}{
		{name: "get quote valid", msg: GetQuoteMessage{QuoteID: "qte_1"}, wantErr: false},
		{name: "get quote missing id", msg: GetQuoteMessage{}, wantErr: true},
		{name: "get package missing id", msg: GetPackageMessage{}, wantErr: true},
		{
			name:    "list by status valid",
			msg:     ListPackagesByStatusMessage{Status: core.PackageStatusReceived, Limit: 10},
			wantErr: false,
		},
		{
			name:    "list by status missing status",
			msg:     ListPackagesByStatusMessage{Limit: 10},
			wantErr: true,
		},
		{
			name:    "list by status negative limit",
			msg:     ListPackagesByStatusMessage{Status: core.PackageStatusReceived, Limit: -1},
			wantErr: true,
		},
		{
			name:    "list notifications valid",
			msg:     ListNotificationsMessage{UserID: "usr_1", Page: 1, PerPage: 20},
			wantErr: false,
		},
		{
			name:    "list notifications missing user",
			msg:     ListNotificationsMessage{Page: 1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

type stubQuoteReader struct {
	getFn func(ctx context.Context, id string) (core.Quote, error)
}

func (s stubQuoteReader) Get(ctx context.Context, id string) (core.Quote, error) {
	if s.getFn == nil {
		return core.Quote{}, fmt.Errorf("get quote not configured")
	}
	return s.getFn(ctx, id)
}

type stubPackageReader struct {
	getFn          func(ctx context.Context, id string) (core.Package, error)
	listByStatusFn func(ctx context.Context, status core.PackageStatus, limit int, offset int) ([]core.Package, int, error)
}

func (s stubPackageReader) Get(ctx context.Context, id string) (core.Package, error) {
	if s.getFn == nil {
		return core.Package{}, fmt.Errorf("get package not configured")
	}
	return s.getFn(ctx, id)
}

func (s stubPackageReader) ListByStatus(
	ctx context.Context,
	status core.PackageStatus,
	limit int,
	offset int,
) ([]core.Package, int, error) {
	if s.listByStatusFn == nil {
		return nil, 0, fmt.Errorf("list by status not configured")
	}
	return s.listByStatusFn(ctx, status, limit, offset)
}

type stubNotificationReader struct {
	listFn func(ctx context.Context, userID string, page int, perPage int) (core.NotificationPage, error)
}

func (s stubNotificationReader) List(
	ctx context.Context,
	userID string,
	page int,
	perPage int,
) (core.NotificationPage, error) {
	if s.listFn == nil {
		return core.NotificationPage{}, fmt.Errorf("list notifications not configured")
	}
	return s.listFn(ctx, userID, page, perPage)
}

var (
	_ QuoteReader        = stubQuoteReader{}
	_ PackageReader      = stubPackageReader{}
	_ NotificationReader = stubNotificationReader{}
)
