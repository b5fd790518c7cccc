package query

import (
	"strings"

	"github.com/goliatone/go-reship/core"
)

const (
	TypeGetQuote             = "reship.query.quote.get"
	TypeGetPackage           = "reship.query.package.get"
	TypeListPackagesByStatus = "reship.query.package.list_by_status"
	TypeListNotifications    = "reship.query.notification.list"
)

type GetQuoteMessage struct {
	QuoteID string
}

func (GetQuoteMessage) Type() string { return TypeGetQuote }

func (m GetQuoteMessage) Validate() error {
	if strings.TrimSpace(m.QuoteID) == "" {
		return queryValidationError("quote_id", "quote id is required")
	}
	return nil
}

type GetPackageMessage struct {
	PackageID string
}

func (GetPackageMessage) Type() string { return TypeGetPackage }

func (m GetPackageMessage) Validate() error {
	if strings.TrimSpace(m.PackageID) == "" {
		return queryValidationError("package_id", "package id is required")
	}
	return nil
}

type ListPackagesByStatusMessage struct {
	Status core.PackageStatus
	Limit  int
	Offset int
}

func (ListPackagesByStatusMessage) Type() string { return TypeListPackagesByStatus }

func (m ListPackagesByStatusMessage) Validate() error {
	if strings.TrimSpace(string(m.Status)) == "" {
		return queryValidationError("status", "package status is required")
	}
	if m.Limit < 0 {
		return queryValidationError("limit", "limit must be >= 0")
	}
	if m.Offset < 0 {
		return queryValidationError("offset", "offset must be >= 0")
	}
	return nil
}

type ListNotificationsMessage struct {
	UserID  string
	Page    int
	PerPage int
}

func (ListNotificationsMessage) Type() string { return TypeListNotifications }

func (m ListNotificationsMessage) Validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return queryValidationError("user_id", "user id is required")
	}
	if m.Page < 0 {
		return queryValidationError("page", "page must be >= 0")
	}
	if m.PerPage < 0 {
		return queryValidationError("per_page", "per_page must be >= 0")
	}
	return nil
}
