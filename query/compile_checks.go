package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-reship/core"
)

var (
	_ gocmd.Querier[GetQuoteMessage, core.Quote]                     = (*GetQuoteQuery)(nil)
	_ gocmd.Querier[GetPackageMessage, core.Package]                 = (*GetPackageQuery)(nil)
	_ gocmd.Querier[ListPackagesByStatusMessage, PackagePage]        = (*ListPackagesByStatusQuery)(nil)
	_ gocmd.Querier[ListNotificationsMessage, core.NotificationPage] = (*ListNotificationsQuery)(nil)

	_ QuoteReader        = (core.QuoteStore)(nil)
	_ PackageReader      = (core.PackageStore)(nil)
	_ NotificationReader = (core.NotificationStore)(nil)
)
