package command

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-reship/core"
)

var (
	_ gocmd.Commander[ProcessPaymentEventMessage]  = (*ProcessPaymentEventCommand)(nil)
	_ gocmd.Commander[DispatchOutboxMessage]       = (*DispatchOutboxCommand)(nil)
	_ gocmd.Commander[CreateNotificationMessage]   = (*CreateNotificationCommand)(nil)
	_ gocmd.Commander[MarkNotificationReadMessage] = (*MarkNotificationReadCommand)(nil)
	_ gocmd.Commander[ClearNotificationsMessage]   = (*ClearNotificationsCommand)(nil)
	_ gocmd.Commander[RefreshTrackingMessage]      = (*RefreshTrackingCommand)(nil)
	_ gocmd.Commander[RunStorageFeeSweepMessage]   = (*RunStorageFeeSweepCommand)(nil)

	_ MutatingService = (*core.Service)(nil)
)
