package reship

import (
	"fmt"

	reshipcommand "github.com/goliatone/go-reship/command"
	"github.com/goliatone/go-reship/core"
	reshipquery "github.com/goliatone/go-reship/query"
)

// CommandQueryService is the service surface the facade drives. The pipeline
// Service satisfies it; queries resolve their readers from its dependencies.
type CommandQueryService interface {
	reshipcommand.MutatingService
	Dependencies() core.ServiceDependencies
}

type Commands struct {
	ProcessPaymentEvent  *reshipcommand.ProcessPaymentEventCommand
	DispatchOutbox       *reshipcommand.DispatchOutboxCommand
	CreateNotification   *reshipcommand.CreateNotificationCommand
	MarkNotificationRead *reshipcommand.MarkNotificationReadCommand
	ClearNotifications   *reshipcommand.ClearNotificationsCommand
	RefreshTracking      *reshipcommand.RefreshTrackingCommand
	RunStorageFeeSweep   *reshipcommand.RunStorageFeeSweepCommand
}

type Queries struct {
	GetQuote             *reshipquery.GetQuoteQuery
	GetPackage           *reshipquery.GetPackageQuery
	ListPackagesByStatus *reshipquery.ListPackagesByStatusQuery
	ListNotifications    *reshipquery.ListNotificationsQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	quoteReader        reshipquery.QuoteReader
	packageReader      reshipquery.PackageReader
	notificationReader reshipquery.NotificationReader
}

func WithQuoteReader(reader reshipquery.QuoteReader) FacadeOption {
	return func(options *facadeOptions) {
		options.quoteReader = reader
	}
}

func WithPackageReader(reader reshipquery.PackageReader) FacadeOption {
	return func(options *facadeOptions) {
		options.packageReader = reader
	}
}

func WithNotificationReader(reader reshipquery.NotificationReader) FacadeOption {
	return func(options *facadeOptions) {
		options.notificationReader = reader
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("reship: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	deps := service.Dependencies()
	if cfg.quoteReader == nil {
		cfg.quoteReader = deps.QuoteStore
	}
	if cfg.packageReader == nil {
		cfg.packageReader = deps.PackageStore
	}
	if cfg.notificationReader == nil {
		cfg.notificationReader = deps.NotificationStore
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		ProcessPaymentEvent:  reshipcommand.NewProcessPaymentEventCommand(service),
		DispatchOutbox:       reshipcommand.NewDispatchOutboxCommand(service),
		CreateNotification:   reshipcommand.NewCreateNotificationCommand(service),
		MarkNotificationRead: reshipcommand.NewMarkNotificationReadCommand(service),
		ClearNotifications:   reshipcommand.NewClearNotificationsCommand(service),
		RefreshTracking:      reshipcommand.NewRefreshTrackingCommand(service),
		RunStorageFeeSweep:   reshipcommand.NewRunStorageFeeSweepCommand(service),
	}
	facade.queries = Queries{
		GetQuote:             reshipquery.NewGetQuoteQuery(cfg.quoteReader),
		GetPackage:           reshipquery.NewGetPackageQuery(cfg.packageReader),
		ListPackagesByStatus: reshipquery.NewListPackagesByStatusQuery(cfg.packageReader),
		ListNotifications:    reshipquery.NewListNotificationsQuery(cfg.notificationReader),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

var _ CommandQueryService = (*core.Service)(nil)
