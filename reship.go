package reship

import "github.com/goliatone/go-reship/core"

type Config = core.Config

type StorageFeeConfig = core.StorageFeeConfig
type ScheduleConfig = core.ScheduleConfig
type WebhookConfig = core.WebhookConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies
type QuoteStore = core.QuoteStore
type PackageStore = core.PackageStore
type NotificationStore = core.NotificationStore
type StorageFeeStore = core.StorageFeeStore
type OutboxStore = core.OutboxStore
type NotificationDispatchLedger = core.NotificationDispatchLedger
type ReplayLedger = core.ReplayLedger
type ProjectorRegistry = core.ProjectorRegistry
type JobEnqueuer = core.JobEnqueuer
type Mailer = core.Mailer
type TrackingProvider = core.TrackingProvider

type Quote = core.Quote
type Package = core.Package
type Notification = core.Notification
type NotificationPage = core.NotificationPage
type StorageFee = core.StorageFee
type EmailMessage = core.EmailMessage

type PaymentEvent = core.PaymentEvent
type PaymentEventType = core.PaymentEventType
type PaymentEventResult = core.PaymentEventResult
type IntentEvent = core.IntentEvent
type DispatchStats = core.DispatchStats
type TrackingRefreshStats = core.TrackingRefreshStats
type StorageFeeSweepStats = core.StorageFeeSweepStats

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithErrorFactory      = core.WithErrorFactory
	WithErrorMapper       = core.WithErrorMapper
	WithPersistenceClient = core.WithPersistenceClient
	WithRepositoryFactory = core.WithRepositoryFactory
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithQuoteStore        = core.WithQuoteStore
	WithPackageStore      = core.WithPackageStore
	WithNotificationStore = core.WithNotificationStore
	WithStorageFeeStore   = core.WithStorageFeeStore
	WithOutboxStore       = core.WithOutboxStore
	WithDispatchLedger    = core.WithDispatchLedger
	WithReplayLedger      = core.WithReplayLedger
	WithProjectorRegistry = core.WithProjectorRegistry
	WithJobEnqueuer       = core.WithJobEnqueuer
	WithMailer            = core.WithMailer
	WithTrackingProvider  = core.WithTrackingProvider
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
