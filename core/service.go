package core

import (
	"context"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// Service owns the reship pipeline: payment event processing, notification
// fan-out through the outbox, storage-fee sweeps, and tracking refresh. All
// collaborators are injected at construction; there are no package-level
// singletons.
type Service struct {
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	persistenceClient any
	repositoryFactory any
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	quoteStore        QuoteStore
	packageStore      PackageStore
	notificationStore NotificationStore
	storageFeeStore   StorageFeeStore
	outboxStore       OutboxStore
	dispatchLedger    NotificationDispatchLedger
	replayLedger      ReplayLedger
	projectors        ProjectorRegistry
	jobEnqueuer       JobEnqueuer
	mailer            Mailer
	trackingProvider  TrackingProvider
	dispatcher        *OutboxDispatcher
}

type ServiceDependencies struct {
	Logger            Logger
	LoggerProvider    LoggerProvider
	MetricsRecorder   MetricsRecorder
	ErrorFactory      ErrorFactory
	ErrorMapper       ErrorMapper
	PersistenceClient any
	RepositoryFactory any
	ConfigProvider    ConfigProvider
	OptionsResolver   OptionsResolver
	QuoteStore        QuoteStore
	PackageStore      PackageStore
	NotificationStore NotificationStore
	StorageFeeStore   StorageFeeStore
	OutboxStore       OutboxStore
	DispatchLedger    NotificationDispatchLedger
	ReplayLedger      ReplayLedger
	Projectors        ProjectorRegistry
	JobEnqueuer       JobEnqueuer
	Mailer            Mailer
	TrackingProvider  TrackingProvider
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("reship", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("reship"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.projectors == nil {
		builder.projectors = NewIntentProjectorRegistry()
	}
	if builder.replayLedger == nil {
		builder.replayLedger = NewMemoryReplayLedger(0)
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.repositoryFactory != nil && needsStores(builder) {
		var storeProvider StoreProvider
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			storeProvider, err = storeFactory.BuildStores(builder.persistenceClient)
			if err != nil {
				return nil, mapBuildError(builder.errorMapper, err)
			}
		} else if resolved, ok := builder.repositoryFactory.(StoreProvider); ok {
			storeProvider = resolved
		}
		if storeProvider != nil {
			if builder.quoteStore == nil {
				builder.quoteStore = storeProvider.QuoteStore()
			}
			if builder.packageStore == nil {
				builder.packageStore = storeProvider.PackageStore()
			}
			if builder.notificationStore == nil {
				builder.notificationStore = storeProvider.NotificationStore()
			}
			if builder.storageFeeStore == nil {
				builder.storageFeeStore = storeProvider.StorageFeeStore()
			}
			if builder.outboxStore == nil {
				builder.outboxStore = storeProvider.OutboxStore()
			}
			if builder.dispatchLedger == nil {
				builder.dispatchLedger = storeProvider.DispatchLedger()
			}
		}
	}

	service := &Service{
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		errorFactory:      builder.errorFactory,
		errorMapper:       builder.errorMapper,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		quoteStore:        builder.quoteStore,
		packageStore:      builder.packageStore,
		notificationStore: builder.notificationStore,
		storageFeeStore:   builder.storageFeeStore,
		outboxStore:       builder.outboxStore,
		dispatchLedger:    builder.dispatchLedger,
		replayLedger:      builder.replayLedger,
		projectors:        builder.projectors,
		jobEnqueuer:       builder.jobEnqueuer,
		mailer:            builder.mailer,
		trackingProvider:  builder.trackingProvider,
	}

	if len(service.projectors.Handlers()) == 0 {
		if service.notificationStore != nil {
			service.projectors.Register("notifications", NewNotificationProjector(
				service.notificationStore,
				service.dispatchLedger,
			))
		}
		if service.jobEnqueuer != nil {
			service.projectors.Register("email", NewEmailProjector(service.jobEnqueuer))
		}
	}

	if service.outboxStore != nil {
		dispatcher, dispatchErr := NewOutboxDispatcher(
			service.outboxStore,
			service.projectors,
			DefaultOutboxDispatcherConfig(),
		)
		if dispatchErr != nil {
			return nil, mapBuildError(builder.errorMapper, dispatchErr)
		}
		service.dispatcher = dispatcher
	}

	return service, nil
}

func Setup(cfg Config, options ...Option) (*Service, error) {
	return NewService(cfg, options...)
}

func needsStores(builder serviceBuilder) bool {
	return builder.quoteStore == nil ||
		builder.packageStore == nil ||
		builder.notificationStore == nil ||
		builder.storageFeeStore == nil ||
		builder.outboxStore == nil ||
		builder.dispatchLedger == nil
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:            s.logger,
		LoggerProvider:    s.loggerProvider,
		MetricsRecorder:   s.metricsRecorder,
		ErrorFactory:      s.errorFactory,
		ErrorMapper:       s.errorMapper,
		PersistenceClient: s.persistenceClient,
		RepositoryFactory: s.repositoryFactory,
		ConfigProvider:    s.configProvider,
		OptionsResolver:   s.optionsResolver,
		QuoteStore:        s.quoteStore,
		PackageStore:      s.packageStore,
		NotificationStore: s.notificationStore,
		StorageFeeStore:   s.storageFeeStore,
		OutboxStore:       s.outboxStore,
		DispatchLedger:    s.dispatchLedger,
		ReplayLedger:      s.replayLedger,
		Projectors:        s.projectors,
		JobEnqueuer:       s.jobEnqueuer,
		Mailer:            s.mailer,
		TrackingProvider:  s.trackingProvider,
	}
}

// DispatchOutbox delivers a batch of pending intents. Callers typically run
// it from a recurring job or a worker loop.
func (s *Service) DispatchOutbox(ctx context.Context, batchSize int) (stats DispatchStats, err error) {
	startedAt := time.Now()
	defer func() {
		s.observeOperation(ctx, startedAt, "outbox_dispatch", err, map[string]any{
			"claimed":   stats.Claimed,
			"delivered": stats.Delivered,
			"retried":   stats.Retried,
			"dead":      stats.Failed,
		})
	}()
	if s == nil || s.dispatcher == nil {
		return DispatchStats{}, s.mapError(errors.New("core: outbox dispatcher is not configured"))
	}
	stats, err = s.dispatcher.DispatchPending(ctx, batchSize)
	if err != nil {
		err = s.mapError(err)
	}
	return stats, err
}

func (s *Service) CreateNotification(ctx context.Context, in CreateNotificationInput) (notification Notification, err error) {
	startedAt := time.Now()
	defer func() {
		s.observeOperation(ctx, startedAt, "notification_create", err, map[string]any{
			"user_id": in.UserID,
		})
	}()
	if s == nil || s.notificationStore == nil {
		return Notification{}, s.mapError(errors.New("core: notification store is not configured"))
	}
	if strings.TrimSpace(in.UserID) == "" {
		return Notification{}, s.mapError(errors.New("core: notification user id is required"))
	}
	if strings.TrimSpace(in.Title) == "" {
		return Notification{}, s.mapError(errors.New("core: notification title is required"))
	}
	notification, err = s.notificationStore.Create(ctx, in)
	if err != nil {
		err = s.mapError(err)
	}
	return notification, err
}

func (s *Service) ListNotifications(ctx context.Context, userID string, page int, perPage int) (NotificationPage, error) {
	if s == nil || s.notificationStore == nil {
		return NotificationPage{}, s.mapError(errors.New("core: notification store is not configured"))
	}
	if strings.TrimSpace(userID) == "" {
		return NotificationPage{}, s.mapError(errors.New("core: user id is required"))
	}
	result, err := s.notificationStore.List(ctx, strings.TrimSpace(userID), page, perPage)
	if err != nil {
		return NotificationPage{}, s.mapError(err)
	}
	return result, nil
}

func (s *Service) MarkNotificationRead(ctx context.Context, id string) (Notification, error) {
	if s == nil || s.notificationStore == nil {
		return Notification{}, s.mapError(errors.New("core: notification store is not configured"))
	}
	if strings.TrimSpace(id) == "" {
		return Notification{}, s.mapError(errors.New("core: notification id is required"))
	}
	notification, err := s.notificationStore.MarkRead(ctx, strings.TrimSpace(id))
	if err != nil {
		return Notification{}, s.mapError(err)
	}
	return notification, nil
}

func (s *Service) ClearNotifications(ctx context.Context, userID string) (int, error) {
	if s == nil || s.notificationStore == nil {
		return 0, s.mapError(errors.New("core: notification store is not configured"))
	}
	if strings.TrimSpace(userID) == "" {
		return 0, s.mapError(errors.New("core: user id is required"))
	}
	cleared, err := s.notificationStore.ClearForUser(ctx, strings.TrimSpace(userID))
	if err != nil {
		return 0, s.mapError(err)
	}
	return cleared, nil
}

// Shutdown drains pending outbox intents and prunes the replay ledger before
// the owning process releases its handles. It returns once the outbox has no
// claimable work or the context is done.
func (s *Service) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	if s.dispatcher != nil {
		for {
			if ctx != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			stats, err := s.dispatcher.DispatchPending(ctx, 0)
			if err != nil {
				return s.mapError(err)
			}
			if stats.Claimed == 0 {
				break
			}
		}
	}
	if s.replayLedger != nil {
		if _, err := s.replayLedger.PurgeExpired(ctx); err != nil {
			return s.mapError(err)
		}
	}
	return nil
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}
