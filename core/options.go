package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type serviceBuilder struct {
	runtimeConfig     Config
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
}

type Option func(*serviceBuilder)

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *serviceBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorFactory(factory ErrorFactory) Option {
	return func(b *serviceBuilder) {
		b.errorFactory = factory
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) {
		b.errorMapper = mapper
	}
}

func WithPersistenceClient(client any) Option {
	return func(b *serviceBuilder) {
		b.persistenceClient = client
	}
}

func WithRepositoryFactory(factory any) Option {
	return func(b *serviceBuilder) {
		b.repositoryFactory = factory
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithQuoteStore(store QuoteStore) Option {
	return func(b *serviceBuilder) {
		b.quoteStore = store
	}
}

func WithPackageStore(store PackageStore) Option {
	return func(b *serviceBuilder) {
		b.packageStore = store
	}
}

func WithNotificationStore(store NotificationStore) Option {
	return func(b *serviceBuilder) {
		b.notificationStore = store
	}
}

func WithStorageFeeStore(store StorageFeeStore) Option {
	return func(b *serviceBuilder) {
		b.storageFeeStore = store
	}
}

func WithOutboxStore(store OutboxStore) Option {
	return func(b *serviceBuilder) {
		b.outboxStore = store
	}
}

func WithDispatchLedger(ledger NotificationDispatchLedger) Option {
	return func(b *serviceBuilder) {
		b.dispatchLedger = ledger
	}
}

func WithReplayLedger(ledger ReplayLedger) Option {
	return func(b *serviceBuilder) {
		b.replayLedger = ledger
	}
}

func WithProjectorRegistry(registry ProjectorRegistry) Option {
	return func(b *serviceBuilder) {
		b.projectors = registry
	}
}

func WithJobEnqueuer(enqueuer JobEnqueuer) Option {
	return func(b *serviceBuilder) {
		b.jobEnqueuer = enqueuer
	}
}

func WithMailer(mailer Mailer) Option {
	return func(b *serviceBuilder) {
		b.mailer = mailer
	}
}

func WithTrackingProvider(provider TrackingProvider) Option {
	return func(b *serviceBuilder) {
		b.trackingProvider = provider
	}
}

func defaultServiceBuilder(runtime Config) serviceBuilder {
	loggerProvider, logger := glog.Resolve("reship", nil, nil)
	return serviceBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorFactory:    goerrors.New,
		errorMapper:     defaultErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
		projectors:      NewIntentProjectorRegistry(),
	}
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return reshipErrorMapper(err)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configLayerMap(defaults)
	loadedLayer := configDiffLayerMap(loaded, defaults)
	runtimeLayer := configDiffLayerMap(runtime, defaults)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configLayerMap(cfg Config) map[string]any {
	return map[string]any{
		"service_name": cfg.ServiceName,
		"storage_fee": map[string]any{
			"free_days":       cfg.StorageFee.FreeDays,
			"daily_fee_cents": cfg.StorageFee.DailyFeeCents,
		},
		"schedules": map[string]any{
			"tracking_cron":    cfg.Schedules.TrackingCron,
			"storage_fee_cron": cfg.Schedules.StorageFeeCron,
		},
		"webhook": map[string]any{
			"replay_window_seconds": cfg.Webhook.ReplayWindowSeconds,
		},
	}
}

// configDiffLayerMap carries each field individually, and only when it holds
// a value that differs from the base layer. A config derived from the
// defaults therefore never re-asserts an untouched default at a
// higher-precedence layer.
func configDiffLayerMap(cfg, base Config) map[string]any {
	layer := map[string]any{}
	if strings.TrimSpace(cfg.ServiceName) != "" && cfg.ServiceName != base.ServiceName {
		layer["service_name"] = cfg.ServiceName
	}
	storageFee := map[string]any{}
	if cfg.StorageFee.FreeDays > 0 && cfg.StorageFee.FreeDays != base.StorageFee.FreeDays {
		storageFee["free_days"] = cfg.StorageFee.FreeDays
	}
	if cfg.StorageFee.DailyFeeCents > 0 && cfg.StorageFee.DailyFeeCents != base.StorageFee.DailyFeeCents {
		storageFee["daily_fee_cents"] = cfg.StorageFee.DailyFeeCents
	}
	if len(storageFee) > 0 {
		layer["storage_fee"] = storageFee
	}
	schedules := map[string]any{}
	if expr := strings.TrimSpace(cfg.Schedules.TrackingCron); expr != "" && cfg.Schedules.TrackingCron != base.Schedules.TrackingCron {
		schedules["tracking_cron"] = cfg.Schedules.TrackingCron
	}
	if expr := strings.TrimSpace(cfg.Schedules.StorageFeeCron); expr != "" && cfg.Schedules.StorageFeeCron != base.Schedules.StorageFeeCron {
		schedules["storage_fee_cron"] = cfg.Schedules.StorageFeeCron
	}
	if len(schedules) > 0 {
		layer["schedules"] = schedules
	}
	if cfg.Webhook.ReplayWindowSeconds > 0 && cfg.Webhook.ReplayWindowSeconds != base.Webhook.ReplayWindowSeconds {
		layer["webhook"] = map[string]any{
			"replay_window_seconds": cfg.Webhook.ReplayWindowSeconds,
		}
	}
	return layer
}
