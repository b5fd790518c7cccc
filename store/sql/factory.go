package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-reship/core"
	"github.com/goliatone/go-reship/queue"
)

type RepositoryFactory struct {
	db *bun.DB

	quoteStore                *QuoteStore
	packageStore              *PackageStore
	notificationStore         *NotificationStore
	storageFeeStore           *StorageFeeStore
	outboxStore               *OutboxStore
	notificationDispatchStore *NotificationDispatchStore
	webhookDeliveryStore      *WebhookDeliveryStore
	replayClaimStore          *ReplayClaimStore
	scheduleStore             *ScheduleStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.quoteStore != nil && f.packageStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) QuoteStore() core.QuoteStore {
	if f == nil {
		return nil
	}
	return f.quoteStore
}

func (f *RepositoryFactory) PackageStore() core.PackageStore {
	if f == nil {
		return nil
	}
	return f.packageStore
}

func (f *RepositoryFactory) NotificationStore() core.NotificationStore {
	if f == nil {
		return nil
	}
	return f.notificationStore
}

func (f *RepositoryFactory) StorageFeeStore() core.StorageFeeStore {
	if f == nil {
		return nil
	}
	return f.storageFeeStore
}

func (f *RepositoryFactory) OutboxStore() core.OutboxStore {
	if f == nil {
		return nil
	}
	return f.outboxStore
}

func (f *RepositoryFactory) DispatchLedger() core.NotificationDispatchLedger {
	if f == nil {
		return nil
	}
	return f.notificationDispatchStore
}

func (f *RepositoryFactory) WebhookDeliveryStore() *WebhookDeliveryStore {
	if f == nil {
		return nil
	}
	return f.webhookDeliveryStore
}

func (f *RepositoryFactory) ReplayLedger() core.ReplayLedger {
	if f == nil {
		return nil
	}
	return f.replayClaimStore
}

func (f *RepositoryFactory) ScheduleStore() queue.ScheduleStore {
	if f == nil {
		return nil
	}
	return f.scheduleStore
}

func (f *RepositoryFactory) initStores() error {
	quoteStore, err := NewQuoteStore(f.db)
	if err != nil {
		return err
	}
	f.quoteStore = quoteStore
	packageStore, err := NewPackageStore(f.db)
	if err != nil {
		return err
	}
	f.packageStore = packageStore
	notificationStore, err := NewNotificationStore(f.db)
	if err != nil {
		return err
	}
	f.notificationStore = notificationStore
	storageFeeStore, err := NewStorageFeeStore(f.db)
	if err != nil {
		return err
	}
	f.storageFeeStore = storageFeeStore
	outboxStore, err := NewOutboxStore(f.db)
	if err != nil {
		return err
	}
	f.outboxStore = outboxStore
	notificationDispatchStore, err := NewNotificationDispatchStore(f.db)
	if err != nil {
		return err
	}
	f.notificationDispatchStore = notificationDispatchStore
	webhookDeliveryStore, err := NewWebhookDeliveryStore(f.db)
	if err != nil {
		return err
	}
	f.webhookDeliveryStore = webhookDeliveryStore
	replayClaimStore, err := NewReplayClaimStore(f.db)
	if err != nil {
		return err
	}
	f.replayClaimStore = replayClaimStore
	scheduleStore, err := NewScheduleStore(f.db)
	if err != nil {
		return err
	}
	f.scheduleStore = scheduleStore

	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}

var (
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
