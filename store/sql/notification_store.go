package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-reship/core"
)

type NotificationStore struct {
	db   *bun.DB
	repo repository.Repository[*notificationRecord]
}

func NewNotificationStore(db *bun.DB) (*NotificationStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*notificationRecord](db, notificationHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid notification repository wiring: %w", err)
		}
	}
	return &NotificationStore{db: db, repo: repo}, nil
}

func (s *NotificationStore) Create(ctx context.Context, in core.CreateNotificationInput) (core.Notification, error) {
	if s == nil || s.repo == nil {
		return core.Notification{}, fmt.Errorf("sqlstore: notification store is not configured")
	}
	if strings.TrimSpace(in.UserID) == "" {
		return core.Notification{}, fmt.Errorf("sqlstore: notification user id is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return core.Notification{}, fmt.Errorf("sqlstore: notification title is required")
	}

	record := &notificationRecord{
		ID:        uuid.NewString(),
		UserID:    strings.TrimSpace(in.UserID),
		Title:     strings.TrimSpace(in.Title),
		Message:   strings.TrimSpace(in.Message),
		Read:      false,
		CreatedAt: time.Now().UTC(),
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.Notification{}, err
	}
	return created.toDomain(), nil
}

func (s *NotificationStore) List(ctx context.Context, userID string, page int, perPage int) (core.NotificationPage, error) {
	if s == nil || s.repo == nil {
		return core.NotificationPage{}, fmt.Errorf("sqlstore: notification store is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return core.NotificationPage{}, fmt.Errorf("sqlstore: user id is required")
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	records, total, err := s.repo.List(ctx,
		repository.SelectBy("user_id", "=", userID),
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(perPage, (page-1)*perPage),
	)
	if err != nil {
		return core.NotificationPage{}, err
	}

	items := make([]core.Notification, 0, len(records))
	for _, record := range records {
		items = append(items, record.toDomain())
	}
	return core.NotificationPage{
		Items:   items,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}, nil
}

func (s *NotificationStore) MarkRead(ctx context.Context, id string) (core.Notification, error) {
	if s == nil || s.repo == nil {
		return core.Notification{}, fmt.Errorf("sqlstore: notification store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return core.Notification{}, fmt.Errorf("sqlstore: notification id is required")
	}
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return core.Notification{}, err
	}
	if record.Read {
		return record.toDomain(), nil
	}
	record.Read = true
	updated, err := s.repo.Update(ctx, record, repository.UpdateByID(id))
	if err != nil {
		return core.Notification{}, err
	}
	return updated.toDomain(), nil
}

func (s *NotificationStore) ClearForUser(ctx context.Context, userID string) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: notification store is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, fmt.Errorf("sqlstore: user id is required")
	}
	result, err := s.db.NewDelete().
		Model((*notificationRecord)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

var _ core.NotificationStore = (*NotificationStore)(nil)
