package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-reship/queue"
)

// ScheduleStore persists recurring trigger registrations. Upsert keys on
// the schedule name so re-registration at boot refreshes the row instead
// of duplicating it.
type ScheduleStore struct {
	db  *bun.DB
	now func() time.Time
}

func NewScheduleStore(db *bun.DB) (*ScheduleStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &ScheduleStore{
		db: db,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

func (s *ScheduleStore) Upsert(ctx context.Context, entry queue.ScheduleEntry) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: schedule store is not configured")
	}
	name := strings.TrimSpace(entry.Name)
	if name == "" {
		return fmt.Errorf("sqlstore: schedule name is required")
	}
	if strings.TrimSpace(entry.Expression) == "" {
		return fmt.Errorf("sqlstore: schedule expression is required")
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := &scheduleRecord{}
		err := tx.NewSelect().
			Model(existing).
			Where("?TableAlias.name = ?", name).
			Limit(1).
			Scan(ctx)
		now := s.now()
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return err
			}
			record := &scheduleRecord{
				ID:         uuid.NewString(),
				Name:       name,
				Expression: strings.TrimSpace(entry.Expression),
				JobKind:    strings.TrimSpace(entry.JobKind),
				Enabled:    entry.Enabled,
				NextRunAt:  cloneTimePointer(entry.NextRunAt),
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			_, insertErr := tx.NewInsert().Model(record).Exec(ctx)
			return insertErr
		}

		// Run history survives re-registration; the next due time is only
		// recomputed when the expression actually changed.
		nextRunAt := cloneTimePointer(entry.NextRunAt)
		if existing.NextRunAt != nil && existing.Expression == strings.TrimSpace(entry.Expression) {
			nextRunAt = existing.NextRunAt
		}
		_, err = tx.NewUpdate().
			Model((*scheduleRecord)(nil)).
			Set("expression = ?", strings.TrimSpace(entry.Expression)).
			Set("job_kind = ?", strings.TrimSpace(entry.JobKind)).
			Set("enabled = ?", entry.Enabled).
			Set("next_run_at = ?", nextRunAt).
			Set("updated_at = ?", now).
			Where("name = ?", name).
			Exec(ctx)
		return err
	})
}

func (s *ScheduleStore) List(ctx context.Context) ([]queue.ScheduleEntry, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: schedule store is not configured")
	}
	var records []scheduleRecord
	err := s.db.NewSelect().
		Model(&records).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]queue.ScheduleEntry, 0, len(records))
	for i := range records {
		out = append(out, scheduleRecordToEntry(&records[i]))
	}
	return out, nil
}

func (s *ScheduleStore) MarkRun(ctx context.Context, name string, ranAt time.Time, nextRunAt time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: schedule store is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("sqlstore: schedule name is required")
	}
	result, err := s.db.NewUpdate().
		Model((*scheduleRecord)(nil)).
		Set("last_run_at = ?", ranAt.UTC()).
		Set("next_run_at = ?", nextRunAt.UTC()).
		Set("updated_at = ?", s.now()).
		Where("name = ?", name).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("sqlstore: schedule %q is not registered", name)
	}
	return nil
}

func scheduleRecordToEntry(record *scheduleRecord) queue.ScheduleEntry {
	if record == nil {
		return queue.ScheduleEntry{}
	}
	entry := queue.ScheduleEntry{
		Name:       record.Name,
		Expression: record.Expression,
		JobKind:    record.JobKind,
		Enabled:    record.Enabled,
	}
	entry.LastRunAt = cloneTimePointer(record.LastRunAt)
	entry.NextRunAt = cloneTimePointer(record.NextRunAt)
	return entry
}

var _ queue.ScheduleStore = (*ScheduleStore)(nil)
