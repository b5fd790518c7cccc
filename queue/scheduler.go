package queue

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	cronlib "github.com/robfig/cron/v3"

	"github.com/goliatone/go-reship/core"
)

// Names of the built-in schedule entries. Registration is an upsert keyed
// by name, so restarts refresh the expression instead of duplicating rows.
const (
	ScheduleTrackingRefresh = "tracking.refresh"
	ScheduleStorageFeeSweep = "storage_fee.sweep"
)

// ScheduleEntry is one registered recurring trigger. Expressions are
// standard 5-field cron evaluated in UTC; descriptors like "@every 30s"
// are also accepted.
type ScheduleEntry struct {
	Name       string
	Expression string
	JobKind    string
	Enabled    bool
	LastRunAt  *time.Time
	NextRunAt  *time.Time
}

type ScheduleStore interface {
	// Upsert registers or refreshes an entry keyed by Name.
	Upsert(ctx context.Context, entry ScheduleEntry) error
	List(ctx context.Context) ([]ScheduleEntry, error)
	// MarkRun records a fire and the next due time.
	MarkRun(ctx context.Context, name string, ranAt time.Time, nextRunAt time.Time) error
}

// cronParser accepts standard 5-field cron plus descriptors.
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

func ParseSchedule(expression string) (cronlib.Schedule, error) {
	schedule, err := cronParser.Parse(strings.TrimSpace(expression))
	if err != nil {
		return nil, fmt.Errorf("queue: invalid cron expression %q: %w", expression, err)
	}
	return schedule, nil
}

// Scheduler fires due schedule entries into the job queues on a tick loop.
type Scheduler struct {
	store    ScheduleStore
	producer *Producer
	logger   core.Logger

	tickInterval time.Duration
	now          func() time.Time

	parsedMu sync.RWMutex
	parsed   map[string]cronlib.Schedule

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

type SchedulerOption func(*Scheduler)

func WithTickInterval(interval time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if interval > 0 {
			s.tickInterval = interval
		}
	}
}

func WithSchedulerLogger(logger core.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = glog.Ensure(logger)
	}
}

func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

func NewScheduler(store ScheduleStore, producer *Producer, options ...SchedulerOption) (*Scheduler, error) {
	if store == nil {
		return nil, fmt.Errorf("queue: schedule store is required")
	}
	if producer == nil {
		return nil, fmt.Errorf("queue: producer is required")
	}
	scheduler := &Scheduler{
		store:        store,
		producer:     producer,
		logger:       glog.Ensure(nil),
		tickInterval: 30 * time.Second,
		now: func() time.Time {
			return time.Now().UTC()
		},
		parsed: map[string]cronlib.Schedule{},
		stopCh: make(chan struct{}),
	}
	for _, opt := range options {
		if opt != nil {
			opt(scheduler)
		}
	}
	return scheduler, nil
}

// Register upserts one schedule entry, validating the expression and
// stamping the next due time. Calling it again with the same name refreshes
// the stored expression.
func (s *Scheduler) Register(ctx context.Context, entry ScheduleEntry) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("queue: scheduler is not configured")
	}
	entry.Name = strings.TrimSpace(entry.Name)
	if entry.Name == "" {
		return fmt.Errorf("queue: schedule entry name is required")
	}
	if _, err := QueueForKind(entry.JobKind); err != nil {
		return err
	}
	schedule, err := ParseSchedule(entry.Expression)
	if err != nil {
		return err
	}
	if entry.NextRunAt == nil {
		next := schedule.Next(s.now().UTC())
		entry.NextRunAt = &next
	}
	s.cacheSchedule(entry.Name, schedule)
	return s.store.Upsert(ctx, entry)
}

// RegisterDefaults installs the tracking and storage-fee schedules from
// config.
func (s *Scheduler) RegisterDefaults(ctx context.Context, schedules core.ScheduleConfig) error {
	if err := s.Register(ctx, ScheduleEntry{
		Name:       ScheduleTrackingRefresh,
		Expression: schedules.TrackingCron,
		JobKind:    KindTrackingRefresh,
		Enabled:    true,
	}); err != nil {
		return err
	}
	return s.Register(ctx, ScheduleEntry{
		Name:       ScheduleStorageFeeSweep,
		Expression: schedules.StorageFeeCron,
		JobKind:    KindStorageFeeSweep,
		Enabled:    true,
	})
}

func (s *Scheduler) Start(_ context.Context) error {
	if s == nil {
		return fmt.Errorf("queue: scheduler is not configured")
	}
	s.wg.Add(1)
	go s.tickLoop()
	s.logger.Info("schedule loop started", "tick_interval", s.tickInterval.String())
	return nil
}

func (s *Scheduler) Stop(_ context.Context) error {
	if s == nil {
		return nil
	}
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
	s.logger.Info("schedule loop stopped")
	return nil
}

func (s *Scheduler) tickLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if _, err := s.Tick(context.Background(), s.now()); err != nil {
				s.logger.Error("schedule tick failed", "error", err.Error())
			}
		}
	}
}

// Tick fires every enabled entry whose next run time is due at the given
// instant and returns how many fired. Exposed so tests and one-shot
// harnesses can drive the scheduler directly.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) (int, error) {
	if s == nil || s.store == nil {
		return 0, fmt.Errorf("queue: scheduler is not configured")
	}
	now = now.UTC()
	entries, err := s.store.List(ctx)
	if err != nil {
		return 0, err
	}

	fired := 0
	for _, entry := range entries {
		if !entry.Enabled {
			continue
		}
		if entry.NextRunAt == nil || entry.NextRunAt.After(now) {
			continue
		}
		if err := s.fire(ctx, entry, now); err != nil {
			s.logger.Error("schedule fire failed",
				"schedule", entry.Name,
				"job_kind", entry.JobKind,
				"error", err.Error(),
			)
			continue
		}
		fired++
	}
	return fired, nil
}

func (s *Scheduler) fire(ctx context.Context, entry ScheduleEntry, now time.Time) error {
	slot := now
	if entry.NextRunAt != nil {
		slot = entry.NextRunAt.UTC()
	}

	switch entry.JobKind {
	case KindTrackingRefresh:
		if err := s.producer.EnqueueTrackingRefresh(ctx, slot); err != nil {
			return err
		}
	case KindStorageFeeSweep:
		if err := s.producer.EnqueueStorageFeeSweep(ctx, slot); err != nil {
			return err
		}
	default:
		return fmt.Errorf("queue: schedule %q has unfireable kind %q", entry.Name, entry.JobKind)
	}

	schedule, err := s.scheduleFor(entry)
	if err != nil {
		return err
	}
	next := schedule.Next(now)
	if err := s.store.MarkRun(ctx, entry.Name, now, next); err != nil {
		return err
	}
	s.logger.Info("schedule fired",
		"schedule", entry.Name,
		"job_kind", entry.JobKind,
		"next_run_at", next.Format(time.RFC3339),
	)
	return nil
}

func (s *Scheduler) scheduleFor(entry ScheduleEntry) (cronlib.Schedule, error) {
	s.parsedMu.RLock()
	cached, ok := s.parsed[entry.Name]
	s.parsedMu.RUnlock()
	if ok {
		return cached, nil
	}
	schedule, err := ParseSchedule(entry.Expression)
	if err != nil {
		return nil, err
	}
	s.cacheSchedule(entry.Name, schedule)
	return schedule, nil
}

func (s *Scheduler) cacheSchedule(name string, schedule cronlib.Schedule) {
	s.parsedMu.Lock()
	s.parsed[name] = schedule
	s.parsedMu.Unlock()
}

// MemoryScheduleStore is the in-process ScheduleStore used for tests and
// single-node deployments without a database.
type MemoryScheduleStore struct {
	mu      sync.Mutex
	entries map[string]ScheduleEntry
	order   []string
}

func NewMemoryScheduleStore() *MemoryScheduleStore {
	return &MemoryScheduleStore{entries: map[string]ScheduleEntry{}}
}

func (s *MemoryScheduleStore) Upsert(_ context.Context, entry ScheduleEntry) error {
	if s == nil {
		return fmt.Errorf("queue: schedule store is not configured")
	}
	name := strings.TrimSpace(entry.Name)
	if name == "" {
		return fmt.Errorf("queue: schedule entry name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[name]; ok {
		// Preserve run history across re-registration.
		entry.LastRunAt = existing.LastRunAt
		if existing.NextRunAt != nil && existing.Expression == entry.Expression {
			entry.NextRunAt = existing.NextRunAt
		}
	} else {
		s.order = append(s.order, name)
	}
	s.entries[name] = entry
	return nil
}

func (s *MemoryScheduleStore) List(_ context.Context) ([]ScheduleEntry, error) {
	if s == nil {
		return nil, fmt.Errorf("queue: schedule store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ScheduleEntry, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.entries[name])
	}
	return out, nil
}

func (s *MemoryScheduleStore) MarkRun(_ context.Context, name string, ranAt time.Time, nextRunAt time.Time) error {
	if s == nil {
		return fmt.Errorf("queue: schedule store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[strings.TrimSpace(name)]
	if !ok {
		return fmt.Errorf("queue: schedule %q is not registered", name)
	}
	ranAtUTC := ranAt.UTC()
	nextUTC := nextRunAt.UTC()
	entry.LastRunAt = &ranAtUTC
	entry.NextRunAt = &nextUTC
	s.entries[entry.Name] = entry
	return nil
}

var _ ScheduleStore = (*MemoryScheduleStore)(nil)
