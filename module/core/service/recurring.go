package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/nandanugg/sonecaz/module/core/domain"
	"github.com/nandanugg/sonecaz/module/core/internal/repository/database"
)

type RecurringService struct {
	repo database.RecurringAlarmRepository
	now  func() time.Time
}

func NewRecurringService(repo database.RecurringAlarmRepository, now func() time.Time) *RecurringService {
	if now == nil {
		now = time.Now
	}
	return &RecurringService{repo: repo, now: now}
}

func (s *RecurringService) List(ctx context.Context) ([]domain.RecurringAlarmSpec, error) {
	return s.repo.List(ctx)
}

func (s *RecurringService) Get(ctx context.Context, id string) (*domain.RecurringAlarmSpec, error) {
	return s.repo.Get(ctx, id)
}

func (s *RecurringService) Create(ctx context.Context, spec *domain.RecurringAlarmSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	now := s.now()
	spec.ID = uuid.NewString()
	spec.CreatedAt = now
	spec.UpdatedAt = now
	if err := s.repo.Upsert(ctx, spec); err != nil {
		return fmt.Errorf("create recurring alarm: %w", err)
	}
	return nil
}

func (s *RecurringService) Update(ctx context.Context, id string, spec *domain.RecurringAlarmSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	spec.ID = existing.ID
	spec.CreatedAt = existing.CreatedAt
	spec.UpdatedAt = s.now()
	if err := s.repo.Upsert(ctx, spec); err != nil {
		return fmt.Errorf("update recurring alarm: %w", err)
	}
	return nil
}

func (s *RecurringService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

type NextAlarm struct {
	Spec domain.RecurringAlarmSpec `json:"spec"`
	At   time.Time                 `json:"at"`
}

// Next returns the enabled spec that starts soonest after from, or nil.
func (s *RecurringService) Next(ctx context.Context, from time.Time) (*NextAlarm, error) {
	specs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	var next *NextAlarm
	for i := range specs {
		at, ok := specs[i].NextOccurrence(from)
		if !ok {
			continue
		}
		if next == nil || at.Before(next.At) {
			next = &NextAlarm{Spec: specs[i], At: at}
		}
	}
	return next, nil
}

type recurringSource interface {
	List(ctx context.Context) ([]domain.RecurringAlarmSpec, error)
}

type alarmController interface {
	Arm(g domain.DestinationGeofence) error
	Disarm()
	ArmedOn(g domain.DestinationGeofence) bool
}

var _ alarmController = (*DestinationAlarm)(nil)

type activation struct {
	specID   string
	name     string
	geofence domain.DestinationGeofence
	endAt    time.Time
	hasEnd   bool
}

type ActivatorOptions struct {
	Now      func() time.Time
	Location *time.Location
	Logger   *slog.Logger
	Metrics  *Metrics
	// Dispatcher receives the info toasts for automatic arm and end.
	// Nil skips them.
	Dispatcher Dispatcher
}

// RecurringActivator arms and disarms the destination alarm on the
// minute according to the saved recurring alarms.
type RecurringActivator struct {
	specs      recurringSource
	alarm      alarmController
	settings   SettingsProvider
	dispatcher Dispatcher
	now        func() time.Time
	loc        *time.Location
	logger     *slog.Logger
	metrics    *Metrics

	mu        sync.Mutex
	activated map[string]string
	origin    *activation
}

func NewRecurringActivator(specs recurringSource, alarm alarmController, settings SettingsProvider, opts ActivatorOptions) *RecurringActivator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &RecurringActivator{
		specs:      specs,
		alarm:      alarm,
		settings:   settings,
		dispatcher: opts.Dispatcher,
		now:        opts.Now,
		loc:        opts.Location,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		activated:  make(map[string]string),
	}
}

// Run ticks at the start of every minute until ctx is done.
func (a *RecurringActivator) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(a.loc))
	if _, err := c.AddFunc("* * * * *", func() {
		if err := a.Tick(ctx); err != nil {
			a.logger.Warn("recurring tick failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule recurring tick: %w", err)
	}

	if err := a.Tick(ctx); err != nil {
		a.logger.Warn("recurring tick failed", "error", err)
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// Tick applies the recurring alarms at the current minute and then sends
// a toast for every automatic arm or end.
func (a *RecurringActivator) Tick(ctx context.Context) error {
	a.mu.Lock()
	alerts, err := a.tick(ctx)
	a.mu.Unlock()

	if a.dispatcher != nil {
		for i := range alerts {
			a.dispatcher.Dispatch(ctx, domain.Effects{Visual: &alerts[i]})
		}
	}
	return err
}

func (a *RecurringActivator) tick(ctx context.Context) ([]domain.VisualAlert, error) {
	var alerts []domain.VisualAlert

	now := a.now().In(a.loc)
	today := now.Format(time.DateOnly)
	settings := a.settings.Snapshot()

	for id, day := range a.activated {
		if day != today {
			delete(a.activated, id)
		}
	}

	if a.origin != nil {
		switch {
		case !a.alarm.ArmedOn(a.origin.geofence):
			// fired, disarmed or replaced since we armed it
			a.origin = nil
		case settings.Commute.AutoEnd && a.origin.hasEnd && now.Truncate(time.Minute).After(a.origin.endAt):
			a.logger.Info("recurring alarm window ended, disarming", "spec_id", a.origin.specID)
			a.alarm.Disarm()
			a.metrics.recurring("disarm")
			alerts = append(alerts, domain.VisualAlert{
				Message:     fmt.Sprintf("Alarm %q ended", a.origin.name),
				Description: "The scheduled window is over.",
				Severity:    domain.SeverityInfo,
			})
			a.origin = nil
		}
	}

	if !settings.Commute.AutoStart {
		return alerts, nil
	}

	specs, err := a.specs.List(ctx)
	if err != nil {
		return alerts, fmt.Errorf("list recurring alarms: %w", err)
	}

	var active []domain.RecurringAlarmSpec
	for i := range specs {
		if specs[i].ActiveAt(now) {
			active = append(active, specs[i])
		}
	}
	for i := range active {
		if a.alarm.ArmedOn(active[i].Geofence()) {
			a.activated[active[i].ID] = today
			return alerts, nil
		}
	}

	// latest start wins when windows overlap
	slices.SortStableFunc(active, func(x, y domain.RecurringAlarmSpec) int {
		return int(y.StartTime) - int(x.StartTime)
	})
	for _, spec := range active {
		if a.activated[spec.ID] == today {
			continue
		}
		g := spec.Geofence()
		if err := a.alarm.Arm(g); err != nil {
			a.logger.Warn("recurring alarm arm failed", "spec_id", spec.ID, "error", err)
			continue
		}
		a.activated[spec.ID] = today
		a.origin = &activation{specID: spec.ID, name: spec.Name, geofence: g}
		alert := domain.VisualAlert{
			Message:  fmt.Sprintf("Alarm %q armed automatically", spec.Name),
			Severity: domain.SeverityInfo,
		}
		if spec.EndTime != nil {
			a.origin.hasEnd = true
			a.origin.endAt = spec.EndTime.On(now)
			alert.Description = "Until " + spec.EndTime.String()
		}
		a.metrics.recurring("arm")
		a.logger.Info("recurring alarm armed", "spec_id", spec.ID, "name", spec.Name)
		return append(alerts, alert), nil
	}
	return alerts, nil
}
