package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nandanugg/sonecaz/module/core/domain"
)

const arrivalMessage = "You have arrived at your destination!"

// Dispatcher runs the side effects of one firing.
type Dispatcher interface {
	Dispatch(ctx context.Context, e domain.Effects)
}

var _ Dispatcher = (*EffectDispatcher)(nil)

type AlarmStatus struct {
	State          domain.AlarmRunState        `json:"state"`
	Geofence       *domain.DestinationGeofence `json:"geofence,omitempty"`
	ArmedAt        *time.Time                  `json:"armed_at,omitempty"`
	DistanceMeters *float64                    `json:"distance_meters,omitempty"`
	LastPosition   *domain.PositionSample      `json:"last_position,omitempty"`
}

type AlarmOptions struct {
	Now      func() time.Time
	Location *time.Location
	Logger   *slog.Logger
	Metrics  *Metrics
}

// DestinationAlarm watches a single destination geofence and fires at
// most once per arm cycle.
type DestinationAlarm struct {
	source     PositionSource
	dispatcher Dispatcher
	settings   SettingsProvider
	now        func() time.Time
	loc        *time.Location
	logger     *slog.Logger
	metrics    *Metrics

	mu           sync.Mutex
	state        domain.AlarmRunState
	geofence     *domain.DestinationGeofence
	armedAt      time.Time
	generation   uint64
	distance     *float64
	lastPosition *domain.PositionSample
	unsubscribe  func()
	advised      bool
}

func NewDestinationAlarm(source PositionSource, dispatcher Dispatcher, settings SettingsProvider, opts AlarmOptions) *DestinationAlarm {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &DestinationAlarm{
		source:     source,
		dispatcher: dispatcher,
		settings:   settings,
		now:        opts.Now,
		loc:        opts.Location,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

// Arm starts watching g. Arming the geofence that is already armed is a
// no-op; any other arm replaces the geofence and starts a new cycle.
func (a *DestinationAlarm) Arm(g domain.DestinationGeofence) error {
	if err := g.Validate(); err != nil {
		return fmt.Errorf("arm: %w", err)
	}

	a.mu.Lock()
	if a.state == domain.AlarmArmed && a.geofence != nil && a.geofence.SameTarget(g) {
		a.mu.Unlock()
		return nil
	}
	old := a.unsubscribe
	a.unsubscribe = nil
	if latest, ok := a.source.Latest(); ok {
		g.StartPoint = latest.Point
	}
	a.geofence = &g
	a.state = domain.AlarmArmed
	a.armedAt = a.now()
	a.generation++
	a.distance = nil
	a.advised = false
	gen := a.generation
	a.mu.Unlock()

	if old != nil {
		old()
	}

	unsub := a.source.Subscribe(
		func(s domain.PositionSample) { a.onSample(gen, s) },
		func(err error) { a.onSourceError(gen, err) },
	)

	a.mu.Lock()
	if a.generation == gen && a.state == domain.AlarmArmed {
		a.unsubscribe = unsub
		unsub = nil
	}
	a.mu.Unlock()

	// the cycle ended before the subscription was stored
	if unsub != nil {
		unsub()
	}

	a.logger.Info("destination alarm armed", "name", g.DisplayName(), "radius_m", g.RadiusMeters)
	return nil
}

// Rearm starts a new cycle on the last geofence.
func (a *DestinationAlarm) Rearm() error {
	a.mu.Lock()
	if a.geofence == nil {
		a.mu.Unlock()
		return fmt.Errorf("rearm: %w", domain.ErrNoDestination)
	}
	g := *a.geofence
	if a.state == domain.AlarmArmed {
		// force a fresh cycle even though the target is unchanged
		a.state = domain.AlarmDisarmed
	}
	a.mu.Unlock()

	return a.Arm(g)
}

// Disarm stops watching. The geofence is kept so Rearm can reuse it.
func (a *DestinationAlarm) Disarm() {
	a.mu.Lock()
	if a.state == domain.AlarmDisarmed && a.unsubscribe == nil {
		a.mu.Unlock()
		return
	}
	unsub := a.unsubscribe
	a.unsubscribe = nil
	a.state = domain.AlarmDisarmed
	a.generation++
	a.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	a.logger.Info("destination alarm disarmed")
}

func (a *DestinationAlarm) Status() AlarmStatus {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := AlarmStatus{State: a.state}
	if a.geofence != nil {
		g := *a.geofence
		st.Geofence = &g
	}
	if !a.armedAt.IsZero() && a.state != domain.AlarmDisarmed {
		t := a.armedAt
		st.ArmedAt = &t
	}
	if a.distance != nil {
		d := *a.distance
		st.DistanceMeters = &d
	}
	if a.lastPosition != nil {
		p := *a.lastPosition
		st.LastPosition = &p
	}
	return st
}

// State is a shortcut for Status().State.
func (a *DestinationAlarm) State() domain.AlarmRunState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// ArmedOn reports whether the alarm is armed on the same circle as g.
func (a *DestinationAlarm) ArmedOn(g domain.DestinationGeofence) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == domain.AlarmArmed && a.geofence != nil && a.geofence.SameTarget(g)
}

// OnPositionSample evaluates s against the current cycle.
func (a *DestinationAlarm) OnPositionSample(s domain.PositionSample) {
	a.mu.Lock()
	gen := a.generation
	a.mu.Unlock()
	a.onSample(gen, s)
}

func (a *DestinationAlarm) onSample(gen uint64, s domain.PositionSample) {
	if !s.Point.Valid() {
		return
	}

	a.mu.Lock()
	if gen != a.generation || a.state != domain.AlarmArmed || a.geofence == nil {
		a.mu.Unlock()
		return
	}
	g := *a.geofence
	d := domain.Distance(s.Point, g.Center)
	a.distance = &d
	sample := s
	a.lastPosition = &sample

	if d > g.RadiusMeters {
		a.mu.Unlock()
		a.logger.Debug("outside destination radius", "distance_m", d)
		return
	}

	settings := a.settings.Snapshot()
	now := a.now()
	if IsSuppressed(settings.QuietHours, now.In(a.loc)) {
		a.mu.Unlock()
		a.logger.Info("destination reached during quiet hours, alert held", "distance_m", d)
		a.metrics.alarmSuppressed()
		return
	}

	// the cycle is decided before any effect runs
	a.state = domain.AlarmTriggered
	a.generation++
	unsub := a.unsubscribe
	a.unsubscribe = nil
	armedAt := a.armedAt
	a.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	a.metrics.alarmFired()
	a.logger.Info("destination alarm fired", "name", g.DisplayName(), "distance_m", d)

	a.dispatcher.Dispatch(context.Background(), arrivalEffects(g, settings, d, armedAt, now))
}

func (a *DestinationAlarm) onSourceError(gen uint64, err error) {
	a.mu.Lock()
	if gen != a.generation || a.state != domain.AlarmArmed || a.advised {
		a.mu.Unlock()
		return
	}
	a.advised = true
	a.mu.Unlock()

	a.logger.Warn("position source error", "error", err)
	a.dispatcher.Dispatch(context.Background(), domain.Effects{
		Visual: &domain.VisualAlert{
			Message:     "Location unavailable",
			Description: "The alarm stays armed and resumes when your position is available again.",
			Severity:    domain.SeverityNotice,
		},
	})
}

func arrivalEffects(g domain.DestinationGeofence, settings domain.Settings, distance float64, armedAt, now time.Time) domain.Effects {
	record := &domain.AlarmHistoryRecord{
		ID:                  uuid.NewString(),
		DestinationName:     g.DisplayName(),
		DestinationAddress:  g.Address,
		DestinationLocation: g.Center,
		StartLocation:       g.StartPoint,
		RadiusMeters:        g.RadiusMeters,
		TriggeredAt:         now,
		DistanceAtTrigger:   distance,
	}
	if !armedAt.IsZero() {
		minutes := int(math.Round(now.Sub(armedAt).Minutes()))
		record.DurationMinutes = &minutes
	}

	e := domain.Effects{
		History: record,
		Sound:   settings.AlarmSoundID,
		Visual: &domain.VisualAlert{
			Message:     arrivalMessage,
			Description: g.DisplayName(),
			Severity:    domain.SeverityCritical,
		},
	}
	if settings.EnableHaptics {
		e.Haptic = domain.HapticHeavy
	}
	if settings.EnableNotifications {
		e.Notification = &domain.Notification{
			Title: "Sonecaz",
			Body:  fmt.Sprintf("%s You are %s from %s.", arrivalMessage, domain.FormatDistance(distance), g.DisplayName()),
		}
	}
	return e
}
