package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/nandanugg/sonecaz/module/core/domain"
)

// PlaceLookup finds the closest place of the given categories. A nil
// result with a nil error means nothing qualifies.
type PlaceLookup interface {
	FindNearest(ctx context.Context, center domain.GeoPoint, categories []domain.PlaceCategory, radiusMeters float64, openOnly bool) (*domain.PlaceResult, error)
}

type NearbyOptions struct {
	Now      func() time.Time
	Location *time.Location
	Logger   *slog.Logger
	Metrics  *Metrics
}

// NearbyWatch alerts when the user passes a place matching an open list
// item. One alert per cooldown window, shared by every category.
type NearbyWatch struct {
	source     PositionSource
	lookup     PlaceLookup
	interests  InterestProvider
	settings   SettingsProvider
	dispatcher Dispatcher
	now        func() time.Time
	loc        *time.Location
	logger     *slog.Logger
	metrics    *Metrics

	inflight *semaphore.Weighted

	mu          sync.Mutex
	lastAlert   time.Time
	unsubscribe func()
}

func NewNearbyWatch(source PositionSource, lookup PlaceLookup, interests InterestProvider, settings SettingsProvider, dispatcher Dispatcher, opts NearbyOptions) *NearbyWatch {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &NearbyWatch{
		source:     source,
		lookup:     lookup,
		interests:  interests,
		settings:   settings,
		dispatcher: dispatcher,
		now:        opts.Now,
		loc:        opts.Location,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		inflight:   semaphore.NewWeighted(1),
	}
}

// Start subscribes to the position source. Calling it twice is a no-op.
func (w *NearbyWatch) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.unsubscribe != nil {
		return
	}
	w.unsubscribe = w.source.Subscribe(
		func(s domain.PositionSample) { w.OnPositionSample(ctx, s) },
		func(err error) { w.logger.Debug("nearby watch: position source error", "error", err) },
	)
}

func (w *NearbyWatch) Stop() {
	w.mu.Lock()
	unsub := w.unsubscribe
	w.unsubscribe = nil
	w.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (w *NearbyWatch) LastAlert() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastAlert
}

func (w *NearbyWatch) OnPositionSample(ctx context.Context, s domain.PositionSample) {
	settings := w.settings.Snapshot()
	if !settings.EnableNearbyAlerts || !s.Point.Valid() {
		return
	}

	now := w.now()
	if w.coolingDown(now, settings.AlertCooldown()) {
		return
	}

	cats := domain.IntersectCategories(w.interests.ActiveCategories(), settings.PlaceFilters.EnabledCategories)
	if len(cats) == 0 {
		return
	}

	// a second sample arriving while a lookup is in flight is dropped
	if !w.inflight.TryAcquire(1) {
		return
	}
	defer w.inflight.Release(1)

	if w.coolingDown(now, settings.AlertCooldown()) {
		return
	}

	place, err := w.lookup.FindNearest(ctx, s.Point, cats, settings.NearbyRadius(), settings.PlaceFilters.OpenOnly)
	if err != nil {
		if errors.Is(err, domain.ErrLookupUnavailable) {
			w.metrics.placeLookup("unavailable")
		} else {
			w.metrics.placeLookup("error")
		}
		w.logger.Warn("place lookup failed", "error", err)
		return
	}
	if place == nil {
		w.metrics.placeLookup("miss")
		return
	}
	w.metrics.placeLookup("hit")

	w.mu.Lock()
	w.lastAlert = now
	w.mu.Unlock()

	w.metrics.nearbyAlert(place.Category)
	w.logger.Info("nearby place alert", "category", place.Category, "place", place.Name, "distance_m", place.DistanceMeters)

	quiet := IsSuppressed(settings.QuietHours, now.In(w.loc))
	w.dispatcher.Dispatch(ctx, nearbyEffects(*place, settings, quiet))
}

func (w *NearbyWatch) coolingDown(now time.Time, cooldown time.Duration) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.lastAlert.IsZero() && now.Sub(w.lastAlert) < cooldown
}

func nearbyEffects(place domain.PlaceResult, settings domain.Settings, quiet bool) domain.Effects {
	title := fmt.Sprintf("%s %s nearby!", place.Category.Icon(), place.Category.DisplayName())
	body := fmt.Sprintf("%s is %s away.", place.Name, domain.FormatDistance(place.DistanceMeters))
	severity := domain.SeverityInfo
	if place.IsOpen != nil {
		if *place.IsOpen {
			body += " (Open)"
		} else {
			body += " (Closed)"
			severity = domain.SeverityNotice
		}
	}

	e := domain.Effects{
		Visual: &domain.VisualAlert{Message: title, Description: body, Severity: severity},
	}
	if settings.EnableHaptics {
		e.Haptic = domain.HapticMedium
	}
	if settings.EnableNotifications && !quiet {
		e.Notification = &domain.Notification{Title: title, Body: body}
	}
	return e
}
