package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nandanugg/sonecaz/module/core/domain"
)

func pharmacy(open *bool) *domain.PlaceResult {
	return &domain.PlaceResult{
		Name:           "Drogasil",
		Category:       domain.CategoryPharmacy,
		Location:       north(saoPaulo, 300),
		DistanceMeters: 300,
		IsOpen:         open,
	}
}

type nearbyFixture struct {
	source   *fakeSource
	disp     *recordingDispatcher
	settings *staticSettings
	clock    *fakeClock
	lookup   *mockLookup
	watch    *NearbyWatch
}

func newNearbyFixture(t *testing.T, interests staticInterests) *nearbyFixture {
	t.Helper()
	f := &nearbyFixture{
		source:   newFakeSource(),
		disp:     &recordingDispatcher{},
		settings: &staticSettings{s: domain.DefaultSettings()},
		clock:    newClock(at(12, 0)),
		lookup: &mockLookup{
			findNearestFn: func(context.Context, domain.GeoPoint, []domain.PlaceCategory, float64, bool) (*domain.PlaceResult, error) {
				return pharmacy(nil), nil
			},
		},
	}
	f.watch = NewNearbyWatch(f.source, f.lookup, interests, f.settings, f.disp, NearbyOptions{
		Now:      f.clock.Now,
		Location: time.UTC,
	})
	return f
}

func (f *nearbyFixture) sample() {
	f.watch.OnPositionSample(context.Background(), domain.PositionSample{Point: saoPaulo})
}

func TestNearby_CooldownGatesLookups(t *testing.T) {
	f := newNearbyFixture(t, staticInterests{domain.CategoryPharmacy})
	start := f.clock.Now()

	f.sample()
	if len(f.disp.calls()) != 1 {
		t.Fatalf("expected first alert, got %d", len(f.disp.calls()))
	}
	if !f.watch.LastAlert().Equal(start) {
		t.Errorf("expected last alert %v, got %v", start, f.watch.LastAlert())
	}

	f.clock.Advance(30 * time.Second)
	f.sample()
	if len(f.disp.calls()) != 1 {
		t.Fatalf("expected cooldown to hold, got %d alerts", len(f.disp.calls()))
	}
	if f.lookup.callCount() != 1 {
		t.Errorf("expected no lookup during cooldown, got %d calls", f.lookup.callCount())
	}

	f.clock.Set(start.Add(61 * time.Second))
	f.sample()
	if len(f.disp.calls()) != 2 {
		t.Fatalf("expected second alert after cooldown, got %d", len(f.disp.calls()))
	}
}

func TestNearby_LookupArguments(t *testing.T) {
	f := newNearbyFixture(t, staticInterests{domain.CategoryGym, domain.CategoryPharmacy, domain.CategorySupermarket})
	f.settings.s.PlaceFilters.AlertRadiusMeters = 750

	var gotCats []domain.PlaceCategory
	var gotRadius float64
	var gotOpenOnly bool
	f.lookup.findNearestFn = func(_ context.Context, _ domain.GeoPoint, cats []domain.PlaceCategory, radius float64, openOnly bool) (*domain.PlaceResult, error) {
		gotCats, gotRadius, gotOpenOnly = cats, radius, openOnly
		return nil, nil
	}
	f.sample()

	if len(gotCats) != 2 || gotCats[0] != domain.CategoryPharmacy || gotCats[1] != domain.CategorySupermarket {
		t.Errorf("expected [pharmacy supermarket], got %v", gotCats)
	}
	if gotRadius != 750 {
		t.Errorf("expected radius 750, got %v", gotRadius)
	}
	if !gotOpenOnly {
		t.Error("expected open-only lookup")
	}
	if len(f.disp.calls()) != 0 {
		t.Error("expected no alert without a result")
	}
	if !f.watch.LastAlert().IsZero() {
		t.Error("a miss must not start the cooldown")
	}
}

func TestNearby_SkipsLookup(t *testing.T) {
	tests := []struct {
		name      string
		interests staticInterests
		mutate    func(*domain.Settings)
	}{
		{"alerts disabled", staticInterests{domain.CategoryPharmacy}, func(s *domain.Settings) { s.EnableNearbyAlerts = false }},
		{"no interests", nil, func(*domain.Settings) {}},
		{"interest not enabled", staticInterests{domain.CategoryGym}, func(*domain.Settings) {}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newNearbyFixture(t, tt.interests)
			tt.mutate(&f.settings.s)
			f.sample()
			if f.lookup.callCount() != 0 {
				t.Errorf("expected no lookup, got %d", f.lookup.callCount())
			}
		})
	}
}

func TestNearby_LookupUnavailableIsNoResult(t *testing.T) {
	f := newNearbyFixture(t, staticInterests{domain.CategoryPharmacy})
	f.lookup.findNearestFn = func(context.Context, domain.GeoPoint, []domain.PlaceCategory, float64, bool) (*domain.PlaceResult, error) {
		return nil, domain.ErrLookupUnavailable
	}
	f.sample()
	if len(f.disp.calls()) != 0 {
		t.Fatal("expected no alert")
	}

	f.lookup.findNearestFn = func(context.Context, domain.GeoPoint, []domain.PlaceCategory, float64, bool) (*domain.PlaceResult, error) {
		return pharmacy(nil), nil
	}
	f.clock.Advance(time.Second)
	f.sample()
	if len(f.disp.calls()) != 1 {
		t.Fatal("expected retry on next sample to alert")
	}
}

func TestNearby_AlertContent(t *testing.T) {
	open, closed := true, false

	f := newNearbyFixture(t, staticInterests{domain.CategoryPharmacy})
	f.lookup.findNearestFn = func(context.Context, domain.GeoPoint, []domain.PlaceCategory, float64, bool) (*domain.PlaceResult, error) {
		return pharmacy(&open), nil
	}
	f.sample()
	e := f.disp.calls()[0]
	if e.History != nil {
		t.Error("nearby alerts never write history")
	}
	if e.Haptic != domain.HapticMedium {
		t.Errorf("expected medium haptic, got %q", e.Haptic)
	}
	if e.Notification == nil || e.Notification.Title != "💊 Pharmacy nearby!" {
		t.Errorf("unexpected notification %+v", e.Notification)
	}
	if e.Notification.Body != "Drogasil is 300 m away. (Open)" {
		t.Errorf("unexpected body %q", e.Notification.Body)
	}
	if e.Visual == nil || e.Visual.Severity != domain.SeverityInfo {
		t.Errorf("expected info visual alert, got %+v", e.Visual)
	}

	g := newNearbyFixture(t, staticInterests{domain.CategoryPharmacy})
	g.settings.s.PlaceFilters.OpenOnly = false
	g.lookup.findNearestFn = func(context.Context, domain.GeoPoint, []domain.PlaceCategory, float64, bool) (*domain.PlaceResult, error) {
		return pharmacy(&closed), nil
	}
	g.sample()
	e = g.disp.calls()[0]
	if e.Visual.Severity != domain.SeverityNotice || !strings.HasSuffix(e.Visual.Description, "(Closed)") {
		t.Errorf("expected closed notice, got %+v", e.Visual)
	}
}

func TestNearby_QuietHoursDropNotificationOnly(t *testing.T) {
	f := newNearbyFixture(t, staticInterests{domain.CategoryPharmacy})
	f.settings.s.QuietHours = domain.QuietHoursSchedule{
		Enabled:   true,
		StartTime: domain.NewTimeOfDay(11, 0),
		EndTime:   domain.NewTimeOfDay(13, 0),
	}
	f.sample()

	e := f.disp.calls()[0]
	if e.Notification != nil {
		t.Error("expected notification suppressed")
	}
	if e.Haptic == "" || e.Visual == nil {
		t.Errorf("expected haptic and visual alert, got %+v", e)
	}
}

func TestNearby_SingleLookupInFlight(t *testing.T) {
	f := newNearbyFixture(t, staticInterests{domain.CategoryPharmacy})
	started := make(chan struct{})
	release := make(chan struct{})
	f.lookup.findNearestFn = func(context.Context, domain.GeoPoint, []domain.PlaceCategory, float64, bool) (*domain.PlaceResult, error) {
		close(started)
		<-release
		return pharmacy(nil), nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		f.sample()
	}()
	<-started
	f.sample()
	close(release)
	wg.Wait()

	if f.lookup.callCount() != 1 {
		t.Errorf("expected 1 lookup, got %d", f.lookup.callCount())
	}
	if len(f.disp.calls()) != 1 {
		t.Errorf("expected 1 alert, got %d", len(f.disp.calls()))
	}
}

func TestNearby_StartStop(t *testing.T) {
	f := newNearbyFixture(t, staticInterests{domain.CategoryPharmacy})
	f.watch.Start(context.Background())
	f.watch.Start(context.Background())
	if f.source.subscribers() != 1 {
		t.Fatalf("expected 1 subscription, got %d", f.source.subscribers())
	}

	f.source.emit(saoPaulo)
	if len(f.disp.calls()) != 1 {
		t.Fatalf("expected alert through subscription")
	}
	f.source.fail(errors.New("gps off"))

	f.watch.Stop()
	f.watch.Stop()
	if f.source.subscribers() != 0 {
		t.Errorf("expected unsubscribed, got %d", f.source.subscribers())
	}
}
