package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nandanugg/sonecaz/module/core/domain"
)

func commuteSpec() domain.RecurringAlarmSpec {
	end := domain.NewTimeOfDay(9, 0)
	return domain.RecurringAlarmSpec{
		ID:           "work",
		Name:         "Work",
		Destination:  domain.Destination{Name: "Office", Address: "Av. Paulista, 1578", Location: saoPaulo},
		RadiusMeters: 300,
		DaysOfWeek:   []domain.DayOfWeek{domain.Monday},
		StartTime:    domain.NewTimeOfDay(8, 0),
		EndTime:      &end,
		Enabled:      true,
	}
}

type activatorFixture struct {
	source    *fakeSource
	disp      *recordingDispatcher
	toasts    *recordingDispatcher
	settings  *staticSettings
	clock     *fakeClock
	alarm     *DestinationAlarm
	activator *RecurringActivator
}

func newActivatorFixture(t *testing.T, specs ...domain.RecurringAlarmSpec) *activatorFixture {
	t.Helper()
	f := &activatorFixture{
		source:   newFakeSource(),
		disp:     &recordingDispatcher{},
		toasts:   &recordingDispatcher{},
		settings: &staticSettings{s: domain.DefaultSettings()},
		clock:    newClock(at(7, 0)),
	}
	f.alarm = NewDestinationAlarm(f.source, f.disp, f.settings, AlarmOptions{Now: f.clock.Now, Location: time.UTC})
	f.activator = NewRecurringActivator(newMemRecurringRepo(specs...), f.alarm, f.settings, ActivatorOptions{
		Now:        f.clock.Now,
		Location:   time.UTC,
		Dispatcher: f.toasts,
	})
	return f
}

func (f *activatorFixture) tickAt(t *testing.T, h, m int) {
	t.Helper()
	f.clock.Set(at(h, m))
	if err := f.activator.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
}

func TestActivator_ArmsAndEndsWindow(t *testing.T) {
	f := newActivatorFixture(t, commuteSpec())

	f.tickAt(t, 7, 59)
	if f.alarm.State() != domain.AlarmDisarmed {
		t.Fatalf("expected disarmed before window, got %s", f.alarm.State())
	}

	f.tickAt(t, 8, 5)
	spec := commuteSpec()
	if !f.alarm.ArmedOn(spec.Geofence()) {
		t.Fatalf("expected armed on commute destination, got %s", f.alarm.State())
	}

	f.tickAt(t, 9, 0)
	if f.alarm.State() != domain.AlarmArmed {
		t.Fatalf("expected still armed at end minute, got %s", f.alarm.State())
	}

	f.tickAt(t, 9, 1)
	if f.alarm.State() != domain.AlarmDisarmed {
		t.Fatalf("expected disarmed after window, got %s", f.alarm.State())
	}
	if len(f.disp.calls()) != 0 {
		t.Error("expected no effects from arming and disarming")
	}
}

func TestActivator_ToastsOnAutoArmAndEnd(t *testing.T) {
	f := newActivatorFixture(t, commuteSpec())

	f.tickAt(t, 8, 5)
	f.tickAt(t, 8, 30)
	got := f.toasts.calls()
	if len(got) != 1 || got[0].Visual == nil {
		t.Fatalf("expected one arm toast, got %+v", got)
	}
	arm := got[0].Visual
	if arm.Message != `Alarm "Work" armed automatically` || arm.Description != "Until 09:00" || arm.Severity != domain.SeverityInfo {
		t.Errorf("unexpected arm toast %+v", arm)
	}
	if got[0].Sound != "" || got[0].Haptic != "" || got[0].Notification != nil || got[0].History != nil {
		t.Errorf("arm toast must be visual only, got %+v", got[0])
	}

	f.tickAt(t, 9, 1)
	got = f.toasts.calls()
	if len(got) != 2 || got[1].Visual == nil {
		t.Fatalf("expected an end toast, got %+v", got)
	}
	if end := got[1].Visual; end.Message != `Alarm "Work" ended` || end.Severity != domain.SeverityInfo {
		t.Errorf("unexpected end toast %+v", end)
	}
}

func TestActivator_NoEndToastWhenUserDisarms(t *testing.T) {
	spec := commuteSpec()
	spec.EndTime = nil
	f := newActivatorFixture(t, spec)

	f.tickAt(t, 8, 5)
	got := f.toasts.calls()
	if len(got) != 1 || got[0].Visual.Description != "" {
		t.Fatalf("expected an arm toast without end time, got %+v", got)
	}

	f.alarm.Disarm()
	f.tickAt(t, 8, 6)
	if n := len(f.toasts.calls()); n != 1 {
		t.Errorf("expected no further toasts, got %d", n)
	}
}

func TestActivator_ArmsOncePerDay(t *testing.T) {
	f := newActivatorFixture(t, commuteSpec())

	f.tickAt(t, 8, 5)
	f.alarm.Disarm()
	f.tickAt(t, 8, 6)
	if f.alarm.State() != domain.AlarmDisarmed {
		t.Fatalf("manual disarm should stick for the day, got %s", f.alarm.State())
	}

	f.clock.Set(at(8, 5).AddDate(0, 0, 7))
	if err := f.activator.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if f.alarm.State() != domain.AlarmArmed {
		t.Errorf("expected armed again next Monday, got %s", f.alarm.State())
	}
}

func TestActivator_FiredAlarmIsLeftAlone(t *testing.T) {
	f := newActivatorFixture(t, commuteSpec())

	f.tickAt(t, 8, 5)
	f.source.emit(saoPaulo)
	if f.alarm.State() != domain.AlarmTriggered {
		t.Fatalf("expected triggered, got %s", f.alarm.State())
	}

	f.tickAt(t, 8, 30)
	f.tickAt(t, 9, 1)
	if f.alarm.State() != domain.AlarmTriggered {
		t.Errorf("expected triggered to stay, got %s", f.alarm.State())
	}
	if len(f.disp.calls()) != 1 {
		t.Errorf("expected a single fire, got %d", len(f.disp.calls()))
	}
}

func TestActivator_CommuteToggles(t *testing.T) {
	f := newActivatorFixture(t, commuteSpec())
	f.settings.s.Commute.AutoStart = false
	f.tickAt(t, 8, 5)
	if f.alarm.State() != domain.AlarmDisarmed {
		t.Fatalf("auto start off must not arm, got %s", f.alarm.State())
	}

	f.settings.s.Commute = domain.CommuteSettings{AutoStart: true, AutoEnd: false}
	f.tickAt(t, 8, 6)
	f.tickAt(t, 9, 30)
	if f.alarm.State() != domain.AlarmArmed {
		t.Errorf("auto end off must keep the alarm armed, got %s", f.alarm.State())
	}
}

func TestActivator_ManualArmNotEnded(t *testing.T) {
	spec := commuteSpec()
	f := newActivatorFixture(t, spec)

	f.clock.Set(at(8, 1))
	if err := f.alarm.Arm(spec.Geofence()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.tickAt(t, 8, 5)
	f.tickAt(t, 9, 5)
	if f.alarm.State() != domain.AlarmArmed {
		t.Errorf("an alarm armed by the user is not auto-ended, got %s", f.alarm.State())
	}
}

func TestActivator_LatestStartWins(t *testing.T) {
	early := commuteSpec()
	late := commuteSpec()
	late.ID = "gym"
	late.StartTime = domain.NewTimeOfDay(8, 3)
	late.Destination.Location = north(saoPaulo, 3000)
	late.EndTime = nil
	disabled := commuteSpec()
	disabled.ID = "off"
	disabled.StartTime = domain.NewTimeOfDay(8, 4)
	disabled.Destination.Location = north(saoPaulo, 9000)
	disabled.Enabled = false

	f := newActivatorFixture(t, early, late, disabled)
	f.tickAt(t, 8, 5)
	if !f.alarm.ArmedOn(late.Geofence()) {
		t.Fatalf("expected the later window to be armed, got %+v", f.alarm.Status().Geofence)
	}

	f.tickAt(t, 8, 6)
	if !f.alarm.ArmedOn(late.Geofence()) {
		t.Error("an active spec already armed must not be replaced")
	}
}

func TestRecurringService_CRUD(t *testing.T) {
	repo := newMemRecurringRepo()
	clock := newClock(at(10, 0))
	svc := NewRecurringService(repo, clock.Now)
	ctx := context.Background()

	spec := commuteSpec()
	spec.ID = ""
	if err := svc.Create(ctx, &spec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.ID == "" || !spec.CreatedAt.Equal(at(10, 0)) {
		t.Fatalf("expected id and timestamps, got %+v", spec)
	}

	clock.Advance(time.Hour)
	update := commuteSpec()
	update.Name = "Office"
	if err := svc.Update(ctx, spec.ID, &update); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := svc.Get(ctx, spec.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Office" || !got.CreatedAt.Equal(at(10, 0)) || !got.UpdatedAt.Equal(at(11, 0)) {
		t.Errorf("unexpected update result %+v", got)
	}

	if err := svc.Update(ctx, "missing", &update); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	bad := commuteSpec()
	bad.DaysOfWeek = nil
	if err := svc.Create(ctx, &bad); !errors.Is(err, domain.ErrInvalidSchedule) {
		t.Errorf("expected ErrInvalidSchedule, got %v", err)
	}

	if err := svc.Delete(ctx, spec.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list, _ := svc.List(ctx)
	if len(list) != 0 {
		t.Errorf("expected empty list, got %d", len(list))
	}
}

func TestRecurringService_Next(t *testing.T) {
	monday := commuteSpec()
	wednesday := commuteSpec()
	wednesday.ID = "wed"
	wednesday.DaysOfWeek = []domain.DayOfWeek{domain.Wednesday}
	wednesday.StartTime = domain.NewTimeOfDay(7, 0)

	svc := NewRecurringService(newMemRecurringRepo(monday, wednesday), nil)

	next, err := svc.Next(context.Background(), at(9, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next == nil || next.Spec.ID != "wed" {
		t.Fatalf("expected wednesday next, got %+v", next)
	}
	if want := time.Date(2026, 10, 14, 7, 0, 0, 0, time.UTC); !next.At.Equal(want) {
		t.Errorf("expected %v, got %v", want, next.At)
	}

	empty := NewRecurringService(newMemRecurringRepo(), nil)
	if next, _ := empty.Next(context.Background(), at(9, 0)); next != nil {
		t.Errorf("expected nil, got %+v", next)
	}
}
