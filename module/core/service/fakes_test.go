package service

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/nandanugg/sonecaz/module/core/domain"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeHandlers struct {
	onSample func(domain.PositionSample)
	onError  func(error)
}

// fakeSource delivers synchronously on the caller's goroutine.
type fakeSource struct {
	mu        sync.Mutex
	subs      map[int]fakeHandlers
	next      int
	latest    domain.PositionSample
	hasLatest bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{subs: map[int]fakeHandlers{}}
}

func (f *fakeSource) Subscribe(onSample func(domain.PositionSample), onError func(error)) func() {
	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = fakeHandlers{onSample, onError}
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *fakeSource) Latest() (domain.PositionSample, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest, f.hasLatest
}

func (f *fakeSource) setLatest(p domain.GeoPoint) {
	f.mu.Lock()
	f.latest = domain.PositionSample{Point: p}
	f.hasLatest = true
	f.mu.Unlock()
}

func (f *fakeSource) handlers() []fakeHandlers {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]fakeHandlers, 0, len(f.subs))
	for _, h := range f.subs {
		out = append(out, h)
	}
	return out
}

func (f *fakeSource) emit(p domain.GeoPoint) {
	for _, h := range f.handlers() {
		h.onSample(domain.PositionSample{Point: p})
	}
}

func (f *fakeSource) fail(err error) {
	for _, h := range f.handlers() {
		h.onError(err)
	}
}

func (f *fakeSource) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

type recordingDispatcher struct {
	mu      sync.Mutex
	effects []domain.Effects
}

func (d *recordingDispatcher) Dispatch(_ context.Context, e domain.Effects) {
	d.mu.Lock()
	d.effects = append(d.effects, e)
	d.mu.Unlock()
}

func (d *recordingDispatcher) calls() []domain.Effects {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.Effects(nil), d.effects...)
}

type staticSettings struct {
	s domain.Settings
}

func (s *staticSettings) Snapshot() domain.Settings { return s.s.Clone() }

type staticInterests []domain.PlaceCategory

func (s staticInterests) ActiveCategories() []domain.PlaceCategory { return s }

type mockLookup struct {
	mu            sync.Mutex
	findNearestFn func(ctx context.Context, center domain.GeoPoint, cats []domain.PlaceCategory, radius float64, openOnly bool) (*domain.PlaceResult, error)
	calls         int
}

func (m *mockLookup) FindNearest(ctx context.Context, center domain.GeoPoint, cats []domain.PlaceCategory, radius float64, openOnly bool) (*domain.PlaceResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.findNearestFn(ctx, center, cats, radius, openOnly)
}

func (m *mockLookup) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockHistoryRepo struct {
	insertFn    func(ctx context.Context, rec *domain.AlarmHistoryRecord) error
	listFn      func(ctx context.Context, limit int) ([]domain.AlarmHistoryRecord, error)
	deleteFn    func(ctx context.Context, id string) error
	deleteAllFn func(ctx context.Context) error
	pruneFn     func(ctx context.Context, keep int) (int64, error)
}

func (m *mockHistoryRepo) Insert(ctx context.Context, rec *domain.AlarmHistoryRecord) error {
	return m.insertFn(ctx, rec)
}

func (m *mockHistoryRepo) List(ctx context.Context, limit int) ([]domain.AlarmHistoryRecord, error) {
	return m.listFn(ctx, limit)
}

func (m *mockHistoryRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockHistoryRepo) DeleteAll(ctx context.Context) error {
	return m.deleteAllFn(ctx)
}

func (m *mockHistoryRepo) Prune(ctx context.Context, keep int) (int64, error) {
	return m.pruneFn(ctx, keep)
}

// memRecurringRepo is a map-backed recurring alarm repository.
type memRecurringRepo struct {
	mu    sync.Mutex
	specs map[string]domain.RecurringAlarmSpec
	order []string
}

func newMemRecurringRepo(specs ...domain.RecurringAlarmSpec) *memRecurringRepo {
	r := &memRecurringRepo{specs: map[string]domain.RecurringAlarmSpec{}}
	for _, s := range specs {
		_ = r.Upsert(context.Background(), &s)
	}
	return r
}

func (r *memRecurringRepo) List(context.Context) ([]domain.RecurringAlarmSpec, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.RecurringAlarmSpec, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.specs[id])
	}
	return out, nil
}

func (r *memRecurringRepo) Get(_ context.Context, id string) (*domain.RecurringAlarmSpec, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.specs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (r *memRecurringRepo) Upsert(_ context.Context, spec *domain.RecurringAlarmSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.specs[spec.ID]; !ok {
		r.order = append(r.order, spec.ID)
	}
	r.specs[spec.ID] = *spec
	return nil
}

func (r *memRecurringRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.specs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.specs, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

var saoPaulo = domain.GeoPoint{Lat: -23.5505, Lng: -46.6333}

// north returns p moved the given number of meters due north.
func north(p domain.GeoPoint, meters float64) domain.GeoPoint {
	return domain.GeoPoint{Lat: p.Lat + meters/6371000*180/math.Pi, Lng: p.Lng}
}

type dispatcherFunc func(domain.Effects)

func (f dispatcherFunc) Dispatch(_ context.Context, e domain.Effects) { f(e) }
