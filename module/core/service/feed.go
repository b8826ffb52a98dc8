package service

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/nandanugg/sonecaz/module/core/domain"
)

const defaultFeedBuffer = 16

// PositionSource is the live stream both watches subscribe to.
type PositionSource interface {
	Subscribe(onSample func(domain.PositionSample), onError func(error)) (unsubscribe func())
	Latest() (domain.PositionSample, bool)
}

var _ PositionSource = (*PositionFeed)(nil)

type feedEvent struct {
	sample domain.PositionSample
	err    error
}

type subscription struct {
	events   chan feedEvent
	done     chan struct{}
	closed   atomic.Bool
	once     sync.Once
	onSample func(domain.PositionSample)
	onError  func(error)
}

// PositionFeed fans samples out to independent subscribers. Every
// subscription gets its own queue and goroutine so a slow callback only
// delays itself.
type PositionFeed struct {
	mu        sync.RWMutex
	subs      map[uint64]*subscription
	nextID    uint64
	latest    domain.PositionSample
	hasLatest bool
	buffer    int
	logger    *slog.Logger
}

func NewPositionFeed(logger *slog.Logger) *PositionFeed {
	if logger == nil {
		logger = slog.Default()
	}
	return &PositionFeed{
		subs:   make(map[uint64]*subscription),
		buffer: defaultFeedBuffer,
		logger: logger,
	}
}

func (f *PositionFeed) Subscribe(onSample func(domain.PositionSample), onError func(error)) func() {
	sub := &subscription{
		events:   make(chan feedEvent, f.buffer),
		done:     make(chan struct{}),
		onSample: onSample,
		onError:  onError,
	}

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = sub
	f.mu.Unlock()

	go f.deliver(sub)

	return func() {
		sub.once.Do(func() {
			sub.closed.Store(true)
			close(sub.done)
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

func (f *PositionFeed) Publish(sample domain.PositionSample) {
	f.mu.Lock()
	f.latest = sample
	f.hasLatest = true
	f.mu.Unlock()

	f.broadcast(feedEvent{sample: sample})
}

func (f *PositionFeed) PublishError(err error) {
	f.broadcast(feedEvent{err: err})
}

func (f *PositionFeed) Latest() (domain.PositionSample, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.latest, f.hasLatest
}

// Close drops every subscription.
func (f *PositionFeed) Close() {
	f.mu.Lock()
	subs := f.subs
	f.subs = make(map[uint64]*subscription)
	f.mu.Unlock()

	for _, sub := range subs {
		sub.once.Do(func() {
			sub.closed.Store(true)
			close(sub.done)
		})
	}
}

func (f *PositionFeed) broadcast(ev feedEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, sub := range f.subs {
		select {
		case sub.events <- ev:
			continue
		default:
		}
		// queue full: drop the oldest sample, then retry once
		select {
		case <-sub.events:
		default:
		}
		select {
		case sub.events <- ev:
		default:
			f.logger.Warn("position sample dropped")
		}
	}
}

func (f *PositionFeed) deliver(sub *subscription) {
	for {
		select {
		case <-sub.done:
			return
		case ev := <-sub.events:
			if sub.closed.Load() {
				return
			}
			f.dispatch(sub, ev)
		}
	}
}

func (f *PositionFeed) dispatch(sub *subscription, ev feedEvent) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("position callback panicked", "panic", r)
		}
	}()

	if ev.err != nil {
		if sub.onError != nil {
			sub.onError(ev.err)
		}
		return
	}
	if sub.onSample != nil {
		sub.onSample(ev.sample)
	}
}
