package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nandanugg/sonecaz/module/core/domain"
)

const defaultEffectTimeout = 5 * time.Second

type HapticSink interface {
	PlayHaptic(ctx context.Context, intensity domain.HapticIntensity) error
}

type NotificationSink interface {
	ShowNotification(ctx context.Context, n domain.Notification) error
}

type SoundSink interface {
	PlaySound(ctx context.Context, id domain.SoundID) error
}

type VisualAlertSink interface {
	ShowVisualAlert(ctx context.Context, alert domain.VisualAlert) error
}

type HistorySink interface {
	AppendHistory(ctx context.Context, record domain.AlarmHistoryRecord) error
}

// Sinks holds the optional effect collaborators. Nil members are skipped.
type Sinks struct {
	Haptic       HapticSink
	Notification NotificationSink
	Sound        SoundSink
	Visual       VisualAlertSink
	History      HistorySink
}

// EffectDispatcher runs each requested effect best-effort. A failing or
// panicking sink is logged and never stops the remaining effects.
type EffectDispatcher struct {
	sinks   Sinks
	timeout time.Duration
	logger  *slog.Logger
	metrics *Metrics
}

func NewEffectDispatcher(sinks Sinks, timeout time.Duration, logger *slog.Logger, metrics *Metrics) *EffectDispatcher {
	if timeout <= 0 {
		timeout = defaultEffectTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EffectDispatcher{sinks: sinks, timeout: timeout, logger: logger, metrics: metrics}
}

func (d *EffectDispatcher) Dispatch(ctx context.Context, e domain.Effects) {
	if e.History != nil && d.sinks.History != nil {
		record := *e.History
		d.run(ctx, "history", func(ctx context.Context) error {
			return d.sinks.History.AppendHistory(ctx, record)
		})
	}
	if e.Haptic != "" && d.sinks.Haptic != nil {
		d.run(ctx, "haptic", func(ctx context.Context) error {
			return d.sinks.Haptic.PlayHaptic(ctx, e.Haptic)
		})
	}
	if e.Notification != nil && d.sinks.Notification != nil {
		n := *e.Notification
		d.run(ctx, "notification", func(ctx context.Context) error {
			return d.sinks.Notification.ShowNotification(ctx, n)
		})
	}
	if e.Sound != "" && d.sinks.Sound != nil {
		d.run(ctx, "sound", func(ctx context.Context) error {
			return d.sinks.Sound.PlaySound(ctx, e.Sound)
		})
	}
	if e.Visual != nil && d.sinks.Visual != nil {
		v := *e.Visual
		d.run(ctx, "visual", func(ctx context.Context) error {
			return d.sinks.Visual.ShowVisualAlert(ctx, v)
		})
	}
}

func (d *EffectDispatcher) run(ctx context.Context, effect string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn(ctx)
	}()
	if err != nil {
		d.logger.Warn("effect failed", "effect", effect, "error", err)
		d.metrics.effectFailed(effect)
	}
}
