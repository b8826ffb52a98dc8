package publisher

import (
	"context"

	"github.com/nandanugg/sonecaz/module/core/domain"
)

type NotificationPublisher interface {
	PublishNotification(ctx context.Context, n domain.Notification) error
}

type DeviceCommander interface {
	PlayHaptic(ctx context.Context, intensity domain.HapticIntensity) error
	ShowVisualAlert(ctx context.Context, alert domain.VisualAlert) error
	PlaySound(ctx context.Context, id domain.SoundID) error
}
