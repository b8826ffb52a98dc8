package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/nandanugg/sonecaz/module/core/domain"
	"github.com/nandanugg/sonecaz/module/core/internal/repository/publisher"
)

var _ publisher.DeviceCommander = (*DeviceCommander)(nil)

type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// DeviceCommander sends effect commands to the paired device.
type DeviceCommander struct {
	client mqttPublisher
	topic  string
	now    func() time.Time
}

func CommandTopic(deviceID string) string {
	return fmt.Sprintf("/sonecaz/device/%s/commands", deviceID)
}

func NewDeviceCommander(client paho.Client, deviceID string) *DeviceCommander {
	return &DeviceCommander{client: client, topic: CommandTopic(deviceID), now: time.Now}
}

type Command struct {
	Type        string                 `json:"type"`
	Intensity   domain.HapticIntensity `json:"intensity,omitempty"`
	SoundID     domain.SoundID         `json:"sound_id,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Description string                 `json:"description,omitempty"`
	Severity    domain.Severity        `json:"severity,omitempty"`
	Timestamp   int64                  `json:"timestamp"`
}

func (c *DeviceCommander) PlayHaptic(ctx context.Context, intensity domain.HapticIntensity) error {
	return c.send(ctx, Command{Type: "haptic", Intensity: intensity})
}

func (c *DeviceCommander) ShowVisualAlert(ctx context.Context, alert domain.VisualAlert) error {
	return c.send(ctx, Command{
		Type:        "visual_alert",
		Message:     alert.Message,
		Description: alert.Description,
		Severity:    alert.Severity,
	})
}

func (c *DeviceCommander) PlaySound(ctx context.Context, id domain.SoundID) error {
	return c.send(ctx, Command{Type: "sound", SoundID: id})
}

func (c *DeviceCommander) send(ctx context.Context, cmd Command) error {
	cmd.Timestamp = c.now().Unix()
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal %s command: %w", cmd.Type, err)
	}

	token := c.client.Publish(c.topic, 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish %s command: %w", cmd.Type, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s command: %w", cmd.Type, err)
	}
	return nil
}
