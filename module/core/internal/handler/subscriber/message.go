package subscriber

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nandanugg/sonecaz/module/core/domain"
)

type positionFeed interface {
	Publish(sample domain.PositionSample)
}

type locationMessage struct {
	DeviceID  string  `json:"device_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

func decodeLocation(payload []byte) (domain.PositionSample, error) {
	var raw locationMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return domain.PositionSample{}, fmt.Errorf("invalid location message: %w", err)
	}
	if err := validateLocationMessage(&raw); err != nil {
		return domain.PositionSample{}, fmt.Errorf("validation error: %w", err)
	}
	return domain.PositionSample{
		DeviceID:       raw.DeviceID,
		Point:          domain.GeoPoint{Lat: raw.Latitude, Lng: raw.Longitude},
		AccuracyMeters: raw.Accuracy,
		Timestamp:      time.Unix(raw.Timestamp, 0),
	}, nil
}

func validateLocationMessage(msg *locationMessage) error {
	if msg.DeviceID == "" {
		return fmt.Errorf("device_id: required")
	}
	if msg.Latitude < -90 || msg.Latitude > 90 {
		return fmt.Errorf("latitude: must be between -90 and 90")
	}
	if msg.Longitude < -180 || msg.Longitude > 180 {
		return fmt.Errorf("longitude: must be between -180 and 180")
	}
	if msg.Accuracy < 0 {
		return fmt.Errorf("accuracy: must not be negative")
	}
	if msg.Timestamp <= 0 {
		return fmt.Errorf("timestamp: must be positive")
	}
	return nil
}
