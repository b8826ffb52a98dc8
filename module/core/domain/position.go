package domain

import "time"

type PositionSample struct {
	DeviceID       string    `json:"device_id,omitempty"`
	Point          GeoPoint  `json:"location"`
	AccuracyMeters float64   `json:"accuracy_meters,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
