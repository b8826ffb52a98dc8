package domain

import (
	"fmt"
	"strings"
	"time"
)

type AlarmRunState int

const (
	AlarmDisarmed AlarmRunState = iota
	AlarmArmed
	AlarmTriggered
)

func (s AlarmRunState) String() string {
	switch s {
	case AlarmArmed:
		return "armed"
	case AlarmTriggered:
		return "triggered"
	default:
		return "disarmed"
	}
}

func (s AlarmRunState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type DestinationGeofence struct {
	Name         string   `json:"name,omitempty"`
	Address      string   `json:"address"`
	Center       GeoPoint `json:"center"`
	RadiusMeters float64  `json:"radius_meters"`
	StartPoint   GeoPoint `json:"start_point"`
}

func (g DestinationGeofence) Validate() error {
	if !g.Center.Valid() {
		return fmt.Errorf("center %v: %w", g.Center, ErrInvalidGeofence)
	}
	if !(g.RadiusMeters > 0) {
		return fmt.Errorf("radius %v: %w", g.RadiusMeters, ErrInvalidGeofence)
	}
	return nil
}

// SameTarget reports whether g and o watch the same circle.
func (g DestinationGeofence) SameTarget(o DestinationGeofence) bool {
	return g.Center == o.Center && g.RadiusMeters == o.RadiusMeters
}

// DisplayName is the explicit name, else the first segment of the address.
func (g DestinationGeofence) DisplayName() string {
	if g.Name != "" {
		return g.Name
	}
	if first := strings.TrimSpace(strings.Split(g.Address, ",")[0]); first != "" {
		return first
	}
	return "Destination"
}

type AlarmHistoryRecord struct {
	ID                  string    `json:"id"`
	DestinationName     string    `json:"destination_name"`
	DestinationAddress  string    `json:"destination_address"`
	DestinationLocation GeoPoint  `json:"destination_location"`
	StartLocation       GeoPoint  `json:"start_location"`
	RadiusMeters        float64   `json:"radius_meters"`
	TriggeredAt         time.Time `json:"triggered_at"`
	DistanceAtTrigger   float64   `json:"distance_at_trigger"`
	DurationMinutes     *int      `json:"duration_minutes,omitempty"`
}
