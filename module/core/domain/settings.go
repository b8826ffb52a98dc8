package domain

import (
	"fmt"
	"slices"
	"time"
)

type PlaceFilters struct {
	EnabledCategories []PlaceCategory `json:"enabled_categories" yaml:"enabled_categories"`
	OpenOnly          bool            `json:"open_only" yaml:"open_only"`
	AlertRadiusMeters float64         `json:"alert_radius_meters" yaml:"alert_radius_meters"`
}

type CommuteSettings struct {
	AutoStart bool `json:"auto_start" yaml:"auto_start"`
	AutoEnd   bool `json:"auto_end" yaml:"auto_end"`
}

// Settings is the read-only snapshot both watches consume.
type Settings struct {
	DefaultRadiusMeters     float64            `json:"default_radius_meters" yaml:"default_radius_meters"`
	EnableNearbyAlerts      bool               `json:"enable_nearby_alerts" yaml:"enable_nearby_alerts"`
	NearbyAlertRadiusMeters float64            `json:"nearby_alert_radius_meters" yaml:"nearby_alert_radius_meters"`
	EnableHaptics           bool               `json:"enable_haptics" yaml:"enable_haptics"`
	EnableNotifications     bool               `json:"enable_notifications" yaml:"enable_notifications"`
	AlertCooldownSeconds    int                `json:"alert_cooldown_seconds" yaml:"alert_cooldown_seconds"`
	AlarmSoundID            SoundID            `json:"alarm_sound_id" yaml:"alarm_sound_id"`
	QuietHours              QuietHoursSchedule `json:"quiet_hours" yaml:"quiet_hours"`
	PlaceFilters            PlaceFilters       `json:"place_filters" yaml:"place_filters"`
	Commute                 CommuteSettings    `json:"commute" yaml:"commute"`
}

func DefaultSettings() Settings {
	return Settings{
		DefaultRadiusMeters:     500,
		EnableNearbyAlerts:      true,
		NearbyAlertRadiusMeters: 500,
		EnableHaptics:           true,
		EnableNotifications:     true,
		AlertCooldownSeconds:    60,
		AlarmSoundID:            SoundBeep,
		QuietHours: QuietHoursSchedule{
			StartTime: NewTimeOfDay(22, 0),
			EndTime:   NewTimeOfDay(8, 0),
		},
		PlaceFilters: PlaceFilters{
			EnabledCategories: []PlaceCategory{CategorySupermarket, CategoryPharmacy, CategoryGasStation, CategoryPharmacy24h},
			OpenOnly:          true,
			AlertRadiusMeters: 500,
		},
		Commute: CommuteSettings{AutoStart: true, AutoEnd: true},
	}
}

func (s Settings) AlertCooldown() time.Duration {
	return time.Duration(s.AlertCooldownSeconds) * time.Second
}

// NearbyRadius prefers the place-filter radius over the global one.
func (s Settings) NearbyRadius() float64 {
	if s.PlaceFilters.AlertRadiusMeters > 0 {
		return s.PlaceFilters.AlertRadiusMeters
	}
	return s.NearbyAlertRadiusMeters
}

func (s Settings) Clone() Settings {
	s.QuietHours.DaysOfWeek = slices.Clone(s.QuietHours.DaysOfWeek)
	s.PlaceFilters.EnabledCategories = slices.Clone(s.PlaceFilters.EnabledCategories)
	return s
}

func (s Settings) Validate() error {
	if !(s.DefaultRadiusMeters > 0) {
		return fmt.Errorf("default_radius_meters: must be positive: %w", ErrInvalidSettings)
	}
	if s.NearbyAlertRadiusMeters < 0 || s.PlaceFilters.AlertRadiusMeters < 0 {
		return fmt.Errorf("nearby radius: must not be negative: %w", ErrInvalidSettings)
	}
	if s.AlertCooldownSeconds < 0 {
		return fmt.Errorf("alert_cooldown_seconds: must not be negative: %w", ErrInvalidSettings)
	}
	if !s.AlarmSoundID.Valid() {
		return fmt.Errorf("alarm_sound_id %q: %w", s.AlarmSoundID, ErrInvalidSettings)
	}
	for _, d := range s.QuietHours.DaysOfWeek {
		if !d.Valid() {
			return fmt.Errorf("quiet_hours.days_of_week %q: %w", d, ErrInvalidSettings)
		}
	}
	for _, c := range s.PlaceFilters.EnabledCategories {
		if !c.Valid() {
			return fmt.Errorf("place_filters.enabled_categories %q: %w", c, ErrInvalidSettings)
		}
	}
	return nil
}
