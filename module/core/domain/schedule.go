package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a minute of the day in [0, 1440).
type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, fmt.Errorf("time %q: want HH:mm: %w", s, ErrInvalidSchedule)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("time %q: %w", s, ErrInvalidSchedule)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("time %q: %w", s, ErrInvalidSchedule)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time %q: out of range: %w", s, ErrInvalidSchedule)
	}
	return NewTimeOfDay(h, m), nil
}

func TimeOfDayOf(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute())
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// On returns the instant of t on the calendar day of date, in date's location.
func (t TimeOfDay) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, date.Location())
}

type DayOfWeek string

const (
	Sunday    DayOfWeek = "sunday"
	Monday    DayOfWeek = "monday"
	Tuesday   DayOfWeek = "tuesday"
	Wednesday DayOfWeek = "wednesday"
	Thursday  DayOfWeek = "thursday"
	Friday    DayOfWeek = "friday"
	Saturday  DayOfWeek = "saturday"
)

var weekdays = [...]DayOfWeek{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

func DayOf(t time.Time) DayOfWeek {
	return weekdays[t.Weekday()]
}

func (d DayOfWeek) Valid() bool {
	return slices.Contains(weekdays[:], d)
}

func ContainsDay(days []DayOfWeek, d DayOfWeek) bool {
	return slices.Contains(days, d)
}

// FormatDays and ParseDays encode a day set as a comma-separated column.
func FormatDays(days []DayOfWeek) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = string(d)
	}
	return strings.Join(parts, ",")
}

func ParseDays(s string) ([]DayOfWeek, error) {
	if s == "" {
		return nil, nil
	}
	var days []DayOfWeek
	for _, part := range strings.Split(s, ",") {
		d := DayOfWeek(strings.ToLower(strings.TrimSpace(part)))
		if !d.Valid() {
			return nil, fmt.Errorf("day %q: %w", part, ErrInvalidSchedule)
		}
		days = append(days, d)
	}
	return days, nil
}

type QuietHoursSchedule struct {
	Enabled    bool        `json:"enabled" yaml:"enabled"`
	StartTime  TimeOfDay   `json:"start_time" yaml:"start_time"`
	EndTime    TimeOfDay   `json:"end_time" yaml:"end_time"`
	DaysOfWeek []DayOfWeek `json:"days_of_week,omitempty" yaml:"days_of_week,omitempty"`
}

type Destination struct {
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Location GeoPoint `json:"location"`
}

type RecurringAlarmSpec struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Destination  Destination `json:"destination"`
	RadiusMeters float64     `json:"radius_meters"`
	DaysOfWeek   []DayOfWeek `json:"days_of_week"`
	StartTime    TimeOfDay   `json:"start_time"`
	EndTime      *TimeOfDay  `json:"end_time,omitempty"`
	Enabled      bool        `json:"enabled"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (r *RecurringAlarmSpec) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name: required: %w", ErrInvalidSchedule)
	}
	if !r.Destination.Location.Valid() {
		return fmt.Errorf("destination: invalid location: %w", ErrInvalidSchedule)
	}
	if !(r.RadiusMeters > 0) {
		return fmt.Errorf("radius: must be positive: %w", ErrInvalidSchedule)
	}
	if len(r.DaysOfWeek) == 0 {
		return fmt.Errorf("days_of_week: at least one day: %w", ErrInvalidSchedule)
	}
	for _, d := range r.DaysOfWeek {
		if !d.Valid() {
			return fmt.Errorf("days_of_week: %q: %w", d, ErrInvalidSchedule)
		}
	}
	if r.StartTime < 0 || r.StartTime >= 24*60 {
		return fmt.Errorf("start_time: out of range: %w", ErrInvalidSchedule)
	}
	if r.EndTime != nil && *r.EndTime < r.StartTime {
		return fmt.Errorf("end_time: before start_time: %w", ErrInvalidSchedule)
	}
	return nil
}

// ActiveAt reports whether t falls inside today's window of an enabled
// spec. Both bounds are inclusive at minute granularity.
func (r RecurringAlarmSpec) ActiveAt(t time.Time) bool {
	if !r.Enabled || !ContainsDay(r.DaysOfWeek, DayOf(t)) {
		return false
	}
	now := TimeOfDayOf(t)
	if now < r.StartTime {
		return false
	}
	return r.EndTime == nil || now <= *r.EndTime
}

// NextOccurrence returns the next start strictly after from, within a week.
func (r RecurringAlarmSpec) NextOccurrence(from time.Time) (time.Time, bool) {
	if !r.Enabled {
		return time.Time{}, false
	}
	for i := 0; i < 8; i++ {
		day := from.AddDate(0, 0, i)
		if !ContainsDay(r.DaysOfWeek, DayOf(day)) {
			continue
		}
		at := r.StartTime.On(day)
		if at.After(from) {
			return at, true
		}
	}
	return time.Time{}, false
}

func (r RecurringAlarmSpec) Geofence() DestinationGeofence {
	return DestinationGeofence{
		Name:         r.Destination.Name,
		Address:      r.Destination.Address,
		Center:       r.Destination.Location,
		RadiusMeters: r.RadiusMeters,
	}
}
