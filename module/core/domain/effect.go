package domain

import (
	"fmt"
	"math"
)

type HapticIntensity string

const (
	HapticLight  HapticIntensity = "light"
	HapticMedium HapticIntensity = "medium"
	HapticHeavy  HapticIntensity = "heavy"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityInfo     Severity = "info"
	SeverityNotice   Severity = "notice"
)

type SoundID string

const (
	SoundBeep   SoundID = "beep"
	SoundBuzzer SoundID = "buzzer"
	SoundBell   SoundID = "bell"
	SoundAlert  SoundID = "alert"
	SoundChime  SoundID = "chime"
)

func (s SoundID) Valid() bool {
	switch s {
	case SoundBeep, SoundBuzzer, SoundBell, SoundAlert, SoundChime:
		return true
	}
	return false
}

type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type VisualAlert struct {
	Message     string   `json:"message"`
	Description string   `json:"description,omitempty"`
	Severity    Severity `json:"severity"`
}

// Effects is one firing's worth of side effects. Nil or empty members are
// skipped.
type Effects struct {
	History      *AlarmHistoryRecord
	Haptic       HapticIntensity
	Notification *Notification
	Sound        SoundID
	Visual       *VisualAlert
}

// FormatDistance renders meters the way alerts show them.
func FormatDistance(meters float64) string {
	m := math.Round(meters)
	if m >= 1000 {
		return fmt.Sprintf("%.1f km", m/1000)
	}
	return fmt.Sprintf("%d m", int(m))
}
