package service

import (
	"time"

	"github.com/nandanugg/sonecaz/module/core/domain"
)

// IsSuppressed reports whether alerts are muted at now. The window is
// inclusive at both ends and wraps midnight when start > end.
func IsSuppressed(schedule domain.QuietHoursSchedule, now time.Time) bool {
	if !schedule.Enabled {
		return false
	}
	if len(schedule.DaysOfWeek) > 0 && !domain.ContainsDay(schedule.DaysOfWeek, domain.DayOf(now)) {
		return false
	}

	current := domain.TimeOfDayOf(now)
	if schedule.StartTime <= schedule.EndTime {
		return current >= schedule.StartTime && current <= schedule.EndTime
	}
	return current >= schedule.StartTime || current <= schedule.EndTime
}
