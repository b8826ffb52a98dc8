package domain

import "errors"

var (
	ErrInvalidGeofence     = errors.New("invalid geofence")
	ErrNoDestination       = errors.New("no destination set")
	ErrLookupUnavailable   = errors.New("place lookup unavailable")
	ErrPositionUnavailable = errors.New("position source unavailable")
	ErrNotFound            = errors.New("not found")
	ErrInvalidSchedule     = errors.New("invalid schedule")
	ErrInvalidSettings     = errors.New("invalid settings")
)
