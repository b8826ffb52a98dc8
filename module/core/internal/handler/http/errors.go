package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/sonecaz/module/core/domain"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidGeofence),
		errors.Is(err, domain.ErrInvalidSchedule),
		errors.Is(err, domain.ErrInvalidSettings):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoDestination):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError hides internal error text behind fallback.
func respondError(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = fallback
	}
	c.JSON(status, gin.H{"error": msg})
}
