package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/sonecaz/module/core/domain"
	"github.com/nandanugg/sonecaz/module/core/service"
)

type alarmService interface {
	Arm(g domain.DestinationGeofence) error
	Rearm() error
	Disarm()
	Status() service.AlarmStatus
}

type settingsReader interface {
	Snapshot() domain.Settings
}

type armRequest struct {
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Latitude     *float64 `json:"latitude" binding:"required"`
	Longitude    *float64 `json:"longitude" binding:"required"`
	RadiusMeters float64  `json:"radius_meters"`
}

type AlarmHandler struct {
	alarm    alarmService
	settings settingsReader
}

func NewAlarmHandler(alarm alarmService, settings settingsReader) *AlarmHandler {
	return &AlarmHandler{alarm: alarm, settings: settings}
}

func (h *AlarmHandler) Register(r *gin.RouterGroup) {
	r.GET("/alarm", h.GetStatus)
	r.POST("/alarm/arm", h.Arm)
	r.POST("/alarm/disarm", h.Disarm)
	r.POST("/alarm/rearm", h.Rearm)
}

func (h *AlarmHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.alarm.Status())
}

func (h *AlarmHandler) Arm(c *gin.Context) {
	var req armRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	radius := req.RadiusMeters
	if radius == 0 {
		radius = h.settings.Snapshot().DefaultRadiusMeters
	}
	g := domain.DestinationGeofence{
		Name:         req.Name,
		Address:      req.Address,
		Center:       domain.GeoPoint{Lat: *req.Latitude, Lng: *req.Longitude},
		RadiusMeters: radius,
	}
	if err := h.alarm.Arm(g); err != nil {
		respondError(c, err, "failed to arm alarm")
		return
	}
	c.JSON(http.StatusOK, h.alarm.Status())
}

func (h *AlarmHandler) Disarm(c *gin.Context) {
	h.alarm.Disarm()
	c.JSON(http.StatusOK, h.alarm.Status())
}

func (h *AlarmHandler) Rearm(c *gin.Context) {
	if err := h.alarm.Rearm(); err != nil {
		respondError(c, err, "failed to rearm alarm")
		return
	}
	c.JSON(http.StatusOK, h.alarm.Status())
}
