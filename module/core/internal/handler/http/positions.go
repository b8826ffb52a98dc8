package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/sonecaz/module/core/domain"
)

type positionPublisher interface {
	Publish(sample domain.PositionSample)
}

type positionRequest struct {
	DeviceID  string   `json:"device_id"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Accuracy  float64  `json:"accuracy"`
	Timestamp int64    `json:"timestamp"`
}

// PositionHandler lets a host without MQTT push fixes over HTTP.
type PositionHandler struct {
	feed positionPublisher
	now  func() time.Time
}

func NewPositionHandler(feed positionPublisher, now func() time.Time) *PositionHandler {
	if now == nil {
		now = time.Now
	}
	return &PositionHandler{feed: feed, now: now}
}

func (h *PositionHandler) Register(r *gin.RouterGroup) {
	r.POST("/positions", h.Post)
}

func (h *PositionHandler) Post(c *gin.Context) {
	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	p := domain.GeoPoint{Lat: *req.Latitude, Lng: *req.Longitude}
	if !p.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates out of range"})
		return
	}
	if req.Accuracy < 0 || req.Timestamp < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "accuracy and timestamp must not be negative"})
		return
	}

	ts := h.now()
	if req.Timestamp > 0 {
		ts = time.Unix(req.Timestamp, 0)
	}
	h.feed.Publish(domain.PositionSample{
		DeviceID:       req.DeviceID,
		Point:          p,
		AccuracyMeters: req.Accuracy,
		Timestamp:      ts,
	})
	c.Status(http.StatusAccepted)
}
