package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/sonecaz/module/core/domain"
)

type settingsService interface {
	Snapshot() domain.Settings
	Update(next domain.Settings) error
}

type SettingsHandler struct {
	settingsSvc settingsService
}

func NewSettingsHandler(settingsSvc settingsService) *SettingsHandler {
	return &SettingsHandler{settingsSvc: settingsSvc}
}

func (h *SettingsHandler) Register(r *gin.RouterGroup) {
	r.GET("/settings", h.Get)
	r.PUT("/settings", h.Put)
}

func (h *SettingsHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.settingsSvc.Snapshot())
}

// Put applies the fields present in the body over the current snapshot.
func (h *SettingsHandler) Put(c *gin.Context) {
	next := h.settingsSvc.Snapshot()
	if err := c.ShouldBindJSON(&next); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.settingsSvc.Update(next); err != nil {
		respondError(c, err, "failed to update settings")
		return
	}
	c.JSON(http.StatusOK, h.settingsSvc.Snapshot())
}
