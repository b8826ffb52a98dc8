package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/sonecaz/module/core/domain"
)

type historyService interface {
	List(ctx context.Context, limit int) ([]domain.AlarmHistoryRecord, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

type HistoryHandler struct {
	historySvc historyService
}

func NewHistoryHandler(historySvc historyService) *HistoryHandler {
	return &HistoryHandler{historySvc: historySvc}
}

func (h *HistoryHandler) Register(r *gin.RouterGroup) {
	r.GET("/history", h.List)
	r.DELETE("/history", h.Clear)
	r.DELETE("/history/:id", h.Delete)
}

func (h *HistoryHandler) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})
			return
		}
		limit = n
	}

	records, err := h.historySvc.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}
	if records == nil {
		records = []domain.AlarmHistoryRecord{}
	}
	c.JSON(http.StatusOK, records)
}

func (h *HistoryHandler) Delete(c *gin.Context) {
	if err := h.historySvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "failed to delete history record")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HistoryHandler) Clear(c *gin.Context) {
	if err := h.historySvc.Clear(c.Request.Context()); err != nil {
		respondError(c, err, "failed to clear history")
		return
	}
	c.Status(http.StatusNoContent)
}
