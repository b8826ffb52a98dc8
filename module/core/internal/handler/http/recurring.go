package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/sonecaz/module/core/domain"
	"github.com/nandanugg/sonecaz/module/core/service"
)

type recurringService interface {
	List(ctx context.Context) ([]domain.RecurringAlarmSpec, error)
	Get(ctx context.Context, id string) (*domain.RecurringAlarmSpec, error)
	Create(ctx context.Context, spec *domain.RecurringAlarmSpec) error
	Update(ctx context.Context, id string, spec *domain.RecurringAlarmSpec) error
	Delete(ctx context.Context, id string) error
	Next(ctx context.Context, from time.Time) (*service.NextAlarm, error)
}

type RecurringHandler struct {
	recurringSvc recurringService
	now          func() time.Time
}

func NewRecurringHandler(recurringSvc recurringService, now func() time.Time) *RecurringHandler {
	if now == nil {
		now = time.Now
	}
	return &RecurringHandler{recurringSvc: recurringSvc, now: now}
}

func (h *RecurringHandler) Register(r *gin.RouterGroup) {
	r.GET("/recurring", h.List)
	r.POST("/recurring", h.Create)
	r.GET("/recurring/next", h.Next)
	r.GET("/recurring/:id", h.Get)
	r.PUT("/recurring/:id", h.Update)
	r.DELETE("/recurring/:id", h.Delete)
}

func (h *RecurringHandler) List(c *gin.Context) {
	specs, err := h.recurringSvc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch recurring alarms"})
		return
	}
	if specs == nil {
		specs = []domain.RecurringAlarmSpec{}
	}
	c.JSON(http.StatusOK, specs)
}

func (h *RecurringHandler) Get(c *gin.Context) {
	spec, err := h.recurringSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "failed to fetch recurring alarm")
		return
	}
	c.JSON(http.StatusOK, spec)
}

func (h *RecurringHandler) Create(c *gin.Context) {
	var spec domain.RecurringAlarmSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.recurringSvc.Create(c.Request.Context(), &spec); err != nil {
		respondError(c, err, "failed to create recurring alarm")
		return
	}
	c.JSON(http.StatusCreated, spec)
}

func (h *RecurringHandler) Update(c *gin.Context) {
	var spec domain.RecurringAlarmSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.recurringSvc.Update(c.Request.Context(), c.Param("id"), &spec); err != nil {
		respondError(c, err, "failed to update recurring alarm")
		return
	}
	c.JSON(http.StatusOK, spec)
}

func (h *RecurringHandler) Delete(c *gin.Context) {
	if err := h.recurringSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "failed to delete recurring alarm")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecurringHandler) Next(c *gin.Context) {
	next, err := h.recurringSvc.Next(c.Request.Context(), h.now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute next alarm"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"next": next})
}
