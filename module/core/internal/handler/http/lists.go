package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/sonecaz/module/core/domain"
)

type interestService interface {
	SetItems(items []domain.ListItem)
	ActiveCategories() []domain.PlaceCategory
}

type listItemsRequest struct {
	Items []domain.ListItem `json:"items"`
}

type categoryResponse struct {
	ID   domain.PlaceCategory `json:"id"`
	Name string               `json:"name"`
	Icon string               `json:"icon"`
}

type ListHandler struct {
	interests interestService
}

func NewListHandler(interests interestService) *ListHandler {
	return &ListHandler{interests: interests}
}

func (h *ListHandler) Register(r *gin.RouterGroup) {
	r.PUT("/lists/items", h.PutItems)
	r.GET("/lists/categories", h.GetCategories)
}

func (h *ListHandler) PutItems(c *gin.Context) {
	var req listItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	h.interests.SetItems(req.Items)
	h.GetCategories(c)
}

func (h *ListHandler) GetCategories(c *gin.Context) {
	active := h.interests.ActiveCategories()
	if active == nil {
		active = []domain.PlaceCategory{}
	}
	all := domain.AllCategories()
	available := make([]categoryResponse, len(all))
	for i, cat := range all {
		available[i] = categoryResponse{ID: cat, Name: cat.DisplayName(), Icon: cat.Icon()}
	}
	c.JSON(http.StatusOK, gin.H{"active": active, "available": available})
}
