package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/anchor-locator-go/internal/models"
	"github.com/jengzang/anchor-locator-go/internal/service"
	"github.com/jengzang/anchor-locator-go/pkg/response"
)

// AnchorHandler handles HTTP requests for anchors
type AnchorHandler struct {
	anchorService *service.AnchorService
}

// NewAnchorHandler creates a new anchor handler
func NewAnchorHandler(anchorService *service.AnchorService) *AnchorHandler {
	return &AnchorHandler{anchorService: anchorService}
}

// List handles GET /api/v1/anchors
func (h *AnchorHandler) List(c *gin.Context) {
	var filter models.AnchorFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	anchors, total, err := h.anchorService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{
		"items": anchors,
		"total": total,
	})
}

// Get handles GET /api/v1/anchors/:id
func (h *AnchorHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	a, err := h.anchorService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, a)
}

// GetByBSSID handles GET /api/v1/ap/:bssid
func (h *AnchorHandler) GetByBSSID(c *gin.Context) {
	a, err := h.anchorService.GetByBSSID(c.Request.Context(), c.Param("bssid"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, a)
}

// Update handles PUT /api/v1/anchors/:id
func (h *AnchorHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var u models.AnchorUpdate
	if err := c.ShouldBindJSON(&u); err != nil {
		response.BadRequest(c, "Invalid anchor: "+err.Error())
		return
	}

	a, err := h.anchorService.Update(c.Request.Context(), id, u)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, a)
}

// Delete handles DELETE /api/v1/anchors/:id
func (h *AnchorHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.anchorService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	response.NoContent(c)
}

// Recalculate handles POST /api/v1/anchors/:id/recalculate
func (h *AnchorHandler) Recalculate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	outcome, a, err := h.anchorService.Recalculate(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"outcome": outcome,
		"anchor":  a,
	})
}
