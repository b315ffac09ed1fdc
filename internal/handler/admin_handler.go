package handler

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/anchor-locator-go/internal/models"
	"github.com/jengzang/anchor-locator-go/internal/service"
	"github.com/jengzang/anchor-locator-go/pkg/response"
)

// AdminHandler handles batch recompute requests
type AdminHandler struct {
	positioning *service.PositioningService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(positioning *service.PositioningService) *AdminHandler {
	return &AdminHandler{positioning: positioning}
}

// Recalculate handles POST /api/v1/admin/recalculate. The pass runs in the
// background; its progress is visible through the runs endpoint.
func (h *AdminHandler) Recalculate(c *gin.Context) {
	var req models.RecomputeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	runID, err := h.positioning.StartBatch(c.Request.Context(), models.RunSourceAdmin, req.OnlyUnpositioned)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Accepted(c, gin.H{"run_id": runID})
}

// Runs handles GET /api/v1/admin/runs
func (h *AdminHandler) Runs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		response.BadRequest(c, "Invalid limit parameter")
		return
	}
	runs, err := h.positioning.Runs(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, runs)
}
