package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/anchor-locator-go/internal/models"
	"github.com/jengzang/anchor-locator-go/internal/service"
	"github.com/jengzang/anchor-locator-go/pkg/response"
)

// ScanHandler handles HTTP requests for scan uploads
type ScanHandler struct {
	scanService *service.ScanService
}

// NewScanHandler creates a new scan handler
func NewScanHandler(scanService *service.ScanService) *ScanHandler {
	return &ScanHandler{scanService: scanService}
}

// Upload handles POST /api/v1/scans
func (h *ScanHandler) Upload(c *gin.Context) {
	var req models.ScanUpload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid scan: "+err.Error())
		return
	}

	result, err := h.scanService.Upload(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, result)
}
