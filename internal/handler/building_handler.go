package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/anchor-locator-go/internal/models"
	"github.com/jengzang/anchor-locator-go/internal/service"
	"github.com/jengzang/anchor-locator-go/pkg/response"
)

// BuildingHandler handles HTTP requests for buildings and floor polygons
type BuildingHandler struct {
	buildingService *service.BuildingService
}

// NewBuildingHandler creates a new building handler
func NewBuildingHandler(buildingService *service.BuildingService) *BuildingHandler {
	return &BuildingHandler{buildingService: buildingService}
}

// Create handles POST /api/v1/buildings
func (h *BuildingHandler) Create(c *gin.Context) {
	var in models.BuildingCreate
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "Invalid building: "+err.Error())
		return
	}
	b, err := h.buildingService.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, b)
}

// List handles GET /api/v1/buildings
func (h *BuildingHandler) List(c *gin.Context) {
	buildings, err := h.buildingService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, buildings)
}

// Get handles GET /api/v1/buildings/:id
func (h *BuildingHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	b, err := h.buildingService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, b)
}

// CreateFloorPolygon handles POST /api/v1/buildings/:id/floors
func (h *BuildingHandler) CreateFloorPolygon(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in models.FloorPolygonInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "Invalid floor polygon: "+err.Error())
		return
	}
	p, err := h.buildingService.CreateFloorPolygon(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, p)
}

// ListFloorPolygons handles GET /api/v1/buildings/:id/floors
func (h *BuildingHandler) ListFloorPolygons(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	polygons, err := h.buildingService.ListFloorPolygons(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, polygons)
}

// UpdateFloorPolygon handles PUT /api/v1/buildings/:id/floors/:polygon_id
func (h *BuildingHandler) UpdateFloorPolygon(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	polygonID, ok := paramID(c, "polygon_id")
	if !ok {
		return
	}
	var in models.FloorPolygonInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "Invalid floor polygon: "+err.Error())
		return
	}
	p, err := h.buildingService.UpdateFloorPolygon(c.Request.Context(), id, polygonID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, p)
}

// DeleteFloorPolygon handles DELETE /api/v1/buildings/:id/floors/:polygon_id
func (h *BuildingHandler) DeleteFloorPolygon(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	polygonID, ok := paramID(c, "polygon_id")
	if !ok {
		return
	}
	if err := h.buildingService.DeleteFloorPolygon(c.Request.Context(), id, polygonID); err != nil {
		respondError(c, err)
		return
	}
	response.NoContent(c)
}

// Locate handles GET /api/v1/buildings/:id/locate
func (h *BuildingHandler) Locate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if c.Query("x") == "" || c.Query("y") == "" {
		response.BadRequest(c, "x and y are required")
		return
	}
	var q models.LocateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	res, err := h.buildingService.Locate(c.Request.Context(), id, q)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, res)
}
