package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/anchor-locator-go/internal/models"
	"github.com/jengzang/anchor-locator-go/internal/service"
	"github.com/jengzang/anchor-locator-go/pkg/response"
)

// POIHandler handles HTTP requests for POIs, maps and routes
type POIHandler struct {
	poiService *service.POIService
}

// NewPOIHandler creates a new POI handler
func NewPOIHandler(poiService *service.POIService) *POIHandler {
	return &POIHandler{poiService: poiService}
}

// Create handles POST /api/v1/pois
func (h *POIHandler) Create(c *gin.Context) {
	var in models.POIInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "Invalid POI: "+err.Error())
		return
	}
	p, err := h.poiService.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, p)
}

// List handles GET /api/v1/pois
func (h *POIHandler) List(c *gin.Context) {
	var filter models.POIFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	pois, err := h.poiService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, pois)
}

// Get handles GET /api/v1/pois/:id
func (h *POIHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.poiService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, p)
}

// Update handles PUT /api/v1/pois/:id
func (h *POIHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in models.POIInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "Invalid POI: "+err.Error())
		return
	}
	p, err := h.poiService.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, p)
}

// Delete handles DELETE /api/v1/pois/:id
func (h *POIHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.poiService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	response.NoContent(c)
}

// Map handles GET /api/v1/map/:building_id
func (h *POIHandler) Map(c *gin.Context) {
	id, ok := paramID(c, "building_id")
	if !ok {
		return
	}
	m, err := h.poiService.Map(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, m)
}

// Route handles GET /api/v1/route
func (h *POIHandler) Route(c *gin.Context) {
	var q models.RouteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "building_id, start_poi_id and end_poi_id are required")
		return
	}
	route, err := h.poiService.Route(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, route)
}
