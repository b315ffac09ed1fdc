package service

import (
	"context"
	"math"
	"strings"

	"github.com/golang/geo/r3"

	"github.com/jengzang/anchor-locator-go/internal/models"
	"github.com/jengzang/anchor-locator-go/internal/repository"
	"github.com/jengzang/anchor-locator-go/internal/spatial"
)

// POIService handles points of interest, building maps and routes
type POIService struct {
	pois        *repository.POIRepository
	buildings   *repository.BuildingRepository
	polygons    *repository.FloorPolygonRepository
	anchors     *repository.AnchorRepository
	floorHeight float64
}

// NewPOIService creates a new POI service
func NewPOIService(pois *repository.POIRepository, buildings *repository.BuildingRepository,
	polygons *repository.FloorPolygonRepository, anchors *repository.AnchorRepository, floorHeight float64) *POIService {
	if floorHeight <= 0 {
		floorHeight = DefaultFloorHeight
	}
	return &POIService{pois: pois, buildings: buildings, polygons: polygons, anchors: anchors, floorHeight: floorHeight}
}

func (s *POIService) validate(ctx context.Context, in models.POIInput) error {
	if strings.TrimSpace(in.Type) == "" {
		return invalid("type is required")
	}
	for _, v := range []float64{in.X, in.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid("coordinates must be finite")
		}
	}
	if in.Z != nil && (math.IsNaN(*in.Z) || math.IsInf(*in.Z, 0)) {
		return invalid("coordinates must be finite")
	}
	b, err := s.buildings.GetByID(ctx, in.BuildingID)
	if err != nil {
		return err
	}
	if b == nil {
		return notFound("building %d", in.BuildingID)
	}
	return nil
}

// Create stores a POI
func (s *POIService) Create(ctx context.Context, in models.POIInput) (*models.POI, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}
	p := &models.POI{BuildingID: in.BuildingID, Floor: in.Floor, X: in.X, Y: in.Y, Z: in.Z, Type: in.Type, Name: in.Name}
	if _, err := s.pois.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List retrieves POIs
func (s *POIService) List(ctx context.Context, filter models.POIFilter) ([]models.POI, error) {
	return s.pois.List(ctx, filter)
}

// Get retrieves one POI
func (s *POIService) Get(ctx context.Context, id int64) (*models.POI, error) {
	p, err := s.pois.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, notFound("poi %d", id)
	}
	return p, nil
}

// Update replaces a POI
func (s *POIService) Update(ctx context.Context, id int64, in models.POIInput) (*models.POI, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}
	p := &models.POI{ID: id, BuildingID: in.BuildingID, Floor: in.Floor, X: in.X, Y: in.Y, Z: in.Z, Type: in.Type, Name: in.Name}
	ok, err := s.pois.Update(ctx, p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("poi %d", id)
	}
	return s.Get(ctx, id)
}

// Delete removes a POI
func (s *POIService) Delete(ctx context.Context, id int64) error {
	ok, err := s.pois.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("poi %d", id)
	}
	return nil
}

// Map bundles a building with its floor outlines, anchors and POIs
func (s *POIService) Map(ctx context.Context, buildingID int64) (*models.BuildingMap, error) {
	b, err := s.buildings.GetByID(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, notFound("building %d", buildingID)
	}
	floors, err := s.polygons.ListByBuilding(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	anchors, err := s.anchors.ListByBuilding(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	pois, err := s.pois.List(ctx, models.POIFilter{BuildingID: &buildingID})
	if err != nil {
		return nil, err
	}
	return &models.BuildingMap{Building: *b, Floors: floors, Anchors: anchors, POIs: pois}, nil
}

// Route returns a straight route between two POIs of one building. Routes
// between floors climb vertically at the start point.
func (s *POIService) Route(ctx context.Context, q models.RouteQuery) (*models.Route, error) {
	start, err := s.Get(ctx, q.StartPOIID)
	if err != nil {
		return nil, err
	}
	end, err := s.Get(ctx, q.EndPOIID)
	if err != nil {
		return nil, err
	}
	if start.BuildingID != q.BuildingID || end.BuildingID != q.BuildingID {
		return nil, invalid("both POIs must belong to building %d", q.BuildingID)
	}

	a := r3.Vector{X: start.X, Y: start.Y, Z: s.elevation(start)}
	b := r3.Vector{X: end.X, Y: end.Y, Z: s.elevation(end)}
	path := []r3.Vector{a}
	if a.Z != b.Z {
		path = append(path, r3.Vector{X: a.X, Y: a.Y, Z: b.Z})
	}
	path = append(path, b)

	route := &models.Route{
		BuildingID: q.BuildingID,
		Start:      *start,
		End:        *end,
		Length:     spatial.PathLength(path),
	}
	for _, v := range path {
		route.Path = append(route.Path, [3]float64{v.X, v.Y, v.Z})
	}
	return route, nil
}

func (s *POIService) elevation(p *models.POI) float64 {
	if p.Z != nil {
		return *p.Z
	}
	return float64(p.Floor) * s.floorHeight
}
