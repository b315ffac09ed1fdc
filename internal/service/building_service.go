package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/golang/geo/r2"

	"github.com/jengzang/anchor-locator-go/internal/models"
	"github.com/jengzang/anchor-locator-go/internal/repository"
	"github.com/jengzang/anchor-locator-go/internal/spatial"
)

// BuildingService handles buildings and their floor outlines
type BuildingService struct {
	buildings *repository.BuildingRepository
	polygons  *repository.FloorPolygonRepository
}

// NewBuildingService creates a new building service
func NewBuildingService(buildings *repository.BuildingRepository, polygons *repository.FloorPolygonRepository) *BuildingService {
	return &BuildingService{buildings: buildings, polygons: polygons}
}

// Create registers a building. Names are unique.
func (s *BuildingService) Create(ctx context.Context, in models.BuildingCreate) (*models.Building, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	if (in.Lat == nil) != (in.Lon == nil) {
		return nil, invalid("lat and lon must be given together")
	}
	b := &models.Building{Name: name, Address: in.Address, Lat: in.Lat, Lon: in.Lon}
	if _, err := s.buildings.Create(ctx, b); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("building %q already exists", name)
		}
		return nil, err
	}
	return b, nil
}

// List retrieves all buildings
func (s *BuildingService) List(ctx context.Context) ([]models.Building, error) {
	return s.buildings.List(ctx)
}

// Get retrieves one building
func (s *BuildingService) Get(ctx context.Context, id int64) (*models.Building, error) {
	b, err := s.buildings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, notFound("building %d", id)
	}
	return b, nil
}

func validatePolygon(points [][3]float64) error {
	if len(points) < 3 {
		return invalid("polygon needs at least 3 points")
	}
	for _, p := range points {
		for _, c := range p {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return invalid("polygon coordinates must be finite")
			}
		}
	}
	return nil
}

// CreateFloorPolygon stores the outline of one floor
func (s *BuildingService) CreateFloorPolygon(ctx context.Context, buildingID int64, in models.FloorPolygonInput) (*models.FloorPolygon, error) {
	if err := validatePolygon(in.Points); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, buildingID); err != nil {
		return nil, err
	}
	p := &models.FloorPolygon{BuildingID: buildingID, Floor: in.Floor, Points: in.Points}
	if _, err := s.polygons.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("floor %d already has a polygon", in.Floor)
		}
		return nil, err
	}
	return p, nil
}

// ListFloorPolygons retrieves all outlines of a building
func (s *BuildingService) ListFloorPolygons(ctx context.Context, buildingID int64) ([]models.FloorPolygon, error) {
	if _, err := s.Get(ctx, buildingID); err != nil {
		return nil, err
	}
	return s.polygons.ListByBuilding(ctx, buildingID)
}

// UpdateFloorPolygon replaces an outline
func (s *BuildingService) UpdateFloorPolygon(ctx context.Context, buildingID, id int64, in models.FloorPolygonInput) (*models.FloorPolygon, error) {
	if err := validatePolygon(in.Points); err != nil {
		return nil, err
	}
	p, err := s.polygons.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || p.BuildingID != buildingID {
		return nil, notFound("floor polygon %d", id)
	}
	if _, err := s.polygons.Update(ctx, id, in.Floor, in.Points); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("floor %d already has a polygon", in.Floor)
		}
		return nil, err
	}
	return s.polygons.GetByID(ctx, id)
}

// DeleteFloorPolygon removes an outline
func (s *BuildingService) DeleteFloorPolygon(ctx context.Context, buildingID, id int64) error {
	p, err := s.polygons.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil || p.BuildingID != buildingID {
		return notFound("floor polygon %d", id)
	}
	_, err = s.polygons.Delete(ctx, id)
	return err
}

// Locate reports whether (x, y) lies on the given floor's outline and the
// nearest boundary point.
func (s *BuildingService) Locate(ctx context.Context, buildingID int64, q models.LocateQuery) (*models.LocateResult, error) {
	if math.IsNaN(q.X) || math.IsNaN(q.Y) || math.IsInf(q.X, 0) || math.IsInf(q.Y, 0) {
		return nil, invalid("x and y must be finite")
	}
	if _, err := s.Get(ctx, buildingID); err != nil {
		return nil, err
	}
	p, err := s.polygons.GetByFloor(ctx, buildingID, q.Floor)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, notFound("no polygon for floor %d", q.Floor)
	}

	poly := toPolygon(p.Points)
	pt := r2.Point{X: q.X, Y: q.Y}
	nearest, dist := poly.Nearest(pt)
	centroid := poly.Centroid()
	return &models.LocateResult{
		BuildingID: buildingID,
		Floor:      q.Floor,
		Inside:     poly.Contains(pt),
		Nearest:    [2]float64{nearest.X, nearest.Y},
		Distance:   dist,
		Area:       poly.Area(),
		Centroid:   [2]float64{centroid.X, centroid.Y},
	}, nil
}

func toPolygon(points [][3]float64) spatial.Polygon {
	poly := make(spatial.Polygon, len(points))
	for i, p := range points {
		poly[i] = r2.Point{X: p[0], Y: p[1]}
	}
	return poly
}
