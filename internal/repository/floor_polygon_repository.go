package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jengzang/anchor-locator-go/internal/database"
	"github.com/jengzang/anchor-locator-go/internal/models"
)

// FloorPolygonRepository handles database operations for floor outlines
type FloorPolygonRepository struct {
	db database.DBTX
}

// NewFloorPolygonRepository creates a new floor polygon repository
func NewFloorPolygonRepository(db database.DBTX) *FloorPolygonRepository {
	return &FloorPolygonRepository{db: db}
}

const floorPolygonColumns = "id, building_id, floor, points_json, created_at, updated_at"

func scanFloorPolygon(row rowScanner) (*models.FloorPolygon, error) {
	var (
		p   models.FloorPolygon
		raw string
	)
	if err := row.Scan(&p.ID, &p.BuildingID, &p.Floor, &raw, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), &p.Points); err != nil {
		return nil, fmt.Errorf("failed to decode polygon %d: %w", p.ID, err)
	}
	return &p, nil
}

// Create inserts a floor polygon. One polygon per building floor.
func (r *FloorPolygonRepository) Create(ctx context.Context, p *models.FloorPolygon) (int64, error) {
	raw, err := json.Marshal(p.Points)
	if err != nil {
		return 0, fmt.Errorf("failed to encode polygon: %w", err)
	}
	ts := now()
	res, err := r.db.ExecContext(ctx, `INSERT INTO floor_polygons (building_id, floor, points_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`, p.BuildingID, p.Floor, string(raw), ts, ts)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("failed to insert floor polygon: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get floor polygon id: %w", err)
	}
	p.ID, p.CreatedAt, p.UpdatedAt = id, ts, ts
	return id, nil
}

// GetByID retrieves a floor polygon; it returns nil when none exists
func (r *FloorPolygonRepository) GetByID(ctx context.Context, id int64) (*models.FloorPolygon, error) {
	p, err := scanFloorPolygon(r.db.QueryRowContext(ctx, "SELECT "+floorPolygonColumns+" FROM floor_polygons WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get floor polygon: %w", err)
	}
	return p, nil
}

// GetByFloor retrieves the polygon of one building floor
func (r *FloorPolygonRepository) GetByFloor(ctx context.Context, buildingID int64, floor int) (*models.FloorPolygon, error) {
	p, err := scanFloorPolygon(r.db.QueryRowContext(ctx,
		"SELECT "+floorPolygonColumns+" FROM floor_polygons WHERE building_id = ? AND floor = ?", buildingID, floor))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get floor polygon: %w", err)
	}
	return p, nil
}

// ListByBuilding retrieves all polygons of a building ordered by floor
func (r *FloorPolygonRepository) ListByBuilding(ctx context.Context, buildingID int64) ([]models.FloorPolygon, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+floorPolygonColumns+" FROM floor_polygons WHERE building_id = ? ORDER BY floor", buildingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query floor polygons: %w", err)
	}
	defer rows.Close()

	polygons := []models.FloorPolygon{}
	for rows.Next() {
		p, err := scanFloorPolygon(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan floor polygon: %w", err)
		}
		polygons = append(polygons, *p)
	}
	return polygons, rows.Err()
}

// Update replaces the floor and outline of a polygon
func (r *FloorPolygonRepository) Update(ctx context.Context, id int64, floor int, points [][3]float64) (bool, error) {
	raw, err := json.Marshal(points)
	if err != nil {
		return false, fmt.Errorf("failed to encode polygon: %w", err)
	}
	res, err := r.db.ExecContext(ctx, "UPDATE floor_polygons SET floor = ?, points_json = ?, updated_at = ? WHERE id = ?",
		floor, string(raw), now(), id)
	if err != nil {
		if isUniqueViolation(err) {
			return false, ErrDuplicate
		}
		return false, fmt.Errorf("failed to update floor polygon: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// Delete removes a floor polygon
func (r *FloorPolygonRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM floor_polygons WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete floor polygon: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}
