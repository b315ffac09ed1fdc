package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jengzang/anchor-locator-go/internal/database"
	"github.com/jengzang/anchor-locator-go/internal/models"
)

// POIRepository handles database operations for points of interest
type POIRepository struct {
	db database.DBTX
}

// NewPOIRepository creates a new POI repository
func NewPOIRepository(db database.DBTX) *POIRepository {
	return &POIRepository{db: db}
}

const poiColumns = "id, building_id, floor, x, y, z, type, name, created_at, updated_at"

func scanPOI(row rowScanner) (*models.POI, error) {
	var (
		p    models.POI
		z    sql.NullFloat64
		name sql.NullString
	)
	if err := row.Scan(&p.ID, &p.BuildingID, &p.Floor, &p.X, &p.Y, &z, &p.Type, &name, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Z = floatPtr(z)
	p.Name = name.String
	return &p, nil
}

// Create inserts a POI and returns its ID
func (r *POIRepository) Create(ctx context.Context, p *models.POI) (int64, error) {
	ts := now()
	res, err := r.db.ExecContext(ctx, `INSERT INTO pois (building_id, floor, x, y, z, type, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.BuildingID, p.Floor, p.X, p.Y, nullableFloat(p.Z), p.Type, nullableString(p.Name), ts, ts)
	if err != nil {
		return 0, fmt.Errorf("failed to insert poi: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get poi id: %w", err)
	}
	p.ID, p.CreatedAt, p.UpdatedAt = id, ts, ts
	return id, nil
}

// GetByID retrieves a POI; it returns nil when none exists
func (r *POIRepository) GetByID(ctx context.Context, id int64) (*models.POI, error) {
	p, err := scanPOI(r.db.QueryRowContext(ctx, "SELECT "+poiColumns+" FROM pois WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get poi: %w", err)
	}
	return p, nil
}

// List retrieves POIs matching the filter
func (r *POIRepository) List(ctx context.Context, filter models.POIFilter) ([]models.POI, error) {
	var conditions []string
	var args []any
	if filter.BuildingID != nil {
		conditions = append(conditions, "building_id = ?")
		args = append(args, *filter.BuildingID)
	}
	if filter.Floor != nil {
		conditions = append(conditions, "floor = ?")
		args = append(args, *filter.Floor)
	}
	if filter.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, filter.Type)
	}

	query := "SELECT " + poiColumns + " FROM pois"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY building_id, floor, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pois: %w", err)
	}
	defer rows.Close()

	pois := []models.POI{}
	for rows.Next() {
		p, err := scanPOI(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan poi: %w", err)
		}
		pois = append(pois, *p)
	}
	return pois, rows.Err()
}

// Update replaces a POI's fields
func (r *POIRepository) Update(ctx context.Context, p *models.POI) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE pois SET building_id = ?, floor = ?, x = ?, y = ?, z = ?,
		type = ?, name = ?, updated_at = ? WHERE id = ?`,
		p.BuildingID, p.Floor, p.X, p.Y, nullableFloat(p.Z), p.Type, nullableString(p.Name), now(), p.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update poi: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// Delete removes a POI
func (r *POIRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM pois WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete poi: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}
