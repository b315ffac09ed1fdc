package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jengzang/anchor-locator-go/internal/database"
	"github.com/jengzang/anchor-locator-go/internal/models"
)

// BuildingRepository handles database operations for buildings
type BuildingRepository struct {
	db database.DBTX
}

// NewBuildingRepository creates a new building repository
func NewBuildingRepository(db database.DBTX) *BuildingRepository {
	return &BuildingRepository{db: db}
}

// WithTx returns a repository bound to q.
func (r *BuildingRepository) WithTx(q database.DBTX) *BuildingRepository {
	return &BuildingRepository{db: q}
}

func scanBuilding(row rowScanner) (*models.Building, error) {
	var (
		b        models.Building
		address  sql.NullString
		lat, lon sql.NullFloat64
	)
	if err := row.Scan(&b.ID, &b.Name, &address, &lat, &lon, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Address = address.String
	b.Lat, b.Lon = floatPtr(lat), floatPtr(lon)
	return &b, nil
}

// Create inserts a building and returns its ID
func (r *BuildingRepository) Create(ctx context.Context, b *models.Building) (int64, error) {
	ts := now()
	res, err := r.db.ExecContext(ctx, `INSERT INTO buildings (name, address, lat, lon, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.Name, nullableString(b.Address), nullableFloat(b.Lat), nullableFloat(b.Lon), ts, ts)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("failed to insert building: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get building id: %w", err)
	}
	b.ID, b.CreatedAt, b.UpdatedAt = id, ts, ts
	return id, nil
}

// GetByID retrieves a building; it returns nil when none exists
func (r *BuildingRepository) GetByID(ctx context.Context, id int64) (*models.Building, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, address, lat, lon, created_at, updated_at
		FROM buildings WHERE id = ?`, id)
	b, err := scanBuilding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get building: %w", err)
	}
	return b, nil
}

// List retrieves all buildings ordered by name
func (r *BuildingRepository) List(ctx context.Context) ([]models.Building, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, address, lat, lon, created_at, updated_at
		FROM buildings ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query buildings: %w", err)
	}
	defer rows.Close()

	buildings := []models.Building{}
	for rows.Next() {
		b, err := scanBuilding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan building: %w", err)
		}
		buildings = append(buildings, *b)
	}
	return buildings, rows.Err()
}
