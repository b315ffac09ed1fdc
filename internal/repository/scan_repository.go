package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jengzang/anchor-locator-go/internal/database"
	"github.com/jengzang/anchor-locator-go/internal/models"
)

// ScanRepository handles database operations for scans
type ScanRepository struct {
	db database.DBTX
}

// NewScanRepository creates a new scan repository
func NewScanRepository(db database.DBTX) *ScanRepository {
	return &ScanRepository{db: db}
}

// WithTx returns a repository bound to q.
func (r *ScanRepository) WithTx(q database.DBTX) *ScanRepository {
	return &ScanRepository{db: q}
}

// Create inserts a scan and returns its ID
func (r *ScanRepository) Create(ctx context.Context, s *models.Scan) (int64, error) {
	ts := now()
	res, err := r.db.ExecContext(ctx, `INSERT INTO scans
		(building_id, floor, x, y, z, lat, lon, accuracy, yaw, pitch, roll, captured_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.BuildingID, s.Floor,
		nullableFloat(s.X), nullableFloat(s.Y), nullableFloat(s.Z),
		nullableFloat(s.Lat), nullableFloat(s.Lon), nullableFloat(s.Accuracy),
		nullableFloat(s.Yaw), nullableFloat(s.Pitch), nullableFloat(s.Roll),
		s.CapturedAt, ts)
	if err != nil {
		return 0, fmt.Errorf("failed to insert scan: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get scan id: %w", err)
	}
	s.ID, s.CreatedAt = id, ts
	return id, nil
}

// GetByID retrieves a scan; it returns nil when none exists
func (r *ScanRepository) GetByID(ctx context.Context, id int64) (*models.Scan, error) {
	var (
		s                      models.Scan
		x, y, z, lat, lon, acc sql.NullFloat64
		yaw, pitch, roll       sql.NullFloat64
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, building_id, floor, x, y, z, lat, lon, accuracy,
		yaw, pitch, roll, captured_at, created_at FROM scans WHERE id = ?`, id).
		Scan(&s.ID, &s.BuildingID, &s.Floor, &x, &y, &z, &lat, &lon, &acc,
			&yaw, &pitch, &roll, &s.CapturedAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan: %w", err)
	}
	s.X, s.Y, s.Z = floatPtr(x), floatPtr(y), floatPtr(z)
	s.Lat, s.Lon, s.Accuracy = floatPtr(lat), floatPtr(lon), floatPtr(acc)
	s.Yaw, s.Pitch, s.Roll = floatPtr(yaw), floatPtr(pitch), floatPtr(roll)
	return &s, nil
}
