package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/anchor-locator-go/internal/database"
	"github.com/jengzang/anchor-locator-go/internal/models"
)

// ObservationRepository handles database operations for observations
type ObservationRepository struct {
	db database.DBTX
}

// NewObservationRepository creates a new observation repository
func NewObservationRepository(db database.DBTX) *ObservationRepository {
	return &ObservationRepository{db: db}
}

// WithTx returns a repository bound to q.
func (r *ObservationRepository) WithTx(q database.DBTX) *ObservationRepository {
	return &ObservationRepository{db: q}
}

// Create inserts an observation and returns its ID
func (r *ObservationRepository) Create(ctx context.Context, o *models.Observation) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO observations
		(scan_id, anchor_id, ssid, bssid, rssi, frequency)
		VALUES (?, ?, ?, ?, ?, ?)`,
		o.ScanID, nullableInt64(o.AnchorID), nullableString(o.SSID), o.BSSID, o.RSSI, nullableInt(o.Frequency))
	if err != nil {
		return 0, fmt.Errorf("failed to insert observation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get observation id: %w", err)
	}
	o.ID = id
	return id, nil
}

// ListByScan retrieves the observations of one scan
func (r *ObservationRepository) ListByScan(ctx context.Context, scanID int64) ([]models.Observation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, scan_id, anchor_id, ssid, bssid, rssi, frequency
		FROM observations WHERE scan_id = ? ORDER BY id`, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var out []models.Observation
	for rows.Next() {
		var (
			o         models.Observation
			anchorID  sql.NullInt64
			ssid      sql.NullString
			frequency sql.NullInt64
		)
		if err := rows.Scan(&o.ID, &o.ScanID, &anchorID, &ssid, &o.BSSID, &o.RSSI, &frequency); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		o.AnchorID = int64Ptr(anchorID)
		o.SSID = ssid.String
		o.Frequency = intPtr(frequency)
		out = append(out, o)
	}
	return out, rows.Err()
}

// RecentSamples returns up to limit observations of an anchor whose scan
// belongs to buildingID and has a full local position, most recent first.
func (r *ObservationRepository) RecentSamples(ctx context.Context, anchorID, buildingID int64, limit int) ([]models.ObservationSample, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT o.id, s.id, o.rssi, s.x, s.y, s.z, s.accuracy, s.captured_at
		FROM observations o
		JOIN scans s ON s.id = o.scan_id
		WHERE o.anchor_id = ?
		  AND s.building_id = ?
		  AND s.x IS NOT NULL AND s.y IS NOT NULL AND s.z IS NOT NULL
		ORDER BY s.captured_at DESC, o.id DESC
		LIMIT ?`, anchorID, buildingID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query observation window: %w", err)
	}
	defer rows.Close()

	var out []models.ObservationSample
	for rows.Next() {
		var (
			s   models.ObservationSample
			acc sql.NullFloat64
		)
		if err := rows.Scan(&s.ObservationID, &s.ScanID, &s.RSSI, &s.X, &s.Y, &s.Z, &acc, &s.CapturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan observation sample: %w", err)
		}
		s.ScanAccuracy = floatPtr(acc)
		out = append(out, s)
	}
	return out, rows.Err()
}
