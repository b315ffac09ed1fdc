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

const anchorColumns = `id, bssid, ssid, label, building_id, floor, x, y, z,
	accuracy, is_mobile, created_at, updated_at`

// AnchorRepository handles database operations for anchors
type AnchorRepository struct {
	db database.DBTX
}

// NewAnchorRepository creates a new anchor repository
func NewAnchorRepository(db database.DBTX) *AnchorRepository {
	return &AnchorRepository{db: db}
}

// WithTx returns a repository bound to q.
func (r *AnchorRepository) WithTx(q database.DBTX) *AnchorRepository {
	return &AnchorRepository{db: q}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnchor(row rowScanner) (*models.Anchor, error) {
	var (
		a           models.Anchor
		ssid, label sql.NullString
		building    sql.NullInt64
		x, y, z     sql.NullFloat64
		mobile      int
	)
	err := row.Scan(&a.ID, &a.BSSID, &ssid, &label, &building, &a.Floor,
		&x, &y, &z, &a.Accuracy, &mobile, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.SSID = ssid.String
	a.Label = label.String
	a.BuildingID = int64Ptr(building)
	a.X, a.Y, a.Z = floatPtr(x), floatPtr(y), floatPtr(z)
	a.IsMobile = mobile != 0
	return &a, nil
}

// Create inserts an anchor and returns its ID
func (r *AnchorRepository) Create(ctx context.Context, a *models.Anchor) (int64, error) {
	ts := now()
	res, err := r.db.ExecContext(ctx, `INSERT INTO anchors
		(bssid, ssid, label, building_id, floor, x, y, z, accuracy, is_mobile, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.BSSID, nullableString(a.SSID), nullableString(a.Label), nullableInt64(a.BuildingID), a.Floor,
		nullableFloat(a.X), nullableFloat(a.Y), nullableFloat(a.Z), a.Accuracy, boolInt(a.IsMobile), ts, ts)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("failed to insert anchor: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get anchor id: %w", err)
	}
	a.ID, a.CreatedAt, a.UpdatedAt = id, ts, ts
	return id, nil
}

// GetByID retrieves an anchor; it returns nil when none exists
func (r *AnchorRepository) GetByID(ctx context.Context, id int64) (*models.Anchor, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+anchorColumns+" FROM anchors WHERE id = ?", id)
	a, err := scanAnchor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get anchor: %w", err)
	}
	return a, nil
}

// GetByBSSID retrieves an anchor by its normalised BSSID
func (r *AnchorRepository) GetByBSSID(ctx context.Context, bssid string) (*models.Anchor, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+anchorColumns+" FROM anchors WHERE bssid = ?", bssid)
	a, err := scanAnchor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get anchor by bssid: %w", err)
	}
	return a, nil
}

var anchorOrderColumns = map[string]string{
	"id":         "id",
	"bssid":      "bssid",
	"accuracy":   "accuracy",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// List retrieves anchors with filtering and pagination
func (r *AnchorRepository) List(ctx context.Context, filter models.AnchorFilter) ([]models.Anchor, int64, error) {
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
	if filter.BSSID != "" {
		conditions = append(conditions, "bssid LIKE ?")
		args = append(args, "%"+strings.ToUpper(filter.BSSID)+"%")
	}
	if filter.SSID != "" {
		conditions = append(conditions, "ssid LIKE ?")
		args = append(args, "%"+filter.SSID+"%")
	}
	if filter.IsMobile != nil {
		conditions = append(conditions, "is_mobile = ?")
		args = append(args, boolInt(*filter.IsMobile))
	}
	if filter.AccuracyMin != nil {
		conditions = append(conditions, "accuracy >= ?")
		args = append(args, *filter.AccuracyMin)
	}
	if filter.AccuracyMax != nil {
		conditions = append(conditions, "accuracy <= ?")
		args = append(args, *filter.AccuracyMax)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM anchors"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count anchors: %w", err)
	}

	order, ok := anchorOrderColumns[filter.OrderBy]
	if !ok {
		order = "id"
	}
	dir := "ASC"
	if strings.EqualFold(filter.OrderDir, "desc") {
		dir = "DESC"
	}

	if filter.Limit < 1 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	query := "SELECT " + anchorColumns + " FROM anchors" + where +
		fmt.Sprintf(" ORDER BY %s %s, id ASC LIMIT ? OFFSET ?", order, dir)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query anchors: %w", err)
	}
	defer rows.Close()

	anchors := []models.Anchor{}
	for rows.Next() {
		a, err := scanAnchor(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan anchor: %w", err)
		}
		anchors = append(anchors, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate anchors: %w", err)
	}

	return anchors, total, nil
}

// ListByBuilding retrieves every anchor assigned to a building
func (r *AnchorRepository) ListByBuilding(ctx context.Context, buildingID int64) ([]models.Anchor, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+anchorColumns+" FROM anchors WHERE building_id = ? ORDER BY floor, id", buildingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query anchors: %w", err)
	}
	defer rows.Close()

	anchors := []models.Anchor{}
	for rows.Next() {
		a, err := scanAnchor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan anchor: %w", err)
		}
		anchors = append(anchors, *a)
	}
	return anchors, rows.Err()
}

// ListRecomputeIDs returns the IDs of all non-mobile anchors, optionally only
// those without coordinates.
func (r *AnchorRepository) ListRecomputeIDs(ctx context.Context, onlyUnpositioned bool) ([]int64, error) {
	query := "SELECT id FROM anchors WHERE is_mobile = 0"
	if onlyUnpositioned {
		query += " AND (x IS NULL OR y IS NULL)"
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query anchor ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan anchor id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdatePosition writes an engine estimate. A nil z leaves the stored z
// untouched. Mobile anchors are never modified; the return value reports
// whether a row changed.
func (r *AnchorRepository) UpdatePosition(ctx context.Context, id int64, x, y float64, z *float64, accuracy float64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE anchors
		SET x = ?, y = ?, z = COALESCE(?, z), accuracy = ?, updated_at = ?
		WHERE id = ? AND is_mobile = 0`,
		x, y, nullableFloat(z), accuracy, now(), id)
	if err != nil {
		return false, fmt.Errorf("failed to update anchor position: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// Update applies a manual edit
func (r *AnchorRepository) Update(ctx context.Context, id int64, u models.AnchorUpdate) error {
	var sets []string
	var args []any
	if u.SSID != nil {
		sets = append(sets, "ssid = ?")
		args = append(args, *u.SSID)
	}
	if u.Label != nil {
		sets = append(sets, "label = ?")
		args = append(args, *u.Label)
	}
	if u.BSSID != nil {
		sets = append(sets, "bssid = ?")
		args = append(args, *u.BSSID)
	}
	if u.Floor != nil {
		sets = append(sets, "floor = ?")
		args = append(args, *u.Floor)
	}
	if u.X != nil {
		sets = append(sets, "x = ?")
		args = append(args, *u.X)
	}
	if u.Y != nil {
		sets = append(sets, "y = ?")
		args = append(args, *u.Y)
	}
	if u.Z != nil {
		sets = append(sets, "z = ?")
		args = append(args, *u.Z)
	}
	if u.Accuracy != nil {
		sets = append(sets, "accuracy = ?")
		args = append(args, *u.Accuracy)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, now(), id)

	_, err := r.db.ExecContext(ctx, "UPDATE anchors SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update anchor: %w", err)
	}
	return nil
}

// MarkMobile flags an anchor as mobile. It reports whether the flag changed.
func (r *AnchorRepository) MarkMobile(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE anchors SET is_mobile = 1, updated_at = ? WHERE id = ? AND is_mobile = 0", now(), id)
	if err != nil {
		return false, fmt.Errorf("failed to mark anchor mobile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// Delete removes an anchor. It reports whether a row was deleted.
func (r *AnchorRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM anchors WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete anchor: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// AssignBuilding attaches an unassigned anchor to a building and floor.
func (r *AnchorRepository) AssignBuilding(ctx context.Context, id, buildingID int64, floor int) error {
	_, err := r.db.ExecContext(ctx, "UPDATE anchors SET building_id = ?, floor = ?, updated_at = ? WHERE id = ? AND building_id IS NULL",
		buildingID, floor, now(), id)
	if err != nil {
		return fmt.Errorf("failed to assign anchor building: %w", err)
	}
	return nil
}
