package service

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"github.com/jengzang/anchor-locator-go/internal/database"
	"github.com/jengzang/anchor-locator-go/internal/models"
	"github.com/jengzang/anchor-locator-go/internal/repository"
)

// AnchorService handles business logic for anchors
type AnchorService struct {
	db          *sql.DB
	repo        *repository.AnchorRepository
	positioning *PositioningService
}

// NewAnchorService creates a new anchor service
func NewAnchorService(db *sql.DB, positioning *PositioningService) *AnchorService {
	return &AnchorService{
		db:          db,
		repo:        repository.NewAnchorRepository(db),
		positioning: positioning,
	}
}

// List retrieves anchors with filtering and pagination
func (s *AnchorService) List(ctx context.Context, filter models.AnchorFilter) ([]models.Anchor, int64, error) {
	if filter.OrderBy != "" {
		switch filter.OrderBy {
		case "id", "bssid", "accuracy", "created_at", "updated_at":
		default:
			return nil, 0, invalid("unknown order_by %q", filter.OrderBy)
		}
	}
	if filter.OrderDir != "" && filter.OrderDir != "asc" && filter.OrderDir != "desc" {
		return nil, 0, invalid("order_dir must be asc or desc")
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, 0, invalid("limit and offset must be non-negative")
	}
	return s.repo.List(ctx, filter)
}

// Get retrieves a single anchor
func (s *AnchorService) Get(ctx context.Context, id int64) (*models.Anchor, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, notFound("anchor %d", id)
	}
	return a, nil
}

// GetByBSSID looks an anchor up by its MAC address in any notation
func (s *AnchorService) GetByBSSID(ctx context.Context, raw string) (*models.Anchor, error) {
	bssid, ok := NormalizeBSSID(raw)
	if !ok {
		return nil, invalid("malformed bssid %q", raw)
	}
	a, err := s.repo.GetByBSSID(ctx, bssid)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, notFound("anchor %s", bssid)
	}
	return a, nil
}

// Update applies a manual edit and returns the stored anchor
func (s *AnchorService) Update(ctx context.Context, id int64, u models.AnchorUpdate) (*models.Anchor, error) {
	if u.BSSID != nil {
		b, ok := NormalizeBSSID(*u.BSSID)
		if !ok {
			return nil, invalid("malformed bssid %q", *u.BSSID)
		}
		u.BSSID = &b
	}
	for _, v := range []*float64{u.X, u.Y, u.Z, u.Accuracy} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return nil, invalid("coordinates must be finite")
		}
	}
	if u.Accuracy != nil && *u.Accuracy < 0 {
		return nil, invalid("accuracy must be non-negative")
	}

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("bssid already in use")
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes an anchor
func (s *AnchorService) Delete(ctx context.Context, id int64) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("anchor %d", id)
	}
	return nil
}

// Recalculate recomputes one anchor in its own transaction and returns the
// outcome with the stored anchor.
func (s *AnchorService) Recalculate(ctx context.Context, id int64) (*Outcome, *models.Anchor, error) {
	var out Outcome
	err := database.Transaction(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		out, err = s.positioning.RecalculateOne(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return &out, a, nil
}
