package service

import (
	"context"
	"fmt"

	"github.com/jengzang/anchor-locator-go/internal/database"
	"github.com/jengzang/anchor-locator-go/internal/logging"
	"github.com/jengzang/anchor-locator-go/internal/models"
	"github.com/jengzang/anchor-locator-go/internal/observability"
	"github.com/jengzang/anchor-locator-go/internal/repository"
	"github.com/jengzang/anchor-locator-go/internal/spatial"
)

// DefaultMobilityThreshold is the building separation, in meters, beyond
// which an anchor seen in both is considered mobile.
const DefaultMobilityThreshold = 500.0

// MobilityClassifier marks anchors mobile when they are sighted from a
// building far from the one they are assigned to.
type MobilityClassifier struct {
	anchors   *repository.AnchorRepository
	buildings *repository.BuildingRepository
	threshold float64
	metrics   *observability.PositioningCollector
	logger    logging.Logger
}

// NewMobilityClassifier creates a classifier. threshold <= 0 uses the default.
func NewMobilityClassifier(threshold float64, metrics *observability.PositioningCollector, logger logging.Logger) *MobilityClassifier {
	if threshold <= 0 {
		threshold = DefaultMobilityThreshold
	}
	if logger == nil {
		logger = logging.Noop()
	}
	return &MobilityClassifier{
		anchors:   repository.NewAnchorRepository(nil),
		buildings: repository.NewBuildingRepository(nil),
		threshold: threshold,
		metrics:   metrics,
		logger:    logger.With(logging.String("component", "mobility")),
	}
}

// Classify inspects a sighting of a from a scan in scanBuilding and reports
// whether the anchor is mobile afterwards. Sightings from the anchor's own
// building, or from a building within the threshold, change nothing. The
// anchor is updated in place when it is newly marked.
func (m *MobilityClassifier) Classify(ctx context.Context, q database.DBTX, a *models.Anchor, scanBuilding *models.Building) (bool, error) {
	if a.IsMobile {
		return true, nil
	}
	if a.BuildingID == nil || a.InBuilding(scanBuilding.ID) {
		return false, nil
	}

	home, err := m.buildings.WithTx(q).GetByID(ctx, *a.BuildingID)
	if err != nil {
		return false, err
	}

	reason := ""
	distance := -1.0
	switch {
	case home == nil || !home.HasGeoReference() || !scanBuilding.HasGeoReference():
		reason = "building without geo reference"
	default:
		distance = spatial.HaversineDistance(*home.Lat, *home.Lon, *scanBuilding.Lat, *scanBuilding.Lon)
		if distance > m.threshold {
			reason = "buildings too far apart"
		}
	}
	if reason == "" {
		return false, nil
	}

	changed, err := m.anchors.WithTx(q).MarkMobile(ctx, a.ID)
	if err != nil {
		return false, fmt.Errorf("failed to mark anchor %d mobile: %w", a.ID, err)
	}
	a.IsMobile = true
	if changed {
		m.metrics.IncMobileMarked()
		m.logger.Info(ctx, "anchor marked mobile",
			logging.Int64("anchor_id", a.ID),
			logging.String("bssid", a.BSSID),
			logging.Int64("home_building", *a.BuildingID),
			logging.Int64("seen_in_building", scanBuilding.ID),
			logging.Float("distance_m", distance),
			logging.String("reason", reason))
	}
	return true, nil
}
