package service

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/jengzang/anchor-locator-go/internal/database"
	"github.com/jengzang/anchor-locator-go/internal/logging"
	"github.com/jengzang/anchor-locator-go/internal/models"
	"github.com/jengzang/anchor-locator-go/internal/repository"
	"github.com/jengzang/anchor-locator-go/internal/spatial"
)

// DefaultFloorHeight is the height of one floor in meters.
const DefaultFloorHeight = 3.0

// ScanService stores uploaded scans and refreshes the anchors they observe.
type ScanService struct {
	db           *sql.DB
	scans        *repository.ScanRepository
	observations *repository.ObservationRepository
	anchors      *repository.AnchorRepository
	buildings    *repository.BuildingRepository

	positioning *PositioningService
	mobility    *MobilityClassifier
	floorHeight float64
	logger      logging.Logger
	now         func() time.Time
}

// NewScanService creates a new scan service
func NewScanService(db *sql.DB, positioning *PositioningService, mobility *MobilityClassifier, floorHeight float64, logger logging.Logger) *ScanService {
	if floorHeight <= 0 {
		floorHeight = DefaultFloorHeight
	}
	if logger == nil {
		logger = logging.Noop()
	}
	return &ScanService{
		db:           db,
		scans:        repository.NewScanRepository(db),
		observations: repository.NewObservationRepository(db),
		anchors:      repository.NewAnchorRepository(db),
		buildings:    repository.NewBuildingRepository(db),
		positioning:  positioning,
		mobility:     mobility,
		floorHeight:  floorHeight,
		logger:       logger.With(logging.String("component", "upload")),
		now:          time.Now,
	}
}

// Upload stores a scan with its observations and recomputes every anchor
// linked to it, all in one transaction.
func (s *ScanService) Upload(ctx context.Context, req models.ScanUpload) (*models.UploadResult, error) {
	bssids, err := validateUpload(req)
	if err != nil {
		return nil, err
	}

	var result *models.UploadResult
	err = database.Transaction(ctx, s.db, func(tx *sql.Tx) error {
		building, err := s.buildings.WithTx(tx).GetByID(ctx, req.BuildingID)
		if err != nil {
			return err
		}
		if building == nil {
			return notFound("building %d", req.BuildingID)
		}

		scan := s.buildScan(req, building)
		scanID, err := s.scans.WithTx(tx).Create(ctx, scan)
		if err != nil {
			return err
		}

		touched := []int64{}
		seen := make(map[int64]bool)
		for i, o := range req.Observations {
			anchor, err := s.resolveAnchor(ctx, tx, bssids[i], o.SSID, scan, building)
			if err != nil {
				return err
			}

			obs := &models.Observation{
				ScanID:    scanID,
				SSID:      o.SSID,
				BSSID:     bssids[i],
				RSSI:      o.RSSI,
				Frequency: o.Frequency,
			}
			if anchor.InBuilding(building.ID) || anchor.IsMobile {
				obs.AnchorID = &anchor.ID
				if !seen[anchor.ID] {
					seen[anchor.ID] = true
					touched = append(touched, anchor.ID)
				}
			}
			if _, err := s.observations.WithTx(tx).Create(ctx, obs); err != nil {
				return err
			}
		}

		for _, id := range touched {
			if _, err := s.positioning.RecalculateOne(ctx, tx, id); err != nil {
				return err
			}
		}

		result = &models.UploadResult{ScanID: scanID, AnchorsTouched: touched}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "scan stored",
		logging.Int64("scan_id", result.ScanID),
		logging.Int64("building_id", req.BuildingID),
		logging.Int("observations", len(req.Observations)),
		logging.Int("anchors_touched", len(result.AnchorsTouched)))
	return result, nil
}

func validateUpload(req models.ScanUpload) ([]string, error) {
	if len(req.Observations) == 0 {
		return nil, invalid("scan has no observations")
	}
	if (req.X == nil) != (req.Y == nil) {
		return nil, invalid("x and y must be given together")
	}
	if (req.Lat == nil) != (req.Lon == nil) {
		return nil, invalid("lat and lon must be given together")
	}
	for _, v := range []*float64{req.X, req.Y, req.Z, req.Lat, req.Lon, req.Accuracy} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return nil, invalid("coordinates must be finite")
		}
	}
	if req.Lat != nil && (math.Abs(*req.Lat) > 90 || math.Abs(*req.Lon) > 180) {
		return nil, invalid("lat/lon out of range")
	}

	bssids := make([]string, len(req.Observations))
	for i, o := range req.Observations {
		if o.RSSI > 0 {
			return nil, invalid("observation %d: rssi must be <= 0", i)
		}
		b, ok := NormalizeBSSID(o.BSSID)
		if !ok {
			return nil, invalid("observation %d: malformed bssid %q", i, o.BSSID)
		}
		bssids[i] = b
	}
	return bssids, nil
}

// buildScan fills the local position. An explicit x/y wins, with z defaulting
// to the floor elevation; otherwise lat/lon is projected about the building
// reference when both are available.
func (s *ScanService) buildScan(req models.ScanUpload, b *models.Building) *models.Scan {
	scan := &models.Scan{
		BuildingID: b.ID,
		Floor:      req.Floor,
		X:          req.X,
		Y:          req.Y,
		Z:          req.Z,
		Lat:        req.Lat,
		Lon:        req.Lon,
		Accuracy:   req.Accuracy,
		Yaw:        req.Yaw,
		Pitch:      req.Pitch,
		Roll:       req.Roll,
		CapturedAt: s.now().UnixMilli(),
	}
	if req.Timestamp != nil {
		scan.CapturedAt = *req.Timestamp
	}

	elevation := float64(req.Floor) * s.floorHeight
	switch {
	case scan.X != nil:
		if scan.Z == nil {
			scan.Z = &elevation
		}
	case scan.Lat != nil && b.HasGeoReference():
		x, y := spatial.GeodeticToLocal(*b.Lat, *b.Lon, *scan.Lat, *scan.Lon)
		scan.X, scan.Y = &x, &y
		if scan.Z == nil {
			scan.Z = &elevation
		}
	}
	return scan
}

// resolveAnchor finds or lazily creates the anchor for bssid and runs the
// mobility classifier on cross-building sightings.
func (s *ScanService) resolveAnchor(ctx context.Context, q database.DBTX, bssid, ssid string, scan *models.Scan, b *models.Building) (*models.Anchor, error) {
	anchors := s.anchors.WithTx(q)
	a, err := anchors.GetByBSSID(ctx, bssid)
	if err != nil {
		return nil, err
	}

	if a == nil {
		a = &models.Anchor{
			BSSID:      bssid,
			SSID:       ssid,
			BuildingID: &b.ID,
			Floor:      scan.Floor,
			Accuracy:   models.UnknownAccuracy,
		}
		if scan.HasLocalPosition() {
			a.X, a.Y, a.Z = scan.X, scan.Y, scan.Z
		}
		if _, err := anchors.Create(ctx, a); err != nil {
			return nil, err
		}
		s.logger.Debug(ctx, "anchor created", logging.Int64("anchor_id", a.ID), logging.String("bssid", bssid))
		return a, nil
	}

	if a.BuildingID == nil {
		if err := anchors.AssignBuilding(ctx, a.ID, b.ID, scan.Floor); err != nil {
			return nil, err
		}
		a.BuildingID, a.Floor = &b.ID, scan.Floor
		return a, nil
	}

	if _, err := s.mobility.Classify(ctx, q, a, b); err != nil {
		return nil, err
	}
	return a, nil
}
