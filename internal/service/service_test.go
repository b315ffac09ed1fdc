package service

import (
	"context"
	"database/sql"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/anchor-locator-go/internal/database"
	"github.com/jengzang/anchor-locator-go/internal/locate"
	"github.com/jengzang/anchor-locator-go/internal/logging"
	"github.com/jengzang/anchor-locator-go/internal/models"
	"github.com/jengzang/anchor-locator-go/internal/observability"
	"github.com/jengzang/anchor-locator-go/internal/repository"
)

type testEnv struct {
	db          *sql.DB
	metrics     *observability.PositioningCollector
	positioning *PositioningService
	mobility    *MobilityClassifier
	scans       *ScanService
	anchors     *AnchorService
	anchorRepo  *repository.AnchorRepository
	buildings   *repository.BuildingRepository
}

func newTestEnv(t *testing.T, tune ...func(*locate.Params)) *testEnv {
	t.Helper()
	db, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	metrics, err := observability.NewPositioningCollector(prometheus.NewRegistry())
	require.NoError(t, err)

	params := locate.DefaultParams()
	for _, fn := range tune {
		fn(&params)
	}
	logger := logging.Noop()
	positioning := NewPositioningService(db, PositioningOptions{
		Params:  params,
		Rand:    locate.NewRand(7),
		Metrics: metrics,
		Logger:  logger,
	})
	mobility := NewMobilityClassifier(DefaultMobilityThreshold, metrics, logger)

	return &testEnv{
		db:          db,
		metrics:     metrics,
		positioning: positioning,
		mobility:    mobility,
		scans:       NewScanService(db, positioning, mobility, DefaultFloorHeight, logger),
		anchors:     NewAnchorService(db, positioning),
		anchorRepo:  repository.NewAnchorRepository(db),
		buildings:   repository.NewBuildingRepository(db),
	}
}

func ptr[T any](v T) *T { return &v }

func (e *testEnv) building(t *testing.T, name string, lat, lon *float64) int64 {
	t.Helper()
	id, err := e.buildings.Create(context.Background(), &models.Building{Name: name, Lat: lat, Lon: lon})
	require.NoError(t, err)
	return id
}

// rssiFor returns the integer RSSI whose modelled distance is closest to d.
func rssiFor(d float64) int {
	return int(math.Round(locate.DefaultTxPowerDBm - 10*locate.DefaultPathLossExponent*math.Log10(d)))
}

func (e *testEnv) upload(t *testing.T, building int64, pos [3]float64, ts int64, obs ...models.ObservationUpload) *models.UploadResult {
	t.Helper()
	res, err := e.scans.Upload(context.Background(), models.ScanUpload{
		BuildingID:   building,
		X:            ptr(pos[0]),
		Y:            ptr(pos[1]),
		Z:            ptr(pos[2]),
		Timestamp:    ptr(ts),
		Observations: obs,
	})
	require.NoError(t, err)
	return res
}

func (e *testEnv) anchorByBSSID(t *testing.T, bssid string) *models.Anchor {
	t.Helper()
	a, err := e.anchorRepo.GetByBSSID(context.Background(), bssid)
	require.NoError(t, err)
	require.NotNil(t, a, bssid)
	return a
}
