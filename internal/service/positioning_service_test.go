package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/anchor-locator-go/internal/locate"
	"github.com/jengzang/anchor-locator-go/internal/models"
	"github.com/jengzang/anchor-locator-go/internal/observability"
)

const bssidA = "AA:BB:CC:00:00:01"

var tetrahedron = [][3]float64{{0, 0, 0}, {10, 0, 0}, {0, 10, 0}, {0, 0, 10}}

func TestEquidistantUploadsConvergeOnSymmetricPoint(t *testing.T) {
	env := newTestEnv(t, func(p *locate.Params) { p.SmoothingAlpha = 1 })
	b := env.building(t, "hq", nil, nil)

	for i, pos := range tetrahedron {
		env.upload(t, b, pos, int64(1000*(i+1)), models.ObservationUpload{BSSID: bssidA, RSSI: rssiFor(5)})
	}

	a := env.anchorByBSSID(t, bssidA)
	require.True(t, a.Positioned())
	require.NotNil(t, a.Z)

	// Every observer reports the same range, so the least-squares point sits
	// on the symmetry axis of the tetrahedron.
	assert.InDelta(t, 3.0116, *a.X, 1e-3)
	assert.InDelta(t, *a.X, *a.Y, 1e-9)
	assert.InDelta(t, *a.X, *a.Z, 1e-9)
	assert.False(t, math.IsInf(a.Accuracy, 0))
	assert.Less(t, a.Accuracy, 5.0)
	assert.NotEqual(t, models.UnknownAccuracy, a.Accuracy)

	inc := func(outcome string) float64 {
		return testutil.ToFloat64(env.metrics.Recomputes.WithLabelValues(observability.ModeIncremental, outcome))
	}
	assert.Equal(t, 2.0, inc(observability.OutcomeInsufficient))
	assert.Equal(t, 1.0, inc(observability.OutcomeSolved2D))
	assert.Equal(t, 1.0, inc(observability.OutcomeSolved3D))
}

func TestEquidistantUploadsWithSmoothing(t *testing.T) {
	env := newTestEnv(t)
	b := env.building(t, "hq", nil, nil)

	for i, pos := range tetrahedron {
		env.upload(t, b, pos, int64(1000*(i+1)), models.ObservationUpload{BSSID: bssidA, RSSI: rssiFor(5)})
	}

	// Each solve is blended halfway with the stored position, starting from
	// the lazily assigned first scan position.
	a := env.anchorByBSSID(t, bssidA)
	assert.InDelta(t, 2.4704, *a.X, 1e-3)
	assert.InDelta(t, *a.X, *a.Y, 1e-9)
	assert.InDelta(t, 1.5058, *a.Z, 1e-3)
	assert.InDelta(t, 2.872, a.Accuracy, 1e-2)
}

func TestSingleScanLeavesFallbackPosition(t *testing.T) {
	env := newTestEnv(t)
	b := env.building(t, "hq", nil, nil)

	res := env.upload(t, b, [3]float64{1, 2, 3}, 1000,
		models.ObservationUpload{BSSID: bssidA, RSSI: -60},
		models.ObservationUpload{BSSID: bssidA, RSSI: -62},
	)
	require.Len(t, res.AnchorsTouched, 1)

	a := env.anchorByBSSID(t, bssidA)
	assert.Equal(t, 1.0, *a.X)
	assert.Equal(t, 2.0, *a.Y)
	assert.Equal(t, 3.0, *a.Z)
	assert.Equal(t, models.UnknownAccuracy, a.Accuracy)

	out, err := env.positioning.RecalculateOne(context.Background(), env.db, a.ID)
	require.NoError(t, err)
	assert.Equal(t, observability.OutcomeInsufficient, out.Result)
	assert.Equal(t, locate.InsufficientData, out.Status)
	assert.False(t, out.Updated)

	after := env.anchorByBSSID(t, bssidA)
	assert.Equal(t, a.X, after.X)
	assert.Equal(t, a.UpdatedAt, after.UpdatedAt)
}

func TestRecalculateOneMissingAnchor(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.positioning.RecalculateOne(context.Background(), env.db, 404)
	require.NoError(t, err)
	assert.Equal(t, observability.OutcomeNotFound, out.Result)
}

func TestCoplanarObserversFallBackTo2D(t *testing.T) {
	env := newTestEnv(t, func(p *locate.Params) { p.SmoothingAlpha = 1 })
	b := env.building(t, "hq", nil, nil)

	truth := [3]float64{4, 3, 0}
	floor := [][3]float64{{0, 0, 0}, {10, 0, 0}, {0, 10, 0}, {10, 10, 0}, {5, 0, 0}}
	for i, pos := range floor {
		d := math.Hypot(truth[0]-pos[0], truth[1]-pos[1])
		env.upload(t, b, pos, int64(i+1), models.ObservationUpload{BSSID: bssidA, RSSI: rssiFor(d)})
	}

	a := env.anchorByBSSID(t, bssidA)
	assert.InDelta(t, truth[0], *a.X, 1)
	assert.InDelta(t, truth[1], *a.Y, 1)
	assert.Equal(t, 0.0, *a.Z, "2D solves leave z alone")
}

func seedBatch(t *testing.T, env *testEnv) (solvable, sparse, mobile, unpositioned int64) {
	t.Helper()
	ctx := context.Background()
	b := env.building(t, "hq", nil, nil)
	truth := [3]float64{3, 4, 2}
	corners := [][3]float64{{0, 0, 0}, {10, 0, 0}, {0, 10, 0}, {0, 0, 10}, {10, 10, 10}}

	for i, pos := range corners {
		d := math.Sqrt((truth[0]-pos[0])*(truth[0]-pos[0]) + (truth[1]-pos[1])*(truth[1]-pos[1]) + (truth[2]-pos[2])*(truth[2]-pos[2]))
		obs := []models.ObservationUpload{{BSSID: "00:00:00:00:00:01", RSSI: rssiFor(d)}}
		if i < 2 {
			obs = append(obs, models.ObservationUpload{BSSID: "00:00:00:00:00:02", RSSI: -55})
		}
		env.upload(t, b, pos, int64(i+1), obs...)
	}

	mobileID, err := env.anchorRepo.Create(ctx, &models.Anchor{BSSID: "00:00:00:00:00:03", BuildingID: &b, Accuracy: models.UnknownAccuracy})
	require.NoError(t, err)
	_, err = env.anchorRepo.MarkMobile(ctx, mobileID)
	require.NoError(t, err)

	// No local position and no geo reference: the anchor stays unpositioned.
	_, err = env.scans.Upload(ctx, models.ScanUpload{
		BuildingID:   b,
		Observations: []models.ObservationUpload{{BSSID: "00:00:00:00:00:04", RSSI: -40}},
	})
	require.NoError(t, err)

	return env.anchorByBSSID(t, "00:00:00:00:00:01").ID,
		env.anchorByBSSID(t, "00:00:00:00:00:02").ID,
		mobileID,
		env.anchorByBSSID(t, "00:00:00:00:00:04").ID
}

func TestRecalculateAll(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	solvable, _, mobile, unpositioned := seedBatch(t, env)

	summary, err := env.positioning.RecalculateAll(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total, "mobile anchors are excluded")
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 2, summary.Skipped)
	assert.Zero(t, summary.Failed)

	a, err := env.anchorRepo.GetByID(ctx, solvable)
	require.NoError(t, err)
	assert.Less(t, a.Accuracy, models.UnknownAccuracy)

	m, err := env.anchorRepo.GetByID(ctx, mobile)
	require.NoError(t, err)
	assert.False(t, m.Positioned())

	u, err := env.anchorRepo.GetByID(ctx, unpositioned)
	require.NoError(t, err)
	assert.False(t, u.Positioned())

	run, err := env.positioning.runs.GetByID(ctx, summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, models.RunSourceScheduler, run.Source)
	assert.Equal(t, 3, run.Total)
	assert.Equal(t, 1, run.Updated)
	assert.Greater(t, testutil.ToFloat64(env.metrics.BatchLastSuccess), 0.0)

	summary, err = env.positioning.RecalculateAll(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Skipped)
}

func TestStartBatchRunsInBackground(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	seedBatch(t, env)

	runID, err := env.positioning.StartBatch(ctx, models.RunSourceAdmin, false)
	require.NoError(t, err)
	env.positioning.Wait()
	assert.False(t, env.positioning.Running())

	runs, err := env.positioning.Runs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, models.RunStatusCompleted, runs[0].Status)
	assert.Equal(t, models.RunSourceAdmin, runs[0].Source)
}

func TestOverlappingBatchesAreRejected(t *testing.T) {
	env := newTestEnv(t)
	env.positioning.running.Store(true)

	_, err := env.positioning.StartBatch(context.Background(), models.RunSourceAdmin, false)
	assert.ErrorIs(t, err, ErrBatchRunning)
	assert.True(t, errors.Is(err, ErrConflict))

	_, err = env.positioning.RecalculateAll(context.Background(), false)
	assert.ErrorIs(t, err, ErrBatchRunning)
}

func TestCancelledBatchIsRecordedAsFailed(t *testing.T) {
	env := newTestEnv(t)
	seedBatch(t, env)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := env.positioning.RecalculateAll(ctx, false)
	require.Error(t, err)
	require.NotNil(t, summary)

	run, err := env.positioning.runs.GetByID(context.Background(), summary.RunID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.NotEmpty(t, run.ErrorMessage)
	assert.False(t, env.positioning.Running())
}
