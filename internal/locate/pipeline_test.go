package locate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rssiFor inverts the default path-loss model.
func rssiFor(d float64) float64 {
	return DefaultTxPowerDBm - 10*DefaultPathLossExponent*math.Log10(d)
}

func samplesFor(truth Vec, positions []Vec) []Sample {
	out := make([]Sample, len(positions))
	for i, p := range positions {
		out[i] = Sample{Position: p, RSSI: rssiFor(truth.Distance(p[:len(truth)]))}
	}
	return out
}

func TestEstimate3D(t *testing.T) {
	truth := Vec{3, 4, 2}
	p := DefaultParams()

	est := p.Estimate(samplesFor(truth, cube), Unset(), NewRand(1))
	require.Equal(t, Solved, est.Status)
	assert.Equal(t, 3, est.Dim)
	assert.InDeltaSlice(t, truth, est.Point, 1e-6)
	assert.Equal(t, est.Raw, est.Point)
	assert.Len(t, est.Inliers, len(cube))
	assert.True(t, est.AccuracyKnown)
	assert.Less(t, est.Accuracy, 1e-6)
}

func TestEstimateFallsBackTo2DOnFlatFloor(t *testing.T) {
	truth := Vec{4, 3}
	floor := []Vec{{0, 0, 1.2}, {10, 0, 1.2}, {0, 10, 1.2}, {10, 10, 1.2}}

	est := DefaultParams().Estimate(samplesFor(truth, floor), Unset(), NewRand(1))
	require.Equal(t, Solved, est.Status)
	assert.Equal(t, 2, est.Dim)
	assert.InDeltaSlice(t, truth, est.Point, 1e-6)
}

func TestEstimate2DWithThreeSamples(t *testing.T) {
	truth := Vec{4, 3}
	positions := []Vec{{0, 0, 0}, {10, 0, 0}, {0, 10, 0}}

	est := DefaultParams().Estimate(samplesFor(truth, positions), Vec{0, 0, 5}, NewRand(1))
	require.Equal(t, Solved, est.Status)
	assert.Equal(t, 2, est.Dim)
	// Blended halfway towards the prior.
	assert.InDeltaSlice(t, []float64{2, 1.5}, est.Point, 1e-6)
	assert.InDeltaSlice(t, []float64{4, 3}, est.Raw, 1e-6)
}

func TestEstimateInsufficient(t *testing.T) {
	p := DefaultParams()

	est := p.Estimate([]Sample{
		{Position: Vec{0, 0, 0}, RSSI: -60},
		{Position: Vec{5, 0, 0}, RSSI: -60},
	}, Unset(), NewRand(1))
	assert.Equal(t, InsufficientData, est.Status)
	assert.Equal(t, 2, est.Usable)
	assert.Nil(t, est.Point)

	// Out-of-range readings are filtered before counting.
	est = p.Estimate([]Sample{
		{Position: Vec{0, 0, 0}, RSSI: -120},
		{Position: Vec{5, 0, 0}, RSSI: -120},
		{Position: Vec{0, 5, 0}, RSSI: -120},
		{Position: Vec{0, 0, 5}, RSSI: -60},
	}, Unset(), NewRand(1))
	assert.Equal(t, InsufficientData, est.Status)
	assert.Equal(t, 1, est.Usable)
}

func TestEstimateDegenerate(t *testing.T) {
	line := []Vec{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {3, 0, 0}}
	est := DefaultParams().Estimate(samplesFor(Vec{1, 5, 0}, line), Unset(), NewRand(1))
	assert.Equal(t, Degenerate, est.Status)
	assert.Zero(t, est.Dim)
}

func TestEstimateAccuracyMeasuredAfterSmoothing(t *testing.T) {
	acc := 6.5
	truth := Vec{3, 4, 2}
	samples := samplesFor(truth, cube)
	for i := range samples {
		samples[i].ScanAccuracy = &acc
	}

	// A prior 10 m above drags the smoothed point 5 m off the raw solution.
	est := DefaultParams().Estimate(samples, Vec{3, 4, 12}, NewRand(1))
	require.True(t, est.AccuracyKnown)
	assert.InDelta(t, truth[2]+5, est.Point[2], 1e-6)
	assert.Greater(t, est.Accuracy, 0.5)
	assert.Less(t, est.Accuracy, 5.0)
	assert.NotEqual(t, acc, est.Accuracy)
}

func TestMinPoints2D(t *testing.T) {
	assert.Equal(t, 3, DefaultParams().MinPoints2D())
	assert.Equal(t, 5, Params{MinPoints3D: 6}.MinPoints2D())
	assert.Equal(t, 3, Params{MinPoints3D: 2}.MinPoints2D())
}

func TestParseWeighting(t *testing.T) {
	w, ok := ParseWeighting("uniform")
	assert.True(t, ok)
	assert.Equal(t, Uniform, w)

	w, ok = ParseWeighting("Inverse_Distance")
	assert.True(t, ok)
	assert.Equal(t, InverseDistance, w)

	w, ok = ParseWeighting("cubic")
	assert.False(t, ok)
	assert.Equal(t, InverseDistance, w)
	assert.Equal(t, "uniform", Uniform.String())
}
