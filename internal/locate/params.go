package locate

import "strings"

// Defaults describe a typical indoor Wi-Fi environment.
const (
	DefaultTxPowerDBm       = -50.0 // received power at 1 m
	DefaultPathLossExponent = 2.0
	DefaultMaxDistance      = 50.0
	DefaultHuberScale       = 1.0
	DefaultRansacIterations = 50
	DefaultRansacThreshold  = 5.0
	DefaultSmoothingAlpha   = 0.5
	DefaultMaxIterations    = 100
	DefaultTolerance        = 1e-10

	// UnknownAccuracy is stored for anchors whose error radius has never been estimated.
	UnknownAccuracy = 9999.0
	// MaxPlausibleAccuracy is the ceiling above which a residual-based accuracy is discarded.
	MaxPlausibleAccuracy = 1000.0
	// MaxScanAccuracy excludes self-reported scan accuracies at or above this value.
	MaxScanAccuracy = 100.0
)

// Weighting selects the default per-observation weight when none is supplied.
type Weighting int

const (
	// InverseDistance trusts closer observations more: w = 1 / max(d, 1).
	InverseDistance Weighting = iota
	// Uniform gives every observation weight 1.
	Uniform
)

func (w Weighting) String() string {
	switch w {
	case Uniform:
		return "uniform"
	default:
		return "inverse_distance"
	}
}

// ParseWeighting parses a weighting name. Unknown names yield InverseDistance and false.
func ParseWeighting(s string) (Weighting, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inverse_distance", "inverse", "":
		return InverseDistance, true
	case "uniform":
		return Uniform, true
	default:
		return InverseDistance, false
	}
}

// SolverConfig configures the weighted nonlinear solver.
type SolverConfig struct {
	Weighting     Weighting
	HuberScale    float64 // residual magnitude beyond which the loss grows linearly
	MaxIterations int
	Tolerance     float64 // stop once a step moves the estimate less than this
}

func (c SolverConfig) withDefaults() SolverConfig {
	if !(c.HuberScale > 0) {
		c.HuberScale = DefaultHuberScale
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if !(c.Tolerance > 0) {
		c.Tolerance = DefaultTolerance
	}
	return c
}

// RansacConfig configures the consensus layer.
type RansacConfig struct {
	MinInliers int // minimal sample size, and the minimum number of observations required
	Iterations int
	Threshold  float64 // |predicted - observed| below which an observation is an inlier
}

func (c RansacConfig) withDefaults(dim int) RansacConfig {
	if c.MinInliers <= 0 {
		c.MinInliers = dim + 1
	}
	if c.Iterations <= 0 {
		c.Iterations = DefaultRansacIterations
	}
	if !(c.Threshold > 0) {
		c.Threshold = DefaultRansacThreshold
	}
	return c
}

// Params bundles everything the per-anchor pipeline needs.
type Params struct {
	TxPowerDBm        float64
	PathLossExponent  float64
	MaxDistance       float64
	ObservationWindow int
	MinPoints3D       int
	SmoothingAlpha    float64
	Solver            SolverConfig
	// Ransac.MinInliers is the 3D sample size; the 2D fallback samples one fewer.
	Ransac RansacConfig
}

// DefaultParams returns the stock indoor configuration.
func DefaultParams() Params {
	return Params{
		TxPowerDBm:        DefaultTxPowerDBm,
		PathLossExponent:  DefaultPathLossExponent,
		MaxDistance:       DefaultMaxDistance,
		ObservationWindow: 15,
		MinPoints3D:       4,
		SmoothingAlpha:    DefaultSmoothingAlpha,
		Solver: SolverConfig{
			Weighting:  InverseDistance,
			HuberScale: DefaultHuberScale,
		},
		Ransac: RansacConfig{
			MinInliers: 4,
			Iterations: DefaultRansacIterations,
			Threshold:  DefaultRansacThreshold,
		},
	}
}

// MinPoints2D is the number of surviving observations needed for the planar fallback.
func (p Params) MinPoints2D() int {
	n := p.MinPoints3D - 1
	if n < 3 {
		n = 3
	}
	return n
}
