package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jengzang/anchor-locator-go/internal/locate"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_PATH", "SMOOTHING_ALPHA", "RECOMPUTE_HOUR", "WEIGHTING", "JWT_TTL_HOURS"} {
		t.Setenv(key, "")
	}
	cfg := Load()

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, 12*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 3, cfg.RecomputeHour)
	assert.Equal(t, locate.DefaultParams(), cfg.Engine())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SMOOTHING_ALPHA", "0.8")
	t.Setenv("RECOMPUTE_ENABLED", "false")
	t.Setenv("WEIGHTING", "uniform")
	t.Setenv("MIN_POINTS_3D", "5")
	t.Setenv("RANSAC_ITERATIONS", "not-a-number")

	cfg := Load()
	assert.False(t, cfg.RecomputeEnabled)
	assert.Equal(t, locate.DefaultRansacIterations, cfg.RansacIterations)

	p := cfg.Engine()
	assert.Equal(t, 0.8, p.SmoothingAlpha)
	assert.Equal(t, locate.Uniform, p.Solver.Weighting)
	assert.Equal(t, 5, p.MinPoints3D)
	assert.Equal(t, 5, p.Ransac.MinInliers)
}
