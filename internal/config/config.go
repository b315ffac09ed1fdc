package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jengzang/anchor-locator-go/internal/locate"
)

// Config 应用配置
type Config struct {
	Port      string
	DBPath    string
	JWTSecret string
	JWTTTL    time.Duration
	LogLevel  string
	LogFormat string
	GinMode   string

	// Anchor positioning
	TxPowerDBm         float64
	PathLossExponent   float64
	MaxDistanceM       float64
	ObservationWindow  int
	RansacIterations   int
	RansacThresholdM   float64
	MinPoints3D        int
	SmoothingAlpha     float64
	HuberScaleM        float64
	Weighting          string
	MobilityThresholdM float64
	FloorHeightM       float64

	// Daily batch recompute
	RecomputeEnabled bool
	RecomputeHour    int
	RecomputeMinute  int

	UploadRateLimit int // requests per minute per client IP
}

// Load 加载配置
func Load() *Config {
	return &Config{
		Port:      getString("PORT", ":8080"),
		DBPath:    getString("DB_PATH", "./data/anchors.db"),
		JWTSecret: getString("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTTTL:    time.Duration(getInt("JWT_TTL_HOURS", 12)) * time.Hour,
		LogLevel:  getString("LOG_LEVEL", "info"),
		LogFormat: getString("LOG_FORMAT", "text"),
		GinMode:   getString("GIN_MODE", "release"),

		TxPowerDBm:         getFloat("TX_POWER_DBM", locate.DefaultTxPowerDBm),
		PathLossExponent:   getFloat("PATH_LOSS_EXPONENT", locate.DefaultPathLossExponent),
		MaxDistanceM:       getFloat("MAX_DISTANCE_M", locate.DefaultMaxDistance),
		ObservationWindow:  getInt("OBSERVATION_WINDOW", 15),
		RansacIterations:   getInt("RANSAC_ITERATIONS", locate.DefaultRansacIterations),
		RansacThresholdM:   getFloat("RANSAC_THRESHOLD_M", locate.DefaultRansacThreshold),
		MinPoints3D:        getInt("MIN_POINTS_3D", 4),
		SmoothingAlpha:     getFloat("SMOOTHING_ALPHA", locate.DefaultSmoothingAlpha),
		HuberScaleM:        getFloat("HUBER_SCALE_M", locate.DefaultHuberScale),
		Weighting:          getString("WEIGHTING", locate.InverseDistance.String()),
		MobilityThresholdM: getFloat("MOBILITY_THRESHOLD_M", 500),
		FloorHeightM:       getFloat("FLOOR_HEIGHT_M", 3.0),

		RecomputeEnabled: getBool("RECOMPUTE_ENABLED", true),
		RecomputeHour:    getInt("RECOMPUTE_HOUR", 3),
		RecomputeMinute:  getInt("RECOMPUTE_MINUTE", 0),

		UploadRateLimit: getInt("UPLOAD_RATE_LIMIT", 120),
	}
}

// Engine derives the positioning parameters from the configuration.
func (c *Config) Engine() locate.Params {
	weighting, ok := locate.ParseWeighting(c.Weighting)
	if !ok {
		log.Printf("Warning: unknown WEIGHTING %q, using %s", c.Weighting, locate.InverseDistance)
	}

	return locate.Params{
		TxPowerDBm:        c.TxPowerDBm,
		PathLossExponent:  c.PathLossExponent,
		MaxDistance:       c.MaxDistanceM,
		ObservationWindow: c.ObservationWindow,
		MinPoints3D:       c.MinPoints3D,
		SmoothingAlpha:    c.SmoothingAlpha,
		Solver: locate.SolverConfig{
			Weighting:  weighting,
			HuberScale: c.HuberScaleM,
		},
		Ransac: locate.RansacConfig{
			MinInliers: c.MinPoints3D,
			Iterations: c.RansacIterations,
			Threshold:  c.RansacThresholdM,
		},
	}
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using default %g", key, v, def)
		return def
	}
	return f
}

func getBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using default %t", key, v, def)
		return def
	}
	return b
}
