package detection

import (
	"fmt"
	"math"
	"runtime"
	"time"

	"examguard/config"
)

// Config holds thresholds and weights for scoring. Zero values fall back
// to the package defaults.
type Config struct {
	MinSimilarity       float64
	SuspiciousThreshold float64

	SemanticWeight float64
	SegmentWeight  float64
	StatsWeight    float64

	// ShortSegmentRunes: sentence pairs where either side is shorter are
	// compared lexically instead of by embeddings.
	ShortSegmentRunes int

	// Workers bounds concurrent scoring in a report build.
	Workers int

	// Clock stamps reports; defaults to time.Now.
	Clock func() time.Time
}

// DefaultConfig returns the standard thresholds and weights.
func DefaultConfig() Config {
	cfg := Config{}
	applyConfigDefaults(&cfg)
	return cfg
}

func applyConfigDefaults(cfg *Config) {
	if cfg.MinSimilarity == 0 {
		cfg.MinSimilarity = config.MinimumSimilarity
	}
	if cfg.SuspiciousThreshold == 0 {
		cfg.SuspiciousThreshold = config.SuspiciousThreshold
	}
	if cfg.SemanticWeight == 0 && cfg.SegmentWeight == 0 && cfg.StatsWeight == 0 {
		cfg.SemanticWeight = config.SemanticWeight
		cfg.SegmentWeight = config.SegmentWeight
		cfg.StatsWeight = config.StatsWeight
	}
	if cfg.ShortSegmentRunes <= 0 {
		cfg.ShortSegmentRunes = config.ShortSegmentRunes
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
}

// Validate checks threshold ordering and that the weights sum to 1.
func (c Config) Validate() error {
	if c.MinSimilarity <= 0 || c.MinSimilarity > 1 {
		return fmt.Errorf("minimum similarity %.4f must be in (0, 1]", c.MinSimilarity)
	}
	if c.SuspiciousThreshold < c.MinSimilarity || c.SuspiciousThreshold > 1 {
		return fmt.Errorf("suspicious threshold %.4f must be in [%.4f, 1]", c.SuspiciousThreshold, c.MinSimilarity)
	}
	if c.SemanticWeight < 0 || c.SegmentWeight < 0 || c.StatsWeight < 0 {
		return fmt.Errorf("weights must be non-negative")
	}
	if sum := c.SemanticWeight + c.SegmentWeight + c.StatsWeight; math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("weights must sum to 1.0, got %.4f", sum)
	}
	return nil
}

// ConfigFromEnv reads MIN_SIMILARITY, SUSPICIOUS_THRESHOLD and
// ANALYSIS_WORKERS. Unset values keep the defaults.
func ConfigFromEnv() Config {
	return Config{
		MinSimilarity:       config.GetEnvFloatOrDefault("MIN_SIMILARITY", 0),
		SuspiciousThreshold: config.GetEnvFloatOrDefault("SUSPICIOUS_THRESHOLD", 0),
		Workers:             config.GetEnvIntOrDefault("ANALYSIS_WORKERS", 0),
	}
}
