package passing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	t.Parallel()
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()
	for name, mutate := range map[string]func(*Config){
		"zero population":       func(c *Config) { c.NumToOptimize = 0 },
		"zero keep":             func(c *Config) { c.NumToKeep = 0 },
		"keep above population": func(c *Config) { c.NumToKeep = c.NumToOptimize + 1 },
		"zero space weight":     func(c *Config) { c.SpaceWeight = 0 },
		"negative speed weight": func(c *Config) { c.SpeedWeight = -0.1 },
		"nan time weight":       func(c *Config) { c.TimeWeight = nan() },
		"negative tolerance":    func(c *Config) { c.MergeTolerance = -1 },
		"speed range inverted":  func(c *Config) { c.MaxSpeed = c.MinSpeed / 2 },
		"negative start delay":  func(c *Config) { c.MinStartDelay = -time.Millisecond },
		"delay range inverted":  func(c *Config) { c.MaxStartDelay = c.MinStartDelay - 1 },
		"negative period":       func(c *Config) { c.IterationPeriod = -1 },
		"zero robot speed":      func(c *Config) { c.Rating.RobotMaxSpeed = 0 },
		"negative reaction":     func(c *Config) { c.Rating.EnemyReactionTime = -1 },
	} {
		cfg := DefaultConfig()
		mutate(&cfg)
		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrInvalidConfig, name)
	}
}

func TestConfig_ZeroMergeToleranceAllowed(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.MergeTolerance = 0
	cfg.NumToKeep = cfg.NumToOptimize
	assert.NoError(t, cfg.Validate())
}

func nan() float64 {
	var zero float64
	return zero / zero
}
