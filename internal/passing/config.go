package passing

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidConfig is wrapped by every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid passing config")

// Config tunes the generator. Values are never clamped: anything outside its
// documented range fails Validate.
type Config struct {
	// NumToOptimize is the population size after regeneration.
	NumToOptimize int
	// NumToKeep is how many of the best distinct candidates survive pruning.
	// Must be in [1, NumToOptimize].
	NumToKeep int

	// SpaceWeight, SpeedWeight and TimeWeight are the optimizer step weights
	// for the receiver position (metres), pass speed (m/s) and start time
	// (seconds).
	SpaceWeight float64
	SpeedWeight float64
	TimeWeight  float64

	// MergeTolerance scales the step weights to give the per-dimension
	// distance below which two candidates are duplicates.
	MergeTolerance float64

	// MinSpeed and MaxSpeed bound the pass speed, in m/s.
	MinSpeed float64
	MaxSpeed float64

	// MinStartDelay and MaxStartDelay bound how far after the world
	// timestamp a freshly sampled pass starts.
	MinStartDelay time.Duration
	MaxStartDelay time.Duration

	// IterationPeriod, if positive, is the minimum time between the starts
	// of two iterations. Zero runs the loop flat out.
	IterationPeriod time.Duration

	// RatingExpr optionally replaces the product of the quality components.
	RatingExpr string

	Rating RatingParams
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		NumToOptimize:  40,
		NumToKeep:      10,
		SpaceWeight:    0.1,
		SpeedWeight:    0.1,
		TimeWeight:     0.05,
		MergeTolerance: 1,
		MinSpeed:       1,
		MaxSpeed:       5.5,
		MinStartDelay:  200 * time.Millisecond,
		MaxStartDelay:  3 * time.Second,
		Rating:         DefaultRatingParams(),
	}
}

// Validate checks every field, returning an error wrapping ErrInvalidConfig
// describing the first problem found.
func (c Config) Validate() error {
	switch {
	case c.NumToOptimize < 1:
		return fmt.Errorf("%w: num to optimize must be at least 1, got %d", ErrInvalidConfig, c.NumToOptimize)
	case c.NumToKeep < 1 || c.NumToKeep > c.NumToOptimize:
		return fmt.Errorf("%w: num to keep must be in [1, %d], got %d", ErrInvalidConfig, c.NumToOptimize, c.NumToKeep)
	}
	for _, w := range [...]struct {
		name  string
		value float64
	}{
		{"space weight", c.SpaceWeight},
		{"speed weight", c.SpeedWeight},
		{"time weight", c.TimeWeight},
		{"min speed", c.MinSpeed},
	} {
		if !positiveFinite(w.value) {
			return fmt.Errorf("%w: %s must be positive and finite, got %v", ErrInvalidConfig, w.name, w.value)
		}
	}
	switch {
	case !(c.MergeTolerance >= 0) || math.IsInf(c.MergeTolerance, 0):
		return fmt.Errorf("%w: merge tolerance must be non-negative and finite, got %v", ErrInvalidConfig, c.MergeTolerance)
	case !positiveFinite(c.MaxSpeed) || c.MaxSpeed < c.MinSpeed:
		return fmt.Errorf("%w: max speed must be finite and at least min speed %v, got %v", ErrInvalidConfig, c.MinSpeed, c.MaxSpeed)
	case c.MinStartDelay < 0:
		return fmt.Errorf("%w: min start delay must be non-negative, got %v", ErrInvalidConfig, c.MinStartDelay)
	case c.MaxStartDelay < c.MinStartDelay:
		return fmt.Errorf("%w: max start delay %v is before min start delay %v", ErrInvalidConfig, c.MaxStartDelay, c.MinStartDelay)
	case c.IterationPeriod < 0:
		return fmt.Errorf("%w: iteration period must be non-negative, got %v", ErrInvalidConfig, c.IterationPeriod)
	}
	if err := c.Rating.Validate(); err != nil {
		return err
	}
	return nil
}

// weights returns the optimizer weights in parameter order.
func (c Config) weights() [numParams]float64 {
	return [numParams]float64{c.SpaceWeight, c.SpaceWeight, c.SpeedWeight, c.TimeWeight}
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
