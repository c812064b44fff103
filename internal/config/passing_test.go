package config

import (
	"errors"
	"testing"
	"time"

	"github.com/joeycumines/passgen/internal/passing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassingConfig_Defaults(t *testing.T) {
	got, err := PassingConfig(NewConfig())
	require.NoError(t, err)
	assert.Equal(t, passing.DefaultConfig(), got)
}

func TestPassingConfig_Overrides(t *testing.T) {
	cfg := NewConfig()
	cfg.SetGlobalOption("passing.num-to-optimize", "12")
	cfg.SetGlobalOption("passing.num-to-keep", "4")
	cfg.SetGlobalOption("passing.space-weight", "0.2")
	cfg.SetGlobalOption("passing.max-start-delay", "2s")
	cfg.SetGlobalOption("passing.iteration-period", "5ms")
	cfg.SetGlobalOption("passing.rating-expr", "static * enemy")

	got, err := PassingConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, 12, got.NumToOptimize)
	assert.Equal(t, 4, got.NumToKeep)
	assert.InDelta(t, 0.2, got.SpaceWeight, 1e-12)
	assert.Equal(t, 2*time.Second, got.MaxStartDelay)
	assert.Equal(t, 5*time.Millisecond, got.IterationPeriod)
	assert.Equal(t, "static * enemy", got.RatingExpr)
}

func TestPassingConfig_FailsFast(t *testing.T) {
	cfg := NewConfig()
	cfg.SetGlobalOption("passing.speed-weight", "quick")
	_, err := PassingConfig(cfg)
	require.ErrorIs(t, err, ErrInvalidOption)

	cfg = NewConfig()
	cfg.SetGlobalOption("passing.num-to-keep", "99")
	_, err = PassingConfig(cfg)
	require.ErrorIs(t, err, passing.ErrInvalidConfig)
	assert.False(t, errors.Is(err, ErrInvalidOption))
}

func TestSeed(t *testing.T) {
	_, ok, err := Seed(NewConfig())
	require.NoError(t, err)
	assert.False(t, ok)

	cfg := NewConfig()
	cfg.SetGlobalOption("passing.seed", "99")
	seed, ok, err := Seed(cfg)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 99, seed)

	cfg.SetGlobalOption("passing.seed", "-1")
	_, _, err = Seed(cfg)
	require.ErrorIs(t, err, ErrInvalidOption)
}

func TestTickInterval(t *testing.T) {
	d, err := TickInterval(NewConfig())
	require.NoError(t, err)
	assert.Equal(t, 16*time.Millisecond, d)

	cfg := NewConfig()
	cfg.SetGlobalOption("tactic.tick-interval", "0s")
	_, err = TickInterval(cfg)
	require.ErrorIs(t, err, ErrInvalidOption)
}

func TestInt(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 10, Int(cfg, "log.max-size-mb", 1))
	cfg.SetGlobalOption("log.max-size-mb", "oops")
	assert.Equal(t, 1, Int(cfg, "log.max-size-mb", 1))
	assert.Equal(t, 3, Int(cfg, "no.such", 3))
}
