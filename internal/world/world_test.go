package world

import (
	"math"
	"testing"
	"time"

	"github.com/joeycumines/passgen/internal/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewField(t *testing.T) {
	t.Parallel()

	f, err := NewField(9, 6)
	require.NoError(t, err)
	assert.Equal(t, geom.Pt(-4.5, -3), f.Lines().Min())
	assert.Equal(t, geom.Pt(4.5, 3), f.Lines().Max())

	for _, dims := range [][2]float64{{0, 6}, {9, -1}, {math.NaN(), 6}} {
		_, err := NewField(dims[0], dims[1])
		require.ErrorIs(t, err, ErrInvalidField)
	}
}

func TestWorld_CloneDoesNotAlias(t *testing.T) {
	t.Parallel()

	w := World{
		Field:    DivisionB,
		Friendly: NewTeam(Robot{ID: 1, Position: geom.Pt(1, 1)}),
		Enemy:    NewTeam(Robot{ID: 7, Position: geom.Pt(2, 2)}),
	}
	c := w.Clone()
	w.Friendly.Robots[0].Position = geom.Pt(9, 9)
	w.Enemy.Robots[0].ID = 99

	r, ok := c.Friendly.Robot(1)
	require.True(t, ok)
	assert.Equal(t, geom.Pt(1, 1), r.Position)
	_, ok = c.Enemy.Robot(7)
	assert.True(t, ok)
}

func TestWorld_Timestamp(t *testing.T) {
	t.Parallel()

	w := World{
		Field:    DivisionB,
		Ball:     Ball{Timestamp: FromSeconds(1)},
		Friendly: NewTeam(Robot{ID: 1, Timestamp: FromSeconds(3)}),
		Enemy:    NewTeam(Robot{ID: 2, Timestamp: FromSeconds(2)}),
	}
	assert.Equal(t, FromSeconds(3), w.Timestamp())
	require.NoError(t, w.Validate())

	w.Ball.Position = geom.Pt(math.Inf(1), 0)
	require.ErrorIs(t, w.Validate(), ErrNonFiniteState)
}

func TestWorld_ValidateRobots(t *testing.T) {
	t.Parallel()

	for name, mutate := range map[string]func(w *World){
		"friendly position": func(w *World) { w.Friendly.Robots[0].Position = geom.Pt(math.NaN(), 0) },
		"friendly velocity": func(w *World) { w.Friendly.Robots[0].Velocity = geom.Pt(0, math.Inf(-1)) },
		"enemy position":    func(w *World) { w.Enemy.Robots[0].Position = geom.Pt(0, math.NaN()) },
		"enemy velocity":    func(w *World) { w.Enemy.Robots[0].Velocity = geom.Pt(math.Inf(1), 0) },
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			w := World{
				Field:    DivisionB,
				Friendly: NewTeam(Robot{ID: 1, Position: geom.Pt(1, 1)}),
				Enemy:    NewTeam(Robot{ID: 2, Position: geom.Pt(-1, 1)}),
			}
			require.NoError(t, w.Validate())
			mutate(&w)
			assert.ErrorIs(t, w.Validate(), ErrNonFiniteState)
		})
	}
}

func TestTimestamp(t *testing.T) {
	t.Parallel()

	ts := FromSeconds(1.5)
	assert.InDelta(t, 1.5, ts.Seconds(), 1e-9)
	assert.Equal(t, FromSeconds(2), ts.Add(500*time.Millisecond))
	assert.Equal(t, 500*time.Millisecond, FromSeconds(2).Sub(ts))
	assert.Equal(t, "t+1.500s", ts.String())
}
