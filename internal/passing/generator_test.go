package passing

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joeycumines/passgen/internal/geom"
	"github.com/joeycumines/passgen/internal/testutil"
	"github.com/joeycumines/passgen/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fieldWorld has the passer (robot 1) next to the ball at the origin, a
// receiver (robot 2) at (5, 1) and a single enemy well out of the way.
func fieldWorld() world.World {
	return world.World{
		Field: world.DivisionA,
		Friendly: world.NewTeam(
			world.Robot{ID: 1, Position: geom.Pt(0, -0.1)},
			world.Robot{ID: 2, Position: geom.Pt(5, 1)},
		),
		Enemy: world.NewTeam(world.Robot{ID: 9, Position: geom.Pt(-3, 3)}),
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.NumToOptimize = 20
	cfg.NumToKeep = 5
	return cfg
}

func newTestGenerator(t *testing.T, opts ...Option) *PassGenerator {
	t.Helper()
	opts = append([]Option{WithConfig(testConfig()), WithSeed(7)}, opts...)
	g, err := NewPassGenerator(fieldWorld(), geom.Pt(0, 0), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })
	return g
}

// statsOf adapts g.Stats for polling, failing the test if g is closed.
func statsOf(t *testing.T, g *PassGenerator) func() Stats {
	return func() Stats {
		s, err := g.Stats()
		require.NoError(t, err)
		return s
	}
}

// waitIterations blocks until at least n more iterations have completed.
func waitIterations(t *testing.T, g *PassGenerator, n uint64) {
	t.Helper()
	target := statsOf(t, g)().Iterations + n
	testutil.RequireState(t, statsOf(t, g), func(s Stats) bool { return s.Iterations >= target })
}

func TestNewPassGenerator_InvalidArguments(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.NumToKeep = 0
	_, err := NewPassGenerator(fieldWorld(), geom.Pt(0, 0), WithConfig(cfg))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = testConfig()
	cfg.RatingExpr = "static +"
	_, err = NewPassGenerator(fieldWorld(), geom.Pt(0, 0), WithConfig(cfg))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	w := fieldWorld()
	w.Field = world.Field{}
	_, err = NewPassGenerator(w, geom.Pt(0, 0))
	assert.ErrorIs(t, err, world.ErrInvalidField)

	_, err = NewPassGenerator(fieldWorld(), geom.Pt(nan(), 0))
	assert.ErrorIs(t, err, ErrInvalidPasserPoint)

	w = fieldWorld()
	w.Enemy.Robots[0].Position = geom.Pt(nan(), 0)
	_, err = NewPassGenerator(w, geom.Pt(0, 0))
	assert.ErrorIs(t, err, world.ErrNonFiniteState)
}

func TestPassGenerator_InitialState(t *testing.T) {
	t.Parallel()
	g := newTestGenerator(t)

	assert.NotZero(t, g.ID())
	assert.Equal(t, testConfig(), g.Config())

	pass, score, err := g.BestPassSoFar()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
	assert.Equal(t, geom.Pt(0, 0), pass.PasserPoint)

	population, err := g.Population()
	require.NoError(t, err)
	assert.Len(t, population, testConfig().NumToOptimize)
}

func TestPassGenerator_BestStartsFromSeededPopulation(t *testing.T) {
	t.Parallel()
	const seed = 11
	cfg := testConfig()
	rater, err := NewRater(cfg)
	require.NoError(t, err)
	space := newSearchSpace(cfg, rater, fieldWorld(), geom.Pt(0, 0), AnyRegion{}, NoExclusion{})
	seeded := space.fill(nil, cfg.NumToOptimize, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
	var want float64
	for _, c := range seeded {
		want = max(want, c.score)
	}
	require.Positive(t, want)

	g := newTestGenerator(t, WithSeed(seed))
	_, score, err := g.BestPassSoFar()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, want)
}

func TestPassGenerator_TargetRegionScenario(t *testing.T) {
	t.Parallel()
	g := newTestGenerator(t)
	region := geom.NewRectangle(geom.Pt(4, 0), geom.Pt(6, 2))

	require.NoError(t, g.SetPasserRobotID(1))
	require.NoError(t, g.SetTargetRegion(WithinRegion{Rect: region}))
	waitIterations(t, g, 2)

	best := testutil.RequireState(t, func() ScoredPass {
		p, s, err := g.BestPassSoFar()
		require.NoError(t, err)
		return ScoredPass{Pass: p, Score: s}
	}, func(sp ScoredPass) bool { return sp.Score > 0 })
	assert.True(t, region.Contains(best.Pass.ReceiverPoint, 1e-9), "%v", best.Pass)

	population, err := g.Population()
	require.NoError(t, err)
	require.NotEmpty(t, population)
	for _, sp := range population {
		assert.True(t, region.Contains(sp.Pass.ReceiverPoint, 1e-9), "%v", sp.Pass)
	}
}

func TestPassGenerator_BestIsMonotonic(t *testing.T) {
	t.Parallel()
	g := newTestGenerator(t)
	w := fieldWorld()

	var last float64
	for range 50 {
		// repeated identical snapshots must not disturb the best pass
		require.NoError(t, g.SetWorld(w))
		_, score, err := g.BestPassSoFar()
		require.NoError(t, err)
		require.GreaterOrEqual(t, score, last)
		last = score
		time.Sleep(time.Millisecond)
	}
}

func TestPassGenerator_RegionChangeResetsBest(t *testing.T) {
	t.Parallel()
	g := newTestGenerator(t)
	testutil.RequireState(t, statsOf(t, g), func(s Stats) bool { return s.BestScore > 0.5 })

	// every receiver in this region is off the field, so the best must start over
	far := geom.NewRectangle(geom.Pt(-9, -7), geom.Pt(-8, -6))
	require.NoError(t, g.SetTargetRegion(WithinRegion{Rect: far}))
	waitIterations(t, g, 2)

	pass, score, err := g.BestPassSoFar()
	require.NoError(t, err)
	assert.Less(t, score, 0.5)
	if score > 0 {
		assert.True(t, far.Contains(pass.ReceiverPoint, 1e-9))
	}

	require.NoError(t, g.SetTargetRegion(nil))
	testutil.RequireState(t, statsOf(t, g), func(s Stats) bool { return s.BestScore > 0.5 })
}

func TestPassGenerator_PasserExclusion(t *testing.T) {
	t.Parallel()
	g := newTestGenerator(t)
	w := fieldWorld()
	w.Friendly = world.NewTeam(world.Robot{ID: 2, Position: geom.Pt(5, 1)})
	require.NoError(t, g.SetWorld(w))

	// robot 2 is the only possible receiver
	require.NoError(t, g.SetPasserRobotID(2))
	waitIterations(t, g, 2)
	population, err := g.Population()
	require.NoError(t, err)
	for _, sp := range population {
		require.Zero(t, sp.Score, "%v", sp.Pass)
	}

	require.NoError(t, g.ClearPasserRobotID())
	testutil.RequireState(t, func() float64 {
		population, err := g.Population()
		require.NoError(t, err)
		return population[0].Score
	}, func(s float64) bool { return s > 0 })
}

func TestPassGenerator_SetPasserPoint(t *testing.T) {
	t.Parallel()
	g := newTestGenerator(t)

	require.ErrorIs(t, g.SetPasserPoint(geom.Pt(0, nan())), ErrInvalidPasserPoint)
	require.NoError(t, g.SetPasserPoint(geom.Pt(1, 1)))
	waitIterations(t, g, 2)

	population, err := g.Population()
	require.NoError(t, err)
	for _, sp := range population {
		assert.Equal(t, geom.Pt(1, 1), sp.Pass.PasserPoint)
	}
}

func TestPassGenerator_InvalidUpdates(t *testing.T) {
	t.Parallel()
	g := newTestGenerator(t)

	w := fieldWorld()
	w.Field.Width = -1
	assert.ErrorIs(t, g.SetWorld(w), world.ErrInvalidField)

	w = fieldWorld()
	w.Friendly.Robots[1].Velocity = geom.Pt(0, nan())
	assert.ErrorIs(t, g.SetWorld(w), world.ErrNonFiniteState)

	bad := WithinRegion{Rect: geom.NewRectangle(geom.Pt(0, 0), geom.Pt(nan(), 1))}
	assert.ErrorIs(t, g.SetTargetRegion(bad), ErrInvalidRegion)
}

func TestPassGenerator_CloseStopsWorker(t *testing.T) {
	t.Parallel()
	var iterations atomic.Uint64
	g := newTestGenerator(t, WithIterationHook(func(Stats) { iterations.Add(1) }))
	testutil.RequireState(t, iterations.Load, func(n uint64) bool { return n >= 3 })

	require.NoError(t, g.Close())
	stopped := iterations.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, iterations.Load())
	_, err := g.Stats()
	assert.ErrorIs(t, err, ErrClosed)

	assert.ErrorIs(t, g.Close(), ErrClosed)
	assert.ErrorIs(t, g.SetWorld(fieldWorld()), ErrClosed)
	assert.ErrorIs(t, g.SetPasserPoint(geom.Pt(1, 1)), ErrClosed)
	assert.ErrorIs(t, g.SetPasserRobotID(1), ErrClosed)
	assert.ErrorIs(t, g.ClearPasserRobotID(), ErrClosed)
	assert.ErrorIs(t, g.SetTargetRegion(AnyRegion{}), ErrClosed)
	_, _, err = g.BestPassSoFar()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = g.Population()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPassGenerator_CloseFromWorker(t *testing.T) {
	t.Parallel()
	var (
		self    atomic.Pointer[PassGenerator]
		once    sync.Once
		errs    = make(chan error, 1)
		started = make(chan struct{})
	)
	g := newTestGenerator(t, WithIterationHook(func(Stats) {
		<-started
		once.Do(func() { errs <- self.Load().Close() })
	}))
	self.Store(g)
	close(started)

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrCloseFromWorker)
	case <-time.After(testutil.DefaultTimeout):
		t.Fatal("iteration hook never ran")
	}

	// the failed attempt must not have started closing the generator
	_, _, err := g.BestPassSoFar()
	require.NoError(t, err)
	require.NoError(t, g.Close())
}

func TestPassGenerator_ConcurrentCallers(t *testing.T) {
	t.Parallel()
	g := newTestGenerator(t)
	region := WithinRegion{Rect: geom.NewRectangle(geom.Pt(3, -1), geom.Pt(6, 2))}

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Go(func() {
			for j := range 50 {
				switch (i + j) % 5 {
				case 0:
					assert.NoError(t, g.SetWorld(fieldWorld()))
				case 1:
					assert.NoError(t, g.SetPasserPoint(geom.Pt(float64(j%3), 0)))
				case 2:
					assert.NoError(t, g.SetTargetRegion(region))
				case 3:
					_, _, err := g.BestPassSoFar()
					assert.NoError(t, err)
				case 4:
					_, err := g.Population()
					assert.NoError(t, err)
				}
			}
		})
	}
	wg.Wait()
	require.NoError(t, g.Close())
}

func TestPassGenerator_IterationPeriod(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.IterationPeriod = time.Hour
	var iterations atomic.Uint64
	g, err := NewPassGenerator(fieldWorld(), geom.Pt(0, 0), WithConfig(cfg),
		WithIterationHook(func(Stats) { iterations.Add(1) }))
	require.NoError(t, err)
	testutil.RequireState(t, statsOf(t, g), func(s Stats) bool { return s.Iterations == 1 })

	// Close must not wait out the period
	done := make(chan error, 1)
	go func() { done <- g.Close() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(testutil.DefaultTimeout):
		t.Fatal("close blocked on the iteration period")
	}
	assert.Equal(t, uint64(1), iterations.Load())
}
