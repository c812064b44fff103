package passing

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/joeycumines/passgen/internal/geom"
	"github.com/joeycumines/passgen/internal/goroutineid"
	"github.com/joeycumines/passgen/internal/optimize"
	"github.com/joeycumines/passgen/internal/world"
)

var (
	// ErrClosed is returned by every PassGenerator method once Close has
	// been called.
	ErrClosed = errors.New("pass generator closed")

	// ErrCloseFromWorker is returned by Close when it is called on the
	// generator's own worker goroutine, e.g. from an iteration hook, where
	// waiting for the worker to exit would never return.
	ErrCloseFromWorker = errors.New("pass generator closed from its own worker")

	// ErrInvalidPasserPoint is returned for a passer point that is not finite.
	ErrInvalidPasserPoint = errors.New("invalid passer point")

	// ErrInvalidRegion is returned for a target region with non-finite corners.
	ErrInvalidRegion = errors.New("invalid target region")
)

// Stats summarises the progress of a PassGenerator.
type Stats struct {
	// Iterations is the number of completed iterations.
	Iterations uint64 `json:"iterations"`
	// PopulationSize is the size of the published population.
	PopulationSize int `json:"populationSize"`
	// BestScore is the score of the best pass so far.
	BestScore float64 `json:"bestScore"`
	// LastIteration is how long the most recent iteration took.
	LastIteration time.Duration `json:"lastIteration"`
}

// Option configures a PassGenerator.
type Option func(*generatorOptions)

type generatorOptions struct {
	cfg    Config
	rng    *rand.Rand
	logger *slog.Logger
	hook   func(Stats)
}

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(o *generatorOptions) { o.cfg = cfg }
}

// WithRand injects the random source used to sample candidates. The
// generator takes ownership of rng: it must not be used elsewhere.
func WithRand(rng *rand.Rand) Option {
	return func(o *generatorOptions) { o.rng = rng }
}

// WithSeed is WithRand for a PCG seeded with seed.
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *generatorOptions) { o.logger = logger }
}

// WithIterationHook registers fn to be called on the worker goroutine after
// every iteration. fn must not block for long; it delays the next iteration.
func WithIterationHook(fn func(Stats)) Option {
	return func(o *generatorOptions) { o.hook = fn }
}

// PassGenerator continuously searches for the best pass from a passer point
// in the most recent world.
//
// Construction starts a single worker goroutine that repeatedly optimizes a
// population of candidate passes, prunes it and records the best pass seen.
// All methods are safe for concurrent use. Updates made through the setters
// are picked up at the start of the next iteration, so each iteration works
// against one consistent world.
//
// A PassGenerator must not be copied, and must be closed to stop its worker.
type PassGenerator struct {
	id        uuid.UUID
	cfg       Config
	rater     *Rater
	optimizer *optimize.GradientAscent
	tolerance [numParams]float64
	logger    *slog.Logger
	hook      func(Stats)

	// shared with callers, each guarded independently
	pendingWorld cell[world.World]
	passerPoint  cell[geom.Point]
	exclusion    cell[PasserExclusion]
	target       cell[TargetRegion]
	best         cell[ScoredPass]
	population   cell[[]ScoredPass]
	stats        cell[Stats]
	closing      cell[bool]

	// owned by the worker
	rng          *rand.Rand
	candidates   []candidate
	activeTarget TargetRegion
	iterations   uint64

	workerID atomic.Int64
	stop     chan struct{}
	done     chan struct{}
}

// NewPassGenerator validates its arguments, seeds the population from w and
// starts the worker.
func NewPassGenerator(w world.World, passer geom.Point, opts ...Option) (*PassGenerator, error) {
	o := generatorOptions{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("initial world: %w", err)
	}
	if !passer.IsFinite() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPasserPoint, passer)
	}
	rater, err := NewRater(o.cfg)
	if err != nil {
		return nil, err
	}
	weights := o.cfg.weights()
	optimizer, err := optimize.New(weights[:]...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	g := &PassGenerator{
		id:           uuid.New(),
		cfg:          o.cfg,
		rater:        rater,
		optimizer:    optimizer,
		hook:         o.hook,
		rng:          o.rng,
		activeTarget: AnyRegion{},
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	for i, weight := range weights {
		g.tolerance[i] = o.cfg.MergeTolerance * weight
	}
	g.logger = o.logger.With("generator", g.id.String())

	w = w.Clone()
	g.pendingWorld.v = w
	g.passerPoint.v = passer
	g.exclusion.v = NoExclusion{}
	g.target.v = AnyRegion{}
	g.best.v = ScoredPass{Pass: Pass{PasserPoint: passer, StartTime: w.Timestamp()}}

	space := newSearchSpace(g.cfg, g.rater, w, passer, AnyRegion{}, NoExclusion{})
	g.candidates = space.fill(nil, g.cfg.NumToOptimize, g.rng)
	slices.SortFunc(g.candidates, compareCandidates)
	if top := g.candidates[0]; top.score > g.best.v.Score {
		g.best.v = space.scored(top)
	}
	g.publish(space, 0)

	go g.run()

	g.logger.Info("pass generator started",
		"passer", passer.String(),
		"numToOptimize", g.cfg.NumToOptimize,
		"numToKeep", g.cfg.NumToKeep,
	)
	return g, nil
}

// ID returns the identifier used to correlate this generator's logs.
func (g *PassGenerator) ID() uuid.UUID {
	return g.id
}

// Config returns the configuration the generator was built with.
func (g *PassGenerator) Config() Config {
	return g.cfg
}

// SetWorld replaces the world used from the next iteration on. The
// generator keeps its own copy of w.
func (g *PassGenerator) SetWorld(w world.World) error {
	if g.closing.load() {
		return ErrClosed
	}
	if err := w.Validate(); err != nil {
		return err
	}
	g.pendingWorld.store(w.Clone())
	return nil
}

// SetPasserPoint moves the passer. Existing candidates keep their receiver,
// speed and start time, and pass from the new point from the next iteration.
func (g *PassGenerator) SetPasserPoint(p geom.Point) error {
	if g.closing.load() {
		return ErrClosed
	}
	if !p.IsFinite() {
		return fmt.Errorf("%w: %v", ErrInvalidPasserPoint, p)
	}
	g.passerPoint.store(p)
	return nil
}

// SetPasserRobotID excludes the robot id from being rated as a receiver.
func (g *PassGenerator) SetPasserRobotID(id uint) error {
	return g.setExclusion(ExcludeRobot{ID: id})
}

// ClearPasserRobotID removes the receiver exclusion.
func (g *PassGenerator) ClearPasserRobotID() error {
	return g.setExclusion(NoExclusion{})
}

func (g *PassGenerator) setExclusion(e PasserExclusion) error {
	if g.closing.load() {
		return ErrClosed
	}
	g.exclusion.store(e)
	return nil
}

// SetTargetRegion constrains receiver points to region, or removes the
// constraint for AnyRegion (or nil). Changing the region discards the
// population and the best pass so far at the start of the next iteration.
func (g *PassGenerator) SetTargetRegion(region TargetRegion) error {
	if g.closing.load() {
		return ErrClosed
	}
	region = normalizeRegion(region)
	if r, ok := region.(WithinRegion); ok && (!r.Rect.Min().IsFinite() || !r.Rect.Max().IsFinite()) {
		return fmt.Errorf("%w: %v", ErrInvalidRegion, r.Rect)
	}
	g.target.store(region)
	return nil
}

// BestPassSoFar returns the best pass seen since construction, or since the
// target region last changed, and its score. Shortly after either the score
// may be low or zero, which is not an error.
func (g *PassGenerator) BestPassSoFar() (Pass, float64, error) {
	if g.closing.load() {
		return Pass{}, 0, ErrClosed
	}
	best := g.best.load()
	return best.Pass, best.Score, nil
}

// Population returns a copy of the population as of the last iteration,
// best first.
func (g *PassGenerator) Population() ([]ScoredPass, error) {
	if g.closing.load() {
		return nil, ErrClosed
	}
	return slices.Clone(g.population.load()), nil
}

// Stats returns the progress as of the last iteration. It returns ErrClosed
// once Close has been called.
func (g *PassGenerator) Stats() (Stats, error) {
	if g.closing.load() {
		return Stats{}, ErrClosed
	}
	return g.stats.load(), nil
}

// Close stops the worker and waits for it to exit. Every later call,
// including a second Close, returns ErrClosed.
func (g *PassGenerator) Close() error {
	if id := goroutineid.Get(); id != 0 && id == g.workerID.Load() {
		return ErrCloseFromWorker
	}
	if g.closing.swap(true) {
		return ErrClosed
	}
	close(g.stop)
	<-g.done
	g.logger.Info("pass generator stopped", "iterations", g.stats.load().Iterations)
	return nil
}

func (g *PassGenerator) run() {
	defer close(g.done)
	g.workerID.Store(goroutineid.Get())
	for {
		started := time.Now()
		stats := g.iterate(started)
		if g.hook != nil {
			g.hook(stats)
		}
		if g.closing.load() {
			return
		}
		if wait := g.cfg.IterationPeriod - time.Since(started); wait > 0 {
			select {
			case <-g.stop:
				return
			case <-time.After(wait):
			}
		}
	}
}

// iterate runs one full iteration: refresh inputs, optimize, prune and
// replace, save the best pass.
func (g *PassGenerator) iterate(started time.Time) Stats {
	space := newSearchSpace(g.cfg, g.rater,
		g.pendingWorld.load(),
		g.passerPoint.load(),
		g.target.load(),
		g.exclusion.load(),
	)

	if space.target != g.activeTarget {
		g.activeTarget = space.target
		g.best.store(ScoredPass{Pass: Pass{PasserPoint: space.passer, StartTime: space.world.Timestamp()}})
		g.candidates = space.fill(g.candidates[:0], g.cfg.NumToOptimize, g.rng)
		g.logger.Debug("target region changed, population reset", "region", fmt.Sprintf("%v", space.target))
	}

	for i, c := range g.candidates {
		res := g.optimizer.Step(space.objective, c.params[:], space.bounds)
		copy(g.candidates[i].params[:], res.Params)
		g.candidates[i].score = res.Score
	}

	g.candidates = space.fill(prune(g.candidates, g.cfg.NumToKeep, g.tolerance), g.cfg.NumToOptimize, g.rng)
	// samples appended by fill may beat the survivors
	slices.SortFunc(g.candidates, compareCandidates)

	if top := g.candidates[0]; top.score > g.best.load().Score {
		g.best.store(space.scored(top))
	}

	g.iterations++
	return g.publish(space, time.Since(started))
}

func (g *PassGenerator) publish(space searchSpace, took time.Duration) Stats {
	population := make([]ScoredPass, len(g.candidates))
	for i, c := range g.candidates {
		population[i] = space.scored(c)
	}
	g.population.store(population)
	stats := Stats{
		Iterations:     g.iterations,
		PopulationSize: len(population),
		BestScore:      g.best.load().Score,
		LastIteration:  took,
	}
	g.stats.store(stats)
	if g.iterations != 0 {
		g.logger.Debug("iteration complete",
			"iteration", stats.Iterations,
			"bestScore", stats.BestScore,
			"took", took,
		)
	}
	return stats
}
