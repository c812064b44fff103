package tactic

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/passgen/internal/action"
	"github.com/joeycumines/passgen/internal/geom"
	"github.com/joeycumines/passgen/internal/intent"
	"github.com/joeycumines/passgen/internal/passing"
	"github.com/joeycumines/passgen/internal/world"
)

// Generator is the part of a passing.PassGenerator a CherryPick uses.
type Generator interface {
	SetWorld(w world.World) error
	SetPasserPoint(p geom.Point) error
	BestPassSoFar() (passing.Pass, float64, error)
	Close() error
}

var _ Generator = (*passing.PassGenerator)(nil)

// Step records the outcome of one CherryPick step.
type Step struct {
	// Seq counts steps from 1.
	Seq   uint64
	Pass  passing.Pass
	Score float64
	// WorldTime is the timestamp of the world pushed before the pass was read.
	WorldTime world.Timestamp
}

// CherryPick positions its robot in a target region, as the best receiver
// for the best pass the generator finds into that region.
type CherryPick struct {
	generator Generator
	region    geom.Rectangle
	move      *action.MoveAction
	logger    *slog.Logger

	resuming atomic.Bool

	mu       sync.Mutex
	world    world.World
	robot    world.Robot
	hasRobot bool
	last     Step
}

// NewCherryPick starts a pass generator for passes from the ball into region
// and returns the tactic that owns it. The tactic and its generator log to
// logger, or slog.Default if nil; opts further configure the generator.
func NewCherryPick(w world.World, region geom.Rectangle, logger *slog.Logger, opts ...passing.Option) (*CherryPick, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append([]passing.Option{passing.WithLogger(logger)}, opts...)
	g, err := passing.NewPassGenerator(w, w.Ball.Position, opts...)
	if err != nil {
		return nil, fmt.Errorf("cherry pick: %w", err)
	}
	if err := g.SetTargetRegion(passing.WithinRegion{Rect: region}); err != nil {
		_ = g.Close()
		return nil, fmt.Errorf("cherry pick: %w", err)
	}
	return newCherryPick(g, w, region, logger.With("tactic", "cherry_pick")), nil
}

func newCherryPick(g Generator, w world.World, region geom.Rectangle, logger *slog.Logger) *CherryPick {
	return &CherryPick{
		generator: g,
		region:    region,
		move:      action.NewMoveAction(action.RobotCloseToDestThreshold, true),
		logger:    logger,
		world:     w.Clone(),
	}
}

func (c *CherryPick) Name() string {
	return "Cherry Pick Tactic"
}

// CalculateRobotCost prefers robots closer to the target region.
func (c *CherryPick) CalculateRobotCost(robot world.Robot, _ world.World) float64 {
	return c.region.Dist(robot.Position)
}

func (c *CherryPick) UpdateWorld(w world.World) {
	w = w.Clone()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.world = w
}

func (c *CherryPick) UpdateRobot(robot world.Robot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.robot = robot
	c.hasRobot = true
}

// Region returns the target region.
func (c *CherryPick) Region() geom.Rectangle {
	return c.region
}

// LastStep returns the most recent step, with a zero Seq before the first.
func (c *CherryPick) LastStep() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Next pushes the latest world into the generator, passing from the ball,
// then reads the best pass so far and moves the robot to receive it.
func (c *CherryPick) Next() (intent.Intent, error) {
	if !c.resuming.CompareAndSwap(false, true) {
		return nil, ErrConcurrentResume
	}
	defer c.resuming.Store(false)

	c.mu.Lock()
	w, robot, ok, seq := c.world, c.robot, c.hasRobot, c.last.Seq
	c.mu.Unlock()
	if !ok {
		return nil, ErrNoRobot
	}

	if err := c.generator.SetWorld(w); err != nil {
		return nil, err
	}
	if err := c.generator.SetPasserPoint(w.Ball.Position); err != nil {
		return nil, err
	}
	pass, score, err := c.generator.BestPassSoFar()
	if err != nil {
		return nil, err
	}

	step := Step{Seq: seq + 1, Pass: pass, Score: score, WorldTime: w.Timestamp()}
	c.mu.Lock()
	c.last = step
	c.mu.Unlock()

	c.logger.Debug("cherry pick step",
		"robot", robot.ID,
		"seq", step.Seq,
		"receiver", pass.ReceiverPoint.String(),
		"score", score,
	)
	return c.move.UpdateStateAndGetNextIntent(robot, pass.ReceiverPoint, pass.ReceiverOrientation(), 0), nil
}

// Close stops the generator.
func (c *CherryPick) Close() error {
	return c.generator.Close()
}
