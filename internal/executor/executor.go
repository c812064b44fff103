// Package executor drives tactics at a fixed control rate and forwards the
// intents they yield to a dispatcher.
//
// Each assigned tactic gets its own go-behaviortree ticker, ticking a
// sequence that first pushes the latest world and robot state into the
// tactic, then resumes it once. All tickers belong to one bt.Manager, so a
// single Stop tears everything down.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/passgen/internal/intent"
	"github.com/joeycumines/passgen/internal/tactic"
	"github.com/joeycumines/passgen/internal/world"
)

// DefaultTickInterval is the control tick used when none is configured.
const DefaultTickInterval = 16 * time.Millisecond

var (
	// ErrStopped is returned when assigning to a stopped executor.
	ErrStopped = errors.New("executor stopped")
	// ErrNoRobotAvailable is returned by Assign when every friendly robot in
	// the current world already runs a tactic.
	ErrNoRobotAvailable = errors.New("no robot available")
	// ErrInvalidTickInterval is returned by New for a non-positive interval.
	ErrInvalidTickInterval = errors.New("invalid tick interval")
)

// Dispatcher forwards an intent to its robot.
type Dispatcher interface {
	Dispatch(ctx context.Context, i intent.Intent) error
}

// DispatcherFunc adapts a function to a Dispatcher.
type DispatcherFunc func(ctx context.Context, i intent.Intent) error

func (f DispatcherFunc) Dispatch(ctx context.Context, i intent.Intent) error {
	return f(ctx, i)
}

// stepReporter is implemented by tactics that expose the pass behind their
// latest intent.
type stepReporter interface {
	LastStep() tactic.Step
}

// Option configures an Executor.
type Option func(*Executor)

// WithTickInterval sets the control tick.
func WithTickInterval(d time.Duration) Option {
	return func(e *Executor) { e.interval = d }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// Executor runs tactics. It owns every tactic assigned to it, closing them
// when it stops.
type Executor struct {
	id         uuid.UUID
	ctx        context.Context
	cancel     context.CancelFunc
	dispatcher Dispatcher
	interval   time.Duration
	logger     *slog.Logger
	blackboard *Blackboard
	manager    bt.Manager

	world   atomic.Pointer[world.World]
	failure atomic.Pointer[error]

	mu       sync.Mutex
	assigned map[uint]tactic.Tactic
	stopping bool

	stopOnce sync.Once
	stopErr  error
	done     chan struct{}
}

// New returns an executor dispatching to dispatcher. It runs until ctx is
// cancelled or Stop is called.
func New(ctx context.Context, dispatcher Dispatcher, opts ...Option) (*Executor, error) {
	e := &Executor{
		id:         uuid.New(),
		dispatcher: dispatcher,
		interval:   DefaultTickInterval,
		logger:     slog.Default(),
		blackboard: new(Blackboard),
		manager:    bt.NewManager(),
		assigned:   make(map[uint]tactic.Tactic),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.interval <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTickInterval, e.interval)
	}
	e.logger = e.logger.With("executor", e.id.String())
	e.ctx, e.cancel = context.WithCancel(ctx)
	e.world.Store(&world.World{})
	go func() {
		select {
		case <-e.ctx.Done():
			_ = e.Stop()
		case <-e.done:
		}
	}()
	return e, nil
}

// ID returns the identifier used to correlate this executor's logs.
func (e *Executor) ID() uuid.UUID {
	return e.id
}

// Blackboard returns the per-robot record of produced intents. A Dispatcher
// may read the entry for i.RobotID() to find the pass behind i.
func (e *Executor) Blackboard() *Blackboard {
	return e.blackboard
}

// UpdateWorld sets the world pushed into every tactic on its next tick.
func (e *Executor) UpdateWorld(w world.World) {
	w = w.Clone()
	e.world.Store(&w)
}

// Assign gives t the cheapest friendly robot, by t.CalculateRobotCost over
// the current world, that is not already running a tactic, and starts
// ticking it. Ties go to the lower robot id. The executor takes ownership of
// t, even on error.
func (e *Executor) Assign(t tactic.Tactic) (world.Robot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopping {
		_ = t.Close()
		return world.Robot{}, ErrStopped
	}

	w := *e.world.Load()
	var (
		best     world.Robot
		bestCost = math.Inf(1)
		found    bool
	)
	for _, r := range w.Friendly.Robots {
		if _, taken := e.assigned[r.ID]; taken {
			continue
		}
		cost := t.CalculateRobotCost(r, w)
		if !found || cost < bestCost || (cost == bestCost && r.ID < best.ID) {
			best, bestCost, found = r, cost, true
		}
	}
	if !found {
		_ = t.Close()
		return world.Robot{}, ErrNoRobotAvailable
	}

	t.UpdateWorld(w)
	t.UpdateRobot(best)
	node := bt.New(bt.Sequence,
		e.syncNode(t, best.ID),
		tactic.Node(t, e.sink(t, best.ID)),
	)
	ticker := bt.NewTicker(e.ctx, e.interval, node)
	if err := e.manager.Add(ticker); err != nil {
		ticker.Stop()
		_ = t.Close()
		return world.Robot{}, fmt.Errorf("executor: add ticker: %w", err)
	}
	e.assigned[best.ID] = t
	e.blackboard.Set(Entry{RobotID: best.ID, Tactic: t.Name(), Updated: time.Now()})
	e.logger.Info("tactic assigned", "tactic", t.Name(), "robot", best.ID, "cost", bestCost)
	return best, nil
}

// syncNode refreshes t from the latest world. It fails the tick, skipping
// the tactic, while the robot is missing from the world.
func (e *Executor) syncNode(t tactic.Tactic, id uint) bt.Node {
	return bt.New(func([]bt.Node) (bt.Status, error) {
		w := e.world.Load()
		robot, ok := w.Friendly.Robot(id)
		if !ok {
			return bt.Failure, nil
		}
		t.UpdateWorld(*w)
		t.UpdateRobot(robot)
		return bt.Success, nil
	})
}

func (e *Executor) sink(t tactic.Tactic, id uint) tactic.Sink {
	return func(i intent.Intent) error {
		e.blackboard.Update(id, func(entry *Entry) {
			entry.Tactic = t.Name()
			entry.Ticks++
			entry.Intent = i
			entry.Updated = time.Now()
			if r, ok := t.(stepReporter); ok {
				step := r.LastStep()
				entry.Pass, entry.Score, entry.HasPass = step.Pass, step.Score, step.Seq != 0
			}
		})
		if err := e.dispatcher.Dispatch(e.ctx, i); err != nil {
			err = fmt.Errorf("executor: dispatch to robot %d: %w", id, err)
			e.fail(err)
			return err
		}
		return nil
	}
}

// fail records the first fatal error and stops the executor. It is called
// from tickers, so the stop runs on its own goroutine.
func (e *Executor) fail(err error) {
	if e.failure.CompareAndSwap(nil, &err) {
		e.logger.Error("executor failed", "error", err)
		go func() { _ = e.Stop() }()
	}
}

// Stop cancels every ticker, waits for them, then closes every tactic. It
// returns the errors from closing the tactics; later calls return the same.
func (e *Executor) Stop() error {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		e.stopping = true
		tactics := make([]tactic.Tactic, 0, len(e.assigned))
		for _, t := range e.assigned {
			tactics = append(tactics, t)
		}
		e.mu.Unlock()

		e.cancel()
		e.manager.Stop()
		<-e.manager.Done()

		var errs []error
		for _, t := range tactics {
			if err := t.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", t.Name(), err))
			}
		}
		e.stopErr = errors.Join(errs...)
		e.logger.Info("executor stopped", "tactics", len(tactics))
		close(e.done)
	})
	<-e.done
	return e.stopErr
}

// Done is closed once the executor has stopped.
func (e *Executor) Done() <-chan struct{} {
	return e.done
}

// Err returns the error that stopped the executor, if any.
func (e *Executor) Err() error {
	if err := e.failure.Load(); err != nil {
		return *err
	}
	select {
	case <-e.done:
		return e.stopErr
	default:
		return nil
	}
}
