// Package tactic turns the output of the pass generator into a stream of
// movement commands for a single robot.
//
// A Tactic is a step function: every call to Next is one resumption, and
// yields exactly one intent. Next must not be called concurrently on the
// same Tactic; the caller drives it, once per control tick, either directly,
// through the Intents iterator, or as a behaviour tree leaf via Node.
package tactic

import (
	"errors"
	"iter"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/joeycumines/passgen/internal/intent"
	"github.com/joeycumines/passgen/internal/world"
)

var (
	// ErrConcurrentResume is returned by Next when another call to Next on
	// the same tactic has not yet returned.
	ErrConcurrentResume = errors.New("tactic resumed concurrently")

	// ErrNoRobot is returned by Next before a robot has been assigned.
	ErrNoRobot = errors.New("tactic has no robot")
)

// Tactic is a per-robot cooperative procedure.
type Tactic interface {
	Name() string
	// CalculateRobotCost rates how well suited robot is to run the tactic in
	// w. Lower is better. It does not depend on the tactic's state.
	CalculateRobotCost(robot world.Robot, w world.World) float64
	// UpdateWorld sets the world the next step works from.
	UpdateWorld(w world.World)
	// UpdateRobot assigns, or refreshes the state of, the robot to control.
	UpdateRobot(robot world.Robot)
	// Next runs one step, returning the next intent. A nil intent with a nil
	// error means the tactic has finished.
	Next() (intent.Intent, error)
	// Close releases the resources held by the tactic.
	Close() error
}

// Intents returns the tactic as an unbounded sequence. Each pull resumes t
// once. Errors are yielded alongside a nil intent; the sequence only ends
// when the consumer stops pulling or t finishes.
func Intents(t Tactic) iter.Seq2[intent.Intent, error] {
	return func(yield func(intent.Intent, error) bool) {
		for {
			next, err := t.Next()
			if err == nil && next == nil {
				return
			}
			if !yield(next, err) {
				return
			}
		}
	}
}

// Sink receives each intent a tactic yields.
type Sink func(intent.Intent) error

// Node wraps t as a behaviour tree leaf. Each tick runs one step and hands
// the intent to sink, returning Running while the tactic continues and
// Success once it finishes. Having no robot is a Failure, any other error
// is returned to the ticker.
func Node(t Tactic, sink Sink) bt.Node {
	return bt.New(func(children []bt.Node) (bt.Status, error) {
		next, err := t.Next()
		switch {
		case errors.Is(err, ErrNoRobot):
			return bt.Failure, nil
		case err != nil:
			return bt.Failure, err
		case next == nil:
			return bt.Success, nil
		}
		if err := sink(next); err != nil {
			return bt.Failure, err
		}
		return bt.Running, nil
	})
}
