// Package action implements the low-level movement primitives tactics use to
// turn a target into intents.
package action

import (
	"github.com/joeycumines/passgen/internal/geom"
	"github.com/joeycumines/passgen/internal/intent"
	"github.com/joeycumines/passgen/internal/world"
)

// RobotCloseToDestThreshold is the default distance, in metres, at which a
// robot counts as having arrived.
const RobotCloseToDestThreshold = 0.02

// MoveAction moves a robot to a destination. Each call to
// UpdateStateAndGetNextIntent is one step: it always yields an intent the
// first time, then keeps yielding until the robot is within the threshold of
// the destination, unless the action loops forever.
type MoveAction struct {
	threshold   float64
	loopForever bool
	started     bool
	done        bool
}

// NewMoveAction returns a move action that finishes once the robot is within
// threshold metres of its destination, or never if loopForever is set.
func NewMoveAction(threshold float64, loopForever bool) *MoveAction {
	return &MoveAction{threshold: threshold, loopForever: loopForever}
}

// UpdateStateAndGetNextIntent returns the next intent for robot, or nil once
// the action is done.
func (a *MoveAction) UpdateStateAndGetNextIntent(robot world.Robot, destination geom.Point, finalOrientation geom.Angle, finalSpeed float64) intent.Intent {
	if a.done {
		return nil
	}
	if a.started && !a.loopForever && robot.Position.Dist(destination) <= a.threshold {
		a.done = true
		return nil
	}
	a.started = true
	m, err := intent.NewMoveIntent(robot.ID, destination, finalOrientation, finalSpeed, 0)
	if err != nil {
		// priority 0 is always in range
		panic(err)
	}
	return m
}

// Done reports whether the action has finished.
func (a *MoveAction) Done() bool {
	return a.done
}
