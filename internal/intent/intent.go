// Package intent defines the commands a tactic hands to the executor: what
// a robot should do, not how it will do it.
package intent

import (
	"errors"
	"fmt"
	"slices"

	"github.com/joeycumines/passgen/internal/geom"
)

// MaxPriority is the highest valid intent priority.
const MaxPriority = 100

// ErrInvalidPriority is returned for a priority above MaxPriority.
var ErrInvalidPriority = errors.New("invalid intent priority")

// AvoidArea is a region of the field the navigator keeps a robot out of.
type AvoidArea int

const (
	FriendlyDefenseArea AvoidArea = iota
	EnemyDefenseArea
	InflatedEnemyDefenseArea
	CenterCircle
	HalfMetreAroundBall
	EnemyHalf
	FriendlyHalf
)

var avoidAreaNames = [...]string{
	FriendlyDefenseArea:      "friendly-defense-area",
	EnemyDefenseArea:         "enemy-defense-area",
	InflatedEnemyDefenseArea: "inflated-enemy-defense-area",
	CenterCircle:             "center-circle",
	HalfMetreAroundBall:      "half-metre-around-ball",
	EnemyHalf:                "enemy-half",
	FriendlyHalf:             "friendly-half",
}

func (a AvoidArea) String() string {
	if a >= 0 && int(a) < len(avoidAreaNames) {
		return avoidAreaNames[a]
	}
	return fmt.Sprintf("AvoidArea(%d)", int(a))
}

// Intent is a single command for one robot.
type Intent interface {
	Name() string
	RobotID() uint
	// Priority is in [0, MaxPriority]; larger is more important.
	Priority() uint
	SetPriority(priority uint) error
	AreasToAvoid() []AvoidArea
	SetAreasToAvoid(areas []AvoidArea)
}

// base holds the state common to every intent.
type base struct {
	robotID  uint
	priority uint
	avoid    []AvoidArea
}

func newBase(robotID, priority uint) (base, error) {
	b := base{robotID: robotID}
	if err := b.SetPriority(priority); err != nil {
		return base{}, err
	}
	return b, nil
}

func (b *base) RobotID() uint  { return b.robotID }
func (b *base) Priority() uint { return b.priority }

// SetPriority rejects, rather than clamps, a priority above MaxPriority.
func (b *base) SetPriority(priority uint) error {
	if priority > MaxPriority {
		return fmt.Errorf("%w: %d is above %d", ErrInvalidPriority, priority, MaxPriority)
	}
	b.priority = priority
	return nil
}

func (b *base) AreasToAvoid() []AvoidArea {
	return slices.Clone(b.avoid)
}

func (b *base) SetAreasToAvoid(areas []AvoidArea) {
	b.avoid = slices.Clone(areas)
}

func (b *base) equal(o *base) bool {
	return b.robotID == o.robotID && b.priority == o.priority && slices.Equal(b.avoid, o.avoid)
}

// MoveIntent drives a robot to Destination, arriving facing FinalAngle at
// FinalSpeed.
type MoveIntent struct {
	base
	Destination geom.Point
	FinalAngle  geom.Angle
	FinalSpeed  float64
}

// NewMoveIntent returns a move intent, failing if priority is out of range.
func NewMoveIntent(robotID uint, destination geom.Point, finalAngle geom.Angle, finalSpeed float64, priority uint) (*MoveIntent, error) {
	b, err := newBase(robotID, priority)
	if err != nil {
		return nil, err
	}
	return &MoveIntent{
		base:        b,
		Destination: destination,
		FinalAngle:  finalAngle,
		FinalSpeed:  finalSpeed,
	}, nil
}

func (m *MoveIntent) Name() string {
	return "Move Intent"
}

// Equal reports whether o is a MoveIntent with identical fields.
func (m *MoveIntent) Equal(o Intent) bool {
	other, ok := o.(*MoveIntent)
	if !ok {
		return false
	}
	if m == nil || other == nil {
		return m == other
	}
	return m.base.equal(&other.base) &&
		m.Destination == other.Destination &&
		m.FinalAngle == other.FinalAngle &&
		m.FinalSpeed == other.FinalSpeed
}

func (m *MoveIntent) String() string {
	return fmt.Sprintf("%s{robot=%d dest=%v angle=%.1fdeg speed=%.2f priority=%d}",
		m.Name(), m.robotID, m.Destination, m.FinalAngle.Degrees(), m.FinalSpeed, m.priority)
}

// StopIntent brings a robot to rest, optionally coasting.
type StopIntent struct {
	base
	Coast bool
}

// NewStopIntent returns a stop intent, failing if priority is out of range.
func NewStopIntent(robotID uint, coast bool, priority uint) (*StopIntent, error) {
	b, err := newBase(robotID, priority)
	if err != nil {
		return nil, err
	}
	return &StopIntent{base: b, Coast: coast}, nil
}

func (s *StopIntent) Name() string {
	return "Stop Intent"
}

func (s *StopIntent) String() string {
	return fmt.Sprintf("%s{robot=%d coast=%t priority=%d}", s.Name(), s.robotID, s.Coast, s.priority)
}
