// Package world defines the immutable snapshot of the game state consumed by
// the passing and tactic layers.
//
// A World is a value. The only reference types it holds are the robot slices
// inside each Team, and Clone copies those, so a snapshot handed to another
// goroutine never aliases memory owned by the caller.
package world

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/joeycumines/passgen/internal/geom"
)

// ErrInvalidField is returned when a field is constructed with non-positive
// dimensions.
var ErrInvalidField = errors.New("invalid field dimensions")

// ErrNonFiniteState is returned when a ball or robot position or velocity is
// NaN or infinite.
var ErrNonFiniteState = errors.New("non-finite world state")

// Timestamp is a point in time on the shared game clock, expressed as the
// duration since the clock's epoch. Every timestamp in a snapshot, and every
// pass start time derived from one, uses this single time source.
type Timestamp time.Duration

// FromSeconds converts seconds since the game clock epoch to a Timestamp.
func FromSeconds(s float64) Timestamp {
	return Timestamp(s * float64(time.Second))
}

func (t Timestamp) Seconds() float64 {
	return time.Duration(t).Seconds()
}

func (t Timestamp) Add(d time.Duration) Timestamp {
	return t + Timestamp(d)
}

func (t Timestamp) Sub(o Timestamp) time.Duration {
	return time.Duration(t - o)
}

func (t Timestamp) String() string {
	return fmt.Sprintf("t+%.3fs", t.Seconds())
}

// Ball is the state of the ball.
type Ball struct {
	Position  geom.Point `json:"position"`
	Velocity  geom.Point `json:"velocity"`
	Timestamp Timestamp  `json:"timestamp"`
}

// Robot is the state of a single robot.
type Robot struct {
	ID          uint       `json:"id"`
	Position    geom.Point `json:"position"`
	Velocity    geom.Point `json:"velocity"`
	Orientation geom.Angle `json:"orientation"`
	Timestamp   Timestamp  `json:"timestamp"`
}

// Team is the set of robots on one side.
type Team struct {
	Robots []Robot `json:"robots"`
}

// NewTeam returns a team holding a copy of robots.
func NewTeam(robots ...Robot) Team {
	return Team{Robots: slices.Clone(robots)}
}

// Robot returns the robot with the given id.
func (t Team) Robot(id uint) (Robot, bool) {
	for _, r := range t.Robots {
		if r.ID == id {
			return r, true
		}
	}
	return Robot{}, false
}

// Len returns the number of robots on the team.
func (t Team) Len() int {
	return len(t.Robots)
}

// Clone returns a deep copy of t.
func (t Team) Clone() Team {
	return Team{Robots: slices.Clone(t.Robots)}
}

// Field describes the playing area. The field lines are centred on the
// origin, with the length along the x axis.
type Field struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
}

// NewField validates and returns a field of the given dimensions, in metres.
func NewField(length, width float64) (Field, error) {
	f := Field{Length: length, Width: width}
	if err := f.Validate(); err != nil {
		return Field{}, err
	}
	return f, nil
}

// Validate checks that both dimensions are positive.
func (f Field) Validate() error {
	if !(f.Length > 0) || !(f.Width > 0) {
		return fmt.Errorf("%w: length=%v width=%v", ErrInvalidField, f.Length, f.Width)
	}
	return nil
}

// Lines returns the rectangle enclosed by the field lines.
func (f Field) Lines() geom.Rectangle {
	return geom.NewRectangle(
		geom.Pt(-f.Length/2, -f.Width/2),
		geom.Pt(f.Length/2, f.Width/2),
	)
}

// Standard small size league fields.
var (
	DivisionA = Field{Length: 12, Width: 9}
	DivisionB = Field{Length: 9, Width: 6}
)

// World is a snapshot of everything the AI knows about the game.
type World struct {
	Field    Field `json:"field"`
	Ball     Ball  `json:"ball"`
	Friendly Team  `json:"friendly"`
	Enemy    Team  `json:"enemy"`
}

// Clone returns a deep copy of w.
func (w World) Clone() World {
	w.Friendly = w.Friendly.Clone()
	w.Enemy = w.Enemy.Clone()
	return w
}

// Timestamp returns the most recent timestamp found in the snapshot.
func (w World) Timestamp() Timestamp {
	ts := w.Ball.Timestamp
	for _, team := range [...]Team{w.Friendly, w.Enemy} {
		for _, r := range team.Robots {
			if r.Timestamp > ts {
				ts = r.Timestamp
			}
		}
	}
	return ts
}

// Validate checks the invariants of the snapshot that downstream consumers
// rely on.
func (w World) Validate() error {
	if err := w.Field.Validate(); err != nil {
		return err
	}
	if !w.Ball.Position.IsFinite() || !w.Ball.Velocity.IsFinite() {
		return fmt.Errorf("%w: ball %v %v", ErrNonFiniteState, w.Ball.Position, w.Ball.Velocity)
	}
	for _, team := range [...]struct {
		name string
		team Team
	}{{"friendly", w.Friendly}, {"enemy", w.Enemy}} {
		for _, r := range team.team.Robots {
			if !r.Position.IsFinite() || !r.Velocity.IsFinite() {
				return fmt.Errorf("%w: %s robot %d %v %v", ErrNonFiniteState, team.name, r.ID, r.Position, r.Velocity)
			}
		}
	}
	return nil
}
