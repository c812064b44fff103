// Package scenario provides world fixtures for running and rating passes
// without a live game: a few built-in situations, and JSON files describing
// more.
package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/joeycumines/passgen/internal/geom"
	"github.com/joeycumines/passgen/internal/passing"
	"github.com/joeycumines/passgen/internal/world"
)

var (
	// ErrUnknownScenario is returned by Builtin for an unrecognised name.
	ErrUnknownScenario = errors.New("unknown scenario")
	// ErrInvalidScenario wraps every scenario validation failure.
	ErrInvalidScenario = errors.New("invalid scenario")
)

// Region is a rectangle as two opposite corners.
type Region struct {
	Min geom.Point `json:"min"`
	Max geom.Point `json:"max"`
}

// Rect returns the region as a rectangle.
func (r Region) Rect() geom.Rectangle {
	return geom.NewRectangle(r.Min, r.Max)
}

// Scenario is a world together with the passing problem posed in it.
type Scenario struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	World       world.World `json:"world"`
	// PasserRobotID, if set, is the robot making the pass.
	PasserRobotID *uint `json:"passerRobotId,omitempty"`
	// TargetRegion, if set, constrains the receiver.
	TargetRegion *Region `json:"targetRegion,omitempty"`
	// Pass is a pass to rate. Its passer point defaults to the ball.
	Pass *passing.Pass `json:"pass,omitempty"`
}

// Passer returns the point passes start from, which is the ball.
func (s Scenario) Passer() geom.Point {
	return s.World.Ball.Position
}

// Region returns the target region as a TargetRegion.
func (s Scenario) Region() passing.TargetRegion {
	if s.TargetRegion == nil {
		return passing.AnyRegion{}
	}
	return passing.WithinRegion{Rect: s.TargetRegion.Rect()}
}

// Exclusion returns the passer exclusion.
func (s Scenario) Exclusion() passing.PasserExclusion {
	if s.PasserRobotID == nil {
		return passing.NoExclusion{}
	}
	return passing.ExcludeRobot{ID: *s.PasserRobotID}
}

// Validate checks the world and every optional part that is set.
func (s Scenario) Validate() error {
	if err := s.World.Validate(); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidScenario, s.Name, err)
	}
	if r := s.TargetRegion; r != nil && (!r.Min.IsFinite() || !r.Max.IsFinite()) {
		return fmt.Errorf("%w %q: target region %v is not finite", ErrInvalidScenario, s.Name, *r)
	}
	if id := s.PasserRobotID; id != nil {
		if _, ok := s.World.Friendly.Robot(*id); !ok {
			return fmt.Errorf("%w %q: passer robot %d is not on the friendly team", ErrInvalidScenario, s.Name, *id)
		}
	}
	if p := s.Pass; p != nil && (!p.ReceiverPoint.IsFinite() || !(p.Speed > 0)) {
		return fmt.Errorf("%w %q: pass %v", ErrInvalidScenario, s.Name, *p)
	}
	return nil
}

// RatedPass returns the scenario's pass with its passer point filled in.
func (s Scenario) RatedPass() (passing.Pass, bool) {
	if s.Pass == nil {
		return passing.Pass{}, false
	}
	p := *s.Pass
	if p.PasserPoint == (geom.Point{}) {
		p.PasserPoint = s.Passer()
	}
	return p, true
}

// Load decodes and validates a JSON scenario. Unknown fields are rejected.
func Load(r io.Reader) (Scenario, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var s Scenario
	if err := dec.Decode(&s); err != nil {
		return Scenario{}, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}
	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

// LoadFile loads the JSON scenario at path.
func LoadFile(path string) (Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return Scenario{}, err
	}
	defer f.Close()
	return Load(f)
}

// Resolve returns the built-in scenario called nameOrPath, or else loads
// nameOrPath as a file.
func Resolve(nameOrPath string) (Scenario, error) {
	if s, err := Builtin(nameOrPath); err == nil {
		return s, nil
	}
	s, err := LoadFile(nameOrPath)
	if errors.Is(err, os.ErrNotExist) {
		return Scenario{}, fmt.Errorf("%w: %q is neither a built-in scenario nor a file", ErrUnknownScenario, nameOrPath)
	}
	return s, err
}

// Names returns the names of the built-in scenarios, sorted.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Builtin returns a fresh copy of the named built-in scenario.
func Builtin(name string) (Scenario, error) {
	build, ok := builtins[name]
	if !ok {
		return Scenario{}, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	return build(), nil
}

var builtins = map[string]func() Scenario{
	"open-field":   openField,
	"blocked-lane": blockedLane,
	"crowded":      crowded,
}

// passerID is the robot standing on the ball in every built-in scenario.
const passerID uint = 1

func baseScenario(name, description string, enemies ...world.Robot) Scenario {
	id := passerID
	return Scenario{
		Name:        name,
		Description: description,
		World: world.World{
			Field: world.DivisionB,
			Ball:  world.Ball{Position: geom.Pt(-1, 0)},
			Friendly: world.NewTeam(
				world.Robot{ID: passerID, Position: geom.Pt(-1.1, 0)},
				world.Robot{ID: 2, Position: geom.Pt(2, 1)},
				world.Robot{ID: 3, Position: geom.Pt(1, -2)},
			),
			Enemy: world.NewTeam(enemies...),
		},
		PasserRobotID: &id,
		TargetRegion:  &Region{Min: geom.Pt(1, 0), Max: geom.Pt(3, 2)},
		Pass: &passing.Pass{
			ReceiverPoint: geom.Pt(2, 1),
			Speed:         3,
			StartTime:     world.Timestamp(500 * time.Millisecond),
		},
	}
}

func openField() Scenario {
	return baseScenario("open-field",
		"receiver at (2, 1) with the passing lane clear",
		world.Robot{ID: 7, Position: geom.Pt(-3, 2.5)},
		world.Robot{ID: 8, Position: geom.Pt(3.5, -2.5)},
	)
}

func blockedLane() Scenario {
	return baseScenario("blocked-lane",
		"receiver at (2, 1) with an enemy standing in the passing lane",
		world.Robot{ID: 7, Position: geom.Pt(0.5, 0.5)},
		world.Robot{ID: 8, Position: geom.Pt(3.5, -2.5)},
	)
}

func crowded() Scenario {
	return baseScenario("crowded",
		"a full enemy team spread over the target half",
		world.Robot{ID: 6, Position: geom.Pt(0, 1.5)},
		world.Robot{ID: 7, Position: geom.Pt(0.5, 0.5)},
		world.Robot{ID: 8, Position: geom.Pt(1.5, -1)},
		world.Robot{ID: 9, Position: geom.Pt(2.5, 2)},
		world.Robot{ID: 10, Position: geom.Pt(3, 0)},
		world.Robot{ID: 11, Position: geom.Pt(4, 1)},
	)
}
