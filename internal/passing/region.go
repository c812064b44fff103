package passing

import (
	"github.com/joeycumines/passgen/internal/geom"
	"github.com/joeycumines/passgen/internal/world"
)

// TargetRegion constrains where receivers may be placed. It is either
// AnyRegion or WithinRegion; the interface is sealed.
type TargetRegion interface {
	isTargetRegion()
}

// AnyRegion places no constraint on the receiver point.
type AnyRegion struct{}

// WithinRegion requires every receiver point to lie within Rect.
type WithinRegion struct {
	Rect geom.Rectangle
}

func (AnyRegion) isTargetRegion()    {}
func (WithinRegion) isTargetRegion() {}

// receiverArea returns the area receivers are sampled from and projected
// onto: the target region when one is set, the field otherwise.
func receiverArea(target TargetRegion, field world.Field) geom.Rectangle {
	switch t := target.(type) {
	case WithinRegion:
		return t.Rect
	case AnyRegion:
		return field.Lines()
	default:
		panic("passing: unknown target region type")
	}
}

// normalizeRegion maps a nil region to AnyRegion.
func normalizeRegion(target TargetRegion) TargetRegion {
	if target == nil {
		return AnyRegion{}
	}
	return target
}

// PasserExclusion identifies a robot that must not be treated as a receiver,
// namely the robot making the pass. It is either NoExclusion or ExcludeRobot;
// the interface is sealed.
type PasserExclusion interface {
	isPasserExclusion()
}

// NoExclusion considers every friendly robot a potential receiver.
type NoExclusion struct{}

// ExcludeRobot ignores the friendly robot with the given ID as a receiver.
type ExcludeRobot struct {
	ID uint
}

func (NoExclusion) isPasserExclusion()  {}
func (ExcludeRobot) isPasserExclusion() {}

// excludes reports whether the robot id is excluded as a receiver.
func excludes(exclusion PasserExclusion, id uint) bool {
	switch e := exclusion.(type) {
	case ExcludeRobot:
		return e.ID == id
	case NoExclusion, nil:
		return false
	default:
		panic("passing: unknown passer exclusion type")
	}
}
