// Package geom provides the small set of planar value types used by the
// passing and tactic layers: points, angles, rectangles and segments.
//
// All types are plain values. None of them carry internal pointers, so they
// are safe to copy between goroutines without synchronization.
package geom

import (
	"fmt"
	"math"
)

// Point is a position (or displacement) on the field, in metres.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

func (p Point) Scale(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Dot returns the dot product of p and o, treating both as vectors.
func (p Point) Dot(o Point) float64 {
	return p.X*o.X + p.Y*o.Y
}

// Len returns the length of p treated as a vector.
func (p Point) Len() float64 {
	return math.Hypot(p.X, p.Y)
}

// Dist returns the euclidean distance between p and o.
func (p Point) Dist(o Point) float64 {
	return p.Sub(o).Len()
}

// Norm returns the unit vector in the direction of p, or the zero vector if
// p has zero length.
func (p Point) Norm() Point {
	l := p.Len()
	if l == 0 {
		return Point{}
	}
	return p.Scale(1 / l)
}

// Orientation returns the angle of p treated as a vector, measured from the
// positive x axis.
func (p Point) Orientation() Angle {
	return Angle(math.Atan2(p.Y, p.X))
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

func (p Point) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", p.X, p.Y)
}

// Angle is an angle in radians.
type Angle float64

// Zero is the zero angle.
const Zero Angle = 0

func FromRadians(r float64) Angle {
	return Angle(r)
}

func FromDegrees(d float64) Angle {
	return Angle(d * math.Pi / 180)
}

func (a Angle) Radians() float64 {
	return float64(a)
}

func (a Angle) Degrees() float64 {
	return float64(a) * 180 / math.Pi
}

// Clamp returns the equivalent angle in (-pi, pi].
func (a Angle) Clamp() Angle {
	r := math.Remainder(float64(a), 2*math.Pi)
	if r <= -math.Pi {
		r += 2 * math.Pi
	}
	return Angle(r)
}

// Unit returns the unit vector pointing in the direction of a.
func (a Angle) Unit() Point {
	return Point{X: math.Cos(float64(a)), Y: math.Sin(float64(a))}
}
