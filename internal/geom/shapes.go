package geom

import (
	"fmt"
	"math"
)

// Rectangle is an axis aligned rectangle. The zero value is a degenerate
// rectangle at the origin.
type Rectangle struct {
	min Point
	max Point
}

// NewRectangle returns the rectangle spanned by two opposite corners, given in
// any order.
func NewRectangle(a, b Point) Rectangle {
	return Rectangle{
		min: Point{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y)},
		max: Point{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y)},
	}
}

func (r Rectangle) Min() Point {
	return r.min
}

func (r Rectangle) Max() Point {
	return r.max
}

func (r Rectangle) Width() float64 {
	return r.max.X - r.min.X
}

func (r Rectangle) Height() float64 {
	return r.max.Y - r.min.Y
}

func (r Rectangle) Center() Point {
	return Point{X: (r.min.X + r.max.X) / 2, Y: (r.min.Y + r.max.Y) / 2}
}

// Contains reports whether p lies inside r, or within tolerance of its
// boundary.
func (r Rectangle) Contains(p Point, tolerance float64) bool {
	return p.X >= r.min.X-tolerance && p.X <= r.max.X+tolerance &&
		p.Y >= r.min.Y-tolerance && p.Y <= r.max.Y+tolerance
}

// Clamp returns the point of r closest to p.
func (r Rectangle) Clamp(p Point) Point {
	return Point{
		X: math.Min(math.Max(p.X, r.min.X), r.max.X),
		Y: math.Min(math.Max(p.Y, r.min.Y), r.max.Y),
	}
}

// Dist returns the distance from p to r, which is zero for points inside r.
func (r Rectangle) Dist(p Point) float64 {
	return p.Dist(r.Clamp(p))
}

func (r Rectangle) String() string {
	return fmt.Sprintf("[%v - %v]", r.min, r.max)
}

// Segment is the line segment between two points.
type Segment struct {
	Start Point
	End   Point
}

// ClosestPoint returns the point on s nearest to p.
func (s Segment) ClosestPoint(p Point) Point {
	d := s.End.Sub(s.Start)
	l2 := d.Dot(d)
	if l2 == 0 {
		return s.Start
	}
	t := p.Sub(s.Start).Dot(d) / l2
	t = math.Min(math.Max(t, 0), 1)
	return s.Start.Add(d.Scale(t))
}

// Dist returns the shortest distance from p to s.
func (s Segment) Dist(p Point) float64 {
	return p.Dist(s.ClosestPoint(p))
}

func (s Segment) Len() float64 {
	return s.Start.Dist(s.End)
}
