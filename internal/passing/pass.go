package passing

import (
	"fmt"
	"math"
	"time"

	"github.com/joeycumines/passgen/internal/geom"
	"github.com/joeycumines/passgen/internal/world"
)

// numParams is the number of pass parameters the generator optimizes:
// receiver x, receiver y, speed and start time.
const numParams = 4

// Pass is a candidate play: kick the ball from PasserPoint towards
// ReceiverPoint at Speed, starting at StartTime.
//
// Pass is an immutable value. The generator never mutates a Pass in place;
// every optimization step produces a new one.
type Pass struct {
	PasserPoint   geom.Point      `json:"passerPoint"`
	ReceiverPoint geom.Point      `json:"receiverPoint"`
	Speed         float64         `json:"speed"`
	StartTime     world.Timestamp `json:"startTime"`
}

// ScoredPass pairs a pass with its quality in [0, 1].
type ScoredPass struct {
	Pass  Pass    `json:"pass"`
	Score float64 `json:"score"`
}

// Length returns the distance the ball travels.
func (p Pass) Length() float64 {
	return p.PasserPoint.Dist(p.ReceiverPoint)
}

// FlightTime returns how long the ball takes to reach the receiver, ignoring
// friction. A pass that never arrives, or whose flight does not fit in a
// time.Duration, reports math.MaxInt64.
func (p Pass) FlightTime() time.Duration {
	if !(p.Speed > 0) {
		return time.Duration(math.MaxInt64)
	}
	ns := p.Length() / p.Speed * float64(time.Second)
	if !(ns < math.MaxInt64) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}

// ReceiveTime returns the time at which the ball reaches the receiver,
// saturating at the end of the game clock.
func (p Pass) ReceiveTime() world.Timestamp {
	ft := p.FlightTime()
	if p.StartTime > 0 && ft > time.Duration(math.MaxInt64-int64(p.StartTime)) {
		return world.Timestamp(math.MaxInt64)
	}
	return p.StartTime.Add(ft)
}

// ReceiverOrientation is the orientation the receiver should face to meet the
// ball, which is towards the passer.
func (p Pass) ReceiverOrientation() geom.Angle {
	return p.PasserPoint.Sub(p.ReceiverPoint).Orientation()
}

// PasserOrientation is the orientation the passer should face to kick.
func (p Pass) PasserOrientation() geom.Angle {
	return p.ReceiverPoint.Sub(p.PasserPoint).Orientation()
}

func (p Pass) String() string {
	return fmt.Sprintf("Pass{%v -> %v, speed=%.2fm/s, start=%v}", p.PasserPoint, p.ReceiverPoint, p.Speed, p.StartTime)
}

// params encodes the optimized degrees of freedom of p.
func (p Pass) params() [numParams]float64 {
	return [numParams]float64{
		p.ReceiverPoint.X,
		p.ReceiverPoint.Y,
		p.Speed,
		p.StartTime.Seconds(),
	}
}

// passFromParams decodes a parameter vector, taking the passer point from
// the caller since it is not optimized.
func passFromParams(passer geom.Point, x []float64) Pass {
	return Pass{
		PasserPoint:   passer,
		ReceiverPoint: geom.Pt(x[0], x[1]),
		Speed:         x[2],
		StartTime:     world.FromSeconds(x[3]),
	}
}
