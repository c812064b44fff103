// Package optimize implements the local search primitive used to refine
// candidate passes: a single bounded, weight-scaled gradient ascent step.
//
// The optimizer is deliberately stateless between calls. A caller keeping a
// population of candidates runs one Step per candidate per iteration, and a
// step that cannot find an improvement simply hands the input back.
package optimize

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidWeights is returned by New when the step weights are unusable.
var ErrInvalidWeights = errors.New("invalid optimizer weights")

// Objective scores a parameter vector. Larger is better. NaN results are
// treated as the worst possible score.
type Objective func(params []float64) float64

// Bounds limits a single parameter to [Min, Max].
type Bounds struct {
	Min, Max float64
}

// Clamp returns v limited to b.
func (b Bounds) Clamp(v float64) float64 {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

// Result is the outcome of a single Step.
type Result struct {
	// Params is the new parameter vector. It is a fresh slice.
	Params []float64
	// Score is the objective value at Params.
	Score float64
	// Improved reports whether Params scores strictly better than the input.
	Improved bool
}

const (
	// probeScale sets the finite difference probe, relative to each weight.
	probeScale = 0.01
	// maxBacktracks bounds how many times a step is halved before giving up.
	maxBacktracks = 4
)

// GradientAscent performs one step of normalized gradient ascent per call.
//
// Each weight is, very roughly, the largest distance the step may move the
// corresponding parameter. Weights exist because the parameters are in
// incommensurate units: without them the dimension with the largest numeric
// range dominates the gradient.
type GradientAscent struct {
	weights []float64
}

// New returns an optimizer for len(weights) parameters.
func New(weights ...float64) (*GradientAscent, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: no weights", ErrInvalidWeights)
	}
	for i, w := range weights {
		if !(w > 0) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: weight %d is %v", ErrInvalidWeights, i, w)
		}
	}
	return &GradientAscent{weights: append([]float64(nil), weights...)}, nil
}

// Dim returns the number of parameters the optimizer works on.
func (g *GradientAscent) Dim() int {
	return len(g.weights)
}

// Weights returns a copy of the per-dimension step weights.
func (g *GradientAscent) Weights() []float64 {
	return append([]float64(nil), g.weights...)
}

// Step runs a single ascent step from params. bounds may be nil, otherwise it
// must have one entry per dimension and every evaluated point (including the
// result) is projected into it. Step panics if the dimensions do not match,
// which is a programming error.
func (g *GradientAscent) Step(objective Objective, params []float64, bounds []Bounds) Result {
	n := len(g.weights)
	if len(params) != n || (bounds != nil && len(bounds) != n) {
		panic(fmt.Sprintf("optimize: dimension mismatch: weights=%d params=%d bounds=%d", n, len(params), len(bounds)))
	}

	eval := func(x []float64) float64 {
		v := objective(x)
		if math.IsNaN(v) {
			return math.Inf(-1)
		}
		return v
	}
	project := func(x []float64) {
		if bounds == nil {
			return
		}
		for i := range x {
			x[i] = bounds[i].Clamp(x[i])
		}
	}

	x0 := append([]float64(nil), params...)
	project(x0)
	f0 := eval(x0)

	// weight-scaled central difference gradient
	scaled := make([]float64, n)
	probe := make([]float64, n)
	var norm float64
	for i, w := range g.weights {
		h := w * probeScale

		copy(probe, x0)
		probe[i] += h
		project(probe)
		hi, fHi := probe[i], eval(probe)

		copy(probe, x0)
		probe[i] -= h
		project(probe)
		lo, fLo := probe[i], eval(probe)

		if hi == lo || math.IsInf(fHi, 0) || math.IsInf(fLo, 0) {
			continue
		}
		scaled[i] = w * (fHi - fLo) / (hi - lo)
		norm += scaled[i] * scaled[i]
	}
	norm = math.Sqrt(norm)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return Result{Params: x0, Score: f0}
	}

	next := make([]float64, n)
	alpha := 1.0
	for range maxBacktracks + 1 {
		for i, w := range g.weights {
			next[i] = x0[i] + alpha*w*scaled[i]/norm
		}
		project(next)
		if f := eval(next); f > f0 {
			return Result{Params: next, Score: f, Improved: true}
		}
		alpha /= 2
	}
	return Result{Params: x0, Score: f0}
}
