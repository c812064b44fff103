package passing

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/joeycumines/passgen/internal/geom"
	"github.com/joeycumines/passgen/internal/optimize"
	"github.com/joeycumines/passgen/internal/world"
)

// candidate is a member of the population, kept in parameter form.
type candidate struct {
	params [numParams]float64
	score  float64
}

// compareCandidates orders by score, best first, breaking ties
// lexicographically on the parameter vector so the order is total.
func compareCandidates(a, b candidate) int {
	if c := cmp.Compare(b.score, a.score); c != 0 {
		return c
	}
	return slices.Compare(a.params[:], b.params[:])
}

// duplicates reports whether a and b are within tolerance of each other in
// every dimension.
func duplicates(a, b candidate, tolerance [numParams]float64) bool {
	for i := range numParams {
		if math.Abs(a.params[i]-b.params[i]) > tolerance[i] {
			return false
		}
	}
	return true
}

// prune sorts the population and returns at most keep distinct candidates.
// Of each pair of duplicates only the better one survives.
func prune(population []candidate, keep int, tolerance [numParams]float64) []candidate {
	slices.SortFunc(population, compareCandidates)
	kept := make([]candidate, 0, keep)
	for _, c := range population {
		if len(kept) == keep {
			break
		}
		if slices.ContainsFunc(kept, func(k candidate) bool { return duplicates(k, c, tolerance) }) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// searchSpace is everything an iteration needs to score, optimize and sample
// candidates against one consistent world.
type searchSpace struct {
	world     world.World
	passer    geom.Point
	target    TargetRegion
	exclusion PasserExclusion
	rater     *Rater
	bounds    []optimize.Bounds
	// earliest and latest bound the start time of fresh samples, in seconds.
	earliest, latest float64
}

func newSearchSpace(cfg Config, rater *Rater, w world.World, passer geom.Point, target TargetRegion, exclusion PasserExclusion) searchSpace {
	area := receiverArea(target, w.Field)
	now := w.Timestamp()
	return searchSpace{
		world:     w,
		passer:    passer,
		target:    target,
		exclusion: exclusion,
		rater:     rater,
		bounds: []optimize.Bounds{
			{Min: area.Min().X, Max: area.Max().X},
			{Min: area.Min().Y, Max: area.Max().Y},
			{Min: cfg.MinSpeed, Max: cfg.MaxSpeed},
			{Min: now.Seconds(), Max: now.Add(cfg.MaxStartDelay).Seconds()},
		},
		earliest: now.Add(cfg.MinStartDelay).Seconds(),
		latest:   now.Add(cfg.MaxStartDelay).Seconds(),
	}
}

func (s searchSpace) objective(x []float64) float64 {
	return s.rater.Rate(passFromParams(s.passer, x), s.world, s.target, s.exclusion)
}

// sample draws a fresh candidate: receiver uniform over the search area,
// speed and start time uniform over their operating ranges.
func (s searchSpace) sample(rng *rand.Rand) candidate {
	var c candidate
	for i, b := range s.bounds[:3] {
		c.params[i] = b.Min + rng.Float64()*(b.Max-b.Min)
	}
	c.params[3] = s.earliest + rng.Float64()*(s.latest-s.earliest)
	c.score = s.objective(c.params[:])
	return c
}

// fill tops population up to n with fresh samples.
func (s searchSpace) fill(population []candidate, n int, rng *rand.Rand) []candidate {
	for len(population) < n {
		population = append(population, s.sample(rng))
	}
	return population
}

func (s searchSpace) scored(c candidate) ScoredPass {
	return ScoredPass{Pass: passFromParams(s.passer, c.params[:]), Score: c.score}
}
